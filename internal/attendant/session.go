package attendant

import (
	"github.com/bwmarrin/discordgo"
)

// Session defines the Discord operations the attendant relay needs
type Session interface {
	ChannelMessageSend(channelID string, content string) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error)

	// Session methods
	Open() error
	Close() error
}

// DiscordSession implements Session using discordgo.Session
type DiscordSession struct {
	*discordgo.Session
}

// NewSession creates a new DiscordSession
func NewSession(token string) (*DiscordSession, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	return &DiscordSession{Session: s}, nil
}

// Ensure DiscordSession implements Session
var _ Session = (*DiscordSession)(nil)

// ChannelMessageSend implements Session
func (s *DiscordSession) ChannelMessageSend(channelID string, content string) (*discordgo.Message, error) {
	return s.Session.ChannelMessageSend(channelID, content)
}

// ChannelMessageSendEmbed implements Session
func (s *DiscordSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	return s.Session.ChannelMessageSendEmbed(channelID, embed)
}

// Open implements Session
func (s *DiscordSession) Open() error {
	return s.Session.Open()
}

// Close implements Session
func (s *DiscordSession) Close() error {
	return s.Session.Close()
}
