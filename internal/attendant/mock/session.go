package mock

import (
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/mock"
)

// Session is a mock implementation of attendant.Session
type Session struct {
	mock.Mock
}

// ChannelMessageSend implements attendant.Session
func (s *Session) ChannelMessageSend(channelID string, content string) (*discordgo.Message, error) {
	args := s.Called(channelID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discordgo.Message), args.Error(1)
}

// ChannelMessageSendEmbed implements attendant.Session
func (s *Session) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error) {
	args := s.Called(channelID, embed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discordgo.Message), args.Error(1)
}

// Open implements attendant.Session
func (s *Session) Open() error {
	args := s.Called()
	return args.Error(0)
}

// Close implements attendant.Session
func (s *Session) Close() error {
	args := s.Called()
	return args.Error(0)
}
