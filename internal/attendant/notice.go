package attendant

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/egmcore/internal/types"
	"github.com/fadedpez/egmcore/pkg/entities"
	"github.com/fadedpez/egmcore/pkg/money"
)

// Embed colors
const (
	colorAttention = 0xE67E22
	colorAlarm     = 0xE74C3C
	colorInfo      = 0x3498DB
)

// ErrorEmoji maps error codes to appropriate emojis
var ErrorEmoji = map[types.ErrorCode]string{
	types.ErrInvalidState:        "⚠️",
	types.ErrRoundNotFound:       "🔍",
	types.ErrInvalidAction:       "❌",
	types.ErrInvalidArgument:     "❗",
	types.ErrInsufficientCredits: "🪙",
	types.ErrBankLocked:          "🔒",
	types.ErrConfiguration:       "🛠️",
	types.ErrTransactionActive:   "⏳",
	types.ErrTransactionFailed:   "💾",
	types.ErrDatabaseError:       "💾",
	types.ErrInternalError:       "💥",
	types.ErrNetworkError:        "🌐",
}

// notices are the events an attendant has to act on
var notices = map[entities.EventType]struct {
	title string
	color int
}{
	entities.EventHandpayPending:       {"🧾 Handpay required", colorAttention},
	entities.EventForcedCashOut:        {"💸 Forced cash-out", colorAlarm},
	entities.EventRoundRecoveryStarted: {"🔁 Round recovery started", colorInfo},
}

// Relevant reports whether event needs an attendant
func Relevant(event entities.RoundEvent) bool {
	_, ok := notices[event.Type]
	return ok
}

// NewNotice renders event as a Discord embed. It returns nil for events no
// attendant has to act on.
func NewNotice(event entities.RoundEvent, converter money.Converter) *discordgo.MessageEmbed {
	notice, ok := notices[event.Type]
	if !ok {
		return nil
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Game", Value: event.GameID, Inline: true},
		{Name: "Denomination", Value: fmt.Sprintf("%d", event.Denomination), Inline: true},
	}
	if event.Amount > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name: "Amount", Value: converter.Format(event.Amount), Inline: true,
		})
	}
	if event.Log != nil {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Round", Value: event.Log.RoundID})
	}
	if event.Reason != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Reason", Value: event.Reason})
	}

	embed := &discordgo.MessageEmbed{
		Title:  notice.title,
		Color:  notice.color,
		Fields: fields,
	}
	if !event.Timestamp.IsZero() {
		embed.Timestamp = event.Timestamp.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return embed
}

// NewErrorMessage renders a coordinator failure for the attendant channel
func NewErrorMessage(err error) string {
	var gameErr *types.GameError
	if types.As(err, &gameErr) {
		emoji := ErrorEmoji[gameErr.Code]
		if emoji == "" {
			emoji = "❌"
		}
		return fmt.Sprintf("%s %s", emoji, gameErr.Message)
	}
	return fmt.Sprintf("❌ An error occurred: %v", err)
}
