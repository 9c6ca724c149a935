package attendant

import (
	"context"

	"github.com/fadedpez/egmcore/internal/logging"
	"github.com/fadedpez/egmcore/pkg/entities"
	"github.com/fadedpez/egmcore/pkg/money"
)

// Relay posts events that need an attendant to a Discord channel
type Relay struct {
	session   Session
	channelID string
	converter money.Converter
	log       *logging.Logger
}

// NewRelay creates a relay posting to channelID
func NewRelay(session Session, channelID string, converter money.Converter, logger *logging.Logger) *Relay {
	if logger == nil {
		logger = logging.Default
	}
	return &Relay{
		session:   session,
		channelID: channelID,
		converter: converter,
		log:       logger.Named("attendant"),
	}
}

// Handle is a bus handler. Delivery failures are logged; the coordinator
// never waits on the attendant channel.
func (r *Relay) Handle(ctx context.Context, event entities.RoundEvent) {
	if event.Replay || !Relevant(event) {
		return
	}

	embed := NewNotice(event, r.converter)
	if _, err := r.session.ChannelMessageSendEmbed(r.channelID, embed); err != nil {
		r.log.Warn("Could not post %s to the attendant channel: %v", event.Type, err)
		return
	}
	r.log.Debug("Posted %s to the attendant channel", event.Type)
}

// ReportError posts a coordinator failure to the attendant channel
func (r *Relay) ReportError(err error) {
	if err == nil {
		return
	}
	if _, sendErr := r.session.ChannelMessageSend(r.channelID, NewErrorMessage(err)); sendErr != nil {
		r.log.Warn("Could not post error to the attendant channel: %v", sendErr)
	}
}
