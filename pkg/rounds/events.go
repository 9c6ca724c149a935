package rounds

import (
	"context"
	"time"

	"github.com/fadedpez/egmcore/pkg/entities"
)

// newEvent builds an outbound event. Identifiers come from log when there is
// one, otherwise from the active game.
func (b *base) newEvent(eventType entities.EventType, log *entities.GameHistoryLog) entities.RoundEvent {
	event := entities.RoundEvent{
		Type:      eventType,
		Log:       log,
		Timestamp: time.Now(),
	}
	if log != nil && log.GameID != "" {
		event.GameID = log.GameID
		event.Denomination = log.Denomination
		event.WagerCategory = log.WagerCategory
		return event
	}
	game, denom := b.c.Games.GetActiveGame()
	event.GameID = game.ID
	event.Denomination = denom.Value
	event.WagerCategory = game.WagerCategory
	return event
}

// publish sends an event once the enclosing transaction, if any, commits.
// A nil log means the in-progress log as of publication.
func (b *base) publish(ctx context.Context, eventType entities.EventType, log *entities.GameHistoryLog, opts ...func(*entities.RoundEvent)) {
	b.afterCommit(ctx, func(context.Context) {
		snapshot := log
		if snapshot == nil {
			snapshot = b.c.History.Current()
		}
		event := b.newEvent(eventType, snapshot)
		for _, opt := range opts {
			opt(&event)
		}
		b.c.Events.Publish(event)
	})
}

func withAmount(amount int64) func(*entities.RoundEvent) {
	return func(e *entities.RoundEvent) {
		e.Amount = amount
	}
}
