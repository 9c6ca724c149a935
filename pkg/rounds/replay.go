package rounds

import (
	"context"
	"time"

	"github.com/fadedpez/egmcore/internal/logging"
	"github.com/fadedpez/egmcore/pkg/bus"
	"github.com/fadedpez/egmcore/pkg/entities"
	"github.com/fadedpez/egmcore/pkg/services/history"
)

// replaySequence is the presentation a replayed round is narrated with
var replaySequence = []entities.RoundAction{
	entities.ActionBegin,
	entities.ActionPending,
	entities.ActionCompleted,
	entities.ActionInvoked,
}

// replayHandler narrates a finished round from its archived log. It has no
// ledger, meter or runtime access.
type replayHandler struct {
	round  *entities.GameHistoryLog
	events Publisher
}

func (h *replayHandler) handle(_ context.Context, event *entities.GameRoundEvent) error {
	if event.State != entities.StatePresentation {
		return nil
	}

	var eventType entities.EventType
	switch event.Action {
	case entities.ActionBegin:
		eventType = entities.EventPresentationStarted
	case entities.ActionPending:
		eventType = entities.EventWinPendingStarted
	case entities.ActionCompleted:
		eventType = entities.EventPresentationEnded
	case entities.ActionInvoked:
		eventType = entities.EventReplayCompleted
	default:
		return unsupported(event)
	}

	h.events.Publish(entities.RoundEvent{
		Type:          eventType,
		GameID:        h.round.GameID,
		Denomination:  h.round.Denomination,
		WagerCategory: h.round.WagerCategory,
		Amount:        h.round.FinalWin(),
		Replay:        true,
		Log:           h.round.Clone(),
		Timestamp:     time.Now(),
	})
	return nil
}

// Replayer re-narrates archived rounds for review screens
type Replayer struct {
	history *history.Service
	log     *logging.Logger
}

// NewReplayer creates a replayer over the round archive
func NewReplayer(historyService *history.Service, logger *logging.Logger) *Replayer {
	if logger == nil {
		logger = logging.Default
	}
	return &Replayer{
		history: historyService,
		log:     logger.Named("replay"),
	}
}

// Replay returns the presentation events of an archived round, in order
func (r *Replayer) Replay(ctx context.Context, roundID string) ([]entities.RoundEvent, error) {
	round, err := r.history.Archived(ctx, roundID)
	if err != nil {
		return nil, err
	}

	recorder := bus.NewRecorder()
	session := &replayHandler{round: round, events: recorder}
	for _, action := range replaySequence {
		event := &entities.GameRoundEvent{
			State:    entities.StatePresentation,
			Action:   action,
			PlayMode: entities.PlayModeRecovery,
		}
		if err := session.handle(ctx, event); err != nil {
			return nil, err
		}
	}

	r.log.Debug("Replayed round %s", roundID)
	return recorder.Events(), nil
}
