package rounds

import (
	"context"
	"testing"
	"time"

	"github.com/fadedpez/egmcore/internal/logging"
	"github.com/fadedpez/egmcore/pkg/entities"
	historyRepo "github.com/fadedpez/egmcore/pkg/repositories/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayNarratesArchivedRound(t *testing.T) {
	// Setup
	h, err := newHarness(nil, entities.Denomination{Value: 1})
	require.NoError(t, err)
	require.NoError(t, h.bank.Deposit(h.ctx, 1000))
	require.NoError(t, h.send(entities.StatePrimary, entities.ActionBegin, bet(100)))
	require.NoError(t, h.send(entities.StatePrimary, entities.ActionInvoked, win(250)))
	require.NoError(t, h.send(entities.StatePresentation, entities.ActionCompleted))
	require.NoError(t, h.send(entities.StatePresentation, entities.ActionInvoked))

	events := h.events.Events()
	roundID := events[len(events)-1].Log.RoundID
	replayer := NewReplayer(h.history, logging.NewNop())

	// Execute
	replayed, err := replayer.Replay(h.ctx, roundID)

	// Assert
	require.NoError(t, err)
	require.Len(t, replayed, 4)
	types := make([]entities.EventType, 0, len(replayed))
	for _, event := range replayed {
		types = append(types, event.Type)
		assert.True(t, event.Replay)
		assert.Equal(t, int64(250), event.Amount)
		assert.Equal(t, roundID, event.Log.RoundID)
	}
	assert.Equal(t, []entities.EventType{
		entities.EventPresentationStarted,
		entities.EventWinPendingStarted,
		entities.EventPresentationEnded,
		entities.EventReplayCompleted,
	}, types)
	assert.Equal(t, int64(1150), h.credits(), "a replay never touches the ledger")
	assert.Equal(t, int64(250), h.meter(entities.MeterEgmPaidGameWon))
}

func TestReplayUnknownRound(t *testing.T) {
	h, err := newHarness(nil, entities.Denomination{Value: 1})
	require.NoError(t, err)

	_, err = NewReplayer(h.history, nil).Replay(h.ctx, "missing")

	assert.ErrorIs(t, err, historyRepo.ErrRoundNotFound)
}

func TestReplayHandlerIgnoresOtherStates(t *testing.T) {
	recorder := &countingPublisher{}
	handler := &replayHandler{round: entities.NewGameHistoryLog("round-1", time.Now()), events: recorder}

	err := handler.handle(context.Background(), &entities.GameRoundEvent{State: entities.StatePrimary, Action: entities.ActionBegin})

	assert.NoError(t, err)
	assert.Zero(t, recorder.n)
}

type countingPublisher struct{ n int }

func (c *countingPublisher) Publish(entities.RoundEvent) { c.n++ }
