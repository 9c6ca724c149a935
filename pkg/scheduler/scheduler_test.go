package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fadedpez/egmcore/internal/logging"
	"github.com/stretchr/testify/assert"
)

type fakeArchive struct {
	shipped atomic.Int32
	pruned  atomic.Int32
}

func (f *fakeArchive) ShipPending(ctx context.Context) (int, error) {
	f.shipped.Add(1)
	return 1, nil
}

func (f *fakeArchive) PruneOldIndices(ctx context.Context) error {
	f.pruned.Add(1)
	return errors.New("cluster unavailable")
}

func TestSchedulerRunsTasksImmediatelyAndOnInterval(t *testing.T) {
	s := NewScheduler(logging.NewNop())
	var runs atomic.Int32
	s.AddTask("count", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	s.Start(context.Background())
	s.Start(context.Background())

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, runs.Load(), "no runs after Stop")
	s.Stop()
}

func TestArchiveSchedulerShipsAndPrunes(t *testing.T) {
	archive := &fakeArchive{}
	s := NewArchiveScheduler(archive, 10*time.Millisecond, logging.NewNop())

	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool { return archive.shipped.Load() >= 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), archive.pruned.Load(), "pruning runs once at startup, then daily")
}
