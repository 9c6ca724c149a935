package scheduler

import (
	"context"
	"time"

	"github.com/fadedpez/egmcore/internal/logging"
)

const pruneInterval = 24 * time.Hour

// Archive is the part of the round archive maintained on a schedule
type Archive interface {
	ShipPending(ctx context.Context) (int, error)
	PruneOldIndices(ctx context.Context) error
}

// ArchiveScheduler ships finished rounds to the search archive and prunes
// expired indices
type ArchiveScheduler struct {
	scheduler *Scheduler
	archive   Archive
	interval  time.Duration
	log       *logging.Logger
}

// NewArchiveScheduler creates a scheduler that ships rounds every interval
func NewArchiveScheduler(archive Archive, interval time.Duration, logger *logging.Logger) *ArchiveScheduler {
	if logger == nil {
		logger = logging.Default
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &ArchiveScheduler{
		scheduler: NewScheduler(logger),
		archive:   archive,
		interval:  interval,
		log:       logger.Named("archive-scheduler"),
	}
}

// Start schedules shipping and pruning
func (s *ArchiveScheduler) Start(ctx context.Context) {
	s.scheduler.AddTask("round_shipping", s.interval, s.shipRounds)
	s.scheduler.AddTask("index_pruning", pruneInterval, s.pruneOldIndices)
	s.scheduler.Start(ctx)
	s.log.Info("Round archive scheduler started, shipping every %v", s.interval)
}

// Stop stops the archive scheduler
func (s *ArchiveScheduler) Stop() {
	s.scheduler.Stop()
}

func (s *ArchiveScheduler) shipRounds(ctx context.Context) error {
	shipped, err := s.archive.ShipPending(ctx)
	if err != nil {
		return err
	}
	if shipped > 0 {
		s.log.Debug("Shipped %d rounds", shipped)
	}
	return nil
}

func (s *ArchiveScheduler) pruneOldIndices(ctx context.Context) error {
	s.log.Debug("Running scheduled index pruning task")
	return s.archive.PruneOldIndices(ctx)
}
