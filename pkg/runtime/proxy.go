package runtime

import (
	"sync"

	"github.com/fadedpez/egmcore/internal/logging"
)

// Condition is a flag the game presentation runtime obeys
type Condition string

const (
	// AllowSubGameRound lets the runtime start another wager or sub-round
	AllowSubGameRound Condition = "AllowSubGameRound"
	// PendingHandpay blocks play until an attendant pays a large win
	PendingHandpay Condition = "PendingHandpay"
)

//go:generate mockgen -source=$GOFILE -destination=mock/mock.go -package=mock_runtime

// Proxy pushes signals to the game presentation runtime. It is write-only:
// the runtime is the sole reader.
type Proxy interface {
	UpdateBalance(credits int64)
	UpdateFlag(condition Condition, value bool)
}

// Signals is a snapshot of everything pushed to the runtime
type Signals struct {
	Balance int64              `json:"balance"`
	Flags   map[Condition]bool `json:"flags"`
}

// SignalSet is an in-process Proxy that remembers the latest balance and
// flags. OnChange, if set, is called after every update.
type SignalSet struct {
	log *logging.Logger

	mu       sync.RWMutex
	balance  int64
	flags    map[Condition]bool
	onChange func(Signals)
}

// NewSignalSet creates a signal set with every flag cleared
func NewSignalSet(logger *logging.Logger) *SignalSet {
	if logger == nil {
		logger = logging.Default
	}
	return &SignalSet{
		log:   logger.Named("runtime"),
		flags: make(map[Condition]bool),
	}
}

// OnChange registers fn to observe every update
func (s *SignalSet) OnChange(fn func(Signals)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// UpdateBalance implements Proxy
func (s *SignalSet) UpdateBalance(credits int64) {
	s.mu.Lock()
	s.balance = credits
	snapshot, fn := s.snapshotLocked(), s.onChange
	s.mu.Unlock()

	s.log.Debug("Balance -> %d", credits)
	if fn != nil {
		fn(snapshot)
	}
}

// UpdateFlag implements Proxy
func (s *SignalSet) UpdateFlag(condition Condition, value bool) {
	s.mu.Lock()
	s.flags[condition] = value
	snapshot, fn := s.snapshotLocked(), s.onChange
	s.mu.Unlock()

	s.log.Debug("%s -> %t", condition, value)
	if fn != nil {
		fn(snapshot)
	}
}

// Balance returns the last pushed balance
func (s *SignalSet) Balance() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balance
}

// Flag returns the last pushed value of condition
func (s *SignalSet) Flag(condition Condition) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[condition]
}

// Snapshot returns a copy of the current signals
func (s *SignalSet) Snapshot() Signals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *SignalSet) snapshotLocked() Signals {
	flags := make(map[Condition]bool, len(s.flags))
	for k, v := range s.flags {
		flags[k] = v
	}
	return Signals{Balance: s.balance, Flags: flags}
}

var _ Proxy = (*SignalSet)(nil)
