package cabinet

import (
	"context"
	"sort"
	"sync"

	"github.com/fadedpez/egmcore/internal/logging"
	"github.com/fadedpez/egmcore/pkg/storage"
)

// Cabinet tracks the physical machine state the round coordinator touches:
// the operator menu key and system disables
type Cabinet struct {
	log *logging.Logger

	mu                 sync.RWMutex
	operatorKeyEnabled bool
	disableReasons     map[string]bool
}

// New creates a cabinet with the operator key enabled and the system enabled
func New(logger *logging.Logger) *Cabinet {
	if logger == nil {
		logger = logging.Default
	}
	return &Cabinet{
		log:                logger.Named("cabinet"),
		operatorKeyEnabled: true,
		disableReasons:     make(map[string]bool),
	}
}

// EnableOperatorKey lets the operator menu open again. A released scope
// carried by ctx puts the key back.
func (c *Cabinet) EnableOperatorKey(ctx context.Context) {
	c.setOperatorKey(ctx, true)
}

// DisableOperatorKey keeps the operator menu closed
func (c *Cabinet) DisableOperatorKey(ctx context.Context) {
	c.setOperatorKey(ctx, false)
}

func (c *Cabinet) setOperatorKey(ctx context.Context, enabled bool) {
	c.mu.Lock()
	previous := c.operatorKeyEnabled
	c.operatorKeyEnabled = enabled
	c.mu.Unlock()

	if previous != enabled {
		c.log.Debug("Operator key enabled: %t", enabled)
	}
	storage.OnRollback(ctx, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.operatorKeyEnabled = previous
	})
}

// OperatorKeyEnabled reports whether the operator menu may open
func (c *Cabinet) OperatorKeyEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.operatorKeyEnabled
}

// Disable takes the machine out of service for reason
func (c *Cabinet) Disable(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.disableReasons[reason] {
		c.log.Warn("System disabled: %s", reason)
	}
	c.disableReasons[reason] = true
}

// Enable clears reason; the machine is back in service once no reason remains
func (c *Cabinet) Enable(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disableReasons[reason] {
		c.log.Info("System disable cleared: %s", reason)
	}
	delete(c.disableReasons, reason)
}

// SystemDisabled reports whether any disable reason is active
func (c *Cabinet) SystemDisabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.disableReasons) > 0
}

// DisableReasons returns the active reasons, sorted
func (c *Cabinet) DisableReasons() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	reasons := make([]string, 0, len(c.disableReasons))
	for reason := range c.disableReasons {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	return reasons
}
