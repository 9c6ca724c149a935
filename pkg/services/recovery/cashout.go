package recovery

import (
	"context"
	"sync"
	"time"

	"github.com/fadedpez/egmcore/internal/logging"
	"github.com/fadedpez/egmcore/internal/types"
	"github.com/fadedpez/egmcore/pkg/entities"
	recoveryRepo "github.com/fadedpez/egmcore/pkg/repositories/recovery"
	"github.com/fadedpez/egmcore/pkg/services/bank"
	"github.com/fadedpez/egmcore/pkg/services/meters"
	"github.com/fadedpez/egmcore/pkg/storage"
	"github.com/google/uuid"
)

// CashOutDevice pays credits out of the machine, by ticket or hopper
type CashOutDevice interface {
	Dispense(ctx context.Context, amount int64) error
}

// DeviceFunc adapts a function to CashOutDevice
type DeviceFunc func(ctx context.Context, amount int64) error

// Dispense implements CashOutDevice
func (f DeviceFunc) Dispense(ctx context.Context, amount int64) error {
	return f(ctx, amount)
}

// CashOut runs cash-outs that survive interruption. A marker is committed
// before the device is asked to pay; until the device confirms, the cash-out
// is pending and must be recovered before play continues. A crash after the
// device pays but before the marker is cleared pays again on recovery.
type CashOut struct {
	repo   recoveryRepo.Repository
	store  *storage.Store
	bank   *bank.Service
	meters *meters.Registry
	device CashOutDevice
	log    *logging.Logger

	mu      sync.RWMutex
	pending *entities.CashOutMarker
}

// NewCashOut creates the cash-out recovery service
func NewCashOut(repo recoveryRepo.Repository, store *storage.Store, bankService *bank.Service, registry *meters.Registry, device CashOutDevice, logger *logging.Logger) *CashOut {
	if logger == nil {
		logger = logging.Default
	}
	return &CashOut{
		repo:   repo,
		store:  store,
		bank:   bankService,
		meters: registry,
		device: device,
		log:    logger.Named("cashout"),
	}
}

// Load restores a marker left behind by an interrupted cash-out
func (c *CashOut) Load(ctx context.Context) error {
	marker, err := c.repo.GetPending(ctx)
	if err != nil {
		return types.WrapError(types.ErrDatabaseError, "failed to load cash-out marker", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = marker
	if marker != nil {
		c.log.Warn("Cash-out %s of %d was interrupted (%s)", marker.ID, marker.Amount, marker.Reason)
	}
	return nil
}

// HasPending reports whether a cash-out is waiting for the device
func (c *CashOut) HasPending() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pending != nil
}

// Pending returns the outstanding marker, or nil
func (c *CashOut) Pending() *entities.CashOutMarker {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.pending == nil {
		return nil
	}
	marker := *c.pending
	return &marker
}

// Request starts a cash-out of every credit. The marker is committed before
// the device is asked to pay, and the device is never asked while a scope is
// open. Inside the caller's scope only the marker is written; the payment
// follows once that scope commits and is dropped if it is released. If the
// device cannot pay right away the cash-out stays pending.
func (c *CashOut) Request(ctx context.Context, reason string) error {
	if c.HasPending() {
		c.log.Debug("Cash-out already pending, ignoring request: %s", reason)
		return nil
	}

	if storage.InScope(ctx) {
		if err := c.record(ctx, reason); err != nil {
			return err
		}
		storage.OnCommit(ctx, c.payAfterCommit)
		return nil
	}

	scope, err := c.store.ScopedTransaction(ctx)
	if err != nil {
		return err
	}
	defer scope.Release()

	if err := c.record(scope.Context(), reason); err != nil {
		return err
	}
	if err := scope.Complete(); err != nil {
		return err
	}
	return c.pay(ctx)
}

// Recover retries the pending cash-out. Called with a scope it waits for
// that scope to commit.
func (c *CashOut) Recover(ctx context.Context) error {
	if !c.HasPending() {
		return nil
	}
	if storage.InScope(ctx) {
		storage.OnCommit(ctx, c.payAfterCommit)
		return nil
	}
	return c.pay(ctx)
}

func (c *CashOut) record(ctx context.Context, reason string) error {
	credits, err := c.bank.Credits(ctx)
	if err != nil {
		return err
	}
	marker := &entities.CashOutMarker{
		ID:          uuid.New().String(),
		Amount:      credits,
		Reason:      reason,
		RequestedAt: time.Now(),
	}
	if err := c.repo.SavePending(ctx, marker); err != nil {
		return types.WrapError(types.ErrDatabaseError, "failed to save cash-out marker", err)
	}
	c.setPending(ctx, marker)
	c.log.Info("Cash-out %s of %d requested: %s", marker.ID, marker.Amount, reason)
	return nil
}

func (c *CashOut) payAfterCommit(ctx context.Context) {
	if err := c.pay(ctx); err != nil {
		c.log.Error("Cash-out payment failed after commit: %v", err)
	}
}

// pay asks the device for the pending amount, then clears the marker and
// debits the bank in a scope of its own
func (c *CashOut) pay(ctx context.Context) error {
	marker := c.Pending()
	if marker == nil {
		return nil
	}

	if c.device == nil {
		c.log.Warn("No cash-out device, cash-out %s stays pending", marker.ID)
		return nil
	}
	if err := c.device.Dispense(ctx, marker.Amount); err != nil {
		c.log.Warn("Cash-out %s not paid yet: %v", marker.ID, err)
		return nil
	}

	scope, err := c.store.ScopedTransaction(ctx)
	if err != nil {
		return err
	}
	defer scope.Release()
	tx := scope.Context()

	paid, err := c.bank.CashOut(tx)
	if err != nil {
		return err
	}
	if err := c.meters.GetMeter(entities.MeterCashOutAmount).Increment(tx, paid); err != nil {
		return err
	}
	if err := c.repo.ClearPending(tx); err != nil {
		return types.WrapError(types.ErrDatabaseError, "failed to clear cash-out marker", err)
	}
	c.setPending(tx, nil)
	if err := scope.Complete(); err != nil {
		return err
	}
	c.log.Info("Cash-out %s paid %d", marker.ID, paid)
	return nil
}

func (c *CashOut) setPending(ctx context.Context, marker *entities.CashOutMarker) {
	c.mu.Lock()
	previous := c.pending
	c.pending = marker
	c.mu.Unlock()

	storage.OnRollback(ctx, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.pending = previous
	})
}
