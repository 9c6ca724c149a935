package coordinator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fadedpez/egmcore/internal/attendant"
	"github.com/fadedpez/egmcore/internal/config"
	"github.com/fadedpez/egmcore/internal/diagnostics"
	"github.com/fadedpez/egmcore/internal/logging"
	"github.com/fadedpez/egmcore/pkg/bus"
	"github.com/fadedpez/egmcore/pkg/cabinet"
	"github.com/fadedpez/egmcore/pkg/db"
	"github.com/fadedpez/egmcore/pkg/entities"
	"github.com/fadedpez/egmcore/pkg/money"
	"github.com/fadedpez/egmcore/pkg/properties"
	bankRepo "github.com/fadedpez/egmcore/pkg/repositories/bank"
	historyRepo "github.com/fadedpez/egmcore/pkg/repositories/history"
	metersRepo "github.com/fadedpez/egmcore/pkg/repositories/meters"
	recoveryRepo "github.com/fadedpez/egmcore/pkg/repositories/recovery"
	"github.com/fadedpez/egmcore/pkg/rounds"
	"github.com/fadedpez/egmcore/pkg/runtime"
	"github.com/fadedpez/egmcore/pkg/scheduler"
	"github.com/fadedpez/egmcore/pkg/services/bank"
	"github.com/fadedpez/egmcore/pkg/services/catalog"
	"github.com/fadedpez/egmcore/pkg/services/commands"
	"github.com/fadedpez/egmcore/pkg/services/history"
	"github.com/fadedpez/egmcore/pkg/services/meters"
	"github.com/fadedpez/egmcore/pkg/services/payment"
	"github.com/fadedpez/egmcore/pkg/services/playstate"
	"github.com/fadedpez/egmcore/pkg/services/recovery"
	"github.com/fadedpez/egmcore/pkg/storage"
)

// Coordinator owns one cabinet's round coordinator and everything around it
type Coordinator struct {
	config *config.Config
	log    *logging.Logger

	conn       *sql.DB
	bus        *bus.Bus
	signals    *runtime.SignalSet
	outbound   *Outbound
	bank       *bank.Service
	meters     *meters.Registry
	history    *history.Service
	game       *recovery.Game
	cashOut    *recovery.CashOut
	dispatcher *rounds.Dispatcher
	replayer   *rounds.Replayer

	archiver    *scheduler.ArchiveScheduler
	session     attendant.Session
	relay       *attendant.Relay
	diagnostics *diagnostics.Server

	cancel     context.CancelFunc
	shutdownWg sync.WaitGroup
}

type repositories struct {
	bank     bankRepo.Repository
	meters   metersRepo.Repository
	history  historyRepo.Repository
	recovery recoveryRepo.Repository
}

// New wires a coordinator from cfg. Output for the runtime and the cash-out
// device is written to out.
func New(cfg *config.Config, out io.Writer, logger *logging.Logger) (*Coordinator, error) {
	if logger == nil {
		logger = logging.Default
	}

	file, err := properties.LoadFile(cfg.JurisdictionFile)
	if err != nil {
		return nil, err
	}
	props := properties.New(file.Properties)
	games, err := catalog.NewProvider(file)
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		config:   cfg,
		log:      logger.Named("coordinator"),
		outbound: NewOutbound(out, logger),
	}

	store, repos, err := c.openStorage(logger)
	if err != nil {
		return nil, err
	}
	if cfg.ArchiveEnabled() {
		archive, err := historyRepo.NewElasticsearchArchive(repos.history, &historyRepo.ElasticsearchConfig{
			URL:         cfg.ElasticsearchURL,
			Username:    cfg.ElasticsearchUsername,
			Password:    cfg.ElasticsearchPassword,
			IndexPrefix: cfg.ElasticsearchIndexPrefix,
		}, logger)
		if err != nil {
			c.closeStorage()
			return nil, err
		}
		repos.history = archive
		c.archiver = scheduler.NewArchiveScheduler(archive, cfg.ArchiveInterval, logger)
	}

	c.bus = bus.New(cfg.EventQueueSize, logger)
	c.bus.Subscribe(c.outbound.HandleEvent)
	c.signals = runtime.NewSignalSet(logger)
	c.signals.OnChange(c.outbound.HandleSignals)

	cab := cabinet.New(logger)
	c.bank = bank.NewService(repos.bank, cfg.BankAccountID, logger)
	c.meters = meters.NewRegistry(repos.meters, logger)
	c.history = history.NewService(repos.history, logger)
	c.game = recovery.NewGame(logger)
	c.cashOut = recovery.NewCashOut(repos.recovery, store, c.bank, c.meters, c.outbound, logger)
	runner := commands.NewRunner(c.bank, c.meters, c.history, c.cashOut, props, logger)

	play, err := playstate.NewService(playstate.Deps{
		History:    c.history,
		Bank:       c.bank,
		Commands:   runner,
		Games:      games,
		Cabinet:    cab,
		Recovery:   c.game,
		Properties: props,
	}, logger)
	if err != nil {
		c.closeStorage()
		return nil, err
	}

	c.dispatcher, err = rounds.NewDispatcher(rounds.Collaborators{
		Store:      store,
		Runtime:    c.signals,
		Bank:       c.bank,
		Meters:     c.meters,
		History:    c.history,
		PlayState:  play,
		Recovery:   c.game,
		CashOut:    c.cashOut,
		Commands:   runner,
		Payment:    payment.NewThresholdProvider(props, logger),
		Games:      games,
		Cabinet:    cab,
		Properties: props,
		Events:     c.bus,
	}, logger)
	if err != nil {
		c.closeStorage()
		return nil, err
	}
	c.replayer = rounds.NewReplayer(c.history, logger)

	if cfg.AttendantEnabled() {
		session, err := attendant.NewSession(cfg.AttendantToken)
		if err != nil {
			c.closeStorage()
			return nil, fmt.Errorf("failed to create attendant session: %w", err)
		}
		c.session = session
		c.relay = attendant.NewRelay(session, cfg.AttendantChannelID, money.NewConverter(props.BaseUnitMillicents()), logger)
		c.bus.Subscribe(c.relay.Handle)
	}

	if cfg.DiagnosticsAddr != "" {
		c.diagnostics = diagnostics.NewServer(cfg.DiagnosticsAddr, diagnostics.Sources{
			Replayer: c.replayer,
			Meters:   c.meters,
			Signals:  c.signals.Snapshot,
			Phase:    c.dispatcher.Phase,
		}, logger)
	}

	return c, nil
}

func (c *Coordinator) openStorage(logger *logging.Logger) (*storage.Store, repositories, error) {
	if c.config.StorageType == config.StorageMemory {
		return storage.NewMemoryStore(), repositories{
			bank:     bankRepo.NewMemoryRepository(),
			meters:   metersRepo.NewMemoryRepository(),
			history:  historyRepo.NewMemoryRepository(),
			recovery: recoveryRepo.NewMemoryRepository(),
		}, nil
	}

	conn, err := db.OpenSQLite(c.config.DBPath, logger)
	if err != nil {
		return nil, repositories{}, err
	}
	c.conn = conn
	return storage.NewSQLiteStore(conn), repositories{
		bank:     bankRepo.NewSQLiteRepository(conn),
		meters:   metersRepo.NewSQLiteRepository(conn),
		history:  historyRepo.NewSQLiteRepository(conn),
		recovery: recoveryRepo.NewSQLiteRepository(conn),
	}, nil
}

func (c *Coordinator) closeStorage() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil {
		c.log.Warn("Error closing database: %v", err)
	}
	c.conn = nil
}

// Start restores persisted state and starts the background services. An
// interrupted round puts the coordinator into game recovery and a pending
// cash-out keeps play disabled until it is paid.
func (c *Coordinator) Start(ctx context.Context) error {
	if _, err := c.bank.EnsureAccount(ctx); err != nil {
		return err
	}
	current, err := c.history.Load(ctx)
	if err != nil {
		return err
	}
	if current != nil {
		c.game.Begin(current.RoundID)
	}
	if err := c.cashOut.Load(ctx); err != nil {
		return err
	}

	credits, err := c.bank.Credits(ctx)
	if err != nil {
		return err
	}
	c.signals.UpdateBalance(credits)
	if c.cashOut.HasPending() {
		c.signals.UpdateFlag(runtime.AllowSubGameRound, false)
	} else if current == nil {
		c.signals.UpdateFlag(runtime.AllowSubGameRound, true)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.shutdownWg.Add(1)
	go func() {
		defer c.shutdownWg.Done()
		_ = c.bus.Run(runCtx)
	}()

	if c.archiver != nil {
		c.archiver.Start(runCtx)
	}
	if c.session != nil {
		if err := c.session.Open(); err != nil {
			return fmt.Errorf("failed to open attendant session: %w", err)
		}
	}
	if c.diagnostics != nil {
		c.shutdownWg.Add(1)
		go func() {
			defer c.shutdownWg.Done()
			if err := c.diagnostics.Run(); err != nil {
				c.log.Error("Diagnostics server stopped: %v", err)
			}
		}()
	}

	c.log.Info("Coordinator started (storage %s, balance %d)", c.config.StorageType, credits)
	return nil
}

// Run dispatches the runtime's events and the cabinet's deposits read from
// in until the input ends or ctx is cancelled. Rejected records are reported
// and do not stop the feed.
func (c *Coordinator) Run(ctx context.Context, in io.Reader) error {
	feed := runtime.NewFeed(in)
	return feed.Run(ctx, func(ctx context.Context, record *runtime.Record) error {
		var err error
		if record.Event != nil {
			err = c.dispatcher.Dispatch(ctx, record.Event)
		} else {
			err = c.Deposit(ctx, record.Deposit)
		}
		if err != nil {
			c.reportError(err)
		}
		return nil
	}, c.reportError)
}

// Deposit credits money inserted at the cabinet. A locked bank refuses it.
func (c *Coordinator) Deposit(ctx context.Context, amount int64) error {
	if err := c.bank.Deposit(ctx, amount); err != nil {
		return err
	}
	credits, err := c.bank.Credits(ctx)
	if err != nil {
		return err
	}
	c.signals.UpdateBalance(credits)
	return nil
}

// Replay narrates a finished round
func (c *Coordinator) Replay(ctx context.Context, roundID string) ([]entities.RoundEvent, error) {
	return c.replayer.Replay(ctx, roundID)
}

func (c *Coordinator) reportError(err error) {
	c.log.Error("Feed record rejected: %v", err)
	if c.relay != nil {
		c.relay.ReportError(err)
	}
}

// Shutdown stops the background services, delivers queued events and
// closes storage
func (c *Coordinator) Shutdown() {
	if c.archiver != nil {
		c.archiver.Stop()
	}
	if c.diagnostics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := c.diagnostics.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.log.Warn("Error stopping diagnostics server: %v", err)
		}
		cancel()
	}
	if c.cancel != nil {
		c.cancel()
	}

	// Wait for any ongoing operations to complete
	c.shutdownWg.Wait()

	if c.session != nil {
		if err := c.session.Close(); err != nil {
			c.log.Warn("Error closing attendant session: %v", err)
		}
	}
	c.closeStorage()
}
