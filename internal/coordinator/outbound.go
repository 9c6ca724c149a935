package coordinator

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/fadedpez/egmcore/internal/logging"
	"github.com/fadedpez/egmcore/pkg/entities"
	"github.com/fadedpez/egmcore/pkg/runtime"
)

// Message kinds written to the outbound stream
const (
	KindEvent    = "event"
	KindSignals  = "signals"
	KindDispense = "dispense"
)

// Message is one line of the outbound stream
type Message struct {
	Kind    string               `json:"kind"`
	Event   *entities.RoundEvent `json:"event,omitempty"`
	Signals *runtime.Signals     `json:"signals,omitempty"`
	Amount  int64                `json:"amount,omitempty"`
}

// Outbound writes coordinator output as JSON lines: published events,
// runtime signals and dispense requests for the cash-out device
type Outbound struct {
	log *logging.Logger

	mu  sync.Mutex
	enc *json.Encoder
}

// NewOutbound creates an outbound stream over w
func NewOutbound(w io.Writer, logger *logging.Logger) *Outbound {
	if logger == nil {
		logger = logging.Default
	}
	return &Outbound{enc: json.NewEncoder(w), log: logger.Named("outbound")}
}

// HandleEvent is a bus handler
func (o *Outbound) HandleEvent(_ context.Context, event entities.RoundEvent) {
	if err := o.write(Message{Kind: KindEvent, Event: &event}); err != nil {
		o.log.Error("Failed to write %s event: %v", event.Type, err)
	}
}

// HandleSignals observes a runtime.SignalSet
func (o *Outbound) HandleSignals(signals runtime.Signals) {
	if err := o.write(Message{Kind: KindSignals, Signals: &signals}); err != nil {
		o.log.Error("Failed to write runtime signals (balance %d): %v", signals.Balance, err)
	}
}

// Dispense asks the cash-out device to pay amount. It implements
// recovery.CashOutDevice; a write failure leaves the cash-out pending.
func (o *Outbound) Dispense(_ context.Context, amount int64) error {
	return o.write(Message{Kind: KindDispense, Amount: amount})
}

func (o *Outbound) write(m Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.enc.Encode(m)
}
