package bus

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/fadedpez/egmcore/internal/logging"
	"github.com/fadedpez/egmcore/pkg/entities"
)

// DefaultQueueSize is used when a bus is created with a non-positive size
const DefaultQueueSize = 256

// Handler receives published events on the bus goroutine
type Handler func(ctx context.Context, event entities.RoundEvent)

// Bus is the outbound event queue. Publish never blocks the caller: when the
// queue is full the event is dropped and counted.
type Bus struct {
	queue   chan entities.RoundEvent
	log     *logging.Logger
	dropped atomic.Int64

	mu          sync.RWMutex
	subscribers []Handler
}

// New creates a bus with room for size queued events
func New(size int, logger *logging.Logger) *Bus {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = logging.Default
	}
	return &Bus{
		queue: make(chan entities.RoundEvent, size),
		log:   logger.Named("bus"),
	}
}

// Publish queues event for delivery
func (b *Bus) Publish(event entities.RoundEvent) {
	select {
	case b.queue <- event:
	default:
		b.dropped.Add(1)
		b.log.Warn("Event queue full, dropped %s", event.Type)
	}
}

// Subscribe registers h for every event delivered after this call
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, h)
}

// Run delivers queued events to subscribers until ctx is cancelled. Events
// still queued at cancellation are delivered before Run returns.
func (b *Bus) Run(ctx context.Context) error {
	for {
		select {
		case event := <-b.queue:
			b.deliver(ctx, event)
		case <-ctx.Done():
			b.drain(ctx)
			return ctx.Err()
		}
	}
}

func (b *Bus) drain(ctx context.Context) {
	for {
		select {
		case event := <-b.queue:
			b.deliver(ctx, event)
		default:
			return
		}
	}
}

func (b *Bus) deliver(ctx context.Context, event entities.RoundEvent) {
	b.mu.RLock()
	subscribers := make([]Handler, len(b.subscribers))
	copy(subscribers, b.subscribers)
	b.mu.RUnlock()

	for _, h := range subscribers {
		h(ctx, event)
	}
}

// Dropped returns how many events were dropped because the queue was full
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// Pending returns how many events are waiting for delivery
func (b *Bus) Pending() int {
	return len(b.queue)
}

// Recorder is a synchronous publisher that keeps every event in memory
type Recorder struct {
	mu     sync.Mutex
	events []entities.RoundEvent
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Publish records event
func (r *Recorder) Publish(event entities.RoundEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of what was recorded
func (r *Recorder) Events() []entities.RoundEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]entities.RoundEvent, len(r.events))
	copy(events, r.events)
	return events
}

// Types returns the recorded event types in order
func (r *Recorder) Types() []entities.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]entities.EventType, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}

// Reset forgets everything recorded
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
