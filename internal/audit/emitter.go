package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Emitter stamps and routes events from domain logic. Inside an atomic
// unit events are buffered in the unit's context and flushed only after
// commit, so an aborted unit leaves no trail. Publishing is best effort:
// a failing sink is logged, never surfaced to the caller.
type Emitter struct {
	publisher Publisher
	logger    *slog.Logger
}

func NewEmitter(publisher Publisher, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{publisher: publisher, logger: logger}
}

// Emit stamps the event and either defers it to the unit buffer in ctx or
// publishes immediately. Safe to call on a nil emitter.
func (e *Emitter) Emit(ctx context.Context, event Event) {
	if e == nil {
		return
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if buf, ok := bufferFrom(ctx); ok {
		buf.append(event)
		return
	}
	e.publish(ctx, event)
}

// FlushBuffer publishes everything collected in the buffer. Called by the
// unit runner after a successful commit.
func (e *Emitter) FlushBuffer(ctx context.Context, buf *Buffer) {
	if e == nil || buf == nil {
		return
	}
	for _, event := range buf.drain() {
		e.publish(ctx, event)
	}
}

func (e *Emitter) publish(ctx context.Context, event Event) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.ErrorContext(ctx, "audit publish failed",
			"action", string(event.Action), "event_id", event.ID.String(), "error", err)
	}
}

// Buffer collects events for one atomic unit.
type Buffer struct {
	mu     sync.Mutex
	events []Event
}

func NewBuffer() *Buffer { return &Buffer{} }

func (b *Buffer) append(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *Buffer) drain() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	events := b.events
	b.events = nil
	return events
}

type bufferKey struct{}

// WithBuffer attaches a unit's event buffer to the context.
func WithBuffer(ctx context.Context, buf *Buffer) context.Context {
	return context.WithValue(ctx, bufferKey{}, buf)
}

func bufferFrom(ctx context.Context) (*Buffer, bool) {
	buf, ok := ctx.Value(bufferKey{}).(*Buffer)
	return buf, ok
}
