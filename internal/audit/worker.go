package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/manolisliolios/rwa-standard/pkg/platform/circuit"
)

// ErrInboxFull reports a dropped event; emitters log it and move on.
var ErrInboxFull = errors.New("audit inbox full")

// Inbox is a channel-backed Publisher. Emit paths enqueue without blocking
// the request; the Worker drains into the real sink. A full inbox drops
// the event, audit delivery is best effort.
type Inbox struct {
	ch chan Event
}

func NewInbox(capacity int) *Inbox {
	return &Inbox{ch: make(chan Event, capacity)}
}

func (i *Inbox) Publish(ctx context.Context, event Event) error {
	select {
	case i.ch <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrInboxFull
	}
}

// probeInterval is how often an open breaker lets one event through to
// test whether the sink recovered.
const probeInterval = time.Second

// Worker consumes events from an inbox and forwards them to a sink. A
// circuit breaker guards the sink: while it is open the worker drops
// events instead of stalling the drain on a dead broker, probing at a
// slow cadence until the sink recovers. Delivery stays best effort.
type Worker struct {
	sink      Publisher
	inbox     *Inbox
	breaker   *circuit.Breaker
	lastProbe time.Time
	logger    *slog.Logger
}

func NewWorker(sink Publisher, inbox *Inbox, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		sink:      sink,
		inbox:     inbox,
		breaker:   circuit.New("audit-sink", circuit.WithFailureThreshold(5)),
		lastProbe: time.Now(),
		logger:    logger,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox.ch:
			w.forward(ctx, event)
		}
	}
}

func (w *Worker) forward(ctx context.Context, event Event) {
	if w.breaker.IsOpen() {
		if time.Since(w.lastProbe) < probeInterval {
			return
		}
		w.lastProbe = time.Now()
	}

	if err := w.sink.Publish(ctx, event); err != nil {
		if _, change := w.breaker.RecordFailure(); change.Opened {
			w.logger.ErrorContext(ctx, "audit sink unavailable, dropping events",
				"breaker", w.breaker.Name(), "error", err)
			return
		}
		w.logger.ErrorContext(ctx, "audit sink publish failed",
			"action", string(event.Action), "event_id", event.ID.String(), "error", err)
		return
	}
	if _, change := w.breaker.RecordSuccess(); change.Closed {
		w.logger.InfoContext(ctx, "audit sink recovered", "breaker", w.breaker.Name())
	}
}
