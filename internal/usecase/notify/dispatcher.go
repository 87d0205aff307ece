// Package notify fans ban events out to observers. The engine core only
// mutates its in-memory registry; anything that should happen on a ban —
// logging, live streams, firewall actions — hangs off a Notifier here.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"github.com/failguard/failguard/internal/entity"
)

// Notifier receives ban events. Implementations must tolerate concurrent
// calls.
type Notifier interface {
	Notify(event entity.BanEvent)
}

// LogNotifier writes ban events to structured logs.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier returns a Notifier backed by the given logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{log: logger}
}

func (n *LogNotifier) Notify(ev entity.BanEvent) {
	n.log.Info("ban event",
		"event_id", ev.ID,
		"jail", ev.Jail,
		"ip", ev.IP,
		"action", ev.Action,
		"ban_count", ev.BanCount,
		"reason", ev.Reason,
	)
}

// Dispatcher decouples the jail's lock from downstream observers: events
// are queued on a buffered channel and fanned out from a single loop, with
// a rate limiter so a ban storm cannot flood slow observers. When the
// queue is full the event is dropped and counted — the jail never blocks.
type Dispatcher struct {
	notifiers []Notifier
	limiter   *rate.Limiter
	events    chan entity.BanEvent
	log       *slog.Logger

	mu      sync.Mutex
	dropped uint64
}

// NewDispatcher creates a dispatcher delivering at most eventsPerSec events
// (burst of eventsPerSec) to the given notifiers. eventsPerSec <= 0 means
// unthrottled.
func NewDispatcher(logger *slog.Logger, eventsPerSec float64, notifiers ...Notifier) *Dispatcher {
	limit := rate.Inf
	burst := 1
	if eventsPerSec > 0 {
		limit = rate.Limit(eventsPerSec)
		burst = int(eventsPerSec)
		if burst < 1 {
			burst = 1
		}
	}
	return &Dispatcher{
		notifiers: notifiers,
		limiter:   rate.NewLimiter(limit, burst),
		events:    make(chan entity.BanEvent, 256),
		log:       logger,
	}
}

// Notify queues an event for delivery. Non-blocking: a full queue drops
// the event.
func (d *Dispatcher) Notify(ev entity.BanEvent) {
	select {
	case d.events <- ev:
	default:
		d.mu.Lock()
		d.dropped++
		d.mu.Unlock()
		d.log.Warn("event queue full, dropping ban event", "jail", ev.Jail, "ip", ev.IP, "action", ev.Action)
	}
}

// Run delivers queued events until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.events:
			if err := d.limiter.Wait(ctx); err != nil {
				return
			}
			d.dispatch(ev)
		}
	}
}

// dispatch delivers one event to every notifier.
func (d *Dispatcher) dispatch(ev entity.BanEvent) {
	for _, n := range d.notifiers {
		n.Notify(ev)
	}
}

// Dropped returns how many events were discarded because the queue was full.
func (d *Dispatcher) Dropped() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}
