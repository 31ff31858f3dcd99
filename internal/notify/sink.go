// Package notify carries fire events from the scheduler to whatever
// delivers them. Sinks are fire-and-forget: a failing sink logs and the
// scheduler's state transition stands regardless.
package notify

import (
	"context"
	"log"
	"time"
)

// Event is the signal emitted when a reminder's scheduled instant arrives.
type Event struct {
	ReminderID string
	Title      string
	Body       string
	FiredAt    time.Time
}

// Sink consumes fire events.
type Sink interface {
	NotifyFired(ctx context.Context, ev Event)
}

// LogSink writes fire events to the process log. Always installed so a
// fire is observable even with no delivery channel configured.
type LogSink struct{}

func (LogSink) NotifyFired(_ context.Context, ev Event) {
	if ev.Body != "" {
		log.Printf("reminder fired: %s (%s): %s", ev.Title, ev.ReminderID, ev.Body)
		return
	}
	log.Printf("reminder fired: %s (%s)", ev.Title, ev.ReminderID)
}

// Fanout delivers each event to every sink in order.
type Fanout []Sink

func (f Fanout) NotifyFired(ctx context.Context, ev Event) {
	for _, s := range f {
		s.NotifyFired(ctx, ev)
	}
}
