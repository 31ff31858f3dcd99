// Package scheduler owns the single active loop that sleeps until the
// next due reminder and emits fire events. Its queue is a rebuildable
// cache over the store, never the source of truth.
package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"remindd/internal/apperr"
	"remindd/internal/model"
	"remindd/internal/notify"
	"remindd/internal/recurrence"
)

// MissedFirePolicy decides what happens to instants crossed while the
// process was not running.
type MissedFirePolicy string

const (
	// PolicySkip advances past missed instants without emitting events.
	PolicySkip MissedFirePolicy = "skip"
	// PolicyCatchUp emits at most one immediate fire per reminder whose
	// instant was crossed, regardless of how many occurrences were missed.
	PolicyCatchUp MissedFirePolicy = "catch_up"
)

// Store is the slice of the repository the scheduler needs.
type Store interface {
	ListEligible(ctx context.Context) ([]model.Reminder, error)
	FindByID(ctx context.Context, id string) (*model.Reminder, error)
	MarkTriggered(ctx context.Context, id string, firedAt time.Time, next *time.Time) error
	SaveNextTrigger(ctx context.Context, id string, next *time.Time) error
}

// Scheduler maintains the pending queue and runs the firing loop.
type Scheduler struct {
	store  Store
	sink   notify.Sink
	clock  Clock
	policy MissedFirePolicy

	mu    sync.Mutex
	queue *pendingQueue
	wake  chan struct{}
}

func New(store Store, sink notify.Sink, clock Clock, policy MissedFirePolicy) *Scheduler {
	if policy == "" {
		policy = PolicySkip
	}
	return &Scheduler{
		store:  store,
		sink:   sink,
		clock:  clock,
		policy: policy,
		queue:  newPendingQueue(),
		wake:   make(chan struct{}, 1),
	}
}

// NextFor computes the reminder's next trigger strictly after now,
// advancing past any instants already crossed. ok is false when the
// schedule is exhausted.
func NextFor(r *model.Reminder, now time.Time) (time.Time, bool) {
	d := r.Descriptor()
	after := r.StartAt
	if r.LastTriggered != nil {
		after = *r.LastTriggered
	}
	next, ok := recurrence.Next(d, r.StartAt, after)
	for ok && next.Before(now) {
		next, ok = recurrence.Next(d, r.StartAt, next)
	}
	return next, ok
}

// Rebuild reconstructs the queue from the store. Called once on startup;
// stale cached next_trigger values are recomputed and persisted, and the
// missed-fire policy is applied to instants crossed while down.
func (s *Scheduler) Rebuild(ctx context.Context) error {
	reminders, err := s.store.ListEligible(ctx)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	s.mu.Lock()
	s.queue = newPendingQueue()
	s.mu.Unlock()

	for i := range reminders {
		r := &reminders[i]
		missed := r.NextTrigger != nil && r.NextTrigger.Before(now)

		if missed && s.policy == PolicyCatchUp {
			s.fireOne(ctx, r.ID, now)
			continue
		}

		next, ok := NextFor(r, now)
		if !ok {
			// Exhausted while down; equivalent to cancellation.
			if err := s.store.SaveNextTrigger(ctx, r.ID, nil); err != nil {
				log.Printf("scheduler: exhaust %s: %v", r.ID, err)
			}
			continue
		}
		if r.NextTrigger == nil || !r.NextTrigger.Equal(next) {
			if err := s.store.SaveNextTrigger(ctx, r.ID, &next); err != nil {
				log.Printf("scheduler: persist next for %s: %v", r.ID, err)
			}
		}
		s.mu.Lock()
		s.queue.upsert(r.ID, next)
		s.mu.Unlock()
	}
	s.wakeup()
	return nil
}

// Run executes the firing loop until the context is cancelled. It sleeps
// until the earliest queued instant, or until a mutation wakes it early.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		now := s.clock.Now()

		s.mu.Lock()
		due := s.queue.popDue(now)
		head, hasHead := s.queue.peek()
		s.mu.Unlock()

		if len(due) > 0 {
			for _, entry := range due {
				s.fireOne(ctx, entry.ID, now)
			}
			continue
		}

		var timer <-chan time.Time
		if hasHead {
			timer = s.clock.After(head.At.Sub(now))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
		case <-timer:
		}
	}
}

// fireOne emits the fire event for one reminder and advances its
// schedule. Errors are isolated: a failing reminder is logged and the
// rest of the queue is unaffected.
func (s *Scheduler) fireOne(ctx context.Context, id string, now time.Time) {
	r, err := s.store.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			log.Printf("scheduler: load %s: %v", id, err)
		}
		return
	}
	// State may have changed between enqueue and fire.
	if !r.IsActive() {
		return
	}

	s.sink.NotifyFired(ctx, notify.Event{
		ReminderID: r.ID,
		Title:      r.Title,
		Body:       r.Description,
		FiredAt:    now,
	})

	next, ok := recurrence.Next(r.Descriptor(), r.StartAt, now)
	var nextPtr *time.Time
	if ok {
		nextPtr = &next
	}

	if err := s.persistFired(ctx, r.ID, now, nextPtr); err != nil {
		// The queue stays authoritative; the record catches up on the
		// next successful write or the next rebuild.
		log.Printf("scheduler: persist fire of %s: %v", r.ID, err)
	}

	if ok {
		s.mu.Lock()
		s.queue.upsert(r.ID, next)
		s.mu.Unlock()
	}
}

// persistFired writes the fire result, retrying once on store IO errors.
func (s *Scheduler) persistFired(ctx context.Context, id string, firedAt time.Time, next *time.Time) error {
	err := s.store.MarkTriggered(ctx, id, firedAt, next)
	if err != nil && errors.Is(err, apperr.ErrStoreIO) {
		err = s.store.MarkTriggered(ctx, id, firedAt, next)
	}
	return err
}

// Resync reconciles one reminder's queue entry after a mutation. The
// entry is removed and, if the reminder is still eligible, reinserted at
// its next trigger; the sleeping loop is woken if needed.
func (s *Scheduler) Resync(ctx context.Context, id string) error {
	r, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.Remove(id)
			return nil
		}
		return err
	}

	s.mu.Lock()
	s.queue.remove(id)
	s.mu.Unlock()

	if !r.IsActive() {
		s.wakeup()
		return nil
	}

	now := s.clock.Now()
	var next time.Time
	if r.NextTrigger != nil && r.NextTrigger.After(now) {
		// Preserved cadence (e.g. resume before the instant passed).
		next = *r.NextTrigger
	} else {
		computed, ok := NextFor(r, now)
		if !ok {
			if err := s.store.SaveNextTrigger(ctx, id, nil); err != nil {
				return err
			}
			s.wakeup()
			return nil
		}
		next = computed
		if err := s.store.SaveNextTrigger(ctx, id, &next); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.queue.upsert(id, next)
	s.mu.Unlock()
	s.wakeup()
	return nil
}

// Remove drops any queue entry for id. Used when a reminder or its whole
// group is deleted.
func (s *Scheduler) Remove(id string) {
	s.mu.Lock()
	s.queue.remove(id)
	s.mu.Unlock()
	s.wakeup()
}

// Pending returns a snapshot of the queue ordered by due instant.
func (s *Scheduler) Pending() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.snapshot()
}

// wakeup nudges the loop without ever blocking the caller.
func (s *Scheduler) wakeup() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
