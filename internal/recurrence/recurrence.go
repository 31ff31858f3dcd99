// Package recurrence computes when a reminder should fire next. Next is
// pure: the only notion of "now" is the after parameter.
package recurrence

import (
	"time"

	"github.com/robfig/cron/v3"

	"remindd/internal/apperr"
)

// Kind tags the recurrence descriptor variant.
type Kind string

const (
	KindOneShot  Kind = "one_shot"
	KindCron     Kind = "cron"
	KindInterval Kind = "interval"
)

// Descriptor describes how (and whether) a reminder repeats. Exactly one
// variant is meaningful, selected by Kind; the other fields are ignored.
type Descriptor struct {
	Kind Kind

	// FireAt is the single firing instant of a one-shot reminder.
	FireAt time.Time

	// Expression is a 5-field cron schedule (minute hour dom month dow).
	Expression string

	// Period and Window describe a fixed-interval schedule: fire every
	// Period for the span of Window after the start instant. Window zero
	// means forever.
	Period time.Duration
	Window time.Duration
}

// parser accepts the standard 5-field cron syntax with the conventional
// day-of-month / day-of-week union.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Validate rejects descriptors that could never be stored: unknown kinds,
// non-positive intervals, zero one-shot instants and unparsable or
// unsatisfiable cron expressions.
func Validate(d Descriptor) error {
	switch d.Kind {
	case KindOneShot:
		if d.FireAt.IsZero() {
			return apperr.Validation("one-shot reminder needs a fire instant")
		}
	case KindCron:
		sched, err := parser.Parse(d.Expression)
		if err != nil {
			return apperr.InvalidExpression(d.Expression, err)
		}
		// An expression like "0 0 30 2 *" parses but matches nothing;
		// robfig/cron reports that as the zero time.
		if sched.Next(time.Now()).IsZero() {
			return apperr.InvalidExpression(d.Expression, errNoMatch)
		}
	case KindInterval:
		if d.Period <= 0 {
			return apperr.Validation("interval period must be positive, got %s", d.Period)
		}
		if d.Window < 0 {
			return apperr.Validation("interval window must not be negative, got %s", d.Window)
		}
	default:
		return apperr.Validation("unknown recurrence kind %q", string(d.Kind))
	}
	return nil
}

// Next returns the earliest instant strictly after the given one at which
// the descriptor fires, anchored at startAt. ok is false when the schedule
// is exhausted. Descriptors must have passed Validate; an invalid one
// yields ok=false.
func Next(d Descriptor, startAt, after time.Time) (next time.Time, ok bool) {
	switch d.Kind {
	case KindOneShot:
		if d.FireAt.After(after) {
			return d.FireAt, true
		}
		return time.Time{}, false
	case KindCron:
		sched, err := parser.Parse(d.Expression)
		if err != nil {
			return time.Time{}, false
		}
		n := sched.Next(after)
		if n.IsZero() {
			return time.Time{}, false
		}
		return n, true
	case KindInterval:
		if d.Period <= 0 {
			return time.Time{}, false
		}
		if d.Window > 0 {
			end := startAt.Add(d.Window)
			if !after.Before(end) {
				return time.Time{}, false
			}
			candidate := after.Add(d.Period)
			if candidate.After(end) {
				return time.Time{}, false
			}
			return candidate, true
		}
		return after.Add(d.Period), true
	}
	return time.Time{}, false
}

type noMatchError struct{}

func (noMatchError) Error() string { return "expression matches no instant" }

var errNoMatch = noMatchError{}
