package model

import (
	"time"

	"remindd/internal/recurrence"
)

// Reminder is a scheduled notification definition. The recurrence
// descriptor is stored as tagged columns (RecurKind selects the variant);
// NextTrigger is a cached projection of the recurrence engine, never
// client-set, and is rebuilt from the other fields on startup.
type Reminder struct {
	ID          string `gorm:"primaryKey"`
	GroupID     string `gorm:"index"`
	Title       string
	Color       string
	Description string

	RecurKind     string `gorm:"index"`
	FireAt        *time.Time
	CronExpr      string
	PeriodSeconds int64
	WindowSeconds int64 // 0 = forever

	StartAt       time.Time
	NextTrigger   *time.Time
	LastTriggered *time.Time

	IsCancelled bool `gorm:"default:false"`
	IsPaused    bool `gorm:"default:false"`
	IsDeleted   bool `gorm:"default:false;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive reports whether the reminder is eligible for scheduling.
func (r Reminder) IsActive() bool {
	return !r.IsCancelled && !r.IsDeleted && !r.IsPaused
}

// Descriptor reconstructs the recurrence descriptor from the stored columns.
func (r Reminder) Descriptor() recurrence.Descriptor {
	d := recurrence.Descriptor{
		Kind:       recurrence.Kind(r.RecurKind),
		Expression: r.CronExpr,
		Period:     time.Duration(r.PeriodSeconds) * time.Second,
		Window:     time.Duration(r.WindowSeconds) * time.Second,
	}
	if r.FireAt != nil {
		d.FireAt = *r.FireAt
	}
	return d
}

// SetDescriptor writes the descriptor back into the tagged columns.
func (r *Reminder) SetDescriptor(d recurrence.Descriptor) {
	r.RecurKind = string(d.Kind)
	r.CronExpr = ""
	r.FireAt = nil
	r.PeriodSeconds = 0
	r.WindowSeconds = 0
	switch d.Kind {
	case recurrence.KindOneShot:
		at := d.FireAt
		r.FireAt = &at
	case recurrence.KindCron:
		r.CronExpr = d.Expression
	case recurrence.KindInterval:
		r.PeriodSeconds = int64(d.Period / time.Second)
		r.WindowSeconds = int64(d.Window / time.Second)
	}
}
