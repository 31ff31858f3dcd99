package server

import (
	"time"

	"remindd/internal/apperr"
	"remindd/internal/model"
	"remindd/internal/recurrence"
)

type groupDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

func toGroupDTO(g model.Group) groupDTO {
	return groupDTO{ID: g.ID, Name: g.Name, Color: g.Color, CreatedAt: g.CreatedAt}
}

type recurrenceDTO struct {
	Kind          string     `json:"kind"`
	FireAt        *time.Time `json:"fire_at,omitempty"`
	Expression    string     `json:"expression,omitempty"`
	PeriodSeconds int64      `json:"period_seconds,omitempty"`
	WindowSeconds int64      `json:"window_seconds,omitempty"`
}

func (d recurrenceDTO) toDescriptor() (recurrence.Descriptor, error) {
	desc := recurrence.Descriptor{
		Kind:       recurrence.Kind(d.Kind),
		Expression: d.Expression,
		Period:     time.Duration(d.PeriodSeconds) * time.Second,
		Window:     time.Duration(d.WindowSeconds) * time.Second,
	}
	switch desc.Kind {
	case recurrence.KindOneShot:
		if d.FireAt == nil {
			return desc, apperr.Validation("fire_at is required for one_shot recurrence")
		}
		desc.FireAt = *d.FireAt
	case recurrence.KindCron, recurrence.KindInterval:
	default:
		return desc, apperr.Validation("unknown recurrence kind %q", d.Kind)
	}
	return desc, nil
}

func toRecurrenceDTO(r model.Reminder) recurrenceDTO {
	return recurrenceDTO{
		Kind:          r.RecurKind,
		FireAt:        r.FireAt,
		Expression:    r.CronExpr,
		PeriodSeconds: r.PeriodSeconds,
		WindowSeconds: r.WindowSeconds,
	}
}

type reminderDTO struct {
	ID            string        `json:"id"`
	GroupID       string        `json:"group_id"`
	Title         string        `json:"title"`
	Color         string        `json:"color"`
	Description   string        `json:"description,omitempty"`
	Recurrence    recurrenceDTO `json:"recurrence"`
	StartAt       time.Time     `json:"start_at"`
	NextTrigger   *time.Time    `json:"next_trigger,omitempty"`
	LastTriggered *time.Time    `json:"last_triggered,omitempty"`
	IsCancelled   bool          `json:"is_cancelled"`
	IsPaused      bool          `json:"is_paused"`
	IsDeleted     bool          `json:"is_deleted"`
	CreatedAt     time.Time     `json:"created_at"`
}

func toReminderDTO(r model.Reminder) reminderDTO {
	return reminderDTO{
		ID:            r.ID,
		GroupID:       r.GroupID,
		Title:         r.Title,
		Color:         r.Color,
		Description:   r.Description,
		Recurrence:    toRecurrenceDTO(r),
		StartAt:       r.StartAt,
		NextTrigger:   r.NextTrigger,
		LastTriggered: r.LastTriggered,
		IsCancelled:   r.IsCancelled,
		IsPaused:      r.IsPaused,
		IsDeleted:     r.IsDeleted,
		CreatedAt:     r.CreatedAt,
	}
}

type createGroupRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type createReminderRequest struct {
	Title       string        `json:"title"`
	Color       string        `json:"color"`
	GroupID     string        `json:"group_id"`
	Description string        `json:"description"`
	StartAt     *time.Time    `json:"start_at"`
	Recurrence  recurrenceDTO `json:"recurrence"`
}

type updateReminderRequest struct {
	Title       *string        `json:"title"`
	Color       *string        `json:"color"`
	Description *string        `json:"description"`
	StartAt     *time.Time     `json:"start_at"`
	Recurrence  *recurrenceDTO `json:"recurrence"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}
