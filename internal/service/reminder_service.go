// Package service ties the store and the scheduler together: every
// mutation validates, persists, then resyncs the affected queue entry.
package service

import (
	"context"
	"log"
	"time"

	"remindd/internal/apperr"
	"remindd/internal/model"
	"remindd/internal/recurrence"
	"remindd/internal/repository"
	"remindd/internal/scheduler"
)

// ReminderInput carries the fields needed to create a reminder.
type ReminderInput struct {
	Title       string
	Color       string
	GroupID     string
	Description string
	StartAt     *time.Time
	Recurrence  recurrence.Descriptor
}

// ReminderPatch is a partial update; nil fields are left unchanged.
type ReminderPatch struct {
	Title       *string
	Color       *string
	Description *string
	StartAt     *time.Time
	Recurrence  *recurrence.Descriptor
}

// ReminderService is the boundary the API surface calls into.
type ReminderService struct {
	groups    *repository.GroupRepository
	reminders *repository.ReminderRepository
	sched     *scheduler.Scheduler
	clock     scheduler.Clock
}

func NewReminderService(
	groups *repository.GroupRepository,
	reminders *repository.ReminderRepository,
	sched *scheduler.Scheduler,
	clock scheduler.Clock,
) *ReminderService {
	return &ReminderService{groups: groups, reminders: reminders, sched: sched, clock: clock}
}

func (s *ReminderService) CreateGroup(ctx context.Context, name, color string) (*model.Group, error) {
	return s.groups.Create(ctx, name, color)
}

func (s *ReminderService) ListGroups(ctx context.Context) ([]model.Group, error) {
	return s.groups.List(ctx)
}

// DeleteGroup removes a group and soft-deletes its reminders; their queue
// entries are dropped so none of them can fire afterwards.
func (s *ReminderService) DeleteGroup(ctx context.Context, id string) error {
	cascaded, err := s.groups.Delete(ctx, id)
	if err != nil {
		return err
	}
	for _, reminderID := range cascaded {
		s.sched.Remove(reminderID)
	}
	return nil
}

// CreateReminder validates the input, persists the record with its first
// computed next_trigger and enqueues it.
func (s *ReminderService) CreateReminder(ctx context.Context, input ReminderInput) (*model.Reminder, error) {
	if input.Title == "" {
		return nil, apperr.Validation("reminder title is required")
	}
	if err := recurrence.Validate(input.Recurrence); err != nil {
		return nil, err
	}

	groupID := input.GroupID
	if groupID == "" {
		groupID = model.DefaultGroupID
	}
	if _, err := s.groups.FindByID(ctx, groupID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	startAt := now
	if input.StartAt != nil {
		startAt = *input.StartAt
	}

	reminder := &model.Reminder{
		GroupID:     groupID,
		Title:       input.Title,
		Color:       input.Color,
		Description: input.Description,
		StartAt:     startAt,
	}
	reminder.SetDescriptor(input.Recurrence)

	next, ok := scheduler.NextFor(reminder, now)
	if !ok {
		return nil, apperr.Validation("reminder would never fire")
	}
	reminder.NextTrigger = &next

	if err := s.reminders.Create(ctx, reminder); err != nil {
		return nil, err
	}
	if err := s.sched.Resync(ctx, reminder.ID); err != nil {
		log.Printf("service: resync %s after create: %v", reminder.ID, err)
	}
	return reminder, nil
}

// UpdateReminder applies a partial update. A change to the descriptor or
// the start instant recomputes next_trigger and reschedules.
func (s *ReminderService) UpdateReminder(ctx context.Context, id string, patch ReminderPatch) (*model.Reminder, error) {
	reminder, err := s.reminders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	scheduleChanged := false
	if patch.Title != nil {
		if *patch.Title == "" {
			return nil, apperr.Validation("reminder title is required")
		}
		reminder.Title = *patch.Title
	}
	if patch.Color != nil {
		reminder.Color = *patch.Color
	}
	if patch.Description != nil {
		reminder.Description = *patch.Description
	}
	if patch.StartAt != nil {
		reminder.StartAt = *patch.StartAt
		scheduleChanged = true
	}
	if patch.Recurrence != nil {
		if err := recurrence.Validate(*patch.Recurrence); err != nil {
			return nil, err
		}
		reminder.SetDescriptor(*patch.Recurrence)
		scheduleChanged = true
	}

	if scheduleChanged {
		// A new descriptor restarts the cadence from its own anchor.
		reminder.LastTriggered = nil
		next, ok := scheduler.NextFor(reminder, s.clock.Now())
		if !ok {
			return nil, apperr.Validation("updated reminder would never fire")
		}
		reminder.NextTrigger = &next
	}

	if err := s.reminders.Save(ctx, reminder); err != nil {
		return nil, err
	}
	if err := s.sched.Resync(ctx, reminder.ID); err != nil {
		log.Printf("service: resync %s after update: %v", reminder.ID, err)
	}
	return reminder, nil
}

// CancelReminder stops all future fires. Idempotent.
func (s *ReminderService) CancelReminder(ctx context.Context, id string) error {
	if err := s.reminders.SetCancelled(ctx, id); err != nil {
		return err
	}
	s.sched.Remove(id)
	return nil
}

// PauseReminder suspends scheduling while preserving next_trigger, so a
// prompt resume keeps the original cadence.
func (s *ReminderService) PauseReminder(ctx context.Context, id string) error {
	if err := s.reminders.SetPaused(ctx, id, true); err != nil {
		return err
	}
	s.sched.Remove(id)
	return nil
}

// ResumeReminder re-enables scheduling. A next_trigger crossed while
// paused is recomputed from now; no back-dated fire is emitted.
func (s *ReminderService) ResumeReminder(ctx context.Context, id string) error {
	if err := s.reminders.SetPaused(ctx, id, false); err != nil {
		return err
	}
	return s.sched.Resync(ctx, id)
}

// DeleteReminder soft-deletes the record and drops its queue entry.
func (s *ReminderService) DeleteReminder(ctx context.Context, id string) error {
	if err := s.reminders.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.sched.Remove(id)
	return nil
}

func (s *ReminderService) GetReminder(ctx context.Context, id string) (*model.Reminder, error) {
	return s.reminders.FindByID(ctx, id)
}

func (s *ReminderService) ListReminders(ctx context.Context, includeDeleted bool) ([]model.Reminder, error) {
	return s.reminders.List(ctx, includeDeleted)
}
