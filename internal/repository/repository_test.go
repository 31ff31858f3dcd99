package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"remindd/internal/apperr"
	"remindd/internal/model"
	"remindd/internal/recurrence"
	"remindd/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return db
}

func newIntervalReminder(groupID string) *model.Reminder {
	r := &model.Reminder{
		GroupID: groupID,
		Title:   "drink water",
		Color:   "#00aaff",
		StartAt: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	r.SetDescriptor(recurrence.Descriptor{
		Kind:   recurrence.KindInterval,
		Period: 5 * time.Minute,
		Window: time.Hour,
	})
	next := r.StartAt.Add(5 * time.Minute)
	r.NextTrigger = &next
	return r
}

func TestDefaultGroupSeeded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	// Open twice: the seed must not duplicate across restarts.
	for i := 0; i < 2; i++ {
		db, err := repository.NewDB(path)
		if err != nil {
			t.Fatalf("open db: %v", err)
		}
		groups := repository.NewGroupRepository(db)
		list, err := groups.List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 1 || !list[0].IsDefault() {
			t.Fatalf("expected only the default group, got %v", list)
		}
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

func TestDefaultGroupCannotBeDeleted(t *testing.T) {
	db := newTestDB(t)
	groups := repository.NewGroupRepository(db)

	_, err := groups.Delete(context.Background(), model.DefaultGroupID)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGroupCRUD(t *testing.T) {
	db := newTestDB(t)
	groups := repository.NewGroupRepository(db)
	ctx := context.Background()

	if _, err := groups.Create(ctx, "", "#fff"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("empty name should fail validation, got %v", err)
	}

	group, err := groups.Create(ctx, "Health", "#22cc88")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if group.ID == "" {
		t.Fatalf("id not generated")
	}

	found, err := groups.FindByID(ctx, group.ID)
	if err != nil || found.Name != "Health" {
		t.Fatalf("find: %v %v", found, err)
	}

	list, err := groups.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || !list[0].IsDefault() {
		t.Fatalf("default group must come first, got %v", list)
	}

	if _, err := groups.FindByID(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := groups.Delete(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found on delete, got %v", err)
	}
}

func TestDeleteGroupCascades(t *testing.T) {
	db := newTestDB(t)
	groups := repository.NewGroupRepository(db)
	reminders := repository.NewReminderRepository(db)
	ctx := context.Background()

	group, err := groups.Create(ctx, "Work", "#333333")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	inGroup := newIntervalReminder(group.ID)
	if err := reminders.Create(ctx, inGroup); err != nil {
		t.Fatalf("create reminder: %v", err)
	}
	elsewhere := newIntervalReminder(model.DefaultGroupID)
	if err := reminders.Create(ctx, elsewhere); err != nil {
		t.Fatalf("create reminder: %v", err)
	}

	cascaded, err := groups.Delete(ctx, group.ID)
	if err != nil {
		t.Fatalf("delete group: %v", err)
	}
	if len(cascaded) != 1 || cascaded[0] != inGroup.ID {
		t.Fatalf("expected cascade to report %s, got %v", inGroup.ID, cascaded)
	}

	list, err := reminders.List(ctx, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != elsewhere.ID {
		t.Fatalf("cascaded reminder still listed: %v", list)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	reminders := repository.NewReminderRepository(db)
	ctx := context.Background()

	r := newIntervalReminder(model.DefaultGroupID)
	if err := reminders.Create(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := reminders.SetCancelled(ctx, r.ID); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if err := reminders.SetCancelled(ctx, r.ID); err != nil {
		t.Fatalf("second cancel: %v", err)
	}

	got, err := reminders.FindByID(ctx, r.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !got.IsCancelled {
		t.Fatalf("expected is_cancelled after double cancel")
	}

	if err := reminders.SetCancelled(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLifecycleFlagsMergePerField(t *testing.T) {
	db := newTestDB(t)
	reminders := repository.NewReminderRepository(db)
	ctx := context.Background()

	r := newIntervalReminder(model.DefaultGroupID)
	if err := reminders.Create(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Pause and cancel are separate columns; one does not clobber the other.
	if err := reminders.SetPaused(ctx, r.ID, true); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := reminders.SetCancelled(ctx, r.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	got, err := reminders.FindByID(ctx, r.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !got.IsPaused || !got.IsCancelled {
		t.Fatalf("expected both flags set, got paused=%v cancelled=%v", got.IsPaused, got.IsCancelled)
	}
	if got.NextTrigger == nil {
		t.Fatalf("pause must preserve next_trigger")
	}
}

func TestSoftDelete(t *testing.T) {
	db := newTestDB(t)
	reminders := repository.NewReminderRepository(db)
	ctx := context.Background()

	r := newIntervalReminder(model.DefaultGroupID)
	if err := reminders.Create(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := reminders.SoftDelete(ctx, r.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := reminders.FindByID(ctx, r.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("soft-deleted reminder should not be found, got %v", err)
	}

	list, err := reminders.List(ctx, false)
	if err != nil || len(list) != 0 {
		t.Fatalf("soft-deleted reminder listed: %v %v", list, err)
	}
	withDeleted, err := reminders.List(ctx, true)
	if err != nil || len(withDeleted) != 1 {
		t.Fatalf("include_deleted should surface the record: %v %v", withDeleted, err)
	}

	if err := reminders.SoftDelete(ctx, r.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
}

func TestListEligible(t *testing.T) {
	db := newTestDB(t)
	reminders := repository.NewReminderRepository(db)
	ctx := context.Background()

	active := newIntervalReminder(model.DefaultGroupID)
	paused := newIntervalReminder(model.DefaultGroupID)
	cancelled := newIntervalReminder(model.DefaultGroupID)
	for _, r := range []*model.Reminder{active, paused, cancelled} {
		if err := reminders.Create(ctx, r); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := reminders.SetPaused(ctx, paused.ID, true); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := reminders.SetCancelled(ctx, cancelled.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	eligible, err := reminders.ListEligible(ctx)
	if err != nil {
		t.Fatalf("list eligible: %v", err)
	}
	if len(eligible) != 1 || eligible[0].ID != active.ID {
		t.Fatalf("expected only the active reminder, got %v", eligible)
	}
}

func TestMarkTriggered(t *testing.T) {
	db := newTestDB(t)
	reminders := repository.NewReminderRepository(db)
	ctx := context.Background()

	r := newIntervalReminder(model.DefaultGroupID)
	if err := reminders.Create(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}

	firedAt := r.StartAt.Add(5 * time.Minute)
	next := firedAt.Add(5 * time.Minute)
	if err := reminders.MarkTriggered(ctx, r.ID, firedAt, &next); err != nil {
		t.Fatalf("mark triggered: %v", err)
	}

	got, err := reminders.FindByID(ctx, r.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.LastTriggered == nil || !got.LastTriggered.Equal(firedAt) {
		t.Fatalf("last_triggered not recorded: %v", got.LastTriggered)
	}
	if got.NextTrigger == nil || !got.NextTrigger.Equal(next) {
		t.Fatalf("next_trigger not recorded: %v", got.NextTrigger)
	}

	// A nil next means the schedule is exhausted.
	if err := reminders.MarkTriggered(ctx, r.ID, next, nil); err != nil {
		t.Fatalf("mark exhausted: %v", err)
	}
	got, err = reminders.FindByID(ctx, r.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !got.IsCancelled || got.NextTrigger != nil {
		t.Fatalf("exhaustion must cancel: cancelled=%v next=%v", got.IsCancelled, got.NextTrigger)
	}
}
