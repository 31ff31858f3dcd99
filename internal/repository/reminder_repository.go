package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"remindd/internal/apperr"
	"remindd/internal/model"
)

// ReminderRepository handles CRUD and lifecycle mutation for reminders.
//
// Lifecycle flags are written as single-column updates, so concurrent
// mutations of different flags on one record merge per field (last write
// wins per column, serialized by SQLite) instead of one writer failing.
type ReminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(db *gorm.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// Create persists a new reminder, assigning its id.
func (r *ReminderRepository) Create(ctx context.Context, reminder *model.Reminder) error {
	if reminder.ID == "" {
		reminder.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(reminder).Error; err != nil {
		return apperr.StoreIO("create reminder", err)
	}
	return nil
}

// FindByID returns a reminder by id. Soft-deleted records are not found.
func (r *ReminderRepository) FindByID(ctx context.Context, id string) (*model.Reminder, error) {
	var reminder model.Reminder
	err := r.db.WithContext(ctx).
		First(&reminder, "id = ? AND is_deleted = ?", id, false).Error
	switch {
	case err == nil:
		return &reminder, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperr.NotFound("reminder", id)
	default:
		return nil, apperr.StoreIO("find reminder", err)
	}
}

// List returns reminders ordered by creation time, newest first.
// Soft-deleted records are excluded unless includeDeleted is set.
func (r *ReminderRepository) List(ctx context.Context, includeDeleted bool) ([]model.Reminder, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC, id ASC")
	if !includeDeleted {
		q = q.Where("is_deleted = ?", false)
	}
	var reminders []model.Reminder
	if err := q.Find(&reminders).Error; err != nil {
		return nil, apperr.StoreIO("list reminders", err)
	}
	return reminders, nil
}

// ListEligible returns every reminder the scheduler should hold: not
// cancelled, not paused, not deleted.
func (r *ReminderRepository) ListEligible(ctx context.Context) ([]model.Reminder, error) {
	var reminders []model.Reminder
	err := r.db.WithContext(ctx).
		Where("is_cancelled = ? AND is_paused = ? AND is_deleted = ?", false, false, false).
		Order("id ASC").
		Find(&reminders).Error
	if err != nil {
		return nil, apperr.StoreIO("list eligible reminders", err)
	}
	return reminders, nil
}

// Save persists the full record after an update.
func (r *ReminderRepository) Save(ctx context.Context, reminder *model.Reminder) error {
	if err := r.db.WithContext(ctx).Save(reminder).Error; err != nil {
		return apperr.StoreIO("save reminder", err)
	}
	return nil
}

// SetCancelled marks a reminder cancelled. Idempotent: cancelling an
// already-cancelled reminder succeeds without change.
func (r *ReminderRepository) SetCancelled(ctx context.Context, id string) error {
	return r.setFlag(ctx, id, "is_cancelled", true)
}

// SetPaused suspends or resumes a reminder.
func (r *ReminderRepository) SetPaused(ctx context.Context, id string, paused bool) error {
	return r.setFlag(ctx, id, "is_paused", paused)
}

// SoftDelete hides a reminder from all listings and scheduling. The
// record itself is retained.
func (r *ReminderRepository) SoftDelete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&model.Reminder{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Update("is_deleted", true)
	if res.Error != nil {
		return apperr.StoreIO("delete reminder", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("reminder", id)
	}
	return nil
}

// MarkTriggered records a fire: last_triggered is set to firedAt and
// next_trigger to the next occurrence. A nil next marks the schedule
// exhausted, which is equivalent to cancellation.
func (r *ReminderRepository) MarkTriggered(ctx context.Context, id string, firedAt time.Time, next *time.Time) error {
	fields := map[string]any{
		"last_triggered": firedAt,
		"next_trigger":   next,
	}
	if next == nil {
		fields["is_cancelled"] = true
	}
	res := r.db.WithContext(ctx).Model(&model.Reminder{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return apperr.StoreIO("mark triggered", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("reminder", id)
	}
	return nil
}

// SaveNextTrigger updates only the cached next_trigger projection.
func (r *ReminderRepository) SaveNextTrigger(ctx context.Context, id string, next *time.Time) error {
	fields := map[string]any{"next_trigger": next}
	if next == nil {
		fields["is_cancelled"] = true
	}
	res := r.db.WithContext(ctx).Model(&model.Reminder{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return apperr.StoreIO("save next trigger", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("reminder", id)
	}
	return nil
}

func (r *ReminderRepository) setFlag(ctx context.Context, id, column string, value bool) error {
	res := r.db.WithContext(ctx).Model(&model.Reminder{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Update(column, value)
	if res.Error != nil {
		return apperr.StoreIO("update reminder", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("reminder", id)
	}
	return nil
}
