package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"remindd/internal/apperr"
	"remindd/internal/model"
)

// GroupRepository manages reminder groups.
type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) Create(ctx context.Context, name, color string) (*model.Group, error) {
	if name == "" {
		return nil, apperr.Validation("group name is required")
	}
	if color == "" {
		return nil, apperr.Validation("group color is required")
	}
	group := model.Group{
		ID:    uuid.NewString(),
		Name:  name,
		Color: color,
	}
	if err := r.db.WithContext(ctx).Create(&group).Error; err != nil {
		return nil, apperr.StoreIO("create group", err)
	}
	return &group, nil
}

func (r *GroupRepository) FindByID(ctx context.Context, id string) (*model.Group, error) {
	var group model.Group
	err := r.db.WithContext(ctx).First(&group, "id = ?", id).Error
	switch {
	case err == nil:
		return &group, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperr.NotFound("group", id)
	default:
		return nil, apperr.StoreIO("find group", err)
	}
}

// List returns all groups with the default sentinel first.
func (r *GroupRepository) List(ctx context.Context) ([]model.Group, error) {
	var groups []model.Group
	err := r.db.WithContext(ctx).
		Order("id = '" + model.DefaultGroupID + "' DESC").
		Order("name ASC").
		Find(&groups).Error
	if err != nil {
		return nil, apperr.StoreIO("list groups", err)
	}
	return groups, nil
}

// Delete removes a group and soft-deletes its member reminders in one
// transaction. The default group is refused. Returns the ids of the
// reminders that were cascaded so the caller can drop their queue entries.
func (r *GroupRepository) Delete(ctx context.Context, id string) ([]string, error) {
	if id == model.DefaultGroupID {
		return nil, apperr.Validation("the default group cannot be deleted")
	}

	var cascaded []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.Group{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("group", id)
		}

		if err := tx.Model(&model.Reminder{}).
			Where("group_id = ? AND is_deleted = ?", id, false).
			Pluck("id", &cascaded).Error; err != nil {
			return err
		}
		return tx.Model(&model.Reminder{}).
			Where("group_id = ?", id).
			Update("is_deleted", true).Error
	})
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		return nil, apperr.StoreIO("delete group", err)
	}
	return cascaded, nil
}
