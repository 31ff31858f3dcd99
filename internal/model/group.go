package model

import "time"

// DefaultGroupID is the reserved, always-present group reminders fall
// into when no explicit grouping is used. It cannot be deleted.
const DefaultGroupID = "default"

// Group collects reminders under a display name and color.
type Group struct {
	ID        string `gorm:"primaryKey"`
	Name      string
	Color     string
	CreatedAt time.Time
}

// IsDefault reports whether this is the reserved sentinel group.
func (g Group) IsDefault() bool {
	return g.ID == DefaultGroupID
}
