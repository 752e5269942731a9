package models

import (
	"time"
)

// Task is an ordered card inside a list. ProjectID is denormalized from the list.
type Task struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	ProjectID   uint64    `gorm:"not null;index" json:"project_id"`
	ListID      uint64    `gorm:"not null;uniqueIndex:idx_tasks_list_position,priority:1" json:"list_id"`
	Position    int       `gorm:"not null;uniqueIndex:idx_tasks_list_position,priority:2" json:"position"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	AuthorID    uint64    `gorm:"not null;index" json:"author_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	FieldValues []FieldValue `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"field_values,omitempty"`
}
