package models

import "time"

// List is an ordered column of a project. Positions are dense within a project.
type List struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	ProjectID   uint64    `gorm:"not null;uniqueIndex:idx_lists_project_position,priority:1" json:"project_id"`
	Position    int       `gorm:"not null;uniqueIndex:idx_lists_project_position,priority:2" json:"position"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Tasks []Task `gorm:"foreignKey:ListID;constraint:OnDelete:CASCADE" json:"tasks,omitempty"`
}
