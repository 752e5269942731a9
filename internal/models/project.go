package models

import (
	"time"
)

type Project struct {
	ID              uint64    `gorm:"primarykey" json:"id"`
	Title           string    `gorm:"type:varchar(255);not null" json:"title"`
	Description     string    `gorm:"type:text" json:"description"`
	InviteCodeHash  string    `gorm:"type:varchar(100);not null" json:"-"`
	InviteExpiresAt time.Time `json:"invite_expires_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Relations
	Members []ProjectMember `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
	Lists   []List          `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"lists,omitempty"`
	Fields  []Field         `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"fields,omitempty"`
}
