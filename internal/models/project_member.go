package models

import "time"

type ProjectRole string

const (
	RoleCreator ProjectRole = "creator"
	RoleMember  ProjectRole = "member"
	RoleBanned  ProjectRole = "banned"
)

type ProjectMember struct {
	ProjectID uint64      `gorm:"primarykey" json:"project_id"`
	UserID    uint64      `gorm:"primarykey;index" json:"user_id"`
	Role      ProjectRole `gorm:"type:varchar(20);not null" json:"role"`
	JoinedAt  time.Time   `json:"joined_at"`
}
