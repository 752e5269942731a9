package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/taskboard-api/internal/models"
	"gorm.io/gorm"
)

// GormAccessFacts reads membership and authorship straight from the store.
type GormAccessFacts struct {
	db *gorm.DB
}

// NewAccessFacts creates a new AccessFacts
func NewAccessFacts(db *gorm.DB) AccessFacts {
	return &GormAccessFacts{db: db}
}

// ProjectRole returns the caller's role, or "" when not a member
func (a *GormAccessFacts) ProjectRole(ctx context.Context, projectID, userID uint64) (models.ProjectRole, error) {
	var member models.ProjectMember
	err := a.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read role of user %d in project %d: %w", userID, projectID, err)
	}
	return member.Role, nil
}

// IsTaskAuthor reports whether the caller authored the task
func (a *GormAccessFacts) IsTaskAuthor(ctx context.Context, taskID, userID uint64) (bool, error) {
	var count int64
	if err := a.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND author_id = ?", taskID, userID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check author of task %d: %w", taskID, err)
	}
	return count > 0, nil
}
