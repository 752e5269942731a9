package repository

import (
	"errors"
	"fmt"

	"github.com/yukikurage/taskboard-api/internal/apperr"
	"github.com/yukikurage/taskboard-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	values FieldValueRepository
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(values FieldValueRepository) TaskRepository {
	return &GormTaskRepository{values: values}
}

// Create inserts a task whose position is already assigned
func (r *GormTaskRepository) Create(tx *Tx, task *models.Task) error {
	if err := tx.DB().Omit("FieldValues").Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// FindByID finds a task inside a project with its field values
func (r *GormTaskRepository) FindByID(tx *Tx, projectID, taskID uint64) (*models.Task, error) {
	var task models.Task
	if err := tx.DB().
		Where("id = ? AND project_id = ?", taskID, projectID).
		First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("task", taskID)
		}
		return nil, fmt.Errorf("failed to find task %d: %w", taskID, err)
	}

	values, err := r.values.ListByTasks(tx, []uint64{task.ID})
	if err != nil {
		return nil, err
	}
	task.FieldValues = values
	return &task, nil
}

// UpdateMeta overwrites title and description
func (r *GormTaskRepository) UpdateMeta(tx *Tx, task *models.Task) error {
	res := tx.DB().Model(&models.Task{}).
		Where("id = ?", task.ID).
		Updates(map[string]any{
			"title":       task.Title,
			"description": task.Description,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update task %d: %w", task.ID, res.Error)
	}
	if res.RowsAffected != 1 {
		return apperr.Internal("task", task.ID, "update affected no rows", nil)
	}
	return nil
}

// Delete removes a task and its field values
func (r *GormTaskRepository) Delete(tx *Tx, taskID uint64) error {
	if err := r.values.DeleteByTasks(tx, []uint64{taskID}); err != nil {
		return apperr.Internal("task", taskID, "failed to delete field values", err)
	}

	res := tx.DB().Delete(&models.Task{}, taskID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete task %d: %w", taskID, res.Error)
	}
	if res.RowsAffected != 1 {
		return apperr.Internal("task", taskID, "delete affected no rows", nil)
	}
	return nil
}

// SetProject rewrites the denormalized project reference after a cross-list move
func (r *GormTaskRepository) SetProject(tx *Tx, taskID, projectID uint64) error {
	res := tx.DB().Model(&models.Task{}).Where("id = ?", taskID).Update("project_id", projectID)
	if res.Error != nil {
		return fmt.Errorf("failed to update project of task %d: %w", taskID, res.Error)
	}
	if res.RowsAffected != 1 {
		return apperr.Internal("task", taskID, "update affected no rows", nil)
	}
	return nil
}
