package repository

import (
	"errors"
	"fmt"

	"github.com/yukikurage/taskboard-api/internal/apperr"
	"github.com/yukikurage/taskboard-api/internal/models"
	"gorm.io/gorm"
)

// GormListRepository is a GORM implementation of ListRepository
type GormListRepository struct {
	values FieldValueRepository
}

// NewListRepository creates a new ListRepository
func NewListRepository(values FieldValueRepository) ListRepository {
	return &GormListRepository{values: values}
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func orderedValues(db *gorm.DB) *gorm.DB {
	return db.Order("field_id ASC")
}

// Create inserts a list whose position is already assigned
func (r *GormListRepository) Create(tx *Tx, list *models.List) error {
	if err := tx.DB().Create(list).Error; err != nil {
		return fmt.Errorf("failed to create list: %w", err)
	}
	return nil
}

// FindByID finds a list inside a project, optionally with its tasks
func (r *GormListRepository) FindByID(tx *Tx, projectID, listID uint64, withTasks bool) (*models.List, error) {
	query := tx.DB()
	if withTasks {
		query = query.Preload("Tasks", byPosition).Preload("Tasks.FieldValues", orderedValues)
	}

	var list models.List
	if err := query.Where("id = ? AND project_id = ?", listID, projectID).First(&list).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("list", listID)
		}
		return nil, fmt.Errorf("failed to find list %d: %w", listID, err)
	}
	return &list, nil
}

// UpdateMeta overwrites title and description
func (r *GormListRepository) UpdateMeta(tx *Tx, list *models.List) error {
	res := tx.DB().Model(&models.List{}).
		Where("id = ? AND project_id = ?", list.ID, list.ProjectID).
		Updates(map[string]any{
			"title":       list.Title,
			"description": list.Description,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update list %d: %w", list.ID, res.Error)
	}
	if res.RowsAffected != 1 {
		return apperr.Internal("list", list.ID, "update affected no rows", nil)
	}
	return nil
}

// Delete removes a list together with its tasks and their field values
func (r *GormListRepository) Delete(tx *Tx, listID uint64) error {
	var taskIDs []uint64
	if err := tx.DB().Model(&models.Task{}).Where("list_id = ?", listID).Pluck("id", &taskIDs).Error; err != nil {
		return fmt.Errorf("failed to find tasks of list %d: %w", listID, err)
	}

	if err := r.values.DeleteByTasks(tx, taskIDs); err != nil {
		return apperr.Internal("list", listID, "failed to delete field values", err)
	}
	if err := tx.DB().Where("list_id = ?", listID).Delete(&models.Task{}).Error; err != nil {
		return fmt.Errorf("failed to delete tasks of list %d: %w", listID, err)
	}

	res := tx.DB().Delete(&models.List{}, listID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete list %d: %w", listID, res.Error)
	}
	if res.RowsAffected != 1 {
		return apperr.Internal("list", listID, "delete affected no rows", nil)
	}
	return nil
}

// ListByProject returns a project's lists ordered by position
func (r *GormListRepository) ListByProject(tx *Tx, projectID uint64) ([]models.List, error) {
	var lists []models.List
	if err := tx.DB().Where("project_id = ?", projectID).Order("position ASC").Find(&lists).Error; err != nil {
		return nil, fmt.Errorf("failed to list lists of project %d: %w", projectID, err)
	}
	return lists, nil
}
