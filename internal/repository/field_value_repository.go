package repository

import (
	"fmt"

	"github.com/yukikurage/taskboard-api/internal/fields"
	"github.com/yukikurage/taskboard-api/internal/models"
	"gorm.io/gorm/clause"
)

// GormFieldValueRepository stores all field kinds in one table discriminated by kind
type GormFieldValueRepository struct{}

// NewFieldValueRepository creates a new FieldValueRepository
func NewFieldValueRepository() FieldValueRepository {
	return &GormFieldValueRepository{}
}

// Upsert inserts or overwrites one value per assignment
func (r *GormFieldValueRepository) Upsert(tx *Tx, taskID uint64, values []fields.Assignment) error {
	if len(values) == 0 {
		return nil
	}

	rows := make([]models.FieldValue, len(values))
	for i, a := range values {
		rows[i] = models.NewFieldValue(taskID, a)
	}

	return tx.DB().
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "field_id"}, {Name: "task_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"kind", "string_value", "number_value", "enum_value", "updated_at"}),
		}).
		Create(&rows).Error
}

// ListByTasks returns values for the given tasks sorted by task then field
func (r *GormFieldValueRepository) ListByTasks(tx *Tx, taskIDs []uint64) ([]models.FieldValue, error) {
	if len(taskIDs) == 0 {
		return []models.FieldValue{}, nil
	}

	var values []models.FieldValue
	if err := tx.DB().
		Where("task_id IN ?", taskIDs).
		Order("task_id ASC").Order("field_id ASC").
		Find(&values).Error; err != nil {
		return nil, fmt.Errorf("failed to list field values: %w", err)
	}
	return values, nil
}

// DeleteByFields removes every value of the given fields
func (r *GormFieldValueRepository) DeleteByFields(tx *Tx, fieldIDs []uint64) error {
	if len(fieldIDs) == 0 {
		return nil
	}
	return tx.DB().Where("field_id IN ?", fieldIDs).Delete(&models.FieldValue{}).Error
}

// DeleteByTasks removes every value of the given tasks
func (r *GormFieldValueRepository) DeleteByTasks(tx *Tx, taskIDs []uint64) error {
	if len(taskIDs) == 0 {
		return nil
	}
	return tx.DB().Where("task_id IN ?", taskIDs).Delete(&models.FieldValue{}).Error
}
