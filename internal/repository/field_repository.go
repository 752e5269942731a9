package repository

import (
	"fmt"
	"strings"

	"github.com/yukikurage/taskboard-api/internal/apperr"
	"github.com/yukikurage/taskboard-api/internal/fields"
	"github.com/yukikurage/taskboard-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const reasonEnumNeedsOptions = "enum field requires options"

// GormFieldRepository is a GORM implementation of FieldRepository
type GormFieldRepository struct {
	values FieldValueRepository
}

// NewFieldRepository creates a new FieldRepository. values is used to
// invalidate task values when a field is retyped or deleted.
func NewFieldRepository(values FieldValueRepository) FieldRepository {
	return &GormFieldRepository{values: values}
}

func orderedOptions(db *gorm.DB) *gorm.DB {
	return db.Order("ordinal ASC")
}

// CreateFields inserts fields and, for enums, their options in order
func (r *GormFieldRepository) CreateFields(tx *Tx, projectID uint64, specs []FieldSpec) ([]models.Field, error) {
	created := make([]models.Field, 0, len(specs))

	for _, spec := range specs {
		kind, ok := fields.ParseKind(string(spec.Type))
		if !ok {
			return nil, apperr.Validation(0, fields.ReasonUnknownKind)
		}
		title := strings.TrimSpace(spec.Title)
		if title == "" {
			return nil, apperr.InvalidArgument("field", 0, "title", "title is required")
		}
		if kind == fields.KindEnum && len(spec.Options) == 0 {
			return nil, apperr.Validation(0, reasonEnumNeedsOptions)
		}

		field := models.Field{
			ProjectID: projectID,
			Title:     title,
			Type:      kind,
		}
		if err := tx.DB().Create(&field).Error; err != nil {
			return nil, fmt.Errorf("failed to create field: %w", err)
		}

		if kind == fields.KindEnum {
			options, err := r.createOptions(tx, field.ID, spec.Options)
			if err != nil {
				return nil, err
			}
			field.Options = options
		}

		created = append(created, field)
	}

	return created, nil
}

func (r *GormFieldRepository) createOptions(tx *Tx, fieldID uint64, labels []string) ([]models.FieldOption, error) {
	options := make([]models.FieldOption, len(labels))
	for i, label := range labels {
		options[i] = models.FieldOption{
			FieldID: fieldID,
			Ordinal: i,
			Label:   label,
		}
	}

	if err := tx.DB().Create(&options).Error; err != nil {
		return nil, fmt.Errorf("failed to create options for field %d: %w", fieldID, err)
	}
	return options, nil
}

// findFields reads fields of a project, all of them when ids is nil. A
// non-empty strength locks the field rows for the rest of the transaction.
func findFields(tx *Tx, projectID uint64, ids []uint64, strength string) ([]models.Field, error) {
	query := tx.DB().Preload("Options", orderedOptions).Where("project_id = ?", projectID)
	if ids != nil {
		query = query.Where("id IN ?", ids)
	}
	if strength != "" {
		query = query.Clauses(clause.Locking{Strength: strength})
	}

	var found []models.Field
	if err := query.Order("id ASC").Find(&found).Error; err != nil {
		return nil, fmt.Errorf("failed to read fields: %w", err)
	}
	return found, nil
}

// GetFields returns the requested fields of a project; foreign ids are ignored
func (r *GormFieldRepository) GetFields(tx *Tx, projectID uint64, fieldIDs []uint64) ([]models.Field, error) {
	if len(fieldIDs) == 0 {
		return []models.Field{}, nil
	}
	return findFields(tx, projectID, fieldIDs, "")
}

// ListFields returns the full schema of a project
func (r *GormFieldRepository) ListFields(tx *Tx, projectID uint64) ([]models.Field, error) {
	return findFields(tx, projectID, nil, "")
}

// ShareFields is ListFields under a shared row lock: UpdateFields and
// DeleteFields on the same fields wait until the caller's transaction ends.
func (r *GormFieldRepository) ShareFields(tx *Tx, projectID uint64) ([]models.Field, error) {
	return findFields(tx, projectID, nil, "SHARE")
}

// UpdateFields applies edits; unknown ids are skipped and an id may appear
// only once. Changing the type or replacing enum options deletes every
// existing value of that field first. The edited rows stay locked until the
// transaction ends so concurrent task writes validate against the new schema.
func (r *GormFieldRepository) UpdateFields(tx *Tx, projectID uint64, edits []FieldEdit) ([]models.Field, error) {
	if len(edits) == 0 {
		return []models.Field{}, nil
	}

	ids := make([]uint64, len(edits))
	seen := make(map[uint64]bool, len(edits))
	for i, e := range edits {
		if seen[e.ID] {
			return nil, apperr.Validation(e.ID, fields.ReasonDuplicateField)
		}
		seen[e.ID] = true
		ids[i] = e.ID
	}

	existing, err := findFields(tx, projectID, ids, "UPDATE")
	if err != nil {
		return nil, err
	}
	byID := make(map[uint64]models.Field, len(existing))
	for _, f := range existing {
		byID[f.ID] = f
	}

	updated := make([]uint64, 0, len(edits))
	for _, edit := range edits {
		field, ok := byID[edit.ID]
		if !ok {
			continue
		}

		kind := field.Type
		if edit.Type != nil {
			parsed, ok := fields.ParseKind(string(*edit.Type))
			if !ok {
				return nil, apperr.Validation(field.ID, fields.ReasonUnknownKind)
			}
			kind = parsed
		}
		retyped := kind != field.Type
		replaceOptions := kind == fields.KindEnum && edit.Options != nil

		if kind == fields.KindEnum {
			if replaceOptions && len(edit.Options) == 0 {
				return nil, apperr.Validation(field.ID, reasonEnumNeedsOptions)
			}
			if retyped && !replaceOptions {
				return nil, apperr.Validation(field.ID, reasonEnumNeedsOptions)
			}
		}

		if retyped || replaceOptions {
			if err := r.values.DeleteByFields(tx, []uint64{field.ID}); err != nil {
				return nil, apperr.Internal("field", field.ID, "failed to clear field values", err)
			}
			if err := tx.DB().Where("field_id = ?", field.ID).Delete(&models.FieldOption{}).Error; err != nil {
				return nil, fmt.Errorf("failed to delete options of field %d: %w", field.ID, err)
			}
			if replaceOptions {
				if _, err := r.createOptions(tx, field.ID, edit.Options); err != nil {
					return nil, err
				}
			}
		}

		changes := map[string]any{"type": kind}
		if edit.Title != nil && strings.TrimSpace(*edit.Title) != "" {
			changes["title"] = strings.TrimSpace(*edit.Title)
		}
		res := tx.DB().Model(&models.Field{}).
			Where("id = ? AND project_id = ?", field.ID, projectID).
			Updates(changes)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to update field %d: %w", field.ID, res.Error)
		}
		if res.RowsAffected != 1 {
			return nil, apperr.Internal("field", field.ID, "field update affected no rows", nil)
		}

		updated = append(updated, field.ID)
	}

	return r.GetFields(tx, projectID, updated)
}

// DeleteFields removes fields with their options and values. Reports whether
// anything was deleted. The field rows are locked before their values go, so a
// task write that already validated against them finishes first.
func (r *GormFieldRepository) DeleteFields(tx *Tx, projectID uint64, fieldIDs []uint64) (bool, error) {
	if len(fieldIDs) == 0 {
		return false, nil
	}

	var scoped []uint64
	if err := tx.DB().Model(&models.Field{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("project_id = ? AND id IN ?", projectID, fieldIDs).
		Pluck("id", &scoped).Error; err != nil {
		return false, fmt.Errorf("failed to find fields: %w", err)
	}
	if len(scoped) == 0 {
		return false, nil
	}

	if err := r.values.DeleteByFields(tx, scoped); err != nil {
		return false, apperr.Internal("field", scoped[0], "failed to clear field values", err)
	}
	if err := tx.DB().Where("field_id IN ?", scoped).Delete(&models.FieldOption{}).Error; err != nil {
		return false, fmt.Errorf("failed to delete options: %w", err)
	}

	res := tx.DB().Where("project_id = ? AND id IN ?", projectID, scoped).Delete(&models.Field{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete fields: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
