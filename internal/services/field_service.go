package services

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/yukikurage/taskboard-api/internal/apperr"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/repository"
)

// FieldService manages a project's custom field schema.
type FieldService struct {
	tx     repository.Transactor
	schema repository.FieldRepository
	cache  BoardCache
}

// NewFieldService creates a new FieldService
func NewFieldService(tx repository.Transactor, schema repository.FieldRepository, cache BoardCache) *FieldService {
	return &FieldService{tx: tx, schema: schema, cache: cache}
}

// CreateFields adds fields to a project. Existing tasks get no value for them.
func (s *FieldService) CreateFields(ctx context.Context, projectID uint64, specs []repository.FieldSpec) ([]models.Field, error) {
	if len(specs) == 0 {
		return nil, apperr.InvalidArgument("field", 0, "fields", "at least one field is required")
	}

	var created []models.Field
	err := s.tx.Run(ctx, func(tx *repository.Tx) error {
		var err error
		created, err = s.schema.CreateFields(tx, projectID, specs)
		return err
	})
	if err != nil {
		logFailure(err, "create fields", log.Fields{"project": projectID})
		return nil, err
	}

	invalidateBoard(ctx, s.cache, projectID)
	return created, nil
}

// GetField returns one field of a project with its options.
func (s *FieldService) GetField(ctx context.Context, projectID, fieldID uint64) (*models.Field, error) {
	var found []models.Field
	err := s.tx.Run(ctx, func(tx *repository.Tx) error {
		var err error
		found, err = s.schema.GetFields(tx, projectID, []uint64{fieldID})
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apperr.NotFound("field", fieldID)
	}
	return &found[0], nil
}

// ListFields returns the project schema ordered by field id.
func (s *FieldService) ListFields(ctx context.Context, projectID uint64) ([]models.Field, error) {
	var found []models.Field
	err := s.tx.Run(ctx, func(tx *repository.Tx) error {
		var err error
		found, err = s.schema.ListFields(tx, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// UpdateFields applies edits. Retyping a field or replacing its options
// deletes the values tasks hold for it.
func (s *FieldService) UpdateFields(ctx context.Context, projectID uint64, edits []repository.FieldEdit) ([]models.Field, error) {
	var updated []models.Field
	err := s.tx.Run(ctx, func(tx *repository.Tx) error {
		var err error
		updated, err = s.schema.UpdateFields(tx, projectID, edits)
		return err
	})
	if err != nil {
		logFailure(err, "update fields", log.Fields{"project": projectID})
		return nil, err
	}

	invalidateBoard(ctx, s.cache, projectID)
	return updated, nil
}

// DeleteFields removes fields and every value stored for them.
func (s *FieldService) DeleteFields(ctx context.Context, projectID uint64, fieldIDs []uint64) (bool, error) {
	var deleted bool
	err := s.tx.Run(ctx, func(tx *repository.Tx) error {
		var err error
		deleted, err = s.schema.DeleteFields(tx, projectID, fieldIDs)
		return err
	})
	if err != nil {
		logFailure(err, "delete fields", log.Fields{"project": projectID})
		return false, err
	}

	if deleted {
		invalidateBoard(ctx, s.cache, projectID)
	}
	return deleted, nil
}
