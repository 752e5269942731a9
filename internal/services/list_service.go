package services

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/yukikurage/taskboard-api/internal/apperr"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/repository"
)

// ListService orchestrates list CRUD and ordering inside one transaction per call.
type ListService struct {
	tx    repository.Transactor
	lists repository.ListRepository
	seq   *repository.Sequencer
	cache BoardCache
}

// NewListService creates a new ListService
func NewListService(tx repository.Transactor, lists repository.ListRepository, seq *repository.Sequencer, cache BoardCache) *ListService {
	return &ListService{
		tx:    tx,
		lists: lists,
		seq:   seq,
		cache: cache,
	}
}

// CreateListInput represents input for creating a list
type CreateListInput struct {
	ProjectID   uint64
	Title       string
	Description string
}

// UpdateListInput represents input for updating a list
type UpdateListInput struct {
	Title       *string
	Description *string
}

// CreateList appends a new list to the end of the project.
func (s *ListService) CreateList(ctx context.Context, input CreateListInput) (*models.List, error) {
	title, err := requireTitle("list", input.Title)
	if err != nil {
		return nil, err
	}

	var created *models.List
	err = s.tx.Run(ctx, func(tx *repository.Tx) error {
		position, err := s.seq.Append(tx, repository.ListScope(input.ProjectID))
		if err != nil {
			return err
		}

		list := &models.List{
			ProjectID:   input.ProjectID,
			Position:    position,
			Title:       title,
			Description: input.Description,
		}
		if err := s.lists.Create(tx, list); err != nil {
			return err
		}

		created, err = s.lists.FindByID(tx, input.ProjectID, list.ID, false)
		return err
	})
	if err != nil {
		logFailure(err, "create list", log.Fields{"project": input.ProjectID})
		return nil, err
	}

	log.WithFields(log.Fields{"project": input.ProjectID, "list": created.ID, "position": created.Position}).Debug("list created")
	invalidateBoard(ctx, s.cache, input.ProjectID)
	return created, nil
}

// GetList returns a list with its tasks in order.
func (s *ListService) GetList(ctx context.Context, projectID, listID uint64) (*models.List, error) {
	var list *models.List
	err := s.tx.Run(ctx, func(tx *repository.Tx) error {
		var err error
		list, err = s.lists.FindByID(tx, projectID, listID, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateList overwrites the supplied metadata.
func (s *ListService) UpdateList(ctx context.Context, projectID, listID uint64, input UpdateListInput) (*models.List, error) {
	var updated *models.List
	err := s.tx.Run(ctx, func(tx *repository.Tx) error {
		list, err := s.lists.FindByID(tx, projectID, listID, false)
		if err != nil {
			return err
		}

		if input.Title != nil {
			title, err := requireTitle("list", *input.Title)
			if err != nil {
				return err
			}
			list.Title = title
		}
		if input.Description != nil {
			list.Description = *input.Description
		}
		if err := s.lists.UpdateMeta(tx, list); err != nil {
			return err
		}

		updated, err = s.lists.FindByID(tx, projectID, listID, false)
		return err
	})
	if err != nil {
		logFailure(err, "update list", log.Fields{"project": projectID, "list": listID})
		return nil, err
	}

	invalidateBoard(ctx, s.cache, projectID)
	return updated, nil
}

// lockList locks the project's list order and then reads the list's position,
// so the position cannot go stale before the caller uses it.
func (s *ListService) lockList(tx *repository.Tx, projectID, listID uint64) (repository.Scope, int, error) {
	scope := repository.ListScope(projectID).Of(listID)
	if err := s.seq.Lock(tx, scope); err != nil {
		return scope, 0, err
	}

	parent, pos, err := s.seq.Position(tx, scope)
	if err != nil {
		return scope, 0, err
	}
	if parent != projectID {
		return scope, 0, apperr.NotFound("list", listID)
	}
	return scope, pos, nil
}

// MoveList moves a list to position to. Targets past the end land last.
func (s *ListService) MoveList(ctx context.Context, projectID, listID uint64, to int) (*models.List, error) {
	if err := validatePosition("list", listID, to); err != nil {
		return nil, err
	}

	var moved *models.List
	err := s.tx.Run(ctx, func(tx *repository.Tx) error {
		scope, from, err := s.lockList(tx, projectID, listID)
		if err != nil {
			return err
		}

		if err := s.seq.Move(tx, scope, from, to); err != nil {
			return err
		}

		moved, err = s.lists.FindByID(tx, projectID, listID, false)
		return err
	})
	if err != nil {
		logFailure(err, "move list", log.Fields{"project": projectID, "list": listID})
		return nil, err
	}

	log.WithFields(log.Fields{"project": projectID, "list": listID, "position": moved.Position}).Debug("list moved")
	invalidateBoard(ctx, s.cache, projectID)
	return moved, nil
}

// DeleteList removes a list with its tasks and closes the gap it leaves.
func (s *ListService) DeleteList(ctx context.Context, projectID, listID uint64) error {
	err := s.tx.Run(ctx, func(tx *repository.Tx) error {
		scope, pos, err := s.lockList(tx, projectID, listID)
		if err != nil {
			return err
		}

		if err := s.lists.Delete(tx, listID); err != nil {
			return err
		}
		return s.seq.Remove(tx, scope, pos)
	})
	if err != nil {
		logFailure(err, "delete list", log.Fields{"project": projectID, "list": listID})
		return err
	}

	log.WithFields(log.Fields{"project": projectID, "list": listID}).Debug("list deleted")
	invalidateBoard(ctx, s.cache, projectID)
	return nil
}
