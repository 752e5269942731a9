package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/yukikurage/taskboard-api/internal/apperr"
	"github.com/yukikurage/taskboard-api/internal/constants"
	"github.com/yukikurage/taskboard-api/internal/fields"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/repository"
)

var (
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
	ErrAIInputTooLong         = fmt.Errorf("text exceeds %d characters", constants.MaxAIInputLength)
)

// TaskService orchestrates task CRUD, ordering and field values inside one
// transaction per call.
type TaskService struct {
	tx        repository.Transactor
	tasks     repository.TaskRepository
	lists     repository.ListRepository
	schema    repository.FieldRepository
	values    repository.FieldValueRepository
	seq       *repository.Sequencer
	cache     BoardCache
	aiService TaskDrafter
}

// NewTaskService creates a new TaskService. aiService may be nil.
func NewTaskService(
	tx repository.Transactor,
	tasks repository.TaskRepository,
	lists repository.ListRepository,
	schema repository.FieldRepository,
	values repository.FieldValueRepository,
	seq *repository.Sequencer,
	cache BoardCache,
	aiService TaskDrafter,
) *TaskService {
	return &TaskService{
		tx:        tx,
		tasks:     tasks,
		lists:     lists,
		schema:    schema,
		values:    values,
		seq:       seq,
		cache:     cache,
		aiService: aiService,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	ProjectID   uint64
	ListID      uint64
	AuthorID    uint64
	Title       string
	Description string
	Fields      []fields.Edit
}

// UpdateTaskInput represents input for updating a task. Fields are upserted;
// values of fields not mentioned are kept.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Fields      []fields.Edit
}

// MoveTaskInput represents input for moving a task. A nil TargetListID keeps
// the task in its list.
type MoveTaskInput struct {
	TargetListID *uint64
	Position     int
}

// validateFields checks edits against the project's schema. The schema rows
// stay share-locked so it cannot change before the values are stored.
func (s *TaskService) validateFields(tx *repository.Tx, projectID uint64, edits []fields.Edit) ([]fields.Assignment, error) {
	if len(edits) == 0 {
		return nil, nil
	}

	schema, err := s.schema.ShareFields(tx, projectID)
	if err != nil {
		return nil, err
	}
	schemas := make([]fields.Schema, len(schema))
	for i, f := range schema {
		schemas[i] = f.Schema()
	}
	return fields.ValidateAll(schemas, edits)
}

// lockTask locks the task's list, plus any extra lists, and then reads the
// task's position. A task re-parented between the first read and the lock is
// followed into its new list.
func (s *TaskService) lockTask(tx *repository.Tx, projectID, taskID uint64, extra ...uint64) (repository.Scope, int, error) {
	task, err := s.tasks.FindByID(tx, projectID, taskID)
	if err != nil {
		return repository.Scope{}, 0, err
	}

	listID := task.ListID
	for attempt := 0; attempt < constants.MaxLockAttempts; attempt++ {
		scope := repository.TaskScope(listID).Of(taskID)
		scopes := []repository.Scope{scope}
		for _, id := range extra {
			if id != listID {
				scopes = append(scopes, repository.TaskScope(id))
			}
		}
		if err := s.seq.Lock(tx, scopes...); err != nil {
			return scope, 0, err
		}

		parent, pos, err := s.seq.Position(tx, scope)
		if err != nil {
			return scope, 0, err
		}
		if parent == listID {
			return scope, pos, nil
		}
		log.WithFields(log.Fields{"task": taskID, "from": listID, "to": parent}).Debug("task changed list while locking")
		listID = parent
	}
	return repository.Scope{}, 0, apperr.Internal("task", taskID, "task kept changing list while locking", nil)
}

// CreateTask appends a task to a list and stores its validated field values.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	title, err := requireTitle("task", input.Title)
	if err != nil {
		return nil, err
	}

	var created *models.Task
	err = s.tx.Run(ctx, func(tx *repository.Tx) error {
		list, err := s.lists.FindByID(tx, input.ProjectID, input.ListID, false)
		if err != nil {
			return err
		}

		assignments, err := s.validateFields(tx, input.ProjectID, input.Fields)
		if err != nil {
			return err
		}

		position, err := s.seq.Append(tx, repository.TaskScope(list.ID))
		if err != nil {
			return err
		}

		task := &models.Task{
			ProjectID:   list.ProjectID,
			ListID:      list.ID,
			Position:    position,
			Title:       title,
			Description: input.Description,
			AuthorID:    input.AuthorID,
		}
		if err := s.tasks.Create(tx, task); err != nil {
			return err
		}
		if err := s.values.Upsert(tx, task.ID, assignments); err != nil {
			return fmt.Errorf("failed to store field values of task %d: %w", task.ID, err)
		}

		created, err = s.tasks.FindByID(tx, input.ProjectID, task.ID)
		return err
	})
	if err != nil {
		logFailure(err, "create task", log.Fields{"project": input.ProjectID, "list": input.ListID})
		return nil, err
	}

	log.WithFields(log.Fields{"project": input.ProjectID, "task": created.ID, "position": created.Position}).Debug("task created")
	invalidateBoard(ctx, s.cache, input.ProjectID)
	return created, nil
}

// GetTask returns a task with its field values sorted by field id.
func (s *TaskService) GetTask(ctx context.Context, projectID, taskID uint64) (*models.Task, error) {
	var task *models.Task
	err := s.tx.Run(ctx, func(tx *repository.Tx) error {
		var err error
		task, err = s.tasks.FindByID(tx, projectID, taskID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTask overwrites the supplied metadata and upserts field values.
func (s *TaskService) UpdateTask(ctx context.Context, projectID, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	var updated *models.Task
	err := s.tx.Run(ctx, func(tx *repository.Tx) error {
		task, err := s.tasks.FindByID(tx, projectID, taskID)
		if err != nil {
			return err
		}

		assignments, err := s.validateFields(tx, projectID, input.Fields)
		if err != nil {
			return err
		}

		if input.Title != nil || input.Description != nil {
			if input.Title != nil {
				title, err := requireTitle("task", *input.Title)
				if err != nil {
					return err
				}
				task.Title = title
			}
			if input.Description != nil {
				task.Description = *input.Description
			}
			if err := s.tasks.UpdateMeta(tx, task); err != nil {
				return err
			}
		}

		if err := s.values.Upsert(tx, task.ID, assignments); err != nil {
			return fmt.Errorf("failed to store field values of task %d: %w", task.ID, err)
		}

		updated, err = s.tasks.FindByID(tx, projectID, taskID)
		return err
	})
	if err != nil {
		logFailure(err, "update task", log.Fields{"project": projectID, "task": taskID})
		return nil, err
	}

	invalidateBoard(ctx, s.cache, projectID)
	return updated, nil
}

// DeleteTask removes a task with its values and closes the gap in its list.
func (s *TaskService) DeleteTask(ctx context.Context, projectID, taskID uint64) error {
	err := s.tx.Run(ctx, func(tx *repository.Tx) error {
		scope, pos, err := s.lockTask(tx, projectID, taskID)
		if err != nil {
			return err
		}

		if err := s.tasks.Delete(tx, taskID); err != nil {
			return err
		}
		return s.seq.Remove(tx, scope, pos)
	})
	if err != nil {
		logFailure(err, "delete task", log.Fields{"project": projectID, "task": taskID})
		return err
	}

	log.WithFields(log.Fields{"project": projectID, "task": taskID}).Debug("task deleted")
	invalidateBoard(ctx, s.cache, projectID)
	return nil
}

// MoveTask moves a task within its list, or into another list of the same project.
func (s *TaskService) MoveTask(ctx context.Context, projectID, taskID uint64, input MoveTaskInput) (*models.Task, error) {
	if err := validatePosition("task", taskID, input.Position); err != nil {
		return nil, err
	}

	var moved *models.Task
	err := s.tx.Run(ctx, func(tx *repository.Tx) error {
		var target *models.List
		var extra []uint64
		if input.TargetListID != nil {
			var err error
			target, err = s.lists.FindByID(tx, projectID, *input.TargetListID, false)
			if err != nil {
				return err
			}
			extra = append(extra, target.ID)
		}

		from, pos, err := s.lockTask(tx, projectID, taskID, extra...)
		if err != nil {
			return err
		}

		if target == nil || target.ID == from.ParentID {
			if err := s.seq.Move(tx, from, pos, input.Position); err != nil {
				return err
			}
		} else {
			if err := s.seq.MoveAcrossScope(tx, from, pos, repository.TaskScope(target.ID), input.Position); err != nil {
				return err
			}
			if err := s.tasks.SetProject(tx, taskID, target.ProjectID); err != nil {
				return err
			}
		}

		moved, err = s.tasks.FindByID(tx, projectID, taskID)
		return err
	})
	if err != nil {
		logFailure(err, "move task", log.Fields{"project": projectID, "task": taskID})
		return nil, err
	}

	log.WithFields(log.Fields{
		"project":  projectID,
		"task":     taskID,
		"list":     moved.ListID,
		"position": moved.Position,
	}).Debug("task moved")
	invalidateBoard(ctx, s.cache, projectID)
	return moved, nil
}

// GenerateTasks drafts tasks from free text. Drafts are not stored; the
// caller creates the ones it keeps through CreateTask.
func (s *TaskService) GenerateTasks(ctx context.Context, text string) ([]GeneratedTask, error) {
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperr.InvalidArgument("task", 0, "text", "text is required")
	}
	if len(text) > constants.MaxAIInputLength {
		return nil, ErrAIInputTooLong
	}

	aiTasks, err := s.aiService.GenerateTasksFromText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		aiTasks = aiTasks[:constants.MaxAIGeneratedTasks]
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	for _, aiTask := range aiTasks {
		aiTask.Title = strings.TrimSpace(aiTask.Title)
		if aiTask.Title == "" {
			continue
		}
		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}
