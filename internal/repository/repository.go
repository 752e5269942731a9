package repository

import (
	"context"

	"github.com/yukikurage/taskboard-api/internal/fields"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/utils"
)

// ListRepository defines the interface for list data access
type ListRepository interface {
	// Create inserts a list whose position is already assigned
	Create(tx *Tx, list *models.List) error

	// FindByID finds a list inside a project, optionally with its tasks
	FindByID(tx *Tx, projectID, listID uint64, withTasks bool) (*models.List, error)

	// UpdateMeta overwrites title and description
	UpdateMeta(tx *Tx, list *models.List) error

	// Delete removes a list together with its tasks and their field values
	Delete(tx *Tx, listID uint64) error

	// ListByProject returns a project's lists ordered by position
	ListByProject(tx *Tx, projectID uint64) ([]models.List, error)
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create inserts a task whose position is already assigned
	Create(tx *Tx, task *models.Task) error

	// FindByID finds a task inside a project with its field values
	FindByID(tx *Tx, projectID, taskID uint64) (*models.Task, error)

	// UpdateMeta overwrites title and description
	UpdateMeta(tx *Tx, task *models.Task) error

	// Delete removes a task and its field values
	Delete(tx *Tx, taskID uint64) error

	// SetProject rewrites the denormalized project reference after a cross-list move
	SetProject(tx *Tx, taskID, projectID uint64) error
}

// FieldValueRepository is the uniform get/set contract for task field values
type FieldValueRepository interface {
	// Upsert inserts or overwrites one value per assignment
	Upsert(tx *Tx, taskID uint64, values []fields.Assignment) error

	// ListByTasks returns values for the given tasks sorted by task then field
	ListByTasks(tx *Tx, taskIDs []uint64) ([]models.FieldValue, error)

	// DeleteByFields removes every value of the given fields
	DeleteByFields(tx *Tx, fieldIDs []uint64) error

	// DeleteByTasks removes every value of the given tasks
	DeleteByTasks(tx *Tx, taskIDs []uint64) error
}

// FieldSpec describes a field to create
type FieldSpec struct {
	Type    fields.Kind
	Title   string
	Options []string
}

// FieldEdit describes changes to an existing field. Nil members are left untouched.
type FieldEdit struct {
	ID      uint64
	Type    *fields.Kind
	Title   *string
	Options []string
}

// FieldRepository is the per-project field schema store
type FieldRepository interface {
	// CreateFields inserts fields and, for enums, their options in order
	CreateFields(tx *Tx, projectID uint64, specs []FieldSpec) ([]models.Field, error)

	// GetFields returns the requested fields of a project; foreign ids are ignored
	GetFields(tx *Tx, projectID uint64, fieldIDs []uint64) ([]models.Field, error)

	// ListFields returns the full schema of a project
	ListFields(tx *Tx, projectID uint64) ([]models.Field, error)

	// ShareFields returns the full schema with the rows share-locked, for
	// validating writes that depend on it
	ShareFields(tx *Tx, projectID uint64) ([]models.Field, error)

	// UpdateFields applies edits; unknown ids are skipped, duplicate ids rejected
	UpdateFields(tx *Tx, projectID uint64, edits []FieldEdit) ([]models.Field, error)

	// DeleteFields removes fields with their options and values
	DeleteFields(tx *Tx, projectID uint64, fieldIDs []uint64) (bool, error)
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a new project
	Create(tx *Tx, project *models.Project) error

	// FindByID finds a project by ID
	FindByID(tx *Tx, id uint64) (*models.Project, error)

	// LoadBoard loads a project with fields, lists, tasks and field values, all ordered
	LoadBoard(tx *Tx, id uint64) (*models.Project, error)

	// Update updates project metadata and invite columns
	Update(tx *Tx, project *models.Project) error

	// Delete deletes a project and all related data
	Delete(tx *Tx, id uint64) error

	// AddMember adds a member to a project
	AddMember(tx *Tx, member *models.ProjectMember) error

	// RemoveMember removes a member from a project
	RemoveMember(tx *Tx, projectID, userID uint64) (bool, error)

	// SetMemberRole changes a member's role
	SetMemberRole(tx *Tx, projectID, userID uint64, role models.ProjectRole) (bool, error)

	// FindMember finds a specific project member
	FindMember(tx *Tx, projectID, userID uint64) (*models.ProjectMember, error)

	// ListMembers lists all members of a project
	ListMembers(tx *Tx, projectID uint64) ([]models.ProjectMember, error)

	// ListForUser lists projects the user belongs to without a ban, paginated
	ListForUser(tx *Tx, userID uint64, page utils.PaginationParams) ([]models.Project, int64, error)
}

// AccessFacts reports a caller's relationship to a project or task
type AccessFacts interface {
	// ProjectRole returns the caller's role, or "" when not a member
	ProjectRole(ctx context.Context, projectID, userID uint64) (models.ProjectRole, error)

	// IsTaskAuthor reports whether the caller authored the task
	IsTaskAuthor(ctx context.Context, taskID, userID uint64) (bool, error)
}
