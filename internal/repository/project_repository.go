package repository

import (
	"errors"
	"fmt"

	"github.com/yukikurage/taskboard-api/internal/apperr"
	"github.com/yukikurage/taskboard-api/internal/database"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/utils"
	"gorm.io/gorm"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	values FieldValueRepository
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(values FieldValueRepository) ProjectRepository {
	return &GormProjectRepository{values: values}
}

// Create creates a new project
func (r *GormProjectRepository) Create(tx *Tx, project *models.Project) error {
	if err := tx.DB().Omit("Members", "Lists", "Fields").Create(project).Error; err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// FindByID finds a project by ID
func (r *GormProjectRepository) FindByID(tx *Tx, id uint64) (*models.Project, error) {
	var project models.Project
	if err := tx.DB().First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("project", id)
		}
		return nil, fmt.Errorf("failed to find project %d: %w", id, err)
	}
	return &project, nil
}

// LoadBoard loads a project with fields, lists, tasks and field values, all ordered
func (r *GormProjectRepository) LoadBoard(tx *Tx, id uint64) (*models.Project, error) {
	var project models.Project
	err := tx.DB().
		Preload("Fields", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Fields.Options", orderedOptions).
		Preload("Lists", byPosition).
		Preload("Lists.Tasks", byPosition).
		Preload("Lists.Tasks.FieldValues", orderedValues).
		First(&project, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("project", id)
		}
		return nil, fmt.Errorf("failed to load board %d: %w", id, err)
	}
	return &project, nil
}

// Update updates project metadata and invite columns
func (r *GormProjectRepository) Update(tx *Tx, project *models.Project) error {
	res := tx.DB().Model(&models.Project{}).
		Where("id = ?", project.ID).
		Updates(map[string]any{
			"title":             project.Title,
			"description":       project.Description,
			"invite_code_hash":  project.InviteCodeHash,
			"invite_expires_at": project.InviteExpiresAt,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update project %d: %w", project.ID, res.Error)
	}
	if res.RowsAffected != 1 {
		return apperr.Internal("project", project.ID, "update affected no rows", nil)
	}
	return nil
}

// Delete deletes a project and all related data
func (r *GormProjectRepository) Delete(tx *Tx, id uint64) error {
	db := tx.DB()

	var taskIDs []uint64
	if err := db.Model(&models.Task{}).Where("project_id = ?", id).Pluck("id", &taskIDs).Error; err != nil {
		return fmt.Errorf("failed to find tasks of project %d: %w", id, err)
	}
	if err := r.values.DeleteByTasks(tx, taskIDs); err != nil {
		return apperr.Internal("project", id, "failed to delete field values", err)
	}

	var fieldIDs []uint64
	if err := db.Model(&models.Field{}).Where("project_id = ?", id).Pluck("id", &fieldIDs).Error; err != nil {
		return fmt.Errorf("failed to find fields of project %d: %w", id, err)
	}
	if len(fieldIDs) > 0 {
		if err := db.Where("field_id IN ?", fieldIDs).Delete(&models.FieldOption{}).Error; err != nil {
			return fmt.Errorf("failed to delete options of project %d: %w", id, err)
		}
	}

	if err := db.Where("project_id = ?", id).Delete(&models.Field{}).Error; err != nil {
		return fmt.Errorf("failed to delete fields of project %d: %w", id, err)
	}
	if err := db.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
		return fmt.Errorf("failed to delete tasks of project %d: %w", id, err)
	}
	if err := db.Where("project_id = ?", id).Delete(&models.List{}).Error; err != nil {
		return fmt.Errorf("failed to delete lists of project %d: %w", id, err)
	}
	if err := db.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
		return fmt.Errorf("failed to delete members of project %d: %w", id, err)
	}

	res := db.Delete(&models.Project{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete project %d: %w", id, res.Error)
	}
	if res.RowsAffected != 1 {
		return apperr.Internal("project", id, "delete affected no rows", nil)
	}
	return nil
}

// AddMember adds a member to a project
func (r *GormProjectRepository) AddMember(tx *Tx, member *models.ProjectMember) error {
	if err := tx.DB().Create(member).Error; err != nil {
		return fmt.Errorf("failed to add member %d to project %d: %w", member.UserID, member.ProjectID, err)
	}
	return nil
}

// RemoveMember removes a member from a project
func (r *GormProjectRepository) RemoveMember(tx *Tx, projectID, userID uint64) (bool, error) {
	res := tx.DB().Where("project_id = ? AND user_id = ?", projectID, userID).Delete(&models.ProjectMember{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to remove member %d from project %d: %w", userID, projectID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// SetMemberRole changes a member's role
func (r *GormProjectRepository) SetMemberRole(tx *Tx, projectID, userID uint64, role models.ProjectRole) (bool, error) {
	res := tx.DB().Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Update("role", role)
	if res.Error != nil {
		return false, fmt.Errorf("failed to set role of member %d in project %d: %w", userID, projectID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// FindMember finds a specific project member
func (r *GormProjectRepository) FindMember(tx *Tx, projectID, userID uint64) (*models.ProjectMember, error) {
	var member models.ProjectMember
	if err := tx.DB().Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("member", userID)
		}
		return nil, fmt.Errorf("failed to find member %d of project %d: %w", userID, projectID, err)
	}
	return &member, nil
}

// ListMembers lists all members of a project
func (r *GormProjectRepository) ListMembers(tx *Tx, projectID uint64) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	if err := tx.DB().Where("project_id = ?", projectID).
		Order("joined_at ASC").Order("user_id ASC").
		Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to list members of project %d: %w", projectID, err)
	}
	return members, nil
}

// ListForUser lists projects the user belongs to without a ban, paginated
func (r *GormProjectRepository) ListForUser(tx *Tx, userID uint64, page utils.PaginationParams) ([]models.Project, int64, error) {
	query := tx.DB().Model(&models.Project{}).
		Joins("JOIN project_members ON project_members.project_id = projects.id").
		Where("project_members.user_id = ? AND project_members.role <> ?", userID, models.RoleBanned)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count projects of user %d: %w", userID, err)
	}

	var projects []models.Project
	if err := query.Select("projects.*").Order("projects.id ASC").Scopes(database.Paginate(page)).Find(&projects).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list projects of user %d: %w", userID, err)
	}
	return projects, total, nil
}
