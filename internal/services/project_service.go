package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/yukikurage/taskboard-api/internal/apperr"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/repository"
	"github.com/yukikurage/taskboard-api/internal/utils"
)

var ErrInviteCodeGenerationFailed = errors.New("failed to generate invite code")

// ProjectService provides business logic for project operations.
type ProjectService struct {
	tx        repository.Transactor
	projects  repository.ProjectRepository
	schema    repository.FieldRepository
	cache     BoardCache
	inviteTTL time.Duration
	now       func() time.Time
}

// NewProjectService creates a new ProjectService.
func NewProjectService(tx repository.Transactor, projects repository.ProjectRepository, schema repository.FieldRepository, cache BoardCache, inviteTTL time.Duration) *ProjectService {
	if inviteTTL <= 0 {
		inviteTTL = 24 * time.Hour
	}
	return &ProjectService{
		tx:        tx,
		projects:  projects,
		schema:    schema,
		cache:     cache,
		inviteTTL: inviteTTL,
		now:       time.Now,
	}
}

// CreateProjectInput represents parameters to create a new project.
type CreateProjectInput struct {
	CreatorID   uint64
	Title       string
	Description string
	Fields      []repository.FieldSpec
}

// UpdateProjectInput represents parameters to update a project.
type UpdateProjectInput struct {
	Title       *string
	Description *string
	Fields      []repository.FieldEdit
}

// Invite is a freshly issued plaintext invite code. Only its hash is stored.
type Invite struct {
	Code      string
	ExpiresAt time.Time
}

func (s *ProjectService) issueInvite(project *models.Project) (*Invite, error) {
	code, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, ErrInviteCodeGenerationFailed
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash invite code: %w", err)
	}

	expires := s.now().Add(s.inviteTTL)
	project.InviteCodeHash = string(hash)
	project.InviteExpiresAt = expires
	return &Invite{Code: code, ExpiresAt: expires}, nil
}

// CreateProject creates a project, makes the caller its creator and defines
// its initial fields.
func (s *ProjectService) CreateProject(ctx context.Context, input CreateProjectInput) (*models.Project, *Invite, error) {
	title, err := requireTitle("project", input.Title)
	if err != nil {
		return nil, nil, err
	}

	project := &models.Project{
		Title:       title,
		Description: input.Description,
	}
	invite, err := s.issueInvite(project)
	if err != nil {
		return nil, nil, err
	}

	var created *models.Project
	err = s.tx.Run(ctx, func(tx *repository.Tx) error {
		if err := s.projects.Create(tx, project); err != nil {
			return err
		}

		member := &models.ProjectMember{
			ProjectID: project.ID,
			UserID:    input.CreatorID,
			Role:      models.RoleCreator,
			JoinedAt:  s.now(),
		}
		if err := s.projects.AddMember(tx, member); err != nil {
			return err
		}

		if len(input.Fields) > 0 {
			if _, err := s.schema.CreateFields(tx, project.ID, input.Fields); err != nil {
				return err
			}
		}

		var err error
		created, err = s.projects.LoadBoard(tx, project.ID)
		return err
	})
	if err != nil {
		logFailure(err, "create project", log.Fields{"creator": input.CreatorID})
		return nil, nil, err
	}

	return created, invite, nil
}

// GetBoard returns the project with fields, ordered lists, ordered tasks and
// their values. Snapshots are served from the cache when present.
func (s *ProjectService) GetBoard(ctx context.Context, projectID uint64) (*models.Project, error) {
	var gen uint64
	if s.cache != nil {
		board, current, ok := s.cache.Get(ctx, projectID)
		if ok {
			return board, nil
		}
		gen = current
	}

	var board *models.Project
	err := s.tx.Run(ctx, func(tx *repository.Tx) error {
		var err error
		board, err = s.projects.LoadBoard(tx, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, board, gen)
	}
	return board, nil
}

// ListProjects returns the projects a user belongs to, excluding bans.
func (s *ProjectService) ListProjects(ctx context.Context, userID uint64, pagination utils.PaginationParams) ([]models.Project, int64, error) {
	var (
		projects []models.Project
		total    int64
	)
	err := s.tx.Run(ctx, func(tx *repository.Tx) error {
		var err error
		projects, total, err = s.projects.ListForUser(tx, userID, pagination)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// ListMembers returns every membership row of a project, bans included.
func (s *ProjectService) ListMembers(ctx context.Context, projectID uint64) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	err := s.tx.Run(ctx, func(tx *repository.Tx) error {
		var err error
		members, err = s.projects.ListMembers(tx, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

// UpdateProject overwrites metadata and forwards field edits to the schema store.
func (s *ProjectService) UpdateProject(ctx context.Context, projectID uint64, input UpdateProjectInput) (*models.Project, error) {
	var updated *models.Project
	err := s.tx.Run(ctx, func(tx *repository.Tx) error {
		project, err := s.projects.FindByID(tx, projectID)
		if err != nil {
			return err
		}

		if input.Title != nil {
			title, err := requireTitle("project", *input.Title)
			if err != nil {
				return err
			}
			project.Title = title
		}
		if input.Description != nil {
			project.Description = *input.Description
		}
		if err := s.projects.Update(tx, project); err != nil {
			return err
		}

		if len(input.Fields) > 0 {
			if _, err := s.schema.UpdateFields(tx, projectID, input.Fields); err != nil {
				return err
			}
		}

		updated, err = s.projects.LoadBoard(tx, projectID)
		return err
	})
	if err != nil {
		logFailure(err, "update project", log.Fields{"project": projectID})
		return nil, err
	}

	invalidateBoard(ctx, s.cache, projectID)
	return updated, nil
}

// DeleteProject removes a project and everything it owns.
func (s *ProjectService) DeleteProject(ctx context.Context, projectID uint64) error {
	err := s.tx.Run(ctx, func(tx *repository.Tx) error {
		if _, err := s.projects.FindByID(tx, projectID); err != nil {
			return err
		}
		return s.projects.Delete(tx, projectID)
	})
	if err != nil {
		logFailure(err, "delete project", log.Fields{"project": projectID})
		return err
	}

	invalidateBoard(ctx, s.cache, projectID)
	return nil
}

// RegenerateInvite replaces the invite code; the old one stops working.
func (s *ProjectService) RegenerateInvite(ctx context.Context, projectID uint64) (*Invite, error) {
	var invite *Invite
	err := s.tx.Run(ctx, func(tx *repository.Tx) error {
		project, err := s.projects.FindByID(tx, projectID)
		if err != nil {
			return err
		}

		invite, err = s.issueInvite(project)
		if err != nil {
			return err
		}
		return s.projects.Update(tx, project)
	})
	if err != nil {
		logFailure(err, "regenerate invite", log.Fields{"project": projectID})
		return nil, err
	}
	return invite, nil
}

// JoinByCode adds the caller as a member when code matches the current,
// unexpired invite. Existing members get the project back unchanged.
func (s *ProjectService) JoinByCode(ctx context.Context, projectID, userID uint64, code string) (*models.Project, error) {
	var joined *models.Project
	err := s.tx.Run(ctx, func(tx *repository.Tx) error {
		project, err := s.projects.FindByID(tx, projectID)
		if err != nil {
			return err
		}

		member, err := s.projects.FindMember(tx, projectID, userID)
		switch {
		case err == nil && member.Role == models.RoleBanned:
			return apperr.Forbidden("project", projectID, "user is banned from this project")
		case err == nil:
			joined = project
			return nil
		case !errors.Is(err, apperr.ErrNotFound):
			return err
		}

		if !s.now().Before(project.InviteExpiresAt) {
			return apperr.Forbidden("project", projectID, "invite code has expired")
		}
		if bcrypt.CompareHashAndPassword([]byte(project.InviteCodeHash), []byte(utils.NormalizeInviteCode(code))) != nil {
			return apperr.Forbidden("project", projectID, "invalid invite code")
		}

		if err := s.projects.AddMember(tx, &models.ProjectMember{
			ProjectID: projectID,
			UserID:    userID,
			Role:      models.RoleMember,
			JoinedAt:  s.now(),
		}); err != nil {
			return err
		}

		joined = project
		return nil
	})
	if err != nil {
		logFailure(err, "join project", log.Fields{"project": projectID, "user": userID})
		return nil, err
	}
	return joined, nil
}

// KickMember removes a member, or bans them so they cannot rejoin.
func (s *ProjectService) KickMember(ctx context.Context, projectID, actorID, userID uint64, ban bool) error {
	if actorID == userID {
		return apperr.InvalidArgument("member", userID, "user_id", "cannot remove yourself")
	}

	err := s.tx.Run(ctx, func(tx *repository.Tx) error {
		member, err := s.projects.FindMember(tx, projectID, userID)
		if err != nil {
			return err
		}
		if member.Role == models.RoleCreator {
			return apperr.Forbidden("member", userID, "the project creator cannot be removed")
		}

		if ban {
			ok, err := s.projects.SetMemberRole(tx, projectID, userID, models.RoleBanned)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.Internal("member", userID, "ban affected no rows", nil)
			}
			return nil
		}

		ok, err := s.projects.RemoveMember(tx, projectID, userID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Internal("member", userID, "removal affected no rows", nil)
		}
		return nil
	})
	if err != nil {
		logFailure(err, "kick member", log.Fields{"project": projectID, "user": userID})
		return err
	}
	return nil
}

// LeaveProject removes the caller's membership. The project is deleted when
// no active member remains.
func (s *ProjectService) LeaveProject(ctx context.Context, projectID, userID uint64) error {
	deleted := false
	err := s.tx.Run(ctx, func(tx *repository.Tx) error {
		member, err := s.projects.FindMember(tx, projectID, userID)
		if err != nil {
			return err
		}
		if member.Role == models.RoleBanned {
			return apperr.Forbidden("project", projectID, "user is banned from this project")
		}

		if _, err := s.projects.RemoveMember(tx, projectID, userID); err != nil {
			return err
		}

		members, err := s.projects.ListMembers(tx, projectID)
		if err != nil {
			return err
		}
		for _, m := range members {
			if m.Role != models.RoleBanned {
				return nil
			}
		}

		deleted = true
		return s.projects.Delete(tx, projectID)
	})
	if err != nil {
		logFailure(err, "leave project", log.Fields{"project": projectID, "user": userID})
		return err
	}

	if deleted {
		log.WithField("project", projectID).Info("last member left, project deleted")
		invalidateBoard(ctx, s.cache, projectID)
	}
	return nil
}
