package dto

import (
	"time"

	"github.com/yukikurage/taskboard-api/internal/fields"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/utils"
)

// FieldDTO represents a field definition in API responses
type FieldDTO struct {
	ID      uint64      `json:"id"`
	Title   string      `json:"title"`
	Type    fields.Kind `json:"type"`
	Options []string    `json:"options,omitempty"`
}

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID              uint64    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	InviteExpiresAt time.Time `json:"invite_expires_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BoardDTO is a project with its schema, lists and tasks in order
type BoardDTO struct {
	ProjectDTO
	Fields []FieldDTO `json:"fields"`
	Lists  []ListDTO  `json:"lists"`
}

// InviteDTO carries a plaintext invite code; it is only shown when issued
type InviteDTO struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreatedProjectDTO is the response to project creation
type CreatedProjectDTO struct {
	BoardDTO
	Invite InviteDTO `json:"invite"`
}

// MemberDTO represents a project member
type MemberDTO struct {
	UserID   uint64             `json:"user_id"`
	Role     models.ProjectRole `json:"role"`
	JoinedAt time.Time          `json:"joined_at"`
}

// ProjectListResponse represents a paginated list of projects
type ProjectListResponse struct {
	Projects   []ProjectDTO             `json:"projects"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToFieldDTO converts a Field model to FieldDTO
func ToFieldDTO(field models.Field) FieldDTO {
	dto := FieldDTO{ID: field.ID, Title: field.Title, Type: field.Type}
	if len(field.Options) > 0 {
		dto.Options = make([]string, len(field.Options))
		for i, o := range field.Options {
			dto.Options[i] = o.Label
		}
	}
	return dto
}

// ToFieldDTOs converts a slice of fields
func ToFieldDTOs(fs []models.Field) []FieldDTO {
	out := make([]FieldDTO, len(fs))
	for i, f := range fs {
		out[i] = ToFieldDTO(f)
	}
	return out
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	return ProjectDTO{
		ID:              project.ID,
		Title:           project.Title,
		Description:     project.Description,
		InviteExpiresAt: project.InviteExpiresAt,
		CreatedAt:       project.CreatedAt,
		UpdatedAt:       project.UpdatedAt,
	}
}

// ToBoardDTO converts a fully loaded project
func ToBoardDTO(project models.Project) BoardDTO {
	lists := make([]ListDTO, len(project.Lists))
	for i, l := range project.Lists {
		lists[i] = ToListDTO(l)
		if lists[i].Tasks == nil {
			lists[i].Tasks = []TaskDTO{}
		}
	}
	return BoardDTO{
		ProjectDTO: ToProjectDTO(project),
		Fields:     ToFieldDTOs(project.Fields),
		Lists:      lists,
	}
}

// ToMemberDTOs converts membership rows
func ToMemberDTOs(members []models.ProjectMember) []MemberDTO {
	out := make([]MemberDTO, len(members))
	for i, m := range members {
		out[i] = MemberDTO{UserID: m.UserID, Role: m.Role, JoinedAt: m.JoinedAt}
	}
	return out
}
