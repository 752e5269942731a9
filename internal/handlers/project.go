package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/taskboard-api/internal/dto"
	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"github.com/yukikurage/taskboard-api/internal/fields"
	"github.com/yukikurage/taskboard-api/internal/middleware"
	"github.com/yukikurage/taskboard-api/internal/repository"
	"github.com/yukikurage/taskboard-api/internal/services"
	"github.com/yukikurage/taskboard-api/internal/utils"
)

type ProjectHandler struct {
	projects *services.ProjectService
}

func NewProjectHandler(projects *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// FieldSpecRequest defines a new field
type FieldSpecRequest struct {
	Type    string   `json:"type" binding:"required"`
	Title   string   `json:"title" binding:"required"`
	Options []string `json:"options"`
}

// FieldEditRequest changes an existing field. Omitted members are untouched.
type FieldEditRequest struct {
	ID      uint64   `json:"id" binding:"required"`
	Type    *string  `json:"type"`
	Title   *string  `json:"title"`
	Options []string `json:"options"`
}

func toSpecs(reqs []FieldSpecRequest) []repository.FieldSpec {
	specs := make([]repository.FieldSpec, len(reqs))
	for i, r := range reqs {
		specs[i] = repository.FieldSpec{Type: fields.Kind(r.Type), Title: r.Title, Options: r.Options}
	}
	return specs
}

func toFieldEdits(reqs []FieldEditRequest) []repository.FieldEdit {
	edits := make([]repository.FieldEdit, len(reqs))
	for i, r := range reqs {
		edit := repository.FieldEdit{ID: r.ID, Title: r.Title, Options: r.Options}
		if r.Type != nil {
			kind := fields.Kind(*r.Type)
			edit.Type = &kind
		}
		edits[i] = edit
	}
	return edits
}

// CreateProject creates a project owned by the caller and returns its first invite code
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateProjectRequest struct {
		Title       string             `json:"title" binding:"required"`
		Description string             `json:"description"`
		Fields      []FieldSpecRequest `json:"fields"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, invite, err := h.projects.CreateProject(c.Request.Context(), services.CreateProjectInput{
		CreatorID:   userID,
		Title:       req.Title,
		Description: req.Description,
		Fields:      toSpecs(req.Fields),
	})
	if err != nil {
		apierrors.FromError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreatedProjectDTO{
		BoardDTO: dto.ToBoardDTO(*project),
		Invite:   dto.InviteDTO{Code: invite.Code, ExpiresAt: invite.ExpiresAt},
	})
}

// ListProjects returns the projects the caller belongs to
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	projects, total, err := h.projects.ListProjects(c.Request.Context(), userID, params)
	if err != nil {
		apierrors.FromError(c, err)
		return
	}

	out := make([]dto.ProjectDTO, len(projects))
	for i, p := range projects {
		out[i] = dto.ToProjectDTO(p)
	}
	c.JSON(http.StatusOK, dto.ProjectListResponse{
		Projects:   out,
		Pagination: params.Response(total),
	})
}

// GetBoard returns the project with its fields, lists and tasks in order
func (h *ProjectHandler) GetBoard(c *gin.Context) {
	board, err := h.projects.GetBoard(c.Request.Context(), middleware.GetProjectID(c))
	if err != nil {
		apierrors.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToBoardDTO(*board))
}

// UpdateProject edits metadata and existing fields
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	type UpdateProjectRequest struct {
		Title       *string            `json:"title"`
		Description *string            `json:"description"`
		Fields      []FieldEditRequest `json:"fields"`
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projects.UpdateProject(c.Request.Context(), middleware.GetProjectID(c), services.UpdateProjectInput{
		Title:       req.Title,
		Description: req.Description,
		Fields:      toFieldEdits(req.Fields),
	})
	if err != nil {
		apierrors.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToBoardDTO(*project))
}

// DeleteProject removes the project and everything in it
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	if err := h.projects.DeleteProject(c.Request.Context(), middleware.GetProjectID(c)); err != nil {
		apierrors.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

// RegenerateInvite issues a new invite code; the previous one stops working
func (h *ProjectHandler) RegenerateInvite(c *gin.Context) {
	invite, err := h.projects.RegenerateInvite(c.Request.Context(), middleware.GetProjectID(c))
	if err != nil {
		apierrors.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.InviteDTO{Code: invite.Code, ExpiresAt: invite.ExpiresAt})
}

// JoinProject adds the caller to a project with a valid invite code
func (h *ProjectHandler) JoinProject(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}
	projectID, ok := parseID(c, "project_id", "project")
	if !ok {
		return
	}

	type JoinRequest struct {
		InviteCode string `json:"invite_code" binding:"required"`
	}

	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projects.JoinByCode(c.Request.Context(), projectID, userID, req.InviteCode)
	if err != nil {
		apierrors.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully joined project",
		"project": dto.ToProjectDTO(*project),
	})
}

// ListMembers returns every membership of the project
func (h *ProjectHandler) ListMembers(c *gin.Context) {
	members, err := h.projects.ListMembers(c.Request.Context(), middleware.GetProjectID(c))
	if err != nil {
		apierrors.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": dto.ToMemberDTOs(members)})
}

// RemoveMember kicks a member; ?ban=true keeps them from rejoining
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	actorID, _ := middleware.GetUserID(c)
	targetID, ok := parseID(c, "user_id", "user")
	if !ok {
		return
	}
	ban := c.Query("ban") == "true"

	if err := h.projects.KickMember(c.Request.Context(), middleware.GetProjectID(c), actorID, targetID, ban); err != nil {
		apierrors.FromError(c, err)
		return
	}

	message := "Member removed successfully"
	if ban {
		message = "Member banned successfully"
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

// LeaveProject removes the caller from the project
func (h *ProjectHandler) LeaveProject(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	if err := h.projects.LeaveProject(c.Request.Context(), middleware.GetProjectID(c), userID); err != nil {
		apierrors.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Left project successfully"})
}
