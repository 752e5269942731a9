package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/taskboard-api/internal/dto"
	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"github.com/yukikurage/taskboard-api/internal/middleware"
	"github.com/yukikurage/taskboard-api/internal/services"
)

type ListHandler struct {
	lists *services.ListService
}

func NewListHandler(lists *services.ListService) *ListHandler {
	return &ListHandler{lists: lists}
}

// MoveRequest carries a 1-based target position
type MoveRequest struct {
	Position int `json:"position" binding:"required"`
}

// CreateList appends a list to the project
func (h *ListHandler) CreateList(c *gin.Context) {
	type CreateListRequest struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
	}

	var req CreateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	list, err := h.lists.CreateList(c.Request.Context(), services.CreateListInput{
		ProjectID:   middleware.GetProjectID(c),
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		apierrors.FromError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToListDTO(*list))
}

// GetList returns a list with its tasks
func (h *ListHandler) GetList(c *gin.Context) {
	listID, ok := parseID(c, "list_id", "list")
	if !ok {
		return
	}

	list, err := h.lists.GetList(c.Request.Context(), middleware.GetProjectID(c), listID)
	if err != nil {
		apierrors.FromError(c, err)
		return
	}

	out := dto.ToListDTO(*list)
	if out.Tasks == nil {
		out.Tasks = []dto.TaskDTO{}
	}
	c.JSON(http.StatusOK, out)
}

// UpdateList edits list metadata
func (h *ListHandler) UpdateList(c *gin.Context) {
	listID, ok := parseID(c, "list_id", "list")
	if !ok {
		return
	}

	type UpdateListRequest struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}

	var req UpdateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	list, err := h.lists.UpdateList(c.Request.Context(), middleware.GetProjectID(c), listID, services.UpdateListInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		apierrors.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToListDTO(*list))
}

// MoveList reorders a list inside the project
func (h *ListHandler) MoveList(c *gin.Context) {
	listID, ok := parseID(c, "list_id", "list")
	if !ok {
		return
	}

	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	list, err := h.lists.MoveList(c.Request.Context(), middleware.GetProjectID(c), listID, req.Position)
	if err != nil {
		apierrors.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToListDTO(*list))
}

// DeleteList removes a list together with its tasks
func (h *ListHandler) DeleteList(c *gin.Context) {
	listID, ok := parseID(c, "list_id", "list")
	if !ok {
		return
	}

	if err := h.lists.DeleteList(c.Request.Context(), middleware.GetProjectID(c), listID); err != nil {
		apierrors.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "List deleted successfully"})
}
