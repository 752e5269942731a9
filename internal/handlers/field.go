package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/taskboard-api/internal/dto"
	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"github.com/yukikurage/taskboard-api/internal/middleware"
	"github.com/yukikurage/taskboard-api/internal/services"
)

type FieldHandler struct {
	fields *services.FieldService
}

func NewFieldHandler(fields *services.FieldService) *FieldHandler {
	return &FieldHandler{fields: fields}
}

func (h *FieldHandler) ListFields(c *gin.Context) {
	found, err := h.fields.ListFields(c.Request.Context(), middleware.GetProjectID(c))
	if err != nil {
		apierrors.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fields": dto.ToFieldDTOs(found)})
}

func (h *FieldHandler) GetField(c *gin.Context) {
	fieldID, ok := parseID(c, "field_id", "field")
	if !ok {
		return
	}

	field, err := h.fields.GetField(c.Request.Context(), middleware.GetProjectID(c), fieldID)
	if err != nil {
		apierrors.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToFieldDTO(*field))
}

// CreateFields adds fields to the project schema
func (h *FieldHandler) CreateFields(c *gin.Context) {
	type CreateFieldsRequest struct {
		Fields []FieldSpecRequest `json:"fields" binding:"required,dive"`
	}

	var req CreateFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	created, err := h.fields.CreateFields(c.Request.Context(), middleware.GetProjectID(c), toSpecs(req.Fields))
	if err != nil {
		apierrors.FromError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"fields": dto.ToFieldDTOs(created)})
}

// UpdateFields edits fields; values of retyped fields are discarded
func (h *FieldHandler) UpdateFields(c *gin.Context) {
	type UpdateFieldsRequest struct {
		Fields []FieldEditRequest `json:"fields" binding:"required,dive"`
	}

	var req UpdateFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.fields.UpdateFields(c.Request.Context(), middleware.GetProjectID(c), toFieldEdits(req.Fields))
	if err != nil {
		apierrors.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fields": dto.ToFieldDTOs(updated)})
}

// DeleteFields removes fields and their values
func (h *FieldHandler) DeleteFields(c *gin.Context) {
	type DeleteFieldsRequest struct {
		IDs []uint64 `json:"ids" binding:"required"`
	}

	var req DeleteFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	deleted, err := h.fields.DeleteFields(c.Request.Context(), middleware.GetProjectID(c), req.IDs)
	if err != nil {
		apierrors.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
