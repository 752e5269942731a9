package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/taskboard-api/internal/dto"
	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"github.com/yukikurage/taskboard-api/internal/middleware"
	"github.com/yukikurage/taskboard-api/internal/services"
)

// TaskHandler serves task CRUD, moves and drafting under a project.
type TaskHandler struct {
	tasks *services.TaskService
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(tasks *services.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// CreateTask appends a task to a list
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}
	listID, ok := parseID(c, "list_id", "list")
	if !ok {
		return
	}

	type CreateTaskRequest struct {
		Title       string              `json:"title" binding:"required"`
		Description string              `json:"description"`
		Fields      []FieldValueRequest `json:"fields"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), services.CreateTaskInput{
		ProjectID:   middleware.GetProjectID(c),
		ListID:      listID,
		AuthorID:    userID,
		Title:       req.Title,
		Description: req.Description,
		Fields:      toEdits(req.Fields),
	})
	if err != nil {
		apierrors.FromError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// GetTask returns a task with its field values
func (h *TaskHandler) GetTask(c *gin.Context) {
	taskID, ok := parseID(c, "task_id", "task")
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(c.Request.Context(), middleware.GetProjectID(c), taskID)
	if err != nil {
		apierrors.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// UpdateTask edits metadata and upserts field values
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	taskID, ok := parseID(c, "task_id", "task")
	if !ok {
		return
	}

	type UpdateTaskRequest struct {
		Title       *string             `json:"title"`
		Description *string             `json:"description"`
		Fields      []FieldValueRequest `json:"fields"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), middleware.GetProjectID(c), taskID, services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Fields:      toEdits(req.Fields),
	})
	if err != nil {
		apierrors.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// MoveTask reorders a task, optionally into another list of the project
func (h *TaskHandler) MoveTask(c *gin.Context) {
	taskID, ok := parseID(c, "task_id", "task")
	if !ok {
		return
	}

	type MoveTaskRequest struct {
		ListID   *uint64 `json:"list_id"`
		Position int     `json:"position" binding:"required"`
	}

	var req MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.tasks.MoveTask(c.Request.Context(), middleware.GetProjectID(c), taskID, services.MoveTaskInput{
		TargetListID: req.ListID,
		Position:     req.Position,
	})
	if err != nil {
		apierrors.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask removes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	taskID, ok := parseID(c, "task_id", "task")
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(c.Request.Context(), middleware.GetProjectID(c), taskID); err != nil {
		apierrors.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// GenerateTasks drafts task suggestions from text. Nothing is stored.
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	type GenerateTasksRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	drafts, err := h.tasks.GenerateTasks(c.Request.Context(), req.Text)
	switch {
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "AI service is not configured. Please set OPENAI_API_KEY environment variable.")
		return
	case errors.Is(err, services.ErrAIInputTooLong):
		apierrors.BadRequest(c, err.Error())
		return
	case errors.Is(err, services.ErrAINoTasksGenerated), errors.Is(err, services.ErrAINoValidTasks):
		apierrors.RespondWithError(c, http.StatusUnprocessableEntity, apierrors.NewAPIError(apierrors.ErrCodeInvalidInput, err.Error()))
		return
	case err != nil:
		apierrors.FromError(c, err)
		return
	}

	out := make([]dto.TaskDraftDTO, len(drafts))
	for i, d := range drafts {
		out[i] = dto.TaskDraftDTO{Title: d.Title, Description: d.Description}
	}
	c.JSON(http.StatusOK, gin.H{"tasks": out})
}
