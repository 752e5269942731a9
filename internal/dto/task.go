package dto

import (
	"time"

	"github.com/yukikurage/taskboard-api/internal/fields"
	"github.com/yukikurage/taskboard-api/internal/models"
)

// FieldValueDTO represents one task value in API responses
type FieldValueDTO struct {
	FieldID uint64      `json:"field_id"`
	Type    fields.Kind `json:"type"`
	Value   interface{} `json:"value"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          uint64          `json:"id"`
	ProjectID   uint64          `json:"project_id"`
	ListID      uint64          `json:"list_id"`
	Position    int             `json:"position"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	AuthorID    uint64          `json:"author_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Fields      []FieldValueDTO `json:"fields"`
}

// ListDTO represents a list in API responses
type ListDTO struct {
	ID          uint64    `json:"id"`
	ProjectID   uint64    `json:"project_id"`
	Position    int       `json:"position"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Tasks       []TaskDTO `json:"tasks,omitempty"`
}

// TaskDraftDTO is an unsaved task suggested from free text
type TaskDraftDTO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Conversion functions

// ToFieldValueDTOs converts stored values, skipping rows without a payload
func ToFieldValueDTOs(values []models.FieldValue) []FieldValueDTO {
	out := make([]FieldValueDTO, 0, len(values))
	for _, fv := range values {
		v, err := fv.Decode()
		if err != nil {
			continue
		}
		out = append(out, FieldValueDTO{FieldID: fv.FieldID, Type: v.Kind(), Value: v.Raw()})
	}
	return out
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:          task.ID,
		ProjectID:   task.ProjectID,
		ListID:      task.ListID,
		Position:    task.Position,
		Title:       task.Title,
		Description: task.Description,
		AuthorID:    task.AuthorID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
		Fields:      ToFieldValueDTOs(task.FieldValues),
	}
}

// ToListDTO converts a List model to ListDTO, including any loaded tasks
func ToListDTO(list models.List) ListDTO {
	dto := ListDTO{
		ID:          list.ID,
		ProjectID:   list.ProjectID,
		Position:    list.Position,
		Title:       list.Title,
		Description: list.Description,
		CreatedAt:   list.CreatedAt,
		UpdatedAt:   list.UpdatedAt,
	}
	if len(list.Tasks) > 0 {
		dto.Tasks = make([]TaskDTO, len(list.Tasks))
		for i, t := range list.Tasks {
			dto.Tasks[i] = ToTaskDTO(t)
		}
	}
	return dto
}
