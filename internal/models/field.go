package models

import (
	"fmt"
	"time"

	"github.com/yukikurage/taskboard-api/internal/fields"
)

// Field is a custom task attribute defined per project.
type Field struct {
	ID        uint64      `gorm:"primarykey" json:"id"`
	ProjectID uint64      `gorm:"not null;index" json:"project_id"`
	Title     string      `gorm:"type:varchar(255);not null" json:"title"`
	Type      fields.Kind `gorm:"type:varchar(20);not null" json:"type"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`

	// Relations
	Options []FieldOption `gorm:"foreignKey:FieldID;constraint:OnDelete:CASCADE" json:"options,omitempty"`
	Values  []FieldValue  `gorm:"foreignKey:FieldID;constraint:OnDelete:CASCADE" json:"-"`
}

// Schema returns the validator view of the field.
func (f Field) Schema() fields.Schema {
	return fields.Schema{ID: f.ID, Kind: f.Type, Options: len(f.Options)}
}

// FieldOption is one enum choice. Ordinal is the 0-based enum index.
type FieldOption struct {
	ID      uint64 `gorm:"primarykey" json:"-"`
	FieldID uint64 `gorm:"not null;uniqueIndex:idx_field_options_ordinal,priority:1" json:"-"`
	Ordinal int    `gorm:"not null;uniqueIndex:idx_field_options_ordinal,priority:2" json:"ordinal"`
	Label   string `gorm:"type:varchar(255);not null" json:"label"`
}

// FieldValue stores one task's value for one field. Exactly one payload
// column is set, selected by Kind.
type FieldValue struct {
	FieldID     uint64      `gorm:"primarykey" json:"field_id"`
	TaskID      uint64      `gorm:"primarykey;index" json:"task_id"`
	Kind        fields.Kind `gorm:"type:varchar(20);not null" json:"type"`
	StringValue *string     `gorm:"type:text" json:"string_value,omitempty"`
	NumberValue *float64    `json:"number_value,omitempty"`
	EnumValue   *int64      `json:"enum_value,omitempty"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewFieldValue builds the row for a validated assignment.
func NewFieldValue(taskID uint64, a fields.Assignment) FieldValue {
	row := FieldValue{FieldID: a.FieldID, TaskID: taskID, Kind: a.Value.Kind()}
	switch v := a.Value.(type) {
	case fields.StringValue:
		s := string(v)
		row.StringValue = &s
	case fields.NumberValue:
		n := float64(v)
		row.NumberValue = &n
	case fields.EnumValue:
		i := int64(v)
		row.EnumValue = &i
	}
	return row
}

// Decode returns the typed value held by the row.
func (v FieldValue) Decode() (fields.Value, error) {
	switch v.Kind {
	case fields.KindString:
		if v.StringValue != nil {
			return fields.StringValue(*v.StringValue), nil
		}
	case fields.KindNumber:
		if v.NumberValue != nil {
			return fields.NumberValue(*v.NumberValue), nil
		}
	case fields.KindEnum:
		if v.EnumValue != nil {
			return fields.EnumValue(int(*v.EnumValue)), nil
		}
	}
	return nil, fmt.Errorf("field value (%d, %d) has no %s payload", v.FieldID, v.TaskID, v.Kind)
}
