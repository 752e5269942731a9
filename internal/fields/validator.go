package fields

import (
	"encoding/json"
	"math"

	"github.com/yukikurage/taskboard-api/internal/apperr"
)

// Validation failure reasons.
const (
	ReasonExpectedString = "expected string"
	ReasonExpectedNumber = "expected number"
	ReasonEnumRange      = "enum index out of range"
	ReasonUnknownField   = "unknown field"
	ReasonDuplicateField = "duplicate field"
	ReasonUnknownKind    = "unknown field type"
)

// Schema is the part of a field definition the validator needs.
type Schema struct {
	ID      uint64
	Kind    Kind
	Options int
}

// Edit is a caller-supplied raw value for one field.
type Edit struct {
	FieldID uint64
	Raw     any
}

// Validate checks raw against schema and returns the typed value.
func Validate(schema Schema, raw any) (Value, error) {
	switch schema.Kind {
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return nil, apperr.Validation(schema.ID, ReasonExpectedString)
		}
		return StringValue(s), nil
	case KindNumber:
		n, ok := toFloat(raw)
		if !ok {
			return nil, apperr.Validation(schema.ID, ReasonExpectedNumber)
		}
		return NumberValue(n), nil
	case KindEnum:
		n, ok := toFloat(raw)
		if !ok || n != math.Trunc(n) {
			return nil, apperr.Validation(schema.ID, ReasonExpectedNumber)
		}
		if n < 0 || n >= float64(schema.Options) {
			return nil, apperr.Validation(schema.ID, ReasonEnumRange)
		}
		return EnumValue(int(n)), nil
	default:
		return nil, apperr.Validation(schema.ID, ReasonUnknownKind)
	}
}

// ValidateAll validates every edit against the project schema. Nothing is
// returned unless all edits pass.
func ValidateAll(schemas []Schema, edits []Edit) ([]Assignment, error) {
	byID := make(map[uint64]Schema, len(schemas))
	for _, s := range schemas {
		byID[s.ID] = s
	}

	seen := make(map[uint64]struct{}, len(edits))
	out := make([]Assignment, 0, len(edits))
	for _, e := range edits {
		schema, ok := byID[e.FieldID]
		if !ok {
			return nil, apperr.Validation(e.FieldID, ReasonUnknownField)
		}
		if _, dup := seen[e.FieldID]; dup {
			return nil, apperr.Validation(e.FieldID, ReasonDuplicateField)
		}
		seen[e.FieldID] = struct{}{}

		v, err := Validate(schema, e.Raw)
		if err != nil {
			return nil, err
		}
		out = append(out, Assignment{FieldID: e.FieldID, Value: v})
	}
	return out, nil
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case float32:
		f := float64(v)
		return f, !math.IsNaN(f) && !math.IsInf(f, 0)
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
