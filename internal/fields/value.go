package fields

import "fmt"

// Kind is the declared type of a project field.
type Kind string

const (
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindEnum   Kind = "enum"
)

// ParseKind accepts the three supported field kinds.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindString, KindNumber, KindEnum:
		return Kind(s), true
	}
	return "", false
}

// Value is a validated field value. Exactly one of StringValue, NumberValue
// or EnumValue.
type Value interface {
	Kind() Kind
	// Raw returns the JSON-friendly representation.
	Raw() any
	isValue()
}

// StringValue is free text.
type StringValue string

// NumberValue is a finite float64.
type NumberValue float64

// EnumValue is a 0-based index into the field's options.
type EnumValue int

func (StringValue) Kind() Kind { return KindString }
func (NumberValue) Kind() Kind { return KindNumber }
func (EnumValue) Kind() Kind   { return KindEnum }

func (v StringValue) Raw() any { return string(v) }
func (v NumberValue) Raw() any { return float64(v) }
func (v EnumValue) Raw() any   { return int(v) }

func (StringValue) isValue() {}
func (NumberValue) isValue() {}
func (EnumValue) isValue()   {}

// Assignment pairs a validated value with the field it belongs to.
type Assignment struct {
	FieldID uint64
	Value   Value
}

func (a Assignment) String() string {
	return fmt.Sprintf("field(%d)=%v", a.FieldID, a.Value.Raw())
}
