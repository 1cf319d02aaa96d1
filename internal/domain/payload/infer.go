package payload

import (
	"regexp"
	"strings"
)

// FieldType is the coarse value type of a top-level payload field.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeObject  FieldType = "object"
	TypeDate    FieldType = "date"
	TypeArray   FieldType = "array"
)

// Valid reports whether t is one of the known field types.
func (t FieldType) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeBoolean, TypeObject, TypeDate, TypeArray:
		return true
	}
	return false
}

// FormatHint is an advisory semantic format derived from the field name.
type FormatHint string

const (
	FormatNone     FormatHint = ""
	FormatDatetime FormatHint = "datetime"
	FormatEmail    FormatHint = "email"
	FormatURL      FormatHint = "url"
)

// Valid reports whether f is empty or a known hint.
func (f FormatHint) Valid() bool {
	switch f {
	case FormatNone, FormatDatetime, FormatEmail, FormatURL:
		return true
	}
	return false
}

// FieldDescriptor describes one top-level field.
type FieldDescriptor struct {
	Name   string     `json:"name"`
	Type   FieldType  `json:"type"`
	Format FormatHint `json:"format,omitempty"`
}

// Schema is the ordered field list inferred from one payload.
type Schema struct {
	Fields []FieldDescriptor `json:"fields"`
}

var isoDatePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// DetectType derives the field type from the value alone.
// null maps to object; strings with a YYYY-MM-DD prefix map to date.
func DetectType(v Value) FieldType {
	switch v.Kind() {
	case KindNull:
		return TypeObject
	case KindArray:
		return TypeArray
	case KindString:
		s, _ := v.AsString()
		if isoDatePrefix.MatchString(s) {
			return TypeDate
		}
		return TypeString
	case KindNumber:
		return TypeNumber
	case KindBool:
		return TypeBoolean
	case KindObject:
		return TypeObject
	default:
		return TypeString
	}
}

type formatRule struct {
	needles []string
	format  FormatHint
}

// Evaluated top to bottom against the lowercased field name.
var formatRules = []formatRule{
	{needles: []string{"time", "date"}, format: FormatDatetime},
	{needles: []string{"email"}, format: FormatEmail},
	{needles: []string{"url"}, format: FormatURL},
}

// DetectFormat derives the format hint from the field name only.
func DetectFormat(name string) FormatHint {
	lower := strings.ToLower(name)
	for _, rule := range formatRules {
		for _, needle := range rule.needles {
			if strings.Contains(lower, needle) {
				return rule.format
			}
		}
	}
	return FormatNone
}

// InferField builds the descriptor for one name/value pair.
func InferField(name string, v Value) FieldDescriptor {
	return FieldDescriptor{
		Name:   name,
		Type:   DetectType(v),
		Format: DetectFormat(name),
	}
}

// InferFields returns one descriptor per object member, in key order.
// Non-object values have no fields.
func InferFields(obj Value) []FieldDescriptor {
	members := obj.Members()
	fields := make([]FieldDescriptor, 0, len(members))
	for _, m := range members {
		fields = append(fields, InferField(m.Key, m.Value))
	}
	return fields
}
