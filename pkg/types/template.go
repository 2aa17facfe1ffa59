// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// FieldType is the declared type of a template field.
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldNumber      FieldType = "number"
	FieldInteger     FieldType = "integer"
	FieldBoolean     FieldType = "boolean"
	FieldSelect      FieldType = "select"
	FieldMultiSelect FieldType = "multiselect"
	FieldList        FieldType = "list"
)

// Valid reports whether t is a known field type.
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldNumber, FieldInteger, FieldBoolean, FieldSelect, FieldMultiSelect, FieldList:
		return true
	}
	return false
}

// TemplateField describes one field a reviewer fills in during extraction.
type TemplateField struct {
	// Type is the declared data type.
	Type FieldType `json:"type" yaml:"type"`

	// Prompt is the question shown to the reviewer.
	Prompt string `json:"prompt" yaml:"prompt"`

	// Options lists allowed values for select and multiselect fields.
	Options []string `json:"options,omitempty" yaml:"options,omitempty"`

	// Min and Max bound numeric fields when set.
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`

	// Required fields must be present and non-empty.
	Required bool `json:"required,omitempty" yaml:"required,omitempty"`
}

// Template is a named extraction form loaded from YAML.
type Template struct {
	Name        string                   `json:"name" yaml:"name"`
	Description string                   `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      map[string]TemplateField `json:"fields" yaml:"fields"`
}
