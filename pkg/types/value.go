// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"go.yaml.in/yaml/v3"
)

// ValueKind tags the variant held by a FieldValue.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindText
	KindNumber
	KindBool
	KindList
	KindObject
)

func (k ValueKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// FieldValue is one extracted field: text, number, bool, a list of values,
// or a structured object. Numbers keep their JSON literal so 500 stays 500.
type FieldValue struct {
	Kind   ValueKind
	Text   string
	Number json.Number
	Bool   bool
	List   []FieldValue
	Object map[string]FieldValue
}

// ExtractedData maps template field names to values.
type ExtractedData map[string]FieldValue

// Has reports whether field is present in the data, even if null.
func (d ExtractedData) Has(field string) bool {
	_, ok := d[field]
	return ok
}

// Fields returns the field names in sorted order.
func (d ExtractedData) Fields() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TextValue returns a text FieldValue.
func TextValue(s string) FieldValue { return FieldValue{Kind: KindText, Text: s} }

// NumberValue returns a number FieldValue.
func NumberValue(f float64) FieldValue {
	return FieldValue{Kind: KindNumber, Number: json.Number(strconv.FormatFloat(f, 'f', -1, 64))}
}

// IntValue returns an integral number FieldValue.
func IntValue(n int64) FieldValue {
	return FieldValue{Kind: KindNumber, Number: json.Number(strconv.FormatInt(n, 10))}
}

// BoolValue returns a bool FieldValue.
func BoolValue(b bool) FieldValue { return FieldValue{Kind: KindBool, Bool: b} }

// ListValue returns a list FieldValue.
func ListValue(items ...FieldValue) FieldValue {
	return FieldValue{Kind: KindList, List: items}
}

// TextList returns a list FieldValue of text items.
func TextList(items ...string) FieldValue {
	list := make([]FieldValue, len(items))
	for i, s := range items {
		list[i] = TextValue(s)
	}
	return ListValue(list...)
}

// ObjectValue returns an object FieldValue.
func ObjectValue(fields map[string]FieldValue) FieldValue {
	return FieldValue{Kind: KindObject, Object: fields}
}

// Float returns the numeric value when v is a number.
func (v FieldValue) Float() (float64, bool) {
	if v.Kind != KindNumber {
		return 0, false
	}
	f, err := v.Number.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

// IsEmpty reports whether v is null or an empty string.
func (v FieldValue) IsEmpty() bool {
	return v.Kind == KindNull || (v.Kind == KindText && v.Text == "")
}

// String renders scalars as plain text and lists/objects as canonical JSON.
func (v FieldValue) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return v.Number.String()
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindList, KindObject:
		return v.Canonical()
	default:
		return ""
	}
}

// Canonical returns a deterministic JSON encoding; object keys are sorted.
// HTML characters are left unescaped since the text is shown to reviewers.
func (v FieldValue) Canonical() string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v.Any()); err != nil {
		return ""
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}

// Texts flattens v into text items: one per list element, one for any other
// value. Null and empty-string values, whether scalar or list elements,
// contribute nothing; zero numbers and false are kept as "0" and "false".
func (v FieldValue) Texts() []string {
	if v.Kind == KindList {
		var out []string
		for _, item := range v.List {
			if item.IsEmpty() {
				continue
			}
			out = append(out, item.String())
		}
		return out
	}
	if v.IsEmpty() {
		return nil
	}
	return []string{v.String()}
}

// Any converts v to plain Go values (string, json.Number, bool, []any,
// map[string]any, nil).
func (v FieldValue) Any() any {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return v.Number
	case KindBool:
		return v.Bool
	case KindList:
		out := make([]any, len(v.List))
		for i, item := range v.List {
			out[i] = item.Any()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.Object))
		for k, item := range v.Object {
			out[k] = item.Any()
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	fv, err := FieldValueOf(raw)
	if err != nil {
		return err
	}
	*v = fv
	return nil
}

// MarshalYAML implements yaml.Marshaler. Numbers are written as YAML ints
// or floats rather than quoted strings.
func (v FieldValue) MarshalYAML() (any, error) {
	return v.yamlValue(), nil
}

func (v FieldValue) yamlValue() any {
	switch v.Kind {
	case KindNumber:
		if n, err := v.Number.Int64(); err == nil {
			return n
		}
		f, _ := v.Number.Float64()
		return f
	case KindList:
		out := make([]any, len(v.List))
		for i, item := range v.List {
			out[i] = item.yamlValue()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.Object))
		for k, item := range v.Object {
			out[k] = item.yamlValue()
		}
		return out
	default:
		return v.Any()
	}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *FieldValue) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	fv, err := FieldValueOf(normalizeYAML(raw))
	if err != nil {
		return err
	}
	*v = fv
	return nil
}

// normalizeYAML converts the map[any]any values yaml may produce for
// non-string keys into map[string]any.
func normalizeYAML(raw any) any {
	switch x := raw.(type) {
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[fmt.Sprint(k)] = normalizeYAML(item)
		}
		return out
	case map[string]any:
		for k, item := range x {
			x[k] = normalizeYAML(item)
		}
		return x
	case []any:
		for i, item := range x {
			x[i] = normalizeYAML(item)
		}
		return x
	default:
		return raw
	}
}

// FieldValueOf converts a decoded JSON or YAML value into a FieldValue.
func FieldValueOf(raw any) (FieldValue, error) {
	switch x := raw.(type) {
	case nil:
		return FieldValue{}, nil
	case string:
		return TextValue(x), nil
	case json.Number:
		return FieldValue{Kind: KindNumber, Number: x}, nil
	case float64:
		return NumberValue(x), nil
	case int:
		return IntValue(int64(x)), nil
	case int64:
		return IntValue(x), nil
	case bool:
		return BoolValue(x), nil
	case []any:
		list := make([]FieldValue, len(x))
		for i, item := range x {
			fv, err := FieldValueOf(item)
			if err != nil {
				return FieldValue{}, err
			}
			list[i] = fv
		}
		return ListValue(list...), nil
	case map[string]any:
		obj := make(map[string]FieldValue, len(x))
		for k, item := range x {
			fv, err := FieldValueOf(item)
			if err != nil {
				return FieldValue{}, err
			}
			obj[k] = fv
		}
		return ObjectValue(obj), nil
	default:
		return FieldValue{}, fmt.Errorf("unsupported field value type %T", raw)
	}
}

// ParseExtractedData decodes a JSON object into ExtractedData.
func ParseExtractedData(data []byte) (ExtractedData, error) {
	var out ExtractedData
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parsing extracted data: %w", err)
	}
	if out == nil {
		out = ExtractedData{}
	}
	return out, nil
}
