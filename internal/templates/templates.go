// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package templates loads extraction templates and validates both the
// templates themselves and the data reviewers extract with them.
//
// Built-in templates are embedded in the binary. A configured directory is
// searched first, so a file there overrides a built-in of the same name.
package templates

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/patrickmn/go-cache"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litreview/pkg/types"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

const ext = ".yaml"

// ErrNotFound is returned when no template has the requested name.
var ErrNotFound = errors.New("template not found")

// ValidationError collects every problem found in a template or in data
// checked against one.
type ValidationError struct {
	Template string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("template %q: %s", e.Template, strings.Join(e.Problems, "; "))
}

// Loader reads templates by file name (without the .yaml suffix) and caches
// the parsed result for the life of the process.
type Loader struct {
	sources []fs.FS
	cache   *cache.Cache
}

// NewLoader returns a Loader that searches dir before the built-in set. An
// empty dir uses the built-ins only.
func NewLoader(dir string) *Loader {
	builtin, err := fs.Sub(builtinFS, "builtin")
	if err != nil {
		panic(err) // embedded path is fixed at compile time
	}
	var sources []fs.FS
	if dir != "" {
		sources = append(sources, os.DirFS(dir))
	}
	sources = append(sources, builtin)
	return &Loader{
		sources: sources,
		cache:   cache.New(cache.NoExpiration, 0),
	}
}

// Load returns the named template. Templates that fail Validate are not
// cached and are returned with the validation error.
func (l *Loader) Load(name string) (types.Template, error) {
	if cached, ok := l.cache.Get(name); ok {
		return cached.(types.Template), nil
	}
	if name == "" || strings.ContainsAny(name, `/\`) {
		return types.Template{}, fmt.Errorf("template %q: %w", name, ErrNotFound)
	}

	data, err := l.read(name + ext)
	if err != nil {
		return types.Template{}, err
	}
	tmpl, err := Parse(data)
	if err != nil {
		return types.Template{}, fmt.Errorf("parsing template %q: %w", name, err)
	}
	if err := Validate(name, tmpl); err != nil {
		return types.Template{}, err
	}

	l.cache.Set(name, tmpl, cache.NoExpiration)
	return tmpl, nil
}

// List returns the sorted names of all available templates.
func (l *Loader) List() ([]string, error) {
	seen := make(map[string]bool)
	for _, src := range l.sources {
		entries, err := fs.ReadDir(src, ".")
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("listing templates: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ext {
				continue
			}
			seen[strings.TrimSuffix(e.Name(), ext)] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (l *Loader) read(file string) ([]byte, error) {
	for _, src := range l.sources {
		data, err := fs.ReadFile(src, file)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
	}
	return nil, fmt.Errorf("template %q: %w", strings.TrimSuffix(file, ext), ErrNotFound)
}

// Parse decodes a template from YAML without validating it.
func Parse(data []byte) (types.Template, error) {
	var tmpl types.Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return types.Template{}, err
	}
	return tmpl, nil
}

// Validate checks template structure: a name, at least one field, and for
// each field a known type, a prompt, options on select types, and a
// consistent numeric range.
func Validate(name string, t types.Template) error {
	var problems []string
	if strings.TrimSpace(t.Name) == "" {
		problems = append(problems, "missing 'name'")
	}
	if len(t.Fields) == 0 {
		problems = append(problems, "missing 'fields'")
	}

	for _, fieldName := range sortedFields(t.Fields) {
		f := t.Fields[fieldName]
		switch {
		case f.Type == "":
			problems = append(problems, fmt.Sprintf("field %q missing 'type'", fieldName))
		case !f.Type.Valid():
			problems = append(problems, fmt.Sprintf("field %q has unknown type %q", fieldName, f.Type))
		}
		if strings.TrimSpace(f.Prompt) == "" {
			problems = append(problems, fmt.Sprintf("field %q missing 'prompt'", fieldName))
		}
		if (f.Type == types.FieldSelect || f.Type == types.FieldMultiSelect) && len(f.Options) == 0 {
			problems = append(problems, fmt.Sprintf("field %q type %q requires 'options'", fieldName, f.Type))
		}
		if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
			problems = append(problems, fmt.Sprintf("field %q has min greater than max", fieldName))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Template: name, Problems: problems}
	}
	return nil
}

// ValidateData checks extracted data against the template: no unknown
// fields, required fields present and non-empty, and every value matching its
// declared type, options and range. Null values are accepted for optional
// fields.
func ValidateData(t types.Template, data types.ExtractedData) error {
	var problems []string

	for _, fieldName := range data.Fields() {
		if _, ok := t.Fields[fieldName]; !ok {
			problems = append(problems, fmt.Sprintf("unknown field %q", fieldName))
		}
	}

	for _, fieldName := range sortedFields(t.Fields) {
		f := t.Fields[fieldName]
		v, ok := data[fieldName]
		if !ok || empty(v) {
			if f.Required {
				problems = append(problems, fmt.Sprintf("field %q is required", fieldName))
			}
			continue
		}
		if msg := checkValue(f, v); msg != "" {
			problems = append(problems, fmt.Sprintf("field %q %s", fieldName, msg))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Template: t.Name, Problems: problems}
	}
	return nil
}

func checkValue(f types.TemplateField, v types.FieldValue) string {
	switch f.Type {
	case types.FieldText:
		if v.Kind != types.KindText {
			return "must be text"
		}
	case types.FieldNumber, types.FieldInteger:
		n, ok := v.Float()
		if !ok {
			return "must be a number"
		}
		if f.Type == types.FieldInteger && n != float64(int64(n)) {
			return "must be an integer"
		}
		if f.Min != nil && n < *f.Min {
			return fmt.Sprintf("must be at least %v", *f.Min)
		}
		if f.Max != nil && n > *f.Max {
			return fmt.Sprintf("must be at most %v", *f.Max)
		}
	case types.FieldBoolean:
		if v.Kind != types.KindBool {
			return "must be true or false"
		}
	case types.FieldSelect:
		if v.Kind != types.KindText {
			return "must be one of the options"
		}
		if !contains(f.Options, v.Text) {
			return fmt.Sprintf("has unknown option %q", v.Text)
		}
	case types.FieldMultiSelect:
		if v.Kind != types.KindList {
			return "must be a list of options"
		}
		for _, item := range v.List {
			if item.Kind != types.KindText || !contains(f.Options, item.Text) {
				return fmt.Sprintf("has unknown option %s", item.Canonical())
			}
		}
	case types.FieldList:
		if v.Kind != types.KindList {
			return "must be a list"
		}
	}
	return ""
}

func empty(v types.FieldValue) bool {
	return v.IsEmpty() || (v.Kind == types.KindList && len(v.List) == 0)
}

func contains(options []string, s string) bool {
	for _, o := range options {
		if o == s {
			return true
		}
	}
	return false
}

func sortedFields(fields map[string]types.TemplateField) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
