// Package form is the default form engine: it decodes submitted form values
// into a record model according to a FieldSchema and validates them.
//
// Validation errors never leave the modal. They are returned as [Errors] and
// rendered inline next to the offending fields.
package form

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/JonMunkholm/crudtables/internal/schema"
)

// FieldError is a validation failure for a single field.
type FieldError struct {
	Field   string // Property name
	Value   string // The submitted value
	Message string // Human-readable message
}

func (e FieldError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Errors collects every field error of one submission.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// For returns the message for field, or "".
func (e Errors) For(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// Engine validates submissions against a schema. Submitted strings are
// coerced to the property types first; the typed model is then checked
// against the schema's JSON Schema document.
type Engine struct {
	mu      sync.Mutex
	schemas map[string]*jsonschema.Schema
}

// New returns the default engine.
func New() *Engine {
	return &Engine{schemas: make(map[string]*jsonschema.Schema)}
}

// Validate decodes values for every property of s on top of base.
// On success the returned model is a fresh map: base's other keys (such as
// "id") are carried over and each property is set to its typed value, or
// nil when left empty. On failure it returns Errors and a nil model.
func (e *Engine) Validate(s schema.FieldSchema, values url.Values, base map[string]any) (map[string]any, error) {
	model := make(map[string]any, len(base)+len(s.Properties))
	for k, v := range base {
		model[k] = v
	}

	// doc holds only submitted properties; fields that failed coercion are
	// left out so they are reported once.
	doc := make(map[string]any, len(s.Properties))
	bad := make(map[string]FieldError)
	for _, p := range s.Properties {
		raw := strings.TrimSpace(values.Get(p.Name))

		if p.ColumnType() == schema.TypeBoolean {
			model[p.Name] = isChecked(raw)
			doc[p.Name] = model[p.Name]
			continue
		}
		if raw == "" {
			model[p.Name] = nil
			doc[p.Name] = nil
			continue
		}

		v, err := coerce(p, raw)
		if err != nil {
			bad[p.Name] = FieldError{Field: p.Name, Value: raw, Message: err.Error()}
			continue
		}
		model[p.Name] = v
		doc[p.Name] = v
	}

	problems, err := e.check(s, doc)
	if err != nil {
		return nil, err
	}

	var errs Errors
	for _, p := range s.Properties {
		if fe, ok := bad[p.Name]; ok {
			errs = append(errs, fe)
			continue
		}
		msg, ok := problems[p.Name]
		if !ok {
			continue
		}
		raw := strings.TrimSpace(values.Get(p.Name))
		if raw == "" {
			msg = "required field is empty"
		}
		errs = append(errs, FieldError{Field: p.Name, Value: raw, Message: msg})
	}
	if msg, ok := problems[""]; ok {
		errs = append(errs, FieldError{Message: msg})
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return model, nil
}

func coerce(p schema.Property, raw string) (any, error) {
	switch p.ColumnType() {
	case schema.TypeInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", raw)
		}
		return n, nil

	case schema.TypeNumber, schema.TypeFloat:
		f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", raw)
		}
		return f, nil

	case schema.TypeDate:
		t, ok := schema.ParseDate(raw)
		if !ok {
			return nil, fmt.Errorf("invalid date %q", raw)
		}
		return t.Format(schema.StorageDateLayout), nil

	default:
		return raw, nil
	}
}

func isChecked(raw string) bool {
	switch strings.ToLower(raw) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// InputValue formats a model value for an <input value="...">.
// Dates are emitted as YYYY-MM-DD for type="date" inputs.
func InputValue(p schema.Property, v any) string {
	if p.ColumnType() == schema.TypeDate {
		if t, ok := schema.ParseDate(v); ok {
			return t.Format(schema.StorageDateLayout)
		}
	}
	return schema.ToString(v)
}

// InputType maps a property to an HTML input type.
func InputType(p schema.Property) string {
	switch p.ColumnType() {
	case schema.TypeDate:
		return "date"
	case schema.TypeNumber, schema.TypeFloat:
		return "number"
	case schema.TypeInteger:
		return "number"
	case schema.TypeBoolean:
		return "checkbox"
	default:
		return "text"
	}
}
