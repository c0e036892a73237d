package form

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/JonMunkholm/crudtables/internal/schema"
)

const documentURL = "form.json"

var printer = message.NewPrinter(language.English)

// Document renders s as a JSON Schema. Optional properties also accept
// null, which is what an empty input decodes to. Required properties of
// unknown type only reject null.
func Document(s schema.FieldSchema) map[string]any {
	props := make(map[string]any, len(s.Properties))
	for _, p := range s.Properties {
		prop := map[string]any{"title": p.Label()}

		t, known := jsonType(p)
		switch {
		case known && p.Required:
			prop["type"] = t
		case known:
			prop["type"] = []any{t, "null"}
		case p.Required:
			prop["not"] = map[string]any{"type": "null"}
		}
		if p.ColumnType() == schema.TypeDate {
			prop["format"] = "date"
		}
		props[p.Name] = prop
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

func jsonType(p schema.Property) (string, bool) {
	switch p.ColumnType() {
	case schema.TypeString, schema.TypeDate:
		return "string", true
	case schema.TypeNumber, schema.TypeFloat:
		return "number", true
	case schema.TypeInteger:
		return "integer", true
	case schema.TypeBoolean:
		return "boolean", true
	default:
		return "", false
	}
}

// compiled returns the compiled document of s, compiling it on first use.
func (e *Engine) compiled(s schema.FieldSchema) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(Document(s))
	if err != nil {
		return nil, fmt.Errorf("encode form schema: %w", err)
	}
	key := string(raw)

	e.mu.Lock()
	defer e.mu.Unlock()
	if sch, ok := e.schemas[key]; ok {
		return sch, nil
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode form schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(documentURL, doc); err != nil {
		return nil, fmt.Errorf("add form schema: %w", err)
	}
	sch, err := c.Compile(documentURL)
	if err != nil {
		return nil, fmt.Errorf("compile form schema: %w", err)
	}

	if e.schemas == nil {
		e.schemas = make(map[string]*jsonschema.Schema)
	}
	e.schemas[key] = sch
	return sch, nil
}

// check validates the typed values in doc and returns the first message per
// field. Violations not tied to a field are keyed by "".
func (e *Engine) check(s schema.FieldSchema, doc map[string]any) (map[string]string, error) {
	sch, err := e.compiled(s)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}

	err = sch.Validate(inst)
	if err == nil {
		return nil, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, err
	}

	problems := make(map[string]string)
	collect(ve, problems)
	return problems, nil
}

// collect walks to the leaf causes, which carry the precise location.
func collect(ve *jsonschema.ValidationError, problems map[string]string) {
	if len(ve.Causes) > 0 {
		for _, c := range ve.Causes {
			collect(c, problems)
		}
		return
	}

	field := ""
	if len(ve.InstanceLocation) > 0 {
		field = ve.InstanceLocation[0]
	}
	if _, seen := problems[field]; !seen {
		problems[field] = ve.ErrorKind.LocalizedString(printer)
	}
}
