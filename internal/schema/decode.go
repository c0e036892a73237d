package schema

// decode.go reads JSON-schema-like definitions:
//
//	{
//	  "properties": {
//	    "name":  {"title": "Name", "type": "string"},
//	    "hired": {"title": "Hired", "type": "string", "format": "date"}
//	  },
//	  "required": ["name"]
//	}
//
// encoding/json maps lose key order, so properties are read token by token.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

type rawProperty struct {
	Title     string `json:"title"`
	Type      string `json:"type"`
	Format    string `json:"format"`
	DataIndex string `json:"dataIndex"`
}

// DecodeJSON parses a schema document, keeping property declaration order.
func DecodeJSON(r io.Reader) (FieldSchema, error) {
	dec := json.NewDecoder(r)

	if err := expectDelim(dec, '{'); err != nil {
		return FieldSchema{}, err
	}

	var (
		props    []Property
		required []string
	)

	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return FieldSchema{}, err
		}

		switch key {
		case "properties":
			props, err = decodeProperties(dec)
			if err != nil {
				return FieldSchema{}, err
			}
		case "required":
			if err := dec.Decode(&required); err != nil {
				return FieldSchema{}, fmt.Errorf("decode required: %w", err)
			}
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return FieldSchema{}, fmt.Errorf("decode %s: %w", key, err)
			}
		}
	}

	if err := expectDelim(dec, '}'); err != nil {
		return FieldSchema{}, err
	}

	for _, name := range required {
		for i := range props {
			if props[i].Name == name {
				props[i].Required = true
			}
		}
	}

	return New(props...)
}

// ParseJSON is DecodeJSON over a string.
func ParseJSON(doc string) (FieldSchema, error) {
	return DecodeJSON(strings.NewReader(doc))
}

// MustParseJSON is like ParseJSON but panics on error.
func MustParseJSON(doc string) FieldSchema {
	s, err := ParseJSON(doc)
	if err != nil {
		panic(fmt.Sprintf("schema: %v", err))
	}
	return s
}

// UnmarshalJSON implements json.Unmarshaler with ordered properties.
func (s *FieldSchema) UnmarshalJSON(data []byte) error {
	parsed, err := DecodeJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func decodeProperties(dec *json.Decoder) ([]Property, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("properties: %w", err)
	}

	var props []Property
	for dec.More() {
		name, err := readKey(dec)
		if err != nil {
			return nil, err
		}

		var raw rawProperty
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("property %s: %w", name, err)
		}

		props = append(props, Property{
			Name:      name,
			Title:     raw.Title,
			Type:      Type(raw.Type),
			Format:    raw.Format,
			DataIndex: raw.DataIndex,
		})
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, fmt.Errorf("properties: %w", err)
	}
	return props, nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("read key: %w", err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("expected %q: %w", want, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}
