// Package llm defines the structured-generation capability consumed by the
// intent parser and the reasoning engine.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/invopop/jsonschema"
)

// ErrEmptyResponse is returned by generators when the model produced no text.
var ErrEmptyResponse = errors.New("empty model response")

// Generator produces a JSON document constrained by schema.
type Generator interface {
	GenerateStructured(ctx context.Context, prompt string, schema *Schema) ([]byte, error)
}

// Schema is a JSON schema reflected from a Go payload type.
type Schema struct {
	Name string
	raw  json.RawMessage
}

var reflector = &jsonschema.Reflector{
	DoNotReference:            true,
	ExpandedStruct:            true,
	AllowAdditionalProperties: false,
}

// SchemaFor reflects the JSON schema of v, which should be a pointer to a
// struct whose fields carry `json` and `jsonschema` tags.
func SchemaFor(name string, v any) *Schema {
	s := reflector.Reflect(v)
	s.Version = ""
	s.ID = ""
	raw, err := json.Marshal(s)
	if err != nil {
		// Reflected schemas are plain data.
		panic("llm: marshal schema " + name + ": " + err.Error())
	}
	return &Schema{Name: name, raw: raw}
}

// JSON returns the schema document.
func (s *Schema) JSON() json.RawMessage { return s.raw }

// Map returns the schema as a generic object for SDKs that take `any`.
func (s *Schema) Map() map[string]any {
	var m map[string]any
	_ = json.Unmarshal(s.raw, &m)
	return m
}

// ExtractJSON trims code fences and prose that some models wrap around a
// JSON object.
func ExtractJSON(text string) []byte {
	t := strings.TrimSpace(text)
	t = strings.TrimPrefix(t, "```json")
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimSuffix(t, "```")
	t = strings.TrimSpace(t)
	if start, end := strings.Index(t, "{"), strings.LastIndex(t, "}"); start >= 0 && end > start {
		t = t[start : end+1]
	}
	return []byte(t)
}
