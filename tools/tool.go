package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidToolCall is returned when a tool call names an unknown tool or its
// arguments do not satisfy the declared input schema.
var ErrInvalidToolCall = errors.New("invalid tool call")

// ToolDefinition describes one callable function exposed to the assistant.
// Function is nil for tools executed by an external collaborator.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema Schema
	Function    func(input json.RawMessage) (string, error)
}

// Schema is the object-typed JSON Schema sent as a tool's parameters.
// Properties holds the reflected property map in declaration order.
type Schema struct {
	Type       string   `json:"type"`
	Properties any      `json:"properties"`
	Required   []string `json:"required,omitempty"`
}

// JSON returns the schema document as sent to the remote service.
func (s Schema) JSON() ([]byte, error) {
	return json.Marshal(s)
}

// GenerateSchema reflects T into an object schema. Referenced definitions are
// inlined so each tool schema is self-contained.
func GenerateSchema[T any]() Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	var v T
	s := reflector.Reflect(v)

	out := Schema{Type: "object", Required: s.Required}
	if s.Properties == nil || s.Properties.Len() == 0 {
		out.Properties = map[string]any{}
	} else {
		out.Properties = s.Properties
	}
	return out
}

// ValidateInput checks raw JSON arguments against def's input schema.
func ValidateInput(def ToolDefinition, args string) error {
	doc, err := def.InputSchema.JSON()
	if err != nil {
		return fmt.Errorf("marshal %s schema: %w", def.Name, err)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("compile %s schema: %w", def.Name, err)
	}
	res, err := schema.Validate(gojsonschema.NewStringLoader(args))
	if err != nil {
		return fmt.Errorf("%w: %s: arguments are not JSON: %v", ErrInvalidToolCall, def.Name, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s: %s", ErrInvalidToolCall, def.Name, strings.Join(msgs, "; "))
	}
	return nil
}
