package ai

import "encoding/json"

// SchemaType mirrors the JSON Schema primitive names.
type SchemaType string

const (
	TypeObject SchemaType = "object"
	TypeArray  SchemaType = "array"
	TypeString SchemaType = "string"
)

// Schema is a small subset of JSON Schema, enough to describe the
// structured answer we expect. Property order is kept for providers that
// honour it.
type Schema struct {
	Type        SchemaType
	Description string
	Properties  map[string]*Schema
	Order       []string
	Required    []string
	Items       *Schema
}

// MarshalJSON renders the schema as standard JSON Schema.
func (s *Schema) MarshalJSON() ([]byte, error) {
	out := map[string]any{"type": string(s.Type)}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Properties) > 0 {
		out["properties"] = s.Properties
		out["additionalProperties"] = false
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	if s.Items != nil {
		out["items"] = s.Items
	}
	return json.Marshal(out)
}
