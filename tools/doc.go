// Package tools defines the tool contracts the assistant is created with.
//
// Includes:
//   - ToolDefinition: name, description, JSON input schema, optional handler.
//   - GenerateSchema[T](): derive JSON Schema from Go structs.
//   - make_search_call: the single tool the assistant may trigger once it has
//     narrowed the conversation down to a gift. The search itself runs outside
//     this module; a handler is only attached when a caller wires one.
//   - ValidateInput / ParseSearchCall: check model-provided arguments against the
//     declared schema before anything acts on them.
package tools
