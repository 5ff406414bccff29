package tools

// Registry returns all tool definitions the assistant is created with.
func Registry() []ToolDefinition {
	return []ToolDefinition{SearchDefinition}
}

// Lookup returns the definition named name from defs.
func Lookup(defs []ToolDefinition, name string) (ToolDefinition, bool) {
	for _, d := range defs {
		if d.Name == name {
			return d, true
		}
	}
	return ToolDefinition{}, false
}
