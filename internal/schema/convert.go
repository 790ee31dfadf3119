package schema

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// ToMCPTool converts a ToolSchema into the wire-level tool definition
// advertised to MCP clients.
func ToMCPTool(s ToolSchema) mcp.Tool {
	props := make(map[string]interface{}, len(s.Parameters))
	for name, spec := range s.Parameters {
		props[name] = specToMap(spec)
	}
	required := s.Required
	if required == nil {
		required = []string{}
	}
	return mcp.Tool{
		Name:        s.Name,
		Description: s.Description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   required,
		},
	}
}

func specToMap(spec ParamSpec) map[string]interface{} {
	m := map[string]interface{}{
		"type": string(spec.Type),
	}
	if spec.Description != "" {
		m["description"] = spec.Description
	}
	if spec.Default != nil {
		m["default"] = spec.Default
	}
	if len(spec.Enum) > 0 {
		m["enum"] = spec.Enum
	}
	if spec.Minimum != nil {
		m["minimum"] = *spec.Minimum
	}
	if spec.Maximum != nil {
		m["maximum"] = *spec.Maximum
	}
	if spec.Items != nil {
		m["items"] = specToMap(*spec.Items)
	}
	return m
}
