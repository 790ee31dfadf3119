// Package mcp wires the build-validation pipeline into an MCP server:
// it declares the tool schemas, owns the component graph, and bridges
// protocol requests into the invoke layer.
package mcp
