// Package mcp provides an MCP (Model Context Protocol) server adapter for docq.
// It lets AI assistants query and extend the local document collection.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")
