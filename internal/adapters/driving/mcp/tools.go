package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/oakum-labs/docq-cli/internal/core/domain"
)

// QueryInput is the input schema for the submit_query tool.
type QueryInput struct {
	Query string `json:"query" jsonschema:"the question to answer from the document collection"`
}

// QueryOutput is the output schema for the submit_query tool.
type QueryOutput struct {
	QueryText    string   `json:"query_text"`
	ResponseText string   `json:"response_text"`
	Sources      []string `json:"sources"`
}

// IngestInput is the input schema for the ingest_document tool.
type IngestInput struct {
	SourceID   string `json:"source_id,omitempty" jsonschema:"stable identifier for the document, derived from content when omitted"`
	Content    string `json:"content" jsonschema:"the document text to index"`
	SourceType string `json:"source_type,omitempty" jsonschema:"origin of the document, upload or web"`
	SourceURL  string `json:"source_url,omitempty" jsonschema:"URL the content came from, for web sources"`
}

// IngestOutput is the output schema for the ingest_document tool.
type IngestOutput struct {
	SourceID     string `json:"source_id"`
	ChunksStored int    `json:"chunks_stored"`
}

// HealthOutput is the output schema for the health tool.
type HealthOutput struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "submit_query",
		Description: "Answer a question from the indexed document collection",
	}, s.handleQuery)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest_document",
			Description: "Add a text document to the collection",
		}, s.handleIngest)
	}

	if s.ports.Health != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "health",
			Description: "Report the status of the pipeline's backends",
		}, s.handleHealth)
	}
}

// handleQuery handles the submit_query tool invocation.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	resp, err := s.ports.Query.Answer(ctx, input.Query)
	if err != nil {
		return nil, QueryOutput{}, err
	}

	return nil, QueryOutput{
		QueryText:    resp.QueryText,
		ResponseText: resp.ResponseText,
		Sources:      resp.Sources,
	}, nil
}

// handleIngest handles the ingest_document tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	doc := domain.Document{
		SourceID:  input.SourceID,
		Content:   input.Content,
		Type:      domain.SourceType(input.SourceType),
		SourceURL: input.SourceURL,
	}

	count, err := s.ports.Ingest.Ingest(ctx, doc)
	if err != nil {
		return nil, IngestOutput{}, err
	}

	sourceID := doc.SourceID
	if sourceID == "" {
		// Mirrors the ingestion service's fallback identity
		sourceID = domain.ContentHash(strings.TrimSpace(input.Content))
	}

	return nil, IngestOutput{
		SourceID:     sourceID,
		ChunksStored: count,
	}, nil
}

// handleHealth handles the health tool invocation.
func (s *Server) handleHealth(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, HealthOutput, error) {
	health := s.ports.Health.Check(ctx)

	return nil, HealthOutput{
		Status:     string(health.Status),
		Components: health.Components,
	}, nil
}
