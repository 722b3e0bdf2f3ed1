// Package resources implements MCP resource handlers for project state.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (conductor://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/conductor/internal/orchestrator"
)

const (
	// StateURI addresses the full project context as JSON.
	StateURI = "conductor://project/state"
	// SummaryURI addresses the markdown project summary.
	SummaryURI = "conductor://project/summary"
)

// Reader runs the read-only tools that back the resources.
type Reader interface {
	CallTool(ctx context.Context, name string, args map[string]any, opts orchestrator.CallOptions) *orchestrator.Result
}

// Handler manages conductor resource endpoints.
type Handler struct {
	reader Reader
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(reader Reader) *Handler {
	return &Handler{reader: reader}
}

// StateResource returns the MCP resource definition for project state.
func (h *Handler) StateResource() mcp.Resource {
	return mcp.NewResource(
		StateURI,
		"Project State",
		mcp.WithResourceDescription("Current phase, histories, deliverables and recent conversation"),
		mcp.WithMIMEType("application/json"),
	)
}

// SummaryResource returns the MCP resource definition for the summary.
func (h *Handler) SummaryResource() mcp.Resource {
	return mcp.NewResource(
		SummaryURI,
		"Project Summary",
		mcp.WithResourceDescription("Human-readable summary of where the project stands"),
		mcp.WithMIMEType("text/markdown"),
	)
}

// HandleState returns the project context as JSON.
func (h *Handler) HandleState(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	res := h.reader.CallTool(ctx, orchestrator.ToolGetProjectContext, nil, orchestrator.CallOptions{})
	if res.IsError {
		return errorResource(req.Params.URI, res.Message), nil
	}

	data, err := json.MarshalIndent(res.Data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling project state: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// HandleSummary returns the markdown summary.
func (h *Handler) HandleSummary(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	res := h.reader.CallTool(ctx, orchestrator.ToolGetProjectSummary, nil, orchestrator.CallOptions{})
	if res.IsError {
		return errorResource(req.Params.URI, res.Message), nil
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     res.Message,
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
