package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/conductor/internal/orchestrator"
)

// Dispatcher runs a tool call. *orchestrator.Orchestrator satisfies it.
type Dispatcher interface {
	CallTool(ctx context.Context, name string, args map[string]any, opts orchestrator.CallOptions) *orchestrator.Result
}

func toolHandler(d Dispatcher, name string, opts orchestrator.CallOptions) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return toCallResult(d.CallTool(ctx, name, req.GetArguments(), opts)), nil
	}
}

// toCallResult renders a dispatch result as tool output: the message,
// then the data as indented JSON.
func toCallResult(res *orchestrator.Result) *mcp.CallToolResult {
	if res == nil {
		return mcp.NewToolResultError("no result")
	}
	if res.IsError {
		return mcp.NewToolResultError(res.Message)
	}
	if res.RequiresApproval {
		return mcp.NewToolResultText(fmt.Sprintf(
			"Approval required: %s\n\nAsk the user, then call the tool again with confirm=true.", res.Reason))
	}
	if res.Data == nil {
		return mcp.NewToolResultText(res.Message)
	}

	data, err := json.MarshalIndent(res.Data, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err))
	}
	return mcp.NewToolResultText(res.Message + "\n\n```json\n" + string(data) + "\n```")
}
