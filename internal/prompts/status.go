package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the conductor-status MCP prompt.
// It instructs the AI to read and present the current project state.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("conductor-status",
		mcp.WithPromptDescription(
			"Check where your project stands: current phase and agent, "+
				"deliverables produced so far, recent lane decisions and what to do next.",
		),
	)
}

// Handle processes the conductor-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "conductor project status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `get_project_summary` to check my project status.\n\n" +
						"Then:\n" +
						"1. Show me the current phase and active agent in a clear, visual format\n" +
						"2. List the deliverables produced in each phase\n" +
						"3. Mention the most recent lane decision and any recorded review outcomes\n" +
						"4. Tell me exactly what I should do next, based on the recorded next steps",
				),
			},
		},
	}, nil
}
