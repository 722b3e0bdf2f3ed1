// Package prompts implements MCP prompt handlers for the delivery workflow.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the conductor-start MCP prompt.
// It guides the AI from a first request into the right lane.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("conductor-start",
		mcp.WithPromptDescription(
			"Start a project with conductor. The request is routed to the quick lane "+
				"(brief, PRD and first story in one pass) or to the multi-phase agent workflow.",
		),
		mcp.WithArgument("project_name",
			mcp.ArgumentDescription("Name of your project"),
		),
		mcp.WithArgument("idea",
			mcp.ArgumentDescription("What you want to build, in a sentence or two"),
		),
		mcp.WithArgument("lane",
			mcp.ArgumentDescription("Force a lane: 'quick' or 'complex'. Default: let conductor decide"),
		),
	)
}

// Handle processes the conductor-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	projectName := "my-project"
	idea := ""
	lane := ""
	if args := req.Params.Arguments; args != nil {
		if name, ok := args["project_name"]; ok && name != "" {
			projectName = name
		}
		idea = args["idea"]
		if l := args["lane"]; l == "quick" || l == "complex" {
			lane = l
		}
	}

	ideaStep := "2. Ask me to describe what I want to build"
	if idea != "" {
		ideaStep = fmt.Sprintf("2. Use this as my request: %q", idea)
	}
	laneStep := "3. Run `execute_workflow` with my request and let it pick the lane"
	if lane != "" {
		laneStep = fmt.Sprintf("3. Run `execute_workflow` with my request and forceLane='%s'", lane)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Start conductor project: %s", projectName),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to start a project called '%s' with conductor.\n\n"+
						"Please:\n"+
						"1. Run `update_project_state` with updates={\"projectName\": \"%s\"}\n"+
						"%s\n"+
						"%s\n"+
						"4. Tell me which lane was chosen and why, and show me the next steps\n"+
						"5. On the complex lane, adopt the persona from `load_agent_persona` for the current phase",
					projectName, projectName, ideaStep, laneStep,
				)),
			},
		},
	}, nil
}
