package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/conductor/internal/persona"
	"github.com/HendryAvila/conductor/internal/state"
	"github.com/HendryAvila/conductor/internal/workflow"
)

func (o *Orchestrator) loadPersonaDef() mcp.Tool {
	return mcp.NewTool(ToolLoadAgentPersona,
		mcp.WithDescription(
			"Load an agent persona: its role, responsibilities, deliverables and working instructions. "+
				"Pass either the agent id or the phase it handles.",
		),
		mcp.WithString("agent",
			mcp.Description("Agent id, e.g. 'pm' or 'ux-expert'"),
			mcp.Enum(workflow.Agents()...),
		),
		mcp.WithString("phase",
			mcp.Description("Phase whose agent to load"),
			mcp.Enum(phaseNames()...),
		),
	)
}

func (o *Orchestrator) handleLoadPersona(_ context.Context, args state.Fields) (*Result, error) {
	agentID, phase := args.String("agent"), args.String("phase")

	var (
		p   persona.Persona
		err error
	)
	switch {
	case agentID != "":
		p, err = o.personas.Load(agentID)
	case phase != "":
		var ph workflow.Phase
		if ph, err = workflow.ParsePhase(phase); err == nil {
			p, err = o.personas.ForPhase(ph)
		}
	default:
		return nil, &ValidationError{Tool: ToolLoadAgentPersona, Problems: []string{`one of "agent" or "phase" is required`}}
	}
	if err != nil {
		return nil, err
	}
	return success(renderPersona(p), p)
}

func renderPersona(p persona.Persona) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s, %s\n\n%s\n", p.Name, p.Title, p.Summary))
	if len(p.Responsibilities) > 0 {
		sb.WriteString("\n## Responsibilities\n\n")
		for _, r := range p.Responsibilities {
			sb.WriteString("- " + r + "\n")
		}
	}
	if len(p.Deliverables) > 0 {
		sb.WriteString("\n## Deliverables\n\n")
		for _, d := range p.Deliverables {
			sb.WriteString("- " + d + "\n")
		}
	}
	if p.Instructions != "" {
		sb.WriteString("\n## Instructions\n\n" + strings.TrimSpace(p.Instructions) + "\n")
	}
	return sb.String()
}

func (o *Orchestrator) listAgentsDef() mcp.Tool {
	return mcp.NewTool(ToolListAgents,
		mcp.WithDescription("List every agent persona and the phase it handles, marking the active one."),
	)
}

// AgentListing is one entry of list_agents.
type AgentListing struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Title  string         `json:"title"`
	Phase  workflow.Phase `json:"phase"`
	Active bool           `json:"active"`
}

func (o *Orchestrator) handleListAgents(_ context.Context, _ state.Fields) (*Result, error) {
	personas, err := o.personas.List()
	if err != nil {
		return nil, err
	}
	current := o.store.CurrentPhase()

	out := make([]AgentListing, 0, len(personas))
	var sb strings.Builder
	sb.WriteString("## Agents\n\n")
	for _, p := range personas {
		entry := AgentListing{ID: p.ID, Name: p.Name, Title: p.Title, Phase: p.Phase, Active: p.Phase == current}
		out = append(out, entry)
		marker := ""
		if entry.Active {
			marker = " (active)"
		}
		sb.WriteString(fmt.Sprintf("- **%s** `%s`: %s, %s phase%s\n", p.Name, p.ID, p.Title, p.Phase, marker))
	}
	return success(sb.String(), out)
}
