// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it builds the orchestrator from config and
// registers every tool, prompt and resource against it. No business logic
// lives here, only wiring.
package server

import (
	"errors"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/HendryAvila/conductor/internal/config"
	"github.com/HendryAvila/conductor/internal/metrics"
	"github.com/HendryAvila/conductor/internal/orchestrator"
	"github.com/HendryAvila/conductor/internal/prompts"
	"github.com/HendryAvila/conductor/internal/resources"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. m may be nil.
//
// The returned cleanup function closes the project store and must be
// called on shutdown. It is always non-nil.
func New(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*server.MCPServer, func(), error) {
	if cfg == nil {
		return nil, noop, errors.New("creating server: nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	o := orchestrator.New(cfg, logger, orchestrator.Deps{Metrics: m})
	cleanup := func() {
		if err := o.Close(); err != nil {
			logger.Warn("closing project store", zap.Error(err))
		}
	}

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"conductor",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register tools ---
	//
	// Every tool goes through the orchestrator's dispatch pipeline, so
	// approval, model routing and the logging bridge apply uniformly.

	opts := orchestrator.CallOptions{
		Approval: orchestrator.NewConfirmGate(cfg.Approval.Require...),
		Models:   orchestrator.NewStaticRouter(cfg.Models),
		Bridge:   NewLogBridge(logger),
	}
	for _, def := range o.Definitions() {
		s.AddTool(def, toolHandler(o, def.Name, opts))
	}

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	statusPrompt := prompts.NewStatusPrompt()
	s.AddPrompt(statusPrompt.Definition(), statusPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(o)
	s.AddResource(resourceHandler.StateResource(), resourceHandler.HandleState)
	s.AddResource(resourceHandler.SummaryResource(), resourceHandler.HandleSummary)

	logger.Info("conductor server ready",
		zap.String("version", Version),
		zap.String("project_root", cfg.ProjectRoot),
		zap.String("backend", cfg.Backend),
		zap.Int("tools", len(o.Definitions())))

	return s, cleanup, nil
}

// noop is the cleanup returned when construction fails.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use conductor effectively.
func serverInstructions() string {
	return `You have access to conductor, an MCP server that runs a multi-agent software delivery workflow.

## THE WORKFLOW

Work moves through phases, each owned by one agent persona:

  analyst -> pm -> ux -> architect -> po -> sm -> dev -> qa

- analyst:   discovery and the project brief
- pm:        the product requirements document (PRD)
- ux:        the front-end specification (ux-expert persona)
- architect: the architecture document
- po:        validating that everything lines up
- sm:        epics and stories
- dev:       implementation
- qa:        the QA assessment

## WHERE TO START

For a new request, call execute_workflow with the user's message. It picks a lane:

- quick lane: a brief, PRD and first story are generated in one pass.
- complex lane: the request is handed to the phase it belongs to.

If you only want the decision, call select_development_lane. Call detect_phase
to see which phase a message points at without changing anything.

## MOVING BETWEEN PHASES

- transition_phase runs the target phase's agent and only then commits the move.
  If the agent fails, the phase does not change and the result says why.
- execute_phase_workflow reruns the current phase's agent, or transitions first
  when given another phase.
- load_agent_persona returns the instructions for a phase's persona. Adopt it
  when working inside that phase.

## KEEPING STATE

- get_project_context and get_project_summary show where the project stands.
- add_conversation_message keeps the conversation the agents see.
- record_decision, record_review_outcome and update_project_state capture
  what the user decided. currentPhase and the histories cannot be edited directly.
- generate_deliverable writes documents under docs/. get_story returns a story's fields.
- record_integration logs Drawbridge, shadcn, tweakcn and Chrome DevTools activity.

## APPROVAL

Some tools need the user's approval. When a result says approval is required,
ask the user, then call the same tool again with confirm=true.
reset_project always needs approval.`
}
