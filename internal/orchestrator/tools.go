package orchestrator

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/conductor/internal/state"
	"github.com/HendryAvila/conductor/internal/workflow"
)

// Tool names.
const (
	ToolGetProjectContext     = "get_project_context"
	ToolGetProjectSummary     = "get_project_summary"
	ToolDetectPhase           = "detect_phase"
	ToolLoadAgentPersona      = "load_agent_persona"
	ToolListAgents            = "list_agents"
	ToolTransitionPhase       = "transition_phase"
	ToolExecutePhaseWorkflow  = "execute_phase_workflow"
	ToolGenerateDeliverable   = "generate_deliverable"
	ToolRecordDecision        = "record_decision"
	ToolAddMessage            = "add_conversation_message"
	ToolSelectLane            = "select_development_lane"
	ToolExecuteWorkflow       = "execute_workflow"
	ToolUpdateProjectState    = "update_project_state"
	ToolRecordReviewOutcome   = "record_review_outcome"
	ToolGetStory              = "get_story"
	ToolRecordIntegration     = "record_integration"
	ToolGetIntegrationLog     = "get_integration_log"
	ToolResetProject          = "reset_project"
)

// toolOrder is the registration and listing order.
var toolOrder = []string{
	ToolGetProjectContext,
	ToolGetProjectSummary,
	ToolDetectPhase,
	ToolLoadAgentPersona,
	ToolListAgents,
	ToolTransitionPhase,
	ToolExecutePhaseWorkflow,
	ToolGenerateDeliverable,
	ToolRecordDecision,
	ToolAddMessage,
	ToolSelectLane,
	ToolExecuteWorkflow,
	ToolUpdateProjectState,
	ToolRecordReviewOutcome,
	ToolGetStory,
	ToolRecordIntegration,
	ToolGetIntegrationLog,
	ToolResetProject,
}

type handlerFunc func(ctx context.Context, args state.Fields) (*Result, error)

type tool struct {
	def    mcp.Tool
	handle handlerFunc
}

func (o *Orchestrator) toolTable() map[string]tool {
	list := []tool{
		{o.projectContextDef(), o.handleProjectContext},
		{o.projectSummaryDef(), o.handleProjectSummary},
		{o.detectPhaseDef(), o.handleDetectPhase},
		{o.loadPersonaDef(), o.handleLoadPersona},
		{o.listAgentsDef(), o.handleListAgents},
		{o.transitionDef(), o.handleTransition},
		{o.phaseWorkflowDef(), o.handlePhaseWorkflow},
		{o.generateDef(), o.handleGenerate},
		{o.recordDecisionDef(), o.handleRecordDecision},
		{o.addMessageDef(), o.handleAddMessage},
		{o.selectLaneDef(), o.handleSelectLane},
		{o.executeWorkflowDef(), o.handleExecuteWorkflow},
		{o.updateStateDef(), o.handleUpdateState},
		{o.reviewOutcomeDef(), o.handleReviewOutcome},
		{o.getStoryDef(), o.handleGetStory},
		{o.recordIntegrationDef(), o.handleRecordIntegration},
		{o.integrationLogDef(), o.handleIntegrationLog},
		{o.resetDef(), o.handleReset},
	}
	table := make(map[string]tool, len(list))
	for _, t := range list {
		table[t.def.Name] = t
	}
	return table
}

func phaseNames() []string {
	out := make([]string, len(workflow.PhaseOrder))
	for i, p := range workflow.PhaseOrder {
		out[i] = string(p)
	}
	return out
}

func deliverableNames() []string {
	out := make([]string, len(workflow.GeneratedTypes))
	for i, t := range workflow.GeneratedTypes {
		out[i] = string(t)
	}
	return out
}

func laneNames() []string {
	return []string{string(workflow.LaneQuick), string(workflow.LaneComplex)}
}

// withAny declares an argument that accepts any JSON value.
func withAny(tool *mcp.Tool, name, description string, required bool) {
	if tool.InputSchema.Properties == nil {
		tool.InputSchema.Properties = map[string]any{}
	}
	tool.InputSchema.Properties[name] = map[string]any{"description": description}
	if required {
		tool.InputSchema.Required = append(tool.InputSchema.Required, name)
	}
}
