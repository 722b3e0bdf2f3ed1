package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/conductor/internal/state"
	"github.com/HendryAvila/conductor/internal/workflow"
)

func (o *Orchestrator) recordDecisionDef() mcp.Tool {
	t := mcp.NewTool(ToolRecordDecision,
		mcp.WithDescription("Record a project decision. A later decision with the same key replaces the earlier one."),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("Decision key, e.g. 'database'"),
		),
		mcp.WithString("rationale",
			mcp.Description("Why this was decided"),
		),
	)
	withAny(&t, "value", "The decided value (any JSON value)", true)
	return t
}

func (o *Orchestrator) handleRecordDecision(ctx context.Context, args state.Fields) (*Result, error) {
	key := strings.TrimSpace(args.String("key"))
	if key == "" {
		return nil, &ValidationError{Tool: ToolRecordDecision, Problems: []string{`"key" must not be empty`}}
	}
	d, err := o.store.RecordDecision(ctx, key, args["value"], args.String("rationale"))
	if err != nil {
		return nil, err
	}
	return success(fmt.Sprintf("Recorded decision %q during %s.", key, d.Phase), d)
}

func (o *Orchestrator) addMessageDef() mcp.Tool {
	return mcp.NewTool(ToolAddMessage,
		mcp.WithDescription("Append a message to the project conversation. The message is stamped with the current phase."),
		mcp.WithString("role",
			mcp.Required(),
			mcp.Description("Who wrote the message"),
			mcp.Enum(string(workflow.RoleUser), string(workflow.RoleAssistant)),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Message text"),
		),
		mcp.WithObject("metadata",
			mcp.Description("Optional metadata stored with the message"),
		),
	)
}

func (o *Orchestrator) handleAddMessage(ctx context.Context, args state.Fields) (*Result, error) {
	role, err := workflow.ParseRole(args.String("role"))
	if err != nil {
		return nil, err
	}
	m, err := o.store.AddMessage(ctx, role, args.String("content"), args.Map("metadata"))
	if err != nil {
		return nil, err
	}
	return success(fmt.Sprintf("Added %s message during %s.", m.Role, m.Phase), m)
}

func (o *Orchestrator) updateStateDef() mcp.Tool {
	return mcp.NewTool(ToolUpdateProjectState,
		mcp.WithDescription(
			"Merge fields into the project record: projectName, nextSteps, currentLane, requirements, "+
				"userPreferences or any custom key. History, phase and ids have dedicated tools and are rejected.",
		),
		mcp.WithObject("updates",
			mcp.Required(),
			mcp.Description("Fields to merge"),
		),
	)
}

func (o *Orchestrator) handleUpdateState(ctx context.Context, args state.Fields) (*Result, error) {
	updates := args.Map("updates")
	if len(updates) == 0 {
		return nil, &ValidationError{Tool: ToolUpdateProjectState, Problems: []string{`"updates" must not be empty`}}
	}
	p, err := o.store.UpdateState(ctx, updates)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return success("Updated "+strings.Join(keys, ", ")+".", p)
}

func (o *Orchestrator) reviewOutcomeDef() mcp.Tool {
	return mcp.NewTool(ToolRecordReviewOutcome,
		mcp.WithDescription("Record the outcome of a review checkpoint, e.g. a PRD sign-off or a QA gate."),
		mcp.WithString("checkpoint",
			mcp.Required(),
			mcp.Description("Checkpoint name"),
		),
		mcp.WithObject("details",
			mcp.Description("Outcome details, e.g. {approved: true, notes: ...}"),
		),
	)
}

func (o *Orchestrator) handleReviewOutcome(ctx context.Context, args state.Fields) (*Result, error) {
	r, err := o.store.RecordReviewOutcome(ctx, args.String("checkpoint"), args.Map("details"))
	if err != nil {
		return nil, err
	}
	return success(fmt.Sprintf("Recorded review outcome for %q.", r.Checkpoint), r)
}

func (o *Orchestrator) resetDef() mcp.Tool {
	return mcp.NewTool(ToolResetProject,
		mcp.WithDescription(
			"Erase all project state and start over with a new project id. Requires confirm=true.",
		),
		mcp.WithBoolean("confirm",
			mcp.Description("Must be true to reset"),
		),
	)
}

func (o *Orchestrator) handleReset(ctx context.Context, _ state.Fields) (*Result, error) {
	p, err := o.store.Clear(ctx)
	if err != nil {
		return nil, err
	}
	o.log.Info("project state reset")
	return success(fmt.Sprintf("Project reset; new project id %s.", p.ProjectID), p)
}
