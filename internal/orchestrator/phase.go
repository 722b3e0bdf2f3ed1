package orchestrator

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/conductor/internal/state"
	"github.com/HendryAvila/conductor/internal/transition"
	"github.com/HendryAvila/conductor/internal/workflow"
)

func (o *Orchestrator) detectPhaseDef() mcp.Tool {
	return mcp.NewTool(ToolDetectPhase,
		mcp.WithDescription(
			"Guess which workflow phase a message belongs to, using the message and the recent conversation. "+
				"Read-only: it never changes the current phase.",
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The user message to classify"),
		),
	)
}

func (o *Orchestrator) handleDetectPhase(_ context.Context, args state.Fields) (*Result, error) {
	current := o.store.CurrentPhase()
	d := o.detector.Check(o.store.Conversation(), args.String("message"), current)

	msg := fmt.Sprintf("Detected phase %s (confidence %.2f); staying in %s.", d.DetectedPhase, d.Confidence, current)
	if d.ShouldTransition {
		msg = fmt.Sprintf("Detected phase %s (confidence %.2f); a transition from %s is suggested.",
			d.DetectedPhase, d.Confidence, current)
	}
	return success(msg, d)
}

func (o *Orchestrator) transitionDef() mcp.Tool {
	return mcp.NewTool(ToolTransitionPhase,
		mcp.WithDescription(
			"Move the project to another phase. Runs the target phase's agent with the carried-over context, "+
				"saves what it produced and commits the transition. Nothing is committed when the agent fails.",
		),
		mcp.WithString("toPhase",
			mcp.Required(),
			mcp.Description("Target phase"),
			mcp.Enum(phaseNames()...),
		),
		mcp.WithObject("context",
			mcp.Description("Explicit context to hand to the next phase"),
		),
		mcp.WithString("userMessage",
			mcp.Description("The user message that triggered the transition"),
		),
	)
}

func (o *Orchestrator) handleTransition(ctx context.Context, args state.Fields) (*Result, error) {
	to, err := workflow.ParsePhase(args.String("toPhase"))
	if err != nil {
		return nil, err
	}
	return o.transition(ctx, to, args.Map("context"), args.String("userMessage"))
}

func (o *Orchestrator) transition(ctx context.Context, to workflow.Phase, explicit state.Fields, userMessage string) (*Result, error) {
	out, err := o.machine.Execute(ctx, transition.Request{
		To:          to,
		Context:     explicit,
		UserMessage: userMessage,
	})
	if err != nil {
		return hookFailure(err, out)
	}
	o.deps.Metrics.RecordTransition(string(out.From), string(out.To))

	msg := fmt.Sprintf("Transitioned from %s to %s; %s is now active.", out.From, out.To, out.Hook)
	if out.Message != "" {
		msg += "\n\n" + out.Message
	}
	return success(msg, out)
}

func (o *Orchestrator) phaseWorkflowDef() mcp.Tool {
	return mcp.NewTool(ToolExecutePhaseWorkflow,
		mcp.WithDescription(
			"Run a phase's agent. Without a phase, or with the current phase, the agent runs in place; "+
				"any other phase is transitioned to first.",
		),
		mcp.WithString("phase",
			mcp.Description("Phase to run (default: the current phase)"),
			mcp.Enum(phaseNames()...),
		),
		mcp.WithString("userMessage",
			mcp.Description("The user message for the agent"),
		),
		mcp.WithObject("context",
			mcp.Description("Explicit context for the agent"),
		),
	)
}

func (o *Orchestrator) handlePhaseWorkflow(ctx context.Context, args state.Fields) (*Result, error) {
	current := o.store.CurrentPhase()
	phase := current
	if s := args.String("phase"); s != "" {
		p, err := workflow.ParsePhase(s)
		if err != nil {
			return nil, err
		}
		phase = p
	}
	if phase != current {
		return o.transition(ctx, phase, args.Map("context"), args.String("userMessage"))
	}
	return o.runPhase(ctx, phase, args.Map("context"), args.String("userMessage"))
}

func (o *Orchestrator) runPhase(ctx context.Context, phase workflow.Phase, explicit state.Fields, userMessage string) (*Result, error) {
	out, err := o.machine.RunPhase(ctx, phase, explicit, userMessage)
	if err != nil {
		return hookFailure(err, out)
	}
	msg := fmt.Sprintf("Ran %s for the %s phase.", out.Hook, phase)
	if out.Message != "" {
		msg += "\n\n" + out.Message
	}
	return success(msg, out)
}
