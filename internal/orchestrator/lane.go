package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/conductor/internal/lane"
	"github.com/HendryAvila/conductor/internal/state"
	"github.com/HendryAvila/conductor/internal/transition"
	"github.com/HendryAvila/conductor/internal/workflow"
)

// quickLaneTypes are generated in one pass on the quick lane.
var quickLaneTypes = []workflow.DeliverableType{
	workflow.DeliverableBrief,
	workflow.DeliverablePRD,
	workflow.DeliverableStory,
}

const quickLaneNextSteps = "Review the generated brief, PRD and story, then start implementing the story."

func (o *Orchestrator) selectLaneDef() mcp.Tool {
	return mcp.NewTool(ToolSelectLane,
		mcp.WithDescription(
			"Decide whether a request takes the quick lane (templated documents in one pass) or the complex lane "+
				"(the multi-phase agent workflow). The decision is recorded unless record=false.",
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The user request"),
		),
		mcp.WithString("forceLane",
			mcp.Description("Skip scoring and use this lane"),
			mcp.Enum(laneNames()...),
		),
		mcp.WithString("projectComplexity",
			mcp.Description("Complexity hint"),
			mcp.Enum("low", "medium", "high"),
		),
		mcp.WithBoolean("record",
			mcp.Description("Record the decision in the lane history (default true)"),
		),
	)
}

func (o *Orchestrator) handleSelectLane(ctx context.Context, args state.Fields) (*Result, error) {
	msg := args.String("message")
	c := o.laneContext(args)

	record := true
	if v, set := args["record"].(bool); set {
		record = v
	}
	if !record {
		d := o.selector.Select(msg, c)
		return success(laneMessage(d, false), d)
	}

	d, _, err := lane.SelectAndLog(ctx, o.selector, o.store, msg, c)
	if err != nil {
		return nil, err
	}
	o.deps.Metrics.RecordLane(string(d.Lane))
	return success(laneMessage(d, true), d)
}

func (o *Orchestrator) laneContext(args state.Fields) lane.Context {
	p := o.store.Snapshot()
	c := lane.Context{
		PreviousPhase:     p.CurrentPhase,
		ForceLane:         workflow.Lane(args.String("forceLane")),
		ProjectComplexity: args.String("projectComplexity"),
		DeliverableCount:  o.store.DeliverableCount(),
	}
	for _, byType := range o.store.AllDeliverables() {
		if _, ok := byType[string(workflow.DeliverablePRD)]; ok {
			c.HasExistingPRD = true
		}
	}
	for _, d := range p.LaneHistory {
		c.PriorLanes = append(c.PriorLanes, d.Lane)
	}
	return c
}

func laneMessage(d lane.Decision, recorded bool) string {
	msg := fmt.Sprintf("Selected the %s lane (confidence %.2f). %s", d.Lane, d.Confidence, d.Rationale)
	if !recorded {
		msg += " Not recorded."
	}
	return msg
}

func (o *Orchestrator) executeWorkflowDef() mcp.Tool {
	return mcp.NewTool(ToolExecuteWorkflow,
		mcp.WithDescription(
			"Handle a user request end to end: record it, pick a lane, then either generate the quick-lane "+
				"documents or hand the request to the right phase of the complex workflow.",
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The user request"),
		),
		mcp.WithString("forceLane",
			mcp.Description("Skip scoring and use this lane"),
			mcp.Enum(laneNames()...),
		),
		mcp.WithString("projectComplexity",
			mcp.Description("Complexity hint"),
			mcp.Enum("low", "medium", "high"),
		),
		mcp.WithObject("context",
			mcp.Description("Extra context for generators and agents"),
		),
	)
}

// WorkflowRun is the data of execute_workflow.
type WorkflowRun struct {
	Lane         lane.Decision          `json:"lane"`
	Deliverables []GeneratedDeliverable `json:"deliverables,omitempty"`
	NextSteps    string                 `json:"nextSteps,omitempty"`
	Detection    *transition.Detection  `json:"detection,omitempty"`
	Outcome      *transition.Outcome    `json:"outcome,omitempty"`
}

func (o *Orchestrator) handleExecuteWorkflow(ctx context.Context, args state.Fields) (*Result, error) {
	msg := args.String("message")
	if _, err := o.store.AddMessage(ctx, workflow.RoleUser, msg, nil); err != nil {
		return nil, err
	}

	d, _, err := lane.SelectAndLog(ctx, o.selector, o.store, msg, o.laneContext(args))
	if err != nil {
		return nil, err
	}
	o.deps.Metrics.RecordLane(string(d.Lane))

	run := &WorkflowRun{Lane: d}
	if d.Lane == workflow.LaneQuick {
		return o.quickLane(ctx, run, msg, args.Map("context"))
	}
	return o.complexLane(ctx, run, msg, args.Map("context"))
}

func (o *Orchestrator) quickLane(ctx context.Context, run *WorkflowRun, msg string, extra state.Fields) (*Result, error) {
	for _, typ := range quickLaneTypes {
		input := extra.Clone()
		if input == nil {
			input = state.Fields{}
		}
		if _, set := input["message"]; !set {
			input["message"] = msg
		}
		if _, set := input["title"]; !set && typ == workflow.DeliverableStory {
			input["title"] = storyTitle(msg)
		}
		out, err := o.generate(ctx, typ, input)
		if err != nil {
			return nil, err
		}
		run.Deliverables = append(run.Deliverables, out)
	}

	if _, err := o.store.UpdateState(ctx, state.Fields{"nextSteps": quickLaneNextSteps}); err != nil {
		return nil, err
	}
	run.NextSteps = quickLaneNextSteps

	names := make([]string, len(run.Deliverables))
	for i, g := range run.Deliverables {
		names[i] = g.Deliverable.Type
	}
	return success(fmt.Sprintf("Quick lane: generated %s.\n\nNext: %s", strings.Join(names, ", "), quickLaneNextSteps), run)
}

func (o *Orchestrator) complexLane(ctx context.Context, run *WorkflowRun, msg string, extra state.Fields) (*Result, error) {
	current := o.store.CurrentPhase()
	det := o.detector.Check(o.store.Conversation(), msg, current)
	run.Detection = &det

	var (
		out *transition.Outcome
		err error
	)
	if det.ShouldTransition {
		out, err = o.machine.Execute(ctx, transition.Request{To: det.DetectedPhase, Context: extra, UserMessage: msg})
	} else {
		out, err = o.machine.RunPhase(ctx, current, extra, msg)
	}
	run.Outcome = out
	if err != nil {
		res, herr := hookFailure(err, out)
		if res != nil {
			res.Data = run
		}
		return res, herr
	}

	var text string
	if out.Committed {
		o.deps.Metrics.RecordTransition(string(out.From), string(out.To))
		text = fmt.Sprintf("Complex lane: moved from %s to %s (%s).", out.From, out.To, det.Rationale)
	} else {
		text = fmt.Sprintf("Complex lane: continuing in %s with %s.", current, out.Hook)
	}
	if out.Message != "" {
		text += "\n\n" + out.Message
	}
	return success(text, run)
}

// storyTitle derives a short title from a request.
func storyTitle(msg string) string {
	title := strings.TrimSpace(strings.SplitN(msg, "\n", 2)[0])
	if r := []rune(title); len(r) > 60 {
		title = strings.TrimSpace(string(r[:60]))
	}
	if title == "" {
		return "First story"
	}
	r := []rune(title)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
