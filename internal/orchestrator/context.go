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

const defaultRecentMessages = 10

func (o *Orchestrator) projectContextDef() mcp.Tool {
	return mcp.NewTool(ToolGetProjectContext,
		mcp.WithDescription(
			"Get the full project context: project record, recent conversation, "+
				"deliverables by phase and the active agent persona. "+
				"Call this at the start of every session.",
		),
		mcp.WithNumber("recentMessages",
			mcp.Description("How many trailing conversation messages to include (default 10, 0 for none)"),
		),
	)
}

// ProjectContext is the data of get_project_context.
type ProjectContext struct {
	Project        state.ProjectState          `json:"project"`
	RecentMessages []state.Message             `json:"recentMessages"`
	MessageCount   int                         `json:"messageCount"`
	Deliverables   map[workflow.Phase][]string `json:"deliverables"`
	ActiveAgent    string                      `json:"activeAgent"`
	LatestStoryID  string                      `json:"latestStoryId,omitempty"`
}

func (o *Orchestrator) handleProjectContext(_ context.Context, args state.Fields) (*Result, error) {
	n := defaultRecentMessages
	if v, ok := args.Int("recentMessages"); ok && v >= 0 {
		n = v
	}

	project := o.store.Snapshot()
	conv := o.store.Conversation()
	recent := conv
	if len(recent) > n {
		recent = recent[len(recent)-n:]
	}

	pc := ProjectContext{
		Project:        project,
		RecentMessages: recent,
		MessageCount:   len(conv),
		Deliverables:   deliverableTypes(o.store.AllDeliverables()),
		ActiveAgent:    workflow.AgentFor(project.CurrentPhase),
	}
	if story, ok := o.store.GetStory(""); ok {
		pc.LatestStoryID = story.ID
	}

	msg := fmt.Sprintf("Project %s is in the %s phase (agent %s) with %d messages and %d deliverables.",
		displayName(project), project.CurrentPhase, pc.ActiveAgent, pc.MessageCount, o.store.DeliverableCount())
	return success(msg, pc)
}

func (o *Orchestrator) projectSummaryDef() mcp.Tool {
	return mcp.NewTool(ToolGetProjectSummary,
		mcp.WithDescription("Get a short markdown summary of project progress: phase, lane, deliverables, decisions and next steps."),
	)
}

// ProjectSummary is the data of get_project_summary.
type ProjectSummary struct {
	ProjectID        string                      `json:"projectId"`
	ProjectName      string                      `json:"projectName,omitempty"`
	CurrentPhase     workflow.Phase              `json:"currentPhase"`
	CurrentLane      workflow.Lane               `json:"currentLane,omitempty"`
	Transitions      int                         `json:"transitions"`
	LaneDecisions    int                         `json:"laneDecisions"`
	Decisions        int                         `json:"decisions"`
	Messages         int                         `json:"messages"`
	DeliverableCount int                         `json:"deliverableCount"`
	Deliverables     map[workflow.Phase][]string `json:"deliverables"`
	Reviews          int                         `json:"reviews"`
	NextSteps        string                      `json:"nextSteps,omitempty"`
	UpdatedAt        string                      `json:"updatedAt"`
}

func (o *Orchestrator) handleProjectSummary(_ context.Context, _ state.Fields) (*Result, error) {
	p := o.store.Snapshot()
	sum := ProjectSummary{
		ProjectID:        p.ProjectID,
		ProjectName:      p.ProjectName,
		CurrentPhase:     p.CurrentPhase,
		CurrentLane:      p.CurrentLane,
		Transitions:      len(p.PhaseHistory),
		LaneDecisions:    len(p.LaneHistory),
		Decisions:        len(p.Decisions),
		Messages:         len(o.store.Conversation()),
		DeliverableCount: o.store.DeliverableCount(),
		Deliverables:     deliverableTypes(o.store.AllDeliverables()),
		Reviews:          len(o.store.ReviewOutcomes()),
		NextSteps:        p.NextSteps,
		UpdatedAt:        p.UpdatedAt,
	}
	return success(renderSummary(sum), sum)
}

func renderSummary(s ProjectSummary) string {
	var sb strings.Builder
	name := s.ProjectName
	if name == "" {
		name = "Untitled project"
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", name))
	sb.WriteString(fmt.Sprintf("- **Phase**: %s\n", s.CurrentPhase))
	lane := string(s.CurrentLane)
	if lane == "" {
		lane = "not selected"
	}
	sb.WriteString(fmt.Sprintf("- **Lane**: %s\n", lane))
	sb.WriteString(fmt.Sprintf("- **Transitions**: %d\n", s.Transitions))
	sb.WriteString(fmt.Sprintf("- **Decisions**: %d\n", s.Decisions))
	sb.WriteString(fmt.Sprintf("- **Messages**: %d\n", s.Messages))
	sb.WriteString(fmt.Sprintf("- **Deliverables**: %d\n", s.DeliverableCount))

	for _, phase := range workflow.PhaseOrder {
		if types := s.Deliverables[phase]; len(types) > 0 {
			sb.WriteString(fmt.Sprintf("  - %s: %s\n", phase, strings.Join(types, ", ")))
		}
	}
	if s.NextSteps != "" {
		sb.WriteString(fmt.Sprintf("\n## Next steps\n\n%s\n", s.NextSteps))
	}
	return sb.String()
}

func deliverableTypes(all map[workflow.Phase]map[string]state.Deliverable) map[workflow.Phase][]string {
	out := make(map[workflow.Phase][]string, len(all))
	for phase, byType := range all {
		if len(byType) == 0 {
			continue
		}
		types := make([]string, 0, len(byType))
		for t := range byType {
			types = append(types, t)
		}
		sort.Strings(types)
		out[phase] = types
	}
	return out
}

func displayName(p state.ProjectState) string {
	if p.ProjectName != "" {
		return fmt.Sprintf("%q", p.ProjectName)
	}
	return p.ProjectID
}
