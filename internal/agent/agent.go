package agent

import (
	"context"

	"github.com/HendryAvila/conductor/internal/workflow"
)

// Runner triggers an agent persona. Implementations must be safe for
// concurrent use; SetModel affects subsequent Run calls.
type Runner interface {
	Run(ctx context.Context, agentID string, input map[string]any) (RawResponse, error)
	Model() string
	SetModel(model string)
}

// CommandRunner triggers a scripted command for non-agent phases.
type CommandRunner interface {
	RunCommand(ctx context.Context, name string, input map[string]any) (RawResponse, error)
	// Has reports whether a command is configured under name.
	Has(name string) bool
}

// Generated is a generator's output.
type Generated struct {
	Content string `json:"content"`
	Path    string `json:"path,omitempty"`
}

// Generator produces a deliverable document from context.
type Generator interface {
	Generate(ctx context.Context, typ workflow.DeliverableType, input map[string]any) (Generated, error)
}

// GeneratorMethods names the generator method that serves each
// deliverable type.
var GeneratorMethods = map[workflow.DeliverableType]string{
	workflow.DeliverableBrief:        "GenerateBrief",
	workflow.DeliverablePRD:          "GeneratePRD",
	workflow.DeliverableArchitecture: "GenerateArchitecture",
	workflow.DeliverableEpic:         "GenerateEpic",
	workflow.DeliverableStory:        "GenerateStory",
	workflow.DeliverableQAAssessment: "GenerateQAAssessment",
}
