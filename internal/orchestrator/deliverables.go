package orchestrator

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/conductor/internal/agent"
	"github.com/HendryAvila/conductor/internal/state"
	"github.com/HendryAvila/conductor/internal/workflow"
)

func (o *Orchestrator) generateDef() mcp.Tool {
	return mcp.NewTool(ToolGenerateDeliverable,
		mcp.WithDescription(
			"Generate a deliverable document from context and store it under the current phase. "+
				"Stories are also indexed so get_story can return their fields.",
		),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Deliverable type"),
			mcp.Enum(deliverableNames()...),
		),
		mcp.WithObject("context",
			mcp.Description("Fields for the document, e.g. title, epicNumber and storyNumber for a story"),
		),
	)
}

// GeneratedDeliverable is the data of generate_deliverable.
type GeneratedDeliverable struct {
	Deliverable state.Deliverable `json:"deliverable"`
	Path        string            `json:"path,omitempty"`
	StoryID     string            `json:"storyId,omitempty"`
}

func (o *Orchestrator) handleGenerate(ctx context.Context, args state.Fields) (*Result, error) {
	typ, err := workflow.ParseDeliverableType(args.String("type"))
	if err != nil {
		return nil, err
	}
	out, err := o.generate(ctx, typ, args.Map("context"))
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Generated %s under the %s phase.", typ, out.Deliverable.Phase)
	if out.Path != "" {
		msg += " Written to " + out.Path + "."
	}
	return success(msg, out)
}

// generate renders typ and stores the result under the current phase.
// The context becomes the deliverable's metadata.
func (o *Orchestrator) generate(ctx context.Context, typ workflow.DeliverableType, input state.Fields) (GeneratedDeliverable, error) {
	input = input.Clone()
	if input == nil {
		input = state.Fields{}
	}
	if _, set := input["projectName"]; !set {
		if name := o.store.Snapshot().ProjectName; name != "" {
			input["projectName"] = name
		}
	}

	// A story with nothing to name it by gets the store's positional id, so
	// its file and its cache entry agree.
	if typ == workflow.DeliverableStory && agent.StoryID(input) == "" {
		input["storyId"] = state.FallbackStoryID(o.store.StoryCount())
	}

	gen, err := o.gen.Generate(ctx, typ, input)
	if err != nil {
		return GeneratedDeliverable{}, fmt.Errorf("generating %s: %w", typ, err)
	}

	meta := input.Clone()
	if gen.Path != "" {
		meta["path"] = gen.Path
	}
	d, err := o.store.StoreDeliverable(ctx, string(typ), gen.Content, meta)
	if err != nil {
		return GeneratedDeliverable{}, fmt.Errorf("storing %s: %w", typ, err)
	}

	out := GeneratedDeliverable{Deliverable: d, Path: gen.Path}
	if typ == workflow.DeliverableStory {
		if story, ok := o.store.GetStory(""); ok {
			out.StoryID = story.ID
		}
	}
	return out, nil
}

func (o *Orchestrator) getStoryDef() mcp.Tool {
	return mcp.NewTool(ToolGetStory,
		mcp.WithDescription(
			"Get a structured story by id. Without an id, or for an unknown id, the most recently stored story is returned.",
		),
		mcp.WithString("storyId",
			mcp.Description("Story id, e.g. '1.2'"),
		),
	)
}

func (o *Orchestrator) handleGetStory(_ context.Context, args state.Fields) (*Result, error) {
	story, found := o.store.GetStory(args.String("storyId"))
	if !found {
		return &Result{IsError: true, Message: "no stories have been stored yet"}, nil
	}
	return success(fmt.Sprintf("Story %s: %s", story.ID, story.Title), story)
}
