package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/HendryAvila/conductor/internal/state"
	"github.com/HendryAvila/conductor/internal/templates"
	"github.com/HendryAvila/conductor/internal/workflow"
)

// ErrOutsideDocs is returned for a document path that leaves docsDir.
var ErrOutsideDocs = errors.New("document path is outside the docs directory")

// unsafeFileChars matches runs that are not allowed in a story filename.
var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// TemplateGenerator is the default Generator: it renders the embedded
// template for a type and writes the document under docsDir.
type TemplateGenerator struct {
	renderer templates.Renderer
	docsDir  string
}

// NewTemplateGenerator creates a generator. An empty docsDir renders
// without writing files.
func NewTemplateGenerator(renderer templates.Renderer, docsDir string) *TemplateGenerator {
	return &TemplateGenerator{renderer: renderer, docsDir: docsDir}
}

// Generate dispatches to the method registered for typ.
func (g *TemplateGenerator) Generate(ctx context.Context, typ workflow.DeliverableType, input map[string]any) (Generated, error) {
	if err := ctx.Err(); err != nil {
		return Generated{}, err
	}
	method, ok := g.methods()[typ]
	if !ok {
		return Generated{}, fmt.Errorf("generating %q: %w", typ, workflow.ErrUnknownDeliverable)
	}
	return method(state.Fields(input))
}

func (g *TemplateGenerator) methods() map[workflow.DeliverableType]func(state.Fields) (Generated, error) {
	return map[workflow.DeliverableType]func(state.Fields) (Generated, error){
		workflow.DeliverableBrief:        g.GenerateBrief,
		workflow.DeliverablePRD:          g.GeneratePRD,
		workflow.DeliverableArchitecture: g.GenerateArchitecture,
		workflow.DeliverableEpic:         g.GenerateEpic,
		workflow.DeliverableStory:        g.GenerateStory,
		workflow.DeliverableQAAssessment: g.GenerateQAAssessment,
	}
}

// GenerateBrief renders the project brief.
func (g *TemplateGenerator) GenerateBrief(in state.Fields) (Generated, error) {
	data := templates.BriefData{
		Name:        projectName(in),
		Problem:     pick(in, "problem", "description", "message"),
		TargetUsers: pick(in, "targetUsers", "users"),
		Goals:       pick(in, "goals"),
		Scope:       pick(in, "scope"),
		Constraints: pick(in, "constraints"),
	}
	return g.write(templates.Brief, data, workflow.DeliverableFilename(workflow.DeliverableBrief))
}

// GeneratePRD renders the product requirements document.
func (g *TemplateGenerator) GeneratePRD(in state.Fields) (Generated, error) {
	data := templates.PRDData{
		Name:           projectName(in),
		Overview:       pick(in, "overview", "description", "message"),
		Requirements:   pick(in, "requirements"),
		UserStories:    pick(in, "userStories"),
		NonFunctional:  pick(in, "nonFunctional"),
		SuccessMetrics: pick(in, "successMetrics"),
	}
	return g.write(templates.PRD, data, workflow.DeliverableFilename(workflow.DeliverablePRD))
}

// GenerateArchitecture renders the architecture document.
func (g *TemplateGenerator) GenerateArchitecture(in state.Fields) (Generated, error) {
	data := templates.ArchitectureData{
		Name:         projectName(in),
		Overview:     pick(in, "overview", "description"),
		Components:   pick(in, "components"),
		DataModel:    pick(in, "dataModel"),
		Integrations: pick(in, "integrations"),
		Decisions:    pick(in, "decisions"),
	}
	return g.write(templates.Architecture, data, workflow.DeliverableFilename(workflow.DeliverableArchitecture))
}

// GenerateEpic renders one epic.
func (g *TemplateGenerator) GenerateEpic(in state.Fields) (Generated, error) {
	data := templates.EpicData{
		Name:    projectName(in),
		Title:   pick(in, "title"),
		Goal:    pick(in, "goal", "description"),
		Stories: pick(in, "stories"),
	}
	data.Number, _ = in.Int("epicNumber")
	return g.write(templates.Epic, data, workflow.DeliverableFilename(workflow.DeliverableEpic))
}

// GenerateStory renders one story into stories/<id>.md.
func (g *TemplateGenerator) GenerateStory(in state.Fields) (Generated, error) {
	data := templates.StoryData{
		ID:                 StoryID(in),
		Title:              pick(in, "title"),
		Persona:            pick(in, "persona", "userRole"),
		Action:             pick(in, "action"),
		Benefit:            pick(in, "benefit"),
		Description:        pick(in, "description", "summary"),
		AcceptanceCriteria: state.NormalizeChecklist(in["acceptanceCriteria"]),
		DefinitionOfDone:   state.NormalizeChecklist(in["definitionOfDone"]),
		TechnicalNotes:     state.NormalizeChecklist(in["technicalNotes"]),
		Dependencies:       state.NormalizeChecklist(in["dependencies"]),
	}
	rel := filepath.Join(workflow.DeliverableFilename(workflow.DeliverableStory), storyFilename(data.ID)+".md")
	return g.write(templates.Story, data, rel)
}

// GenerateQAAssessment renders the QA assessment.
func (g *TemplateGenerator) GenerateQAAssessment(in state.Fields) (Generated, error) {
	data := templates.QAAssessmentData{
		Name:         projectName(in),
		Scope:        pick(in, "scope"),
		TestStrategy: pick(in, "testStrategy"),
		Risks:        pick(in, "risks"),
		Findings:     pick(in, "findings"),
		Verdict:      pick(in, "verdict"),
	}
	return g.write(templates.QAAssessment, data, workflow.DeliverableFilename(workflow.DeliverableQAAssessment))
}

func (g *TemplateGenerator) write(tmpl string, data any, rel string) (Generated, error) {
	content, err := g.renderer.Render(tmpl, data)
	if err != nil {
		return Generated{}, err
	}
	if g.docsDir == "" {
		return Generated{Content: content}, nil
	}

	path := filepath.Join(g.docsDir, rel)
	if inside, err := filepath.Rel(g.docsDir, path); err != nil || inside == ".." ||
		strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return Generated{}, fmt.Errorf("%w: %s", ErrOutsideDocs, rel)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Generated{}, fmt.Errorf("creating docs directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return Generated{}, fmt.Errorf("writing %s: %w", rel, err)
	}
	return Generated{Content: content, Path: path}, nil
}

// storyFilename reduces a story id to a single path element. Separators
// and other unsafe runs become dashes; leading and trailing dots and
// dashes are dropped.
func storyFilename(id string) string {
	name := strings.Trim(unsafeFileChars.ReplaceAllString(id, "-"), ".-")
	if name == "" {
		return "story"
	}
	return name
}

// StoryID resolves a story id from generator input with the same
// precedence the state store uses, minus the positional fallback.
func StoryID(in state.Fields) string {
	if id := pick(in, "id", "storyId"); id != "" {
		return id
	}
	epic, okE := in.Int("epicNumber")
	story, okS := in.Int("storyNumber")
	if okE && okS {
		return fmt.Sprintf("%d.%d", epic, story)
	}
	return state.Slugify(pick(in, "title"))
}

func projectName(in state.Fields) string {
	return pick(in, "projectName", "name")
}

func pick(in state.Fields, keys ...string) string {
	for _, k := range keys {
		if v := in.String(k); v != "" {
			return v
		}
	}
	return ""
}
