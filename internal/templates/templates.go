// Package templates renders deliverable documents from embedded
// markdown templates.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed files/*.md.tmpl
var files embed.FS

// Template names.
const (
	Brief        = "brief.md.tmpl"
	PRD          = "prd.md.tmpl"
	Architecture = "architecture.md.tmpl"
	Epic         = "epic.md.tmpl"
	Story        = "story.md.tmpl"
	QAAssessment = "qa-assessment.md.tmpl"
)

// Renderer renders a named template with data.
type Renderer interface {
	Render(name string, data any) (string, error)
}

// EmbedRenderer renders the embedded templates.
type EmbedRenderer struct {
	tmpl *template.Template
}

// NewRenderer parses every embedded template.
func NewRenderer() (*EmbedRenderer, error) {
	tmpl, err := template.New("").Funcs(funcs).ParseFS(files, "files/*.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &EmbedRenderer{tmpl: tmpl}, nil
}

// Render executes the named template.
func (r *EmbedRenderer) Render(name string, data any) (string, error) {
	t := r.tmpl.Lookup(name)
	if t == nil {
		return "", fmt.Errorf("unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.String(), nil
}

var funcs = template.FuncMap{
	"orDefault": orDefault,
	"bullets":   bullets,
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func bullets(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(item)
	}
	return b.String()
}

// BriefData fills the project brief.
type BriefData struct {
	Name        string `json:"name"`
	Problem     string `json:"problem"`
	TargetUsers string `json:"targetUsers"`
	Goals       string `json:"goals"`
	Scope       string `json:"scope"`
	Constraints string `json:"constraints"`
}

// PRDData fills the product requirements document.
type PRDData struct {
	Name           string `json:"name"`
	Overview       string `json:"overview"`
	Requirements   string `json:"requirements"`
	UserStories    string `json:"userStories"`
	NonFunctional  string `json:"nonFunctional"`
	SuccessMetrics string `json:"successMetrics"`
}

// ArchitectureData fills the architecture document.
type ArchitectureData struct {
	Name         string `json:"name"`
	Overview     string `json:"overview"`
	Components   string `json:"components"`
	DataModel    string `json:"dataModel"`
	Integrations string `json:"integrations"`
	Decisions    string `json:"decisions"`
}

// EpicData fills one epic.
type EpicData struct {
	Name    string `json:"name"`
	Number  int    `json:"epicNumber"`
	Title   string `json:"title"`
	Goal    string `json:"goal"`
	Stories string `json:"stories"`
}

// StoryData fills one story.
type StoryData struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Persona            string   `json:"persona"`
	Action             string   `json:"action"`
	Benefit            string   `json:"benefit"`
	Description        string   `json:"description"`
	AcceptanceCriteria []string `json:"acceptanceCriteria"`
	DefinitionOfDone   []string `json:"definitionOfDone"`
	TechnicalNotes     []string `json:"technicalNotes"`
	Dependencies       []string `json:"dependencies"`
}

// QAAssessmentData fills the QA assessment.
type QAAssessmentData struct {
	Name         string `json:"name"`
	Scope        string `json:"scope"`
	TestStrategy string `json:"testStrategy"`
	Risks        string `json:"risks"`
	Findings     string `json:"findings"`
	Verdict      string `json:"verdict"`
}
