package transition

import (
	"fmt"
	"math"

	"github.com/HendryAvila/conductor/internal/state"
	"github.com/HendryAvila/conductor/internal/textmatch"
	"github.com/HendryAvila/conductor/internal/workflow"
)

// MinTransitionConfidence is the confidence a detection needs before it
// suggests moving phases.
const MinTransitionConfidence = 0.6

// recentWindow is how many trailing conversation messages count as
// supporting evidence.
const recentWindow = 3

// DefaultPhaseKeywords is the vocabulary that points at each phase.
var DefaultPhaseKeywords = map[workflow.Phase][]string{
	workflow.PhaseAnalyst: {
		"brainstorm", "idea", "ideas", "research", "market", "brief", "problem", "discovery", "competitors",
	},
	workflow.PhasePM: {
		"requirements", "prd", "product", "features", "feature", "prioritize", "roadmap", "scope", "mvp",
	},
	workflow.PhaseUX: {
		"ux", "ui", "wireframe", "wireframes", "user flow", "usability", "accessibility", "screens", "layout",
	},
	workflow.PhaseArchitect: {
		"architecture", "tech stack", "database", "schema", "infrastructure", "api design", "scalability", "deployment",
	},
	workflow.PhasePO: {
		"validate", "validation", "backlog", "acceptance", "sign-off", "approve", "alignment",
	},
	workflow.PhaseSM: {
		"epic", "epics", "story", "stories", "sprint", "breakdown", "tasks",
	},
	workflow.PhaseDev: {
		"implement", "implementation", "code", "coding", "develop", "bug", "refactor", "commit",
	},
	workflow.PhaseQA: {
		"test", "tests", "testing", "qa", "quality", "regression", "verify", "coverage",
	},
}

// Detection is the detector's verdict.
type Detection struct {
	DetectedPhase    workflow.Phase `json:"detectedPhase"`
	Confidence       float64        `json:"confidence"`
	ShouldTransition bool           `json:"shouldTransition"`
	Matches          []string       `json:"matches,omitempty"`
	Rationale        string         `json:"rationale"`
}

// Detector guesses which phase a message belongs to. It has no side
// effects.
type Detector struct {
	keywords map[workflow.Phase][]string
}

// NewDetector returns a Detector with the default vocabulary.
func NewDetector() *Detector {
	return &Detector{keywords: DefaultPhaseKeywords}
}

// NewDetectorWithKeywords returns a Detector with a custom vocabulary.
func NewDetectorWithKeywords(keywords map[workflow.Phase][]string) *Detector {
	return &Detector{keywords: keywords}
}

// Check scores userMessage, plus the last few conversation messages at
// half weight, against each phase vocabulary.
func (d *Detector) Check(conversation []state.Message, userMessage string, current workflow.Phase) Detection {
	msgTokens := textmatch.Tokenize(userMessage)
	var recent []string
	start := len(conversation) - recentWindow
	if start < 0 {
		start = 0
	}
	for _, m := range conversation[start:] {
		recent = append(recent, textmatch.Tokenize(m.Content)...)
	}

	best := Detection{DetectedPhase: current}
	bestScore := 0.0
	for _, phase := range workflow.PhaseOrder {
		vocab := d.keywords[phase]
		direct := textmatch.Match(msgTokens, vocab)
		support := textmatch.Match(recent, vocab)
		score := float64(len(direct)) + 0.5*float64(len(support))
		if score > bestScore {
			bestScore = score
			best.DetectedPhase = phase
			best.Matches = append(append([]string{}, direct...), support...)
		}
	}

	if bestScore == 0 {
		best.Confidence = 0.4
		best.Rationale = fmt.Sprintf("no phase keywords found; staying in %s", current)
		return best
	}

	best.Confidence = math.Min(0.95, 0.4+0.2*bestScore)
	best.Confidence = math.Round(best.Confidence*100) / 100
	best.ShouldTransition = best.DetectedPhase != current && best.Confidence >= MinTransitionConfidence
	best.Rationale = fmt.Sprintf("%s keywords %v (score %.1f)", best.DetectedPhase, best.Matches, bestScore)
	return best
}
