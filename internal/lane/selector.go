// Package lane decides whether a request takes the quick lane (templated,
// single pass) or the complex lane (multi-phase agent pipeline).
//
// Selection is a weighted score over independent signals, in the same
// shape as a clarity gate: each signal scores 0..1 toward "complex" and
// carries a relative weight. Selection never touches state; SelectAndLog
// composes it with recording.
package lane

import (
	"fmt"
	"math"
	"strings"

	"github.com/HendryAvila/conductor/internal/textmatch"
	"github.com/HendryAvila/conductor/internal/workflow"
)

// ComplexThreshold is the score at or above which a request is complex.
const ComplexThreshold = 0.5

// Context carries the signals the caller knows about.
type Context struct {
	PreviousPhase  workflow.Phase
	HasExistingPRD bool
	// ForceLane, when set to a valid lane, bypasses scoring.
	ForceLane workflow.Lane
	// ProjectComplexity is an explicit hint: low, medium or high.
	ProjectComplexity string
	DeliverableCount  int
	PriorLanes        []workflow.Lane
}

// Signal is one scored dimension.
type Signal struct {
	Name     string  `json:"name"`
	Weight   int     `json:"weight"`
	Score    float64 `json:"score"`
	Evidence string  `json:"evidence"`
}

// Decision is the selector's output.
type Decision struct {
	Lane           workflow.Lane `json:"lane"`
	Confidence     float64       `json:"confidence"`
	Rationale      string        `json:"rationale"`
	Forced         bool          `json:"forced,omitempty"`
	Level          int           `json:"level"`
	LevelScore     float64       `json:"levelScore"`
	LevelSignals   []string      `json:"levelSignals,omitempty"`
	LevelRationale string        `json:"levelRationale,omitempty"`
	Signals        []Signal      `json:"signals,omitempty"`
}

// Selector scores requests against keyword vocabularies.
type Selector struct {
	quick   []string
	complex []string
}

// DefaultQuickKeywords hint at small, templated work.
var DefaultQuickKeywords = []string{
	"quick", "simple", "small", "landing page", "fix", "typo", "tweak",
	"prototype", "just", "minor", "single page", "mockup", "demo",
}

// DefaultComplexKeywords hint at multi-phase work.
var DefaultComplexKeywords = []string{
	"architecture", "platform", "microservice", "microservices", "enterprise",
	"scalable", "integration", "integrations", "authentication", "multi-tenant",
	"database", "api", "migration", "compliance", "payment", "payments",
	"real-time", "system", "distributed", "workflow",
}

// NewSelector returns a Selector with the default vocabularies.
func NewSelector() *Selector {
	return &Selector{quick: DefaultQuickKeywords, complex: DefaultComplexKeywords}
}

// NewSelectorWithKeywords returns a Selector with custom vocabularies.
func NewSelectorWithKeywords(quick, complex []string) *Selector {
	return &Selector{quick: quick, complex: complex}
}

// Select classifies msg. It has no side effects.
func (s *Selector) Select(msg string, c Context) Decision {
	if c.ForceLane == workflow.LaneQuick || c.ForceLane == workflow.LaneComplex {
		return Decision{Lane: c.ForceLane, Confidence: 1.0, Rationale: "forced", Forced: true}
	}

	signals := s.signals(msg, c)
	score := CalculateScore(signals)

	d := Decision{
		Lane:       workflow.LaneQuick,
		Confidence: clamp(0.5+math.Abs(score-ComplexThreshold), 0.5, 0.95),
		Level:      levelFor(score),
		LevelScore: round2(score),
		Signals:    signals,
	}
	if score >= ComplexThreshold {
		d.Lane = workflow.LaneComplex
	}

	var evidence []string
	for _, sig := range signals {
		evidence = append(evidence, sig.Evidence)
		if sig.Score > ComplexThreshold {
			d.LevelSignals = append(d.LevelSignals, sig.Name)
		}
	}
	relation := "below"
	if d.Lane == workflow.LaneComplex {
		relation = "at or above"
	}
	d.Rationale = fmt.Sprintf("%s lane: complexity score %.2f %s %.2f threshold; %s",
		d.Lane, score, relation, ComplexThreshold, strings.Join(evidence, "; "))
	d.LevelRationale = fmt.Sprintf("scale level %d (%s) from score %.2f", d.Level, levelNames[d.Level], score)
	return d
}

func (s *Selector) signals(msg string, c Context) []Signal {
	tokens := textmatch.Tokenize(msg)
	quickHits := textmatch.Match(tokens, s.quick)
	complexHits := textmatch.Match(tokens, s.complex)

	kw := Signal{
		Name:   "keywords",
		Weight: 10,
		Score:  clamp(0.5+0.15*float64(len(complexHits)-len(quickHits)), 0, 1),
	}
	kw.Evidence = fmt.Sprintf("keywords quick=%v complex=%v", quickHits, complexHits)

	words := len(tokens)
	length := Signal{Name: "message_length", Weight: 4}
	switch {
	case words <= 12:
		length.Score = 0.3
	case words <= 40:
		length.Score = 0.5
	case words <= 100:
		length.Score = 0.7
	default:
		length.Score = 0.9
	}
	length.Evidence = fmt.Sprintf("%d words", words)

	existing := Signal{Name: "existing_deliverables", Weight: 3, Score: 0.5, Evidence: "no prior deliverables"}
	switch {
	case c.HasExistingPRD:
		existing.Score = 0.75
		existing.Evidence = "a PRD already exists"
	case c.DeliverableCount > 0:
		existing.Score = 0.6
		existing.Evidence = fmt.Sprintf("%d deliverables exist", c.DeliverableCount)
	}

	out := []Signal{kw, length, existing}

	if hint, ok := complexityHints[strings.ToLower(strings.TrimSpace(c.ProjectComplexity))]; ok {
		out = append(out, Signal{
			Name: "complexity_hint", Weight: 8, Score: hint,
			Evidence: "complexity hint " + strings.ToLower(c.ProjectComplexity),
		})
	}

	if n := len(c.PriorLanes); n > 0 {
		complexCount := 0
		for _, l := range c.PriorLanes {
			if l == workflow.LaneComplex {
				complexCount++
			}
		}
		out = append(out, Signal{
			Name: "lane_history", Weight: 2, Score: float64(complexCount) / float64(n),
			Evidence: fmt.Sprintf("%d of %d prior decisions complex", complexCount, n),
		})
	}

	if c.PreviousPhase.Valid() && c.PreviousPhase != workflow.PhaseAnalyst {
		out = append(out, Signal{
			Name: "phase_progress", Weight: 2, Score: 0.6,
			Evidence: "workflow already past analyst (" + string(c.PreviousPhase) + ")",
		})
	}
	return out
}

var complexityHints = map[string]float64{
	"low":    0.1,
	"medium": 0.5,
	"high":   0.9,
}

var levelNames = []string{"trivial", "small", "medium", "large", "enterprise"}

// CalculateScore computes the weighted mean of signal scores.
func CalculateScore(signals []Signal) float64 {
	totalWeight := 0
	weightedSum := 0.0

	for _, s := range signals {
		totalWeight += s.Weight
		weightedSum += s.Score * float64(s.Weight)
	}

	if totalWeight == 0 {
		return 0
	}

	return weightedSum / float64(totalWeight)
}

func levelFor(score float64) int {
	switch {
	case score < 0.2:
		return 0
	case score < 0.4:
		return 1
	case score < 0.6:
		return 2
	case score < 0.8:
		return 3
	default:
		return 4
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
