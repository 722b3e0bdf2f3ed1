// Package carryover computes the context a phase's agent receives when
// the workflow moves between phases: the caller's explicit context plus a
// compacted, deterministic subset of earlier deliverables.
//
// It never reads the state store directly. Deliverables arrive through an
// injected Loader so the package stays store-agnostic.
package carryover

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/HendryAvila/conductor/internal/state"
	"github.com/HendryAvila/conductor/internal/workflow"
)

// Reserved keys added to the merged context.
const (
	KeyFromPhase            = "fromPhase"
	KeyToPhase              = "toPhase"
	KeyPreviousDeliverables = "previousDeliverables"
)

// MaxContentChars bounds each carried deliverable body.
const MaxContentChars = 1500

// Loader returns the deliverables stored under one phase.
type Loader func(ctx context.Context, phase workflow.Phase) (map[string]state.Deliverable, error)

// relevant lists, per target phase, the earlier phases whose output that
// phase builds on. Order is significant.
var relevant = map[workflow.Phase][]workflow.Phase{
	workflow.PhasePM:        {workflow.PhaseAnalyst},
	workflow.PhaseArchitect: {workflow.PhaseAnalyst, workflow.PhasePM},
	workflow.PhaseUX:        {workflow.PhasePM, workflow.PhaseAnalyst},
	workflow.PhaseSM:        {workflow.PhasePM, workflow.PhaseArchitect},
	workflow.PhaseDev:       {workflow.PhaseSM, workflow.PhaseArchitect},
	workflow.PhaseQA:        {workflow.PhaseDev, workflow.PhaseSM, workflow.PhasePM},
	workflow.PhasePO:        {workflow.PhasePM, workflow.PhaseArchitect, workflow.PhaseSM},
}

// RelevantPhases returns the phases whose deliverables are carried into
// to when coming from from: from first, then the relevance table, with
// duplicates removed.
func RelevantPhases(from, to workflow.Phase) []workflow.Phase {
	seen := map[workflow.Phase]bool{}
	var out []workflow.Phase
	add := func(p workflow.Phase) {
		if p.Valid() && p != to && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	add(from)
	for _, p := range relevant[to] {
		add(p)
	}
	return out
}

// CarriedDeliverable is the compacted form of a deliverable.
type CarriedDeliverable struct {
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Truncated bool   `json:"truncated,omitempty"`
}

// Preserve merges explicit with the carried deliverables. explicit is
// deep-copied and never mutated. Loader errors propagate.
func Preserve(ctx context.Context, from, to workflow.Phase, explicit map[string]any, load Loader) (map[string]any, error) {
	merged := map[string]any(state.Fields(explicit).Clone())
	if merged == nil {
		merged = map[string]any{}
	}

	carried := map[string]map[string]CarriedDeliverable{}
	for _, phase := range RelevantPhases(from, to) {
		if load == nil {
			break
		}
		byType, err := load(ctx, phase)
		if err != nil {
			return nil, fmt.Errorf("loading %s deliverables: %w", phase, err)
		}
		if len(byType) == 0 {
			continue
		}

		types := make([]string, 0, len(byType))
		for t := range byType {
			types = append(types, t)
		}
		sort.Strings(types)

		out := make(map[string]CarriedDeliverable, len(types))
		for _, t := range types {
			d := byType[t]
			content, truncated := CompactContent(d.Content, MaxContentChars)
			out[t] = CarriedDeliverable{Content: content, Timestamp: d.Timestamp, Truncated: truncated}
		}
		carried[string(phase)] = out
	}

	merged[KeyFromPhase] = string(from)
	merged[KeyToPhase] = string(to)
	if len(carried) > 0 {
		merged[KeyPreviousDeliverables] = carried
	}
	return merged, nil
}

// CompactContent truncates content to at most max characters, cutting at
// the last line boundary before the limit when there is one.
func CompactContent(content string, max int) (string, bool) {
	runes := []rune(content)
	if len(runes) <= max {
		return content, false
	}
	cut := string(runes[:max])
	if i := strings.LastIndex(cut, "\n"); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " \t\n") + "\n\n[...truncated]", true
}
