package lane

import (
	"context"
	"fmt"

	"github.com/HendryAvila/conductor/internal/state"
	"github.com/HendryAvila/conductor/internal/workflow"
)

// Recorder persists lane decisions. *state.Store satisfies it.
type Recorder interface {
	RecordLaneDecision(ctx context.Context, lane workflow.Lane, rationale string, confidence float64, userMessage string, opts state.LaneOptions) (state.LaneDecision, error)
}

// Options converts the decision's scale fields for recording. Forced
// decisions carry no level.
func (d Decision) Options() state.LaneOptions {
	if d.Forced {
		return state.LaneOptions{}
	}
	level := d.Level
	score := d.LevelScore
	return state.LaneOptions{
		Level:          &level,
		LevelScore:     &score,
		LevelSignals:   append([]string(nil), d.LevelSignals...),
		LevelRationale: d.LevelRationale,
	}
}

// SelectAndLog selects a lane and records the decision.
func SelectAndLog(ctx context.Context, sel *Selector, rec Recorder, msg string, c Context) (Decision, state.LaneDecision, error) {
	d := sel.Select(msg, c)
	logged, err := rec.RecordLaneDecision(ctx, d.Lane, d.Rationale, d.Confidence, msg, d.Options())
	if err != nil {
		return d, state.LaneDecision{}, fmt.Errorf("recording lane decision: %w", err)
	}
	return d, logged, nil
}
