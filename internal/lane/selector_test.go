package lane

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/conductor/internal/state"
	"github.com/HendryAvila/conductor/internal/workflow"
)

func TestSelect_ForcedLaneHonored(t *testing.T) {
	sel := NewSelector()
	messages := []string{
		"",
		"build a quick landing page",
		"design a scalable multi-tenant enterprise platform with payments, authentication and a real-time api",
	}
	for _, msg := range messages {
		for _, force := range []workflow.Lane{workflow.LaneQuick, workflow.LaneComplex} {
			d := sel.Select(msg, Context{ForceLane: force, ProjectComplexity: "high"})
			assert.Equal(t, force, d.Lane, msg)
			assert.Equal(t, 1.0, d.Confidence, msg)
			assert.Equal(t, "forced", d.Rationale, msg)
			assert.True(t, d.Forced)
		}
	}
}

func TestSelect_QuickLandingPage(t *testing.T) {
	d := NewSelector().Select("build a quick landing page", Context{})

	assert.Equal(t, workflow.LaneQuick, d.Lane)
	assert.Less(t, d.LevelScore, ComplexThreshold)
	assert.GreaterOrEqual(t, d.Confidence, 0.5)
	assert.LessOrEqual(t, d.Confidence, 0.95)
	assert.Equal(t, 1, d.Level)
	assert.Contains(t, d.Rationale, "quick lane")
}

func TestSelect_ComplexPlatform(t *testing.T) {
	msg := "Design a scalable multi-tenant platform with authentication, payments and a real-time API integration"
	d := NewSelector().Select(msg, Context{})

	assert.Equal(t, workflow.LaneComplex, d.Lane)
	assert.GreaterOrEqual(t, d.LevelScore, ComplexThreshold)
	assert.Contains(t, d.LevelSignals, "keywords")
	assert.GreaterOrEqual(t, d.Level, 3)
}

func TestSelect_ComplexityHint(t *testing.T) {
	sel := NewSelector()
	assert.Equal(t, workflow.LaneComplex, sel.Select("build an app", Context{ProjectComplexity: "high"}).Lane)
	assert.Equal(t, workflow.LaneQuick, sel.Select("build an app", Context{ProjectComplexity: "low"}).Lane)

	unknown := sel.Select("build an app", Context{ProjectComplexity: "galactic"})
	for _, s := range unknown.Signals {
		assert.NotEqual(t, "complexity_hint", s.Name, "unknown hints contribute no signal")
	}
}

func TestSelect_OptionalSignalsIncluded(t *testing.T) {
	d := NewSelector().Select("add a page", Context{
		PreviousPhase:  workflow.PhaseArchitect,
		HasExistingPRD: true,
		PriorLanes:     []workflow.Lane{workflow.LaneComplex, workflow.LaneQuick},
	})

	names := map[string]float64{}
	for _, s := range d.Signals {
		names[s.Name] = s.Score
	}
	assert.Equal(t, 0.75, names["existing_deliverables"])
	assert.Equal(t, 0.5, names["lane_history"])
	assert.Equal(t, 0.6, names["phase_progress"])
}

func TestSelect_Pure(t *testing.T) {
	sel := NewSelector()
	c := Context{PriorLanes: []workflow.Lane{workflow.LaneQuick}}
	first := sel.Select("fix a typo in the footer", c)
	second := sel.Select("fix a typo in the footer", c)
	assert.Equal(t, first, second)
	assert.Equal(t, []workflow.Lane{workflow.LaneQuick}, c.PriorLanes)
}

func TestCalculateScore(t *testing.T) {
	assert.Equal(t, 0.0, CalculateScore(nil))
	got := CalculateScore([]Signal{{Weight: 1, Score: 1}, {Weight: 3, Score: 0}})
	assert.InDelta(t, 0.25, got, 1e-9)
}

func TestLevelFor(t *testing.T) {
	cases := map[float64]int{0: 0, 0.19: 0, 0.2: 1, 0.45: 2, 0.7: 3, 0.8: 4, 1: 4}
	for score, want := range cases {
		assert.Equal(t, want, levelFor(score), "score %.2f", score)
	}
}

// --- SelectAndLog ---

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordLaneDecision(ctx context.Context, lane workflow.Lane, rationale string, confidence float64, userMessage string, opts state.LaneOptions) (state.LaneDecision, error) {
	args := m.Called(ctx, lane, rationale, confidence, userMessage, opts)
	return args.Get(0).(state.LaneDecision), args.Error(1)
}

func TestSelectAndLog_Records(t *testing.T) {
	rec := &mockRecorder{}
	rec.On("RecordLaneDecision", mock.Anything, workflow.LaneQuick, "forced", 1.0, "hello", state.LaneOptions{}).
		Return(state.LaneDecision{Lane: workflow.LaneQuick, Rationale: "forced"}, nil).Once()

	d, logged, err := SelectAndLog(context.Background(), NewSelector(), rec, "hello", Context{ForceLane: workflow.LaneQuick})
	require.NoError(t, err)
	assert.Equal(t, workflow.LaneQuick, d.Lane)
	assert.Equal(t, workflow.LaneQuick, logged.Lane)
	rec.AssertExpectations(t)
}

func TestSelectAndLog_PassesLevelFields(t *testing.T) {
	rec := &mockRecorder{}
	rec.On("RecordLaneDecision", mock.Anything, workflow.LaneQuick, mock.Anything, mock.Anything, "build a quick landing page",
		mock.MatchedBy(func(o state.LaneOptions) bool {
			return o.Level != nil && *o.Level == 1 && o.LevelScore != nil && o.LevelRationale != ""
		})).
		Return(state.LaneDecision{}, nil).Once()

	_, _, err := SelectAndLog(context.Background(), NewSelector(), rec, "build a quick landing page", Context{})
	require.NoError(t, err)
	rec.AssertExpectations(t)
}

func TestSelectAndLog_RecorderError(t *testing.T) {
	rec := &mockRecorder{}
	boom := errors.New("disk full")
	rec.On("RecordLaneDecision", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(state.LaneDecision{}, boom)

	_, _, err := SelectAndLog(context.Background(), NewSelector(), rec, "x", Context{})
	assert.ErrorIs(t, err, boom)
}
