// Package transition moves a project between phases.
//
// A transition gathers carry-over context, triggers the target phase's
// agent (or its configured command), applies what the agent produced and
// only then commits the phase change. Nothing is committed when the hook
// fails, though side effects the hook itself caused are not undone.
package transition

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/HendryAvila/conductor/internal/agent"
	"github.com/HendryAvila/conductor/internal/carryover"
	"github.com/HendryAvila/conductor/internal/state"
	"github.com/HendryAvila/conductor/internal/workflow"
)

// KeyUserMessage carries the triggering user message into the hook input.
const KeyUserMessage = "userMessage"

// Store is the slice of the state store the machine needs.
type Store interface {
	CurrentPhase() workflow.Phase
	Deliverables(phase workflow.Phase) map[string]state.Deliverable
	UpdateState(ctx context.Context, partial state.Fields) (state.ProjectState, error)
	StoreDeliverableFor(ctx context.Context, phase workflow.Phase, typ, content string, metadata state.Fields) (state.Deliverable, error)
	TransitionPhase(ctx context.Context, to workflow.Phase, carried state.Fields) (state.PhaseTransition, error)
}

// Hook stages reported by HookError.
const (
	StageContext = "context"
	StageAgent   = "agent"
	StageCommand = "command"
	StageParse   = "parse"
	StageStatus  = "status"
)

// HookError reports a failed or unparseable phase hook.
type HookError struct {
	Phase workflow.Phase
	// Hook is the agent id or command name that ran.
	Hook  string
	Stage string
	Err   error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("%s hook %q failed at %s: %v", e.Phase, e.Hook, e.Stage, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// ErrAgentReportedFailure is wrapped by HookError when the agent
// answered with an error status.
var ErrAgentReportedFailure = errors.New("agent reported failure")

// Request asks for a transition to To.
type Request struct {
	To          workflow.Phase
	Context     map[string]any
	UserMessage string
}

// Outcome describes what a transition or phase run did.
type Outcome struct {
	From      workflow.Phase `json:"from"`
	To        workflow.Phase `json:"to"`
	Committed bool           `json:"committed"`
	// Hook is the agent id or command name that was triggered.
	Hook        string                 `json:"hook,omitempty"`
	Context     map[string]any         `json:"-"`
	Payload     *agent.Payload         `json:"-"`
	Message     string                 `json:"message,omitempty"`
	Status      string                 `json:"status,omitempty"`
	Deliverable *state.Deliverable     `json:"deliverable,omitempty"`
	Transition  *state.PhaseTransition `json:"transition,omitempty"`
	HookError   *HookError             `json:"-"`
}

// Options configures a Machine.
type Options struct {
	Store    Store
	Runner   agent.Runner
	Commands agent.CommandRunner
	Logger   *zap.Logger
}

// Machine executes phase transitions.
type Machine struct {
	store    Store
	runner   agent.Runner
	commands agent.CommandRunner
	log      *zap.Logger
}

// NewMachine creates a Machine. Commands may be nil.
func NewMachine(opts Options) *Machine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine{
		store:    opts.Store,
		runner:   opts.Runner,
		commands: opts.Commands,
		log:      log.Named("transition"),
	}
}

// Execute runs the full transition pipeline. The returned Outcome is
// never nil; on any error Committed is false and the current phase is
// unchanged.
func (m *Machine) Execute(ctx context.Context, req Request) (*Outcome, error) {
	from := m.store.CurrentPhase()
	out := &Outcome{From: from, To: req.To}
	if !req.To.Valid() {
		return out, fmt.Errorf("transition to %q: %w", req.To, workflow.ErrUnknownPhase)
	}

	if err := m.run(ctx, from, req.To, req.Context, req.UserMessage, out); err != nil {
		return out, err
	}

	tr, err := m.store.TransitionPhase(ctx, req.To, state.Fields(out.Context))
	if err != nil {
		return out, fmt.Errorf("committing transition %s -> %s: %w", from, req.To, err)
	}
	out.Committed = true
	out.Transition = &tr
	m.log.Info("phase transition committed",
		zap.String("from", string(from)),
		zap.String("to", string(req.To)),
		zap.String("hook", out.Hook))
	return out, nil
}

// RunPhase triggers phase's hook and applies its output without
// changing the current phase.
func (m *Machine) RunPhase(ctx context.Context, phase workflow.Phase, explicit map[string]any, userMessage string) (*Outcome, error) {
	out := &Outcome{From: phase, To: phase}
	if !phase.Valid() {
		return out, fmt.Errorf("running phase %q: %w", phase, workflow.ErrUnknownPhase)
	}
	if err := m.run(ctx, phase, phase, explicit, userMessage, out); err != nil {
		return out, err
	}
	return out, nil
}

func (m *Machine) run(ctx context.Context, from, to workflow.Phase, explicit map[string]any, userMessage string, out *Outcome) error {
	input := state.Fields(explicit).Clone()
	if input == nil {
		input = state.Fields{}
	}
	if userMessage != "" {
		input[KeyUserMessage] = userMessage
	}

	out.Hook = workflow.AgentFor(to)
	merged, err := carryover.Preserve(ctx, from, to, input, m.loadDeliverables)
	if err != nil {
		return m.fail(out, to, StageContext, err)
	}
	out.Context = merged

	raw, stage, err := m.trigger(ctx, to, merged, out)
	if err != nil {
		return m.fail(out, to, stage, err)
	}

	payload, err := agent.Resolve(raw)
	if err != nil {
		return m.fail(out, to, StageParse, err)
	}
	out.Payload = &payload
	out.Status = payload.Status
	out.Message = payload.Message
	if payload.Failed() {
		cause := ErrAgentReportedFailure
		if payload.Message != "" {
			cause = fmt.Errorf("%w: %s", ErrAgentReportedFailure, payload.Message)
		}
		return m.fail(out, to, StageStatus, cause)
	}

	if len(payload.ProjectUpdates) > 0 {
		if _, err := m.store.UpdateState(ctx, state.Fields(payload.ProjectUpdates)); err != nil {
			return fmt.Errorf("applying %s project updates: %w", to, err)
		}
	}
	if d := payload.Deliverable; d != nil {
		saved, err := m.store.StoreDeliverableFor(ctx, to, d.Type, d.Content, state.Fields(d.Metadata))
		if err != nil {
			return fmt.Errorf("saving %s deliverable %q: %w", to, d.Type, err)
		}
		out.Deliverable = &saved
	}
	return nil
}

func (m *Machine) trigger(ctx context.Context, phase workflow.Phase, input map[string]any, out *Outcome) (agent.RawResponse, string, error) {
	if m.commands != nil && m.commands.Has(string(phase)) {
		out.Hook = string(phase)
		raw, err := m.commands.RunCommand(ctx, string(phase), input)
		return raw, StageCommand, err
	}
	if m.runner == nil {
		return agent.Empty(), StageAgent, errors.New("no agent runner configured")
	}
	raw, err := m.runner.Run(ctx, out.Hook, input)
	return raw, StageAgent, err
}

func (m *Machine) loadDeliverables(_ context.Context, phase workflow.Phase) (map[string]state.Deliverable, error) {
	return m.store.Deliverables(phase), nil
}

func (m *Machine) fail(out *Outcome, phase workflow.Phase, stage string, err error) error {
	he := &HookError{Phase: phase, Hook: out.Hook, Stage: stage, Err: err}
	out.HookError = he
	m.log.Warn("phase hook failed",
		zap.String("phase", string(phase)),
		zap.String("hook", out.Hook),
		zap.String("stage", stage),
		zap.Error(err))
	return he
}
