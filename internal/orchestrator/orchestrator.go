// Package orchestrator is the single entry point callers use.
//
// CallTool maps a tool name and arguments to a state store accessor, the
// lane selector or the transition machine. It guarantees a Result for
// every call: handler errors and panics become error results, approval
// denials become a first-class result, and nothing below this package
// reaches the caller as a raw error.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/HendryAvila/conductor/internal/agent"
	"github.com/HendryAvila/conductor/internal/config"
	"github.com/HendryAvila/conductor/internal/lane"
	"github.com/HendryAvila/conductor/internal/metrics"
	"github.com/HendryAvila/conductor/internal/persona"
	"github.com/HendryAvila/conductor/internal/state"
	"github.com/HendryAvila/conductor/internal/templates"
	"github.com/HendryAvila/conductor/internal/transition"
	"github.com/HendryAvila/conductor/internal/workflow"
)

// timeNow is a package-level variable for testing.
var timeNow = time.Now

// Result is the response of every tool call.
type Result struct {
	IsError bool   `json:"isError"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	// RequiresApproval marks a call the approval gate held back. The tool
	// did not run; Reason says why.
	RequiresApproval bool   `json:"requiresApproval,omitempty"`
	Reason           string `json:"reason,omitempty"`
	// Err is the underlying error of an error result.
	Err error `json:"-"`
}

// Approval is an approval gate decision.
type Approval struct {
	Approved bool
	Reason   string
}

// ApprovalChecker decides whether a call may run.
type ApprovalChecker interface {
	Check(ctx context.Context, tool string, args map[string]any) (Approval, error)
}

// ApprovalFunc adapts a function to ApprovalChecker.
type ApprovalFunc func(ctx context.Context, tool string, args map[string]any) (Approval, error)

// Check calls f.
func (f ApprovalFunc) Check(ctx context.Context, tool string, args map[string]any) (Approval, error) {
	return f(ctx, tool, args)
}

// ModelRouter picks a model for one call. ok=false keeps the current one.
type ModelRouter interface {
	Route(tool string, phase workflow.Phase, args map[string]any) (model string, ok bool)
}

// StateBridge observes calls. Its errors are logged, never returned.
type StateBridge interface {
	BeforeCall(ctx context.Context, tool string, args map[string]any) error
	AfterCall(ctx context.Context, tool string, args map[string]any, res *Result) error
}

// CallOptions are the per-call hooks. Every field is optional.
type CallOptions struct {
	Approval ApprovalChecker
	Models   ModelRouter
	Bridge   StateBridge
}

// Deps are the collaborators. Nil fields are built from the config by
// EnsureReady.
type Deps struct {
	Backend   state.Backend
	Runner    agent.Runner
	Commands  agent.CommandRunner
	Generator agent.Generator
	Personas  *persona.Loader
	Metrics   *metrics.Metrics
	// NewID overrides project id generation, for tests.
	NewID func() string
}

// Orchestrator dispatches tool calls for one project root.
type Orchestrator struct {
	cfg  *config.Config
	log  *zap.Logger
	deps Deps

	// mu serializes CallTool. One Orchestrator serves one project root.
	mu sync.Mutex

	readyMu  sync.Mutex
	ready    bool
	store    *state.Store
	runner   agent.Runner
	commands agent.CommandRunner
	gen      agent.Generator
	personas *persona.Loader
	selector *lane.Selector
	detector *transition.Detector
	machine  *transition.Machine
	tools    map[string]tool
}

// New creates an Orchestrator. Nothing is opened until EnsureReady.
func New(cfg *config.Config, logger *zap.Logger, deps Deps) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{cfg: cfg, log: logger.Named("orchestrator"), deps: deps}
	o.tools = o.toolTable()
	return o
}

// EnsureReady builds the store and collaborators once. It is safe to
// call before every dispatch; a failed attempt is retried next time.
func (o *Orchestrator) EnsureReady(ctx context.Context) error {
	o.readyMu.Lock()
	defer o.readyMu.Unlock()
	if o.ready {
		return nil
	}

	personas := o.deps.Personas
	if personas == nil {
		p, err := persona.NewLoader(o.cfg.AgentsPath())
		if err != nil {
			return fmt.Errorf("loading personas: %w", err)
		}
		personas = p
	}

	runner := o.deps.Runner
	if runner == nil {
		runner = agent.NewPersonaRunner(personas, o.cfg.Model)
	}
	commands := o.deps.Commands
	if commands == nil {
		commands = agent.NewExecCommandRunner(o.cfg.Commands, o.cfg.ProjectRoot)
	}
	gen := o.deps.Generator
	if gen == nil {
		renderer, err := templates.NewRenderer()
		if err != nil {
			return fmt.Errorf("creating template renderer: %w", err)
		}
		gen = agent.NewTemplateGenerator(renderer, o.cfg.DocsPath())
	}

	backend := o.deps.Backend
	if backend == nil {
		b, err := state.OpenBackend(state.BackendKind(o.cfg.Backend), o.cfg.StatePath())
		if err != nil {
			return fmt.Errorf("opening state backend: %w", err)
		}
		backend = b
	}

	store := state.New(state.Options{
		Backend:           backend,
		Logger:            o.log,
		IntegrationLogCap: o.cfg.IntegrationLogCap,
		NewID:             o.deps.NewID,
	})
	if _, err := store.Initialize(ctx); err != nil {
		if o.deps.Backend == nil {
			backend.Close()
		}
		return fmt.Errorf("initializing project state: %w", err)
	}

	o.store = store
	o.personas = personas
	o.runner = runner
	o.commands = commands
	o.gen = gen
	o.selector = lane.NewSelector()
	o.detector = transition.NewDetector()
	o.machine = transition.NewMachine(transition.Options{
		Store:    store,
		Runner:   runner,
		Commands: commands,
		Logger:   o.log,
	})
	o.ready = true
	o.log.Debug("orchestrator ready",
		zap.String("project_root", o.cfg.ProjectRoot),
		zap.String("backend", o.cfg.Backend))
	return nil
}

// Close releases the state store.
func (o *Orchestrator) Close() error {
	o.readyMu.Lock()
	defer o.readyMu.Unlock()
	if o.store == nil {
		return nil
	}
	err := o.store.Close()
	o.store = nil
	o.ready = false
	return err
}

// Definitions returns the declared tool definitions in registration order.
func (o *Orchestrator) Definitions() []mcp.Tool {
	out := make([]mcp.Tool, 0, len(toolOrder))
	for _, name := range toolOrder {
		out = append(out, o.tools[name].def)
	}
	return out
}

// CallTool runs one tool call through the full pipeline.
func (o *Orchestrator) CallTool(ctx context.Context, name string, args map[string]any, opts CallOptions) *Result {
	o.mu.Lock()
	defer o.mu.Unlock()

	start := timeNow()
	outcome := metrics.OutcomeOK
	res := o.call(ctx, name, args, opts, &outcome)

	if opts.Bridge != nil {
		if err := opts.Bridge.AfterCall(ctx, name, args, res); err != nil {
			o.log.Warn("state bridge after-call failed", zap.String("tool", name), zap.Error(err))
		}
	}
	if res.IsError && outcome == metrics.OutcomeOK {
		outcome = metrics.OutcomeError
	}
	o.deps.Metrics.RecordToolCall(name, outcome, timeNow().Sub(start))
	return res
}

func (o *Orchestrator) call(ctx context.Context, name string, args map[string]any, opts CallOptions, outcome *string) *Result {
	if err := o.EnsureReady(ctx); err != nil {
		return errorResult(err)
	}

	if opts.Bridge != nil {
		if err := opts.Bridge.BeforeCall(ctx, name, args); err != nil {
			o.log.Warn("state bridge before-call failed", zap.String("tool", name), zap.Error(err))
		}
	}

	if opts.Approval != nil {
		approval, err := opts.Approval.Check(ctx, name, args)
		if err != nil {
			return errorResult(fmt.Errorf("approval check for %s: %w", name, err))
		}
		o.deps.Metrics.RecordApproval(name, approval.Approved)
		if !approval.Approved {
			*outcome = metrics.OutcomeDenied
			return approvalRequired(name, approval.Reason)
		}
	}

	t, ok := o.tools[name]
	if !ok {
		*outcome = metrics.OutcomeInvalid
		return errorResult(&UnknownToolError{Name: name})
	}
	if err := validateArgs(t.def, args); err != nil {
		*outcome = metrics.OutcomeInvalid
		return errorResult(err)
	}

	return o.invoke(ctx, t, args, opts.Models, outcome)
}

// invoke runs the handler with the routed model swapped in. The previous
// model is restored however the handler exits.
func (o *Orchestrator) invoke(ctx context.Context, t tool, args map[string]any, router ModelRouter, outcome *string) (res *Result) {
	if router != nil {
		if model, ok := router.Route(t.def.Name, o.store.CurrentPhase(), args); ok && model != "" {
			prev := o.runner.Model()
			o.runner.SetModel(model)
			defer o.runner.SetModel(prev)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			*outcome = metrics.OutcomeRecovered
			o.log.Error("tool handler panicked", zap.String("tool", t.def.Name), zap.Any("panic", r))
			res = errorResult(fmt.Errorf("%s: internal error: %v", t.def.Name, r))
		}
	}()

	res, err := t.handle(ctx, state.Fields(args))
	if err != nil {
		return errorResult(err)
	}
	if res == nil {
		return &Result{Message: "ok"}
	}
	return res
}

func errorResult(err error) *Result {
	return &Result{IsError: true, Message: err.Error(), Err: err}
}

func approvalRequired(tool, reason string) *Result {
	if reason == "" {
		reason = "this tool requires approval"
	}
	return &Result{
		Message:          fmt.Sprintf("%s requires approval: %s", tool, reason),
		RequiresApproval: true,
		Reason:           reason,
	}
}

func success(message string, data any) (*Result, error) {
	return &Result{Message: message, Data: data}, nil
}

// hookFailure reports a transition hook failure as an error result that
// still carries the outcome.
func hookFailure(err error, out *transition.Outcome) (*Result, error) {
	var he *transition.HookError
	if !errors.As(err, &he) {
		return nil, err
	}
	return &Result{IsError: true, Message: err.Error(), Data: out, Err: err}, nil
}
