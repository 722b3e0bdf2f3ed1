package orchestrator

import (
	"context"

	"github.com/HendryAvila/conductor/internal/workflow"
)

// ArgConfirm is the argument ConfirmGate looks for. It is accepted by
// every tool.
const ArgConfirm = "confirm"

// ConfirmGate holds back destructive tools until the caller passes
// confirm=true. reset_project is always gated.
type ConfirmGate struct {
	require map[string]bool
}

// NewConfirmGate gates reset_project plus the given tools.
func NewConfirmGate(tools ...string) *ConfirmGate {
	g := &ConfirmGate{require: map[string]bool{ToolResetProject: true}}
	for _, t := range tools {
		g.require[t] = true
	}
	return g
}

// Check approves ungated tools and gated tools called with confirm=true.
func (g *ConfirmGate) Check(_ context.Context, tool string, args map[string]any) (Approval, error) {
	if !g.require[tool] {
		return Approval{Approved: true}, nil
	}
	if confirmed, _ := args[ArgConfirm].(bool); confirmed {
		return Approval{Approved: true}, nil
	}
	return Approval{Reason: "call again with confirm=true after the user agrees"}, nil
}

// StaticRouter routes models from a fixed table. Keys are tool names or
// phase names; a tool entry wins over its phase entry.
type StaticRouter struct {
	models map[string]string
}

// NewStaticRouter copies models into a router.
func NewStaticRouter(models map[string]string) *StaticRouter {
	m := make(map[string]string, len(models))
	for k, v := range models {
		m[k] = v
	}
	return &StaticRouter{models: m}
}

// Route returns the model configured for tool, then for phase.
func (r *StaticRouter) Route(tool string, phase workflow.Phase, _ map[string]any) (string, bool) {
	if m, ok := r.models[tool]; ok && m != "" {
		return m, true
	}
	if m, ok := r.models[string(phase)]; ok && m != "" {
		return m, true
	}
	return "", false
}
