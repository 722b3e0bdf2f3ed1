package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/HendryAvila/conductor/internal/persona"
)

// PersonaRunner is the default Runner. It does not call a model itself:
// it answers with a hand-off payload carrying the persona and the merged
// context, and the calling harness's model continues as that agent.
type PersonaRunner struct {
	personas *persona.Loader

	mu    sync.RWMutex
	model string
}

// NewPersonaRunner creates a runner over a persona loader.
func NewPersonaRunner(personas *persona.Loader, model string) *PersonaRunner {
	return &PersonaRunner{personas: personas, model: model}
}

// Run builds the hand-off payload for agentID.
func (r *PersonaRunner) Run(ctx context.Context, agentID string, input map[string]any) (RawResponse, error) {
	if err := ctx.Err(); err != nil {
		return Empty(), err
	}
	p, err := r.personas.Load(agentID)
	if err != nil {
		return Empty(), fmt.Errorf("loading persona: %w", err)
	}

	payload := map[string]any{
		"status":  StatusHandoff,
		"message": fmt.Sprintf("Continue as %s (%s): %s", p.Name, p.Title, p.Summary),
		"agent":   p.ID,
		"persona": map[string]any{
			"name":             p.Name,
			"title":            p.Title,
			"phase":            string(p.Phase),
			"responsibilities": p.Responsibilities,
			"deliverables":     p.Deliverables,
			"instructions":     p.Instructions,
		},
		"context": input,
	}
	if m := r.Model(); m != "" {
		payload["model"] = m
	}
	return JSON(payload), nil
}

// Model returns the current model identifier.
func (r *PersonaRunner) Model() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.model
}

// SetModel replaces the model identifier.
func (r *PersonaRunner) SetModel(model string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.model = model
}
