// Package persona loads the agent personas that handle each phase.
//
// Defaults are embedded; a YAML file named <agent-id>.yaml in the override
// directory replaces the fields it sets. Loaded personas are cached.
package persona

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/conductor/internal/workflow"
)

//go:embed agents/*.yaml
var defaults embed.FS

// ErrUnknownAgent is returned for agent ids with no persona.
var ErrUnknownAgent = errors.New("unknown agent")

const defaultCacheSize = 32

// Persona describes one agent.
type Persona struct {
	ID               string         `yaml:"id" json:"id"`
	Name             string         `yaml:"name" json:"name"`
	Title            string         `yaml:"title" json:"title"`
	Phase            workflow.Phase `yaml:"phase" json:"phase"`
	Summary          string         `yaml:"summary" json:"summary"`
	Responsibilities []string       `yaml:"responsibilities" json:"responsibilities"`
	Deliverables     []string       `yaml:"deliverables" json:"deliverables"`
	Instructions     string         `yaml:"instructions" json:"instructions"`
	// Source is "embedded" or the override file path.
	Source string `yaml:"-" json:"source"`
}

// Loader resolves personas by agent id or phase.
type Loader struct {
	dir   string
	cache *lru.Cache[string, Persona]
}

// NewLoader creates a loader. overrideDir may be empty.
func NewLoader(overrideDir string) (*Loader, error) {
	cache, err := lru.New[string, Persona](defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating persona cache: %w", err)
	}
	return &Loader{dir: overrideDir, cache: cache}, nil
}

// Load returns the persona for an agent id.
func (l *Loader) Load(agentID string) (Persona, error) {
	if p, ok := l.cache.Get(agentID); ok {
		return p.clone(), nil
	}
	if _, ok := workflow.PhaseForAgent(agentID); !ok {
		return Persona{}, fmt.Errorf("%w: %q", ErrUnknownAgent, agentID)
	}

	p, err := loadEmbedded(agentID)
	if err != nil {
		return Persona{}, err
	}
	if err := l.applyOverride(agentID, &p); err != nil {
		return Persona{}, err
	}
	if err := p.validate(agentID); err != nil {
		return Persona{}, err
	}

	l.cache.Add(agentID, p)
	return p.clone(), nil
}

// ForPhase returns the persona that handles phase.
func (l *Loader) ForPhase(phase workflow.Phase) (Persona, error) {
	id := workflow.AgentFor(phase)
	if id == "" {
		return Persona{}, fmt.Errorf("no agent for phase %q: %w", phase, workflow.ErrUnknownPhase)
	}
	return l.Load(id)
}

// List returns every persona in phase order.
func (l *Loader) List() ([]Persona, error) {
	out := make([]Persona, 0, len(workflow.PhaseOrder))
	for _, id := range workflow.Agents() {
		p, err := l.Load(id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Purge drops cached personas so override edits are picked up.
func (l *Loader) Purge() {
	l.cache.Purge()
}

func loadEmbedded(agentID string) (Persona, error) {
	data, err := defaults.ReadFile("agents/" + agentID + ".yaml")
	if err != nil {
		return Persona{}, fmt.Errorf("%w: %q has no embedded definition", ErrUnknownAgent, agentID)
	}
	var p Persona
	if err := decodeStrict(data, &p); err != nil {
		return Persona{}, fmt.Errorf("parsing embedded persona %s: %w", agentID, err)
	}
	p.Source = "embedded"
	return p, nil
}

// applyOverride decodes <dir>/<id>.yaml on top of p. Fields the file
// leaves out keep their embedded values.
func (l *Loader) applyOverride(agentID string, p *Persona) error {
	if l.dir == "" {
		return nil
	}
	path := filepath.Join(l.dir, agentID+".yaml")
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading persona override %s: %w", path, err)
	}
	if err := decodeStrict(data, p); err != nil {
		return fmt.Errorf("parsing persona override %s: %w", path, err)
	}
	p.Source = path
	return nil
}

func decodeStrict(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(v)
}

func (p Persona) validate(agentID string) error {
	if p.ID != agentID {
		return fmt.Errorf("persona %s declares id %q", agentID, p.ID)
	}
	want, _ := workflow.PhaseForAgent(agentID)
	if p.Phase != want {
		return fmt.Errorf("persona %s declares phase %q, want %q", agentID, p.Phase, want)
	}
	return nil
}

func (p Persona) clone() Persona {
	p.Responsibilities = append([]string{}, p.Responsibilities...)
	p.Deliverables = append([]string{}, p.Deliverables...)
	return p
}
