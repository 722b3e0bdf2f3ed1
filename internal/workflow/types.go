// Package workflow defines the vocabulary shared by every orchestration
// component: the eight specification phases, the two execution lanes and
// the deliverable types each phase can produce.
//
// The package holds values only. Persistence lives in state, decision
// logic in lane and transition.
package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// --- Phase enum ---

// Phase is one named stage of the delivery workflow.
type Phase string

const (
	PhaseAnalyst   Phase = "analyst"   // discovery, market research, project brief
	PhasePM        Phase = "pm"        // product requirements
	PhaseArchitect Phase = "architect" // technical architecture
	PhaseSM        Phase = "sm"        // epics and stories
	PhaseDev       Phase = "dev"       // implementation
	PhaseQA        Phase = "qa"        // quality assessment
	PhaseUX        Phase = "ux"        // interface and experience design
	PhasePO        Phase = "po"        // backlog validation and acceptance
)

// InitialPhase is the phase every new project starts in.
const InitialPhase = PhaseAnalyst

// PhaseOrder is the canonical ordering used for listings and deterministic
// iteration. It is not a legality table: any phase may follow any other.
var PhaseOrder = []Phase{
	PhaseAnalyst,
	PhasePM,
	PhaseUX,
	PhaseArchitect,
	PhasePO,
	PhaseSM,
	PhaseDev,
	PhaseQA,
}

// ErrUnknownPhase is returned when a string does not name a phase.
var ErrUnknownPhase = errors.New("unknown phase")

var validPhases = map[Phase]bool{
	PhaseAnalyst:   true,
	PhasePM:        true,
	PhaseArchitect: true,
	PhaseSM:        true,
	PhaseDev:       true,
	PhaseQA:        true,
	PhaseUX:        true,
	PhasePO:        true,
}

// Valid reports whether p is one of the eight phases.
func (p Phase) Valid() bool { return validPhases[p] }

// ParsePhase normalizes s and returns the matching phase.
func ParsePhase(s string) (Phase, error) {
	p := Phase(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w %q: must be one of: %s", ErrUnknownPhase, s, joinPhases())
	}
	return p, nil
}

// Index returns the position of p in PhaseOrder, or -1.
func (p Phase) Index() int {
	for i, candidate := range PhaseOrder {
		if candidate == p {
			return i
		}
	}
	return -1
}

func joinPhases() string {
	names := make([]string, len(PhaseOrder))
	for i, p := range PhaseOrder {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

// --- Lane enum ---

// Lane is the execution strategy chosen for a request.
type Lane string

const (
	LaneQuick   Lane = "quick"   // templated, single pass
	LaneComplex Lane = "complex" // full multi-phase agent pipeline
)

// ErrUnknownLane is returned when a string does not name a lane.
var ErrUnknownLane = errors.New("unknown lane")

// Valid reports whether l is quick or complex.
func (l Lane) Valid() bool { return l == LaneQuick || l == LaneComplex }

// ParseLane normalizes s and returns the matching lane.
func ParseLane(s string) (Lane, error) {
	l := Lane(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("%w %q: must be quick or complex", ErrUnknownLane, s)
	}
	return l, nil
}

// --- Deliverable types ---

// DeliverableType names a generated artifact kind.
type DeliverableType string

const (
	DeliverableBrief        DeliverableType = "brief"
	DeliverablePRD          DeliverableType = "prd"
	DeliverableArchitecture DeliverableType = "architecture"
	DeliverableEpic         DeliverableType = "epic"
	DeliverableStory        DeliverableType = "story"
	DeliverableQAAssessment DeliverableType = "qa_assessment"
)

// GeneratedTypes lists the deliverable types the generator knows how to build.
var GeneratedTypes = []DeliverableType{
	DeliverableBrief,
	DeliverablePRD,
	DeliverableArchitecture,
	DeliverableEpic,
	DeliverableStory,
	DeliverableQAAssessment,
}

// ErrUnknownDeliverable is returned for deliverable types with no generator.
var ErrUnknownDeliverable = errors.New("unknown deliverable type")

// ParseDeliverableType validates s against GeneratedTypes.
func ParseDeliverableType(s string) (DeliverableType, error) {
	t := DeliverableType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range GeneratedTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w %q: must be one of: brief, prd, architecture, epic, story, qa_assessment", ErrUnknownDeliverable, s)
}

// --- Conversation roles ---

// Role is the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole validates a conversation role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if r != RoleUser && r != RoleAssistant {
		return "", fmt.Errorf("invalid role %q: must be user or assistant", s)
	}
	return r, nil
}
