package workflow

// phaseAgents maps each phase to the external agent persona that handles it.
var phaseAgents = map[Phase]string{
	PhaseAnalyst:   "analyst",
	PhasePM:        "pm",
	PhaseArchitect: "architect",
	PhaseSM:        "sm",
	PhaseDev:       "dev",
	PhaseQA:        "qa",
	PhaseUX:        "ux-expert",
	PhasePO:        "po",
}

// AgentFor returns the agent identifier for a phase, or "" for unknown phases.
func AgentFor(p Phase) string {
	return phaseAgents[p]
}

// PhaseForAgent is the reverse lookup of AgentFor.
func PhaseForAgent(agentID string) (Phase, bool) {
	for p, id := range phaseAgents {
		if id == agentID {
			return p, true
		}
	}
	return "", false
}

// Agents returns every agent identifier in PhaseOrder.
func Agents() []string {
	out := make([]string, 0, len(PhaseOrder))
	for _, p := range PhaseOrder {
		out = append(out, phaseAgents[p])
	}
	return out
}

// producingPhases records which phase normally owns each deliverable type.
var producingPhases = map[DeliverableType]Phase{
	DeliverableBrief:        PhaseAnalyst,
	DeliverablePRD:          PhasePM,
	DeliverableArchitecture: PhaseArchitect,
	DeliverableEpic:         PhaseSM,
	DeliverableStory:        PhaseSM,
	DeliverableQAAssessment: PhaseQA,
}

// ProducingPhase returns the phase that owns a deliverable type.
func ProducingPhase(t DeliverableType) (Phase, bool) {
	p, ok := producingPhases[t]
	return p, ok
}

// deliverableFilenames maps deliverable types to their document filenames
// under the docs directory.
var deliverableFilenames = map[DeliverableType]string{
	DeliverableBrief:        "project-brief.md",
	DeliverablePRD:          "prd.md",
	DeliverableArchitecture: "architecture.md",
	DeliverableEpic:         "epics.md",
	DeliverableStory:        "stories",
	DeliverableQAAssessment: "qa-assessment.md",
}

// DeliverableFilename returns the docs-relative filename for a type.
// Stories are written one file per story inside the returned directory.
// Returns empty string for unknown types.
func DeliverableFilename(t DeliverableType) string {
	return deliverableFilenames[t]
}
