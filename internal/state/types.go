// Package state is the durable record of a single project: identity,
// current phase and lane, append-only history logs, requirements,
// decisions, preferences, the conversation transcript, deliverables,
// review outcomes and third-party integration logs.
//
// The Store records; it never decides. Whether a phase transition is
// legal or which lane a request belongs to is decided elsewhere
// (transition, lane) and recorded here.
package state

import (
	"github.com/HendryAvila/conductor/internal/workflow"
)

// DefaultIntegrationLogCap bounds every integration log.
const DefaultIntegrationLogCap = 100

// PhaseTransition is one entry of the append-only phase history.
type PhaseTransition struct {
	From      workflow.Phase `json:"from"`
	To        workflow.Phase `json:"to"`
	Timestamp string         `json:"timestamp"`
	Context   Fields         `json:"context,omitempty"`
}

// LaneDecision is one entry of the append-only lane history.
type LaneDecision struct {
	Lane           workflow.Lane  `json:"lane"`
	Rationale      string         `json:"rationale"`
	Confidence     float64        `json:"confidence"`
	UserMessage    string         `json:"userMessage"`
	Timestamp      string         `json:"timestamp"`
	Phase          workflow.Phase `json:"phase"`
	Level          *int           `json:"level,omitempty"`
	LevelScore     *float64       `json:"levelScore,omitempty"`
	LevelSignals   []string       `json:"levelSignals,omitempty"`
	LevelRationale string         `json:"levelRationale,omitempty"`
}

// LaneOptions carries the optional scale-level fields of a lane decision.
type LaneOptions struct {
	Level          *int
	LevelScore     *float64
	LevelSignals   []string
	LevelRationale string
}

// Decision is the latest recorded value for a decision key.
type Decision struct {
	Value     any            `json:"value"`
	Rationale string         `json:"rationale,omitempty"`
	Timestamp string         `json:"timestamp"`
	Phase     workflow.Phase `json:"phase"`
}

// IntegrationRecord is one entry of an integration log.
type IntegrationRecord struct {
	ID        string         `json:"id"`
	Timestamp string         `json:"timestamp"`
	Phase     workflow.Phase `json:"phase"`
	Fields    Fields         `json:"fields"`
}

// IntegrationLog is a bounded, append-only list of integration records.
type IntegrationLog struct {
	Records      []IntegrationRecord `json:"records"`
	LastActivity string              `json:"lastActivity,omitempty"`
}

// ProjectState is the root project record, persisted as the "project" document.
type ProjectState struct {
	ProjectID       string                     `json:"projectId"`
	ProjectName     string                     `json:"projectName,omitempty"`
	CurrentPhase    workflow.Phase             `json:"currentPhase"`
	CurrentLane     workflow.Lane              `json:"currentLane,omitempty"`
	PhaseHistory    []PhaseTransition          `json:"phaseHistory"`
	LaneHistory     []LaneDecision             `json:"laneHistory"`
	Requirements    Fields                     `json:"requirements"`
	Decisions       map[string]Decision        `json:"decisions"`
	UserPreferences Fields                     `json:"userPreferences"`
	NextSteps       string                     `json:"nextSteps"`
	CreatedAt       string                     `json:"createdAt"`
	UpdatedAt       string                     `json:"updatedAt"`
	Integrations    map[string]*IntegrationLog `json:"integrations"`
	Extra           Fields                     `json:"extra,omitempty"`
}

// Message is one conversation entry.
type Message struct {
	Role      workflow.Role  `json:"role"`
	Content   string         `json:"content"`
	Timestamp string         `json:"timestamp"`
	Phase     workflow.Phase `json:"phase"`
	Metadata  Fields         `json:"metadata,omitempty"`
}

// Deliverable is a stored artifact keyed by phase and type.
type Deliverable struct {
	Type      string         `json:"type"`
	Phase     workflow.Phase `json:"phase"`
	Content   string         `json:"content"`
	Timestamp string         `json:"timestamp"`
	Metadata  Fields         `json:"metadata,omitempty"`
}

// ReviewOutcome is one entry of the append-only review history.
type ReviewOutcome struct {
	Checkpoint string         `json:"checkpoint"`
	Details    Fields         `json:"details,omitempty"`
	Timestamp  string         `json:"timestamp"`
	Phase      workflow.Phase `json:"phase"`
}

// StructuredStory is the normalized form of a "story" deliverable.
type StructuredStory struct {
	ID                 string         `json:"id"`
	Title              string         `json:"title"`
	Persona            string         `json:"persona,omitempty"`
	Action             string         `json:"action,omitempty"`
	Benefit            string         `json:"benefit,omitempty"`
	Summary            string         `json:"summary,omitempty"`
	Description        string         `json:"description,omitempty"`
	AcceptanceCriteria []string       `json:"acceptanceCriteria"`
	DefinitionOfDone   []string       `json:"definitionOfDone"`
	TechnicalNotes     []string       `json:"technicalNotes"`
	Dependencies       []string       `json:"dependencies"`
	EpicNumber         *int           `json:"epicNumber,omitempty"`
	StoryNumber        *int           `json:"storyNumber,omitempty"`
	Content            string         `json:"content,omitempty"`
	Phase              workflow.Phase `json:"phase"`
	StoredAt           string         `json:"storedAt"`
}

// storyCache is the "stories" document.
type storyCache struct {
	Stories  map[string]StructuredStory `json:"stories"`
	LatestID string                     `json:"latestId,omitempty"`
}

// deliverableIndex is the "deliverables" document.
type deliverableIndex map[workflow.Phase]map[string]Deliverable
