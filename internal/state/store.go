package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HendryAvila/conductor/internal/workflow"
)

// ErrProtectedField is returned by UpdateState for keys that only have
// dedicated operations (phase, histories, identity, integrations, decisions).
var ErrProtectedField = errors.New("field can only be changed through its dedicated operation")

// protectedFields cannot be written through UpdateState.
var protectedFields = map[string]bool{
	"projectId":    true,
	"currentPhase": true,
	"phaseHistory": true,
	"laneHistory":  true,
	"createdAt":    true,
	"updatedAt":    true,
	"integrations": true,
	"decisions":    true,
}

// Options configures a Store.
type Options struct {
	Backend           Backend
	Logger            *zap.Logger
	IntegrationLogCap int
	// NewID generates project and record ids. Defaults to uuid.NewString.
	NewID func() string
}

// Store is the durable project record. One Store owns one project root;
// all methods are safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	backend Backend
	log     *zap.Logger
	cap     int
	newID   func() string

	loaded       bool
	project      ProjectState
	conversation []Message
	deliverables deliverableIndex
	reviews      []ReviewOutcome
	stories      storyCache

	// committed holds the last body successfully written per document,
	// used to restore memory when a write fails.
	committed map[Document][]byte
}

// New creates a Store over the given backend. Nothing is read until
// Initialize (or the first operation) runs.
func New(opts Options) *Store {
	s := &Store{
		backend:   opts.Backend,
		log:       opts.Logger,
		cap:       opts.IntegrationLogCap,
		newID:     opts.NewID,
		committed: make(map[Document][]byte),
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.cap <= 0 {
		s.cap = DefaultIntegrationLogCap
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	for _, doc := range Documents {
		s.reset(doc)
	}
	return s
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// Initialize loads existing state or creates a fresh project. Safe to call
// any number of times.
func (s *Store) Initialize(ctx context.Context) (ProjectState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return ProjectState{}, err
	}
	return s.project.clone(), nil
}

// Snapshot returns a deep copy of the project record.
func (s *Store) Snapshot() ProjectState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project.clone()
}

// CurrentPhase returns the active phase.
func (s *Store) CurrentPhase() workflow.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project.CurrentPhase
}

// UpdateState shallow-merges partial into the project record. Known keys
// map to typed fields, unknown keys are kept in Extra.
func (s *Store) UpdateState(ctx context.Context, partial Fields) (ProjectState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return ProjectState{}, err
	}

	// Validate everything before touching memory so a bad key never
	// leaves a half-applied update behind.
	var lane workflow.Lane
	for key, value := range partial {
		if protectedFields[key] {
			return ProjectState{}, fmt.Errorf("updating %q: %w", key, ErrProtectedField)
		}
		switch key {
		case "projectName", "nextSteps":
			if _, ok := value.(string); !ok && value != nil {
				return ProjectState{}, fmt.Errorf("updating %q: expected string, got %T", key, value)
			}
		case "currentLane":
			str, _ := value.(string)
			l, err := workflow.ParseLane(str)
			if err != nil {
				return ProjectState{}, fmt.Errorf("updating currentLane: %w", err)
			}
			lane = l
		case "requirements", "userPreferences":
			if asFields(value) == nil && value != nil {
				return ProjectState{}, fmt.Errorf("updating %q: expected object, got %T", key, value)
			}
		}
	}

	for key, value := range partial {
		switch key {
		case "projectName":
			s.project.ProjectName, _ = value.(string)
		case "nextSteps":
			s.project.NextSteps, _ = value.(string)
		case "currentLane":
			s.project.CurrentLane = lane
		case "requirements":
			s.project.Requirements = asFields(value).Clone()
		case "userPreferences":
			s.project.UserPreferences = asFields(value).Clone()
		default:
			if s.project.Extra == nil {
				s.project.Extra = Fields{}
			}
			s.project.Extra[key] = cloneValue(value)
		}
	}
	s.normalizeProject()
	s.touch()
	if err := s.persist(ctx, DocProject); err != nil {
		return ProjectState{}, err
	}
	return s.project.clone(), nil
}

// UpdateRequirements merges keys into requirements.
func (s *Store) UpdateRequirements(ctx context.Context, updates Fields) error {
	return s.mergeInto(ctx, func(p *ProjectState) Fields { return p.Requirements }, updates)
}

// UpdatePreferences merges keys into userPreferences.
func (s *Store) UpdatePreferences(ctx context.Context, updates Fields) error {
	return s.mergeInto(ctx, func(p *ProjectState) Fields { return p.UserPreferences }, updates)
}

func (s *Store) mergeInto(ctx context.Context, target func(*ProjectState) Fields, updates Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	target(&s.project).Merge(updates)
	s.touch()
	return s.persist(ctx, DocProject)
}

// TransitionPhase appends a history entry and sets the current phase.
// Legality is not checked here; the transition machine decides.
func (s *Store) TransitionPhase(ctx context.Context, to workflow.Phase, carried Fields) (PhaseTransition, error) {
	if !to.Valid() {
		return PhaseTransition{}, fmt.Errorf("transition to %q: %w", to, workflow.ErrUnknownPhase)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return PhaseTransition{}, err
	}

	entry := PhaseTransition{
		From:      s.project.CurrentPhase,
		To:        to,
		Timestamp: nowRFC3339(),
		Context:   carried.Clone(),
	}
	s.project.PhaseHistory = append(s.project.PhaseHistory, entry)
	s.project.CurrentPhase = to
	s.touch()
	if err := s.persist(ctx, DocProject); err != nil {
		return PhaseTransition{}, err
	}
	return entry.clone(), nil
}

// AddMessage appends a conversation entry stamped with the current phase.
func (s *Store) AddMessage(ctx context.Context, role workflow.Role, content string, metadata Fields) (Message, error) {
	if role != workflow.RoleUser && role != workflow.RoleAssistant {
		return Message{}, fmt.Errorf("unknown conversation role %q", role)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return Message{}, err
	}

	msg := Message{
		Role:      role,
		Content:   content,
		Timestamp: nowRFC3339(),
		Phase:     s.project.CurrentPhase,
		Metadata:  metadata.Clone(),
	}
	s.conversation = append(s.conversation, msg)
	s.touch()
	if err := s.persist(ctx, DocConversation, DocProject); err != nil {
		return Message{}, err
	}
	msg.Metadata = msg.Metadata.Clone()
	return msg, nil
}

// Conversation returns a copy of the transcript.
func (s *Store) Conversation() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.conversation))
	for i, m := range s.conversation {
		m.Metadata = m.Metadata.Clone()
		out[i] = m
	}
	return out
}

// StoreDeliverable stores a deliverable under the current phase.
func (s *Store) StoreDeliverable(ctx context.Context, typ, content string, metadata Fields) (Deliverable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return Deliverable{}, err
	}
	return s.storeDeliverable(ctx, s.project.CurrentPhase, typ, content, metadata)
}

// StoreDeliverableFor stores a deliverable under an explicit phase.
func (s *Store) StoreDeliverableFor(ctx context.Context, phase workflow.Phase, typ, content string, metadata Fields) (Deliverable, error) {
	if !phase.Valid() {
		return Deliverable{}, fmt.Errorf("storing deliverable: %w", workflow.ErrUnknownPhase)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return Deliverable{}, err
	}
	return s.storeDeliverable(ctx, phase, typ, content, metadata)
}

func (s *Store) storeDeliverable(ctx context.Context, phase workflow.Phase, typ, content string, metadata Fields) (Deliverable, error) {
	typ = strings.TrimSpace(typ)
	if typ == "" {
		return Deliverable{}, errors.New("deliverable type is required")
	}

	d := Deliverable{
		Type:      typ,
		Phase:     phase,
		Content:   content,
		Timestamp: nowRFC3339(),
		Metadata:  metadata.Clone(),
	}
	if s.deliverables[phase] == nil {
		s.deliverables[phase] = make(map[string]Deliverable)
	}
	s.deliverables[phase][typ] = d

	docs := []Document{DocDeliverables}
	if typ == string(workflow.DeliverableStory) {
		story := normalizeStory(content, metadata, len(s.stories.Stories), phase, d.Timestamp)
		s.stories.Stories[story.ID] = story
		s.stories.LatestID = story.ID
		docs = append(docs, DocStories)
	}
	s.touch()
	docs = append(docs, DocProject)
	if err := s.persist(ctx, docs...); err != nil {
		return Deliverable{}, err
	}
	d.Metadata = d.Metadata.Clone()
	return d, nil
}

// Deliverables returns a copy of every deliverable stored under phase.
func (s *Store) Deliverables(phase workflow.Phase) map[string]Deliverable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneDeliverables(s.deliverables[phase])
}

// Deliverable returns one deliverable by phase and type.
func (s *Store) Deliverable(phase workflow.Phase, typ string) (Deliverable, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deliverables[phase][typ]
	d.Metadata = d.Metadata.Clone()
	return d, ok
}

// AllDeliverables returns a copy of the whole deliverable index.
func (s *Store) AllDeliverables() map[workflow.Phase]map[string]Deliverable {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[workflow.Phase]map[string]Deliverable, len(s.deliverables))
	for phase, byType := range s.deliverables {
		out[phase] = cloneDeliverables(byType)
	}
	return out
}

// DeliverableCount returns how many deliverables exist across all phases.
func (s *Store) DeliverableCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, byType := range s.deliverables {
		n += len(byType)
	}
	return n
}

// StoryCount returns the number of cached stories.
func (s *Store) StoryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stories.Stories)
}

// GetStory returns the story with the given id, falling back to the
// latest stored story, then the most recent storedAt, then the first id.
func (s *Store) GetStory(id string) (StructuredStory, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stories := s.stories.Stories
	if id = strings.TrimSpace(id); id != "" {
		if st, ok := stories[id]; ok {
			return st.clone(), true
		}
	}
	if st, ok := stories[s.stories.LatestID]; ok {
		return st.clone(), true
	}
	if len(stories) == 0 {
		return StructuredStory{}, false
	}

	ids := make([]string, 0, len(stories))
	for k := range stories {
		ids = append(ids, k)
	}
	sort.Strings(ids)

	best := ""
	for _, k := range ids {
		if best == "" || laterThan(stories[k].StoredAt, stories[best].StoredAt) {
			best = k
		}
	}
	return stories[best].clone(), true
}

// RecordReviewOutcome appends a review outcome.
func (s *Store) RecordReviewOutcome(ctx context.Context, checkpoint string, details Fields) (ReviewOutcome, error) {
	checkpoint = strings.TrimSpace(checkpoint)
	if checkpoint == "" {
		return ReviewOutcome{}, errors.New("review checkpoint is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return ReviewOutcome{}, err
	}

	r := ReviewOutcome{
		Checkpoint: checkpoint,
		Details:    details.Clone(),
		Timestamp:  nowRFC3339(),
		Phase:      s.project.CurrentPhase,
	}
	s.reviews = append(s.reviews, r)
	s.touch()
	if err := s.persist(ctx, DocReviews, DocProject); err != nil {
		return ReviewOutcome{}, err
	}
	r.Details = r.Details.Clone()
	return r, nil
}

// ReviewOutcomes returns a copy of the review history.
func (s *Store) ReviewOutcomes() []ReviewOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ReviewOutcome, len(s.reviews))
	for i, r := range s.reviews {
		r.Details = r.Details.Clone()
		out[i] = r
	}
	return out
}

// RecordDecision sets decisions[key], replacing any earlier value.
func (s *Store) RecordDecision(ctx context.Context, key string, value any, rationale string) (Decision, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Decision{}, errors.New("decision key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return Decision{}, err
	}

	d := Decision{
		Value:     cloneValue(value),
		Rationale: rationale,
		Timestamp: nowRFC3339(),
		Phase:     s.project.CurrentPhase,
	}
	s.project.Decisions[key] = d
	s.touch()
	if err := s.persist(ctx, DocProject); err != nil {
		return Decision{}, err
	}
	d.Value = cloneValue(d.Value)
	return d, nil
}

// RecordLaneDecision appends a lane decision and makes it the current lane.
func (s *Store) RecordLaneDecision(ctx context.Context, lane workflow.Lane, rationale string, confidence float64, userMessage string, opts LaneOptions) (LaneDecision, error) {
	if lane != workflow.LaneQuick && lane != workflow.LaneComplex {
		return LaneDecision{}, fmt.Errorf("recording lane %q: %w", lane, workflow.ErrUnknownLane)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return LaneDecision{}, err
	}

	d := LaneDecision{
		Lane:           lane,
		Rationale:      rationale,
		Confidence:     confidence,
		UserMessage:    userMessage,
		Timestamp:      nowRFC3339(),
		Phase:          s.project.CurrentPhase,
		Level:          opts.Level,
		LevelScore:     opts.LevelScore,
		LevelSignals:   opts.LevelSignals,
		LevelRationale: opts.LevelRationale,
	}
	d = d.clone()
	s.project.LaneHistory = append(s.project.LaneHistory, d)
	s.project.CurrentLane = lane
	s.touch()
	if err := s.persist(ctx, DocProject); err != nil {
		return LaneDecision{}, err
	}
	return d.clone(), nil
}

// Clear purges every document and immediately starts a fresh project.
func (s *Store) Clear(ctx context.Context) (ProjectState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Purge(ctx); err != nil {
		s.log.Warn("state purge failed", zap.Error(err))
		return ProjectState{}, fmt.Errorf("clearing state: %w", err)
	}
	for _, doc := range Documents {
		s.reset(doc)
		delete(s.committed, doc)
	}
	s.loaded = false
	if err := s.ensureLoaded(ctx); err != nil {
		return ProjectState{}, err
	}
	return s.project.clone(), nil
}

// --- loading and persistence ---

func (s *Store) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	for _, doc := range Documents {
		body, err := s.backend.Read(ctx, doc)
		switch {
		case errors.Is(err, ErrDocumentNotFound):
			s.reset(doc)
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			s.log.Warn("state document unreadable, starting empty",
				zap.String("document", string(doc)), zap.Error(err))
			s.reset(doc)
		default:
			if err := s.decode(doc, body); err != nil {
				s.log.Warn("state document corrupt, starting empty",
					zap.String("document", string(doc)), zap.Error(err))
				s.reset(doc)
				continue
			}
			s.committed[doc] = body
		}
	}

	needsWrite := false
	if s.project.ProjectID == "" {
		now := nowRFC3339()
		s.project = ProjectState{
			ProjectID:    s.newID(),
			CurrentPhase: workflow.InitialPhase,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		needsWrite = true
	} else if !s.project.CurrentPhase.Valid() {
		s.log.Warn("stored phase is unknown, resetting to initial phase",
			zap.String("phase", string(s.project.CurrentPhase)))
		s.project.CurrentPhase = workflow.InitialPhase
		needsWrite = true
	}
	s.normalizeProject()

	if needsWrite {
		if err := s.persist(ctx, DocProject); err != nil {
			return err
		}
	}
	s.loaded = true
	return nil
}

// persist writes each document in order. On failure every listed
// document is restored to its last committed body.
func (s *Store) persist(ctx context.Context, docs ...Document) error {
	for _, doc := range docs {
		body, err := s.encode(doc)
		if err == nil {
			err = s.backend.Write(ctx, doc, body)
		}
		if err != nil {
			s.log.Warn("state write failed", zap.String("document", string(doc)), zap.Error(err))
			s.rollback(docs)
			return fmt.Errorf("persisting %s: %w", doc, err)
		}
		s.committed[doc] = body
	}
	return nil
}

func (s *Store) rollback(docs []Document) {
	for _, doc := range docs {
		body, ok := s.committed[doc]
		if !ok {
			s.reset(doc)
			continue
		}
		if err := s.decode(doc, body); err != nil {
			s.reset(doc)
		}
	}
	s.normalizeProject()
}

func (s *Store) encode(doc Document) ([]byte, error) {
	var v any
	switch doc {
	case DocProject:
		v = s.project
	case DocConversation:
		v = s.conversation
	case DocDeliverables:
		v = s.deliverables
	case DocReviews:
		v = s.reviews
	case DocStories:
		v = s.stories
	default:
		return nil, fmt.Errorf("unknown document %q", doc)
	}
	return json.MarshalIndent(v, "", "  ")
}

func (s *Store) decode(doc Document, body []byte) error {
	switch doc {
	case DocProject:
		var p ProjectState
		if err := json.Unmarshal(body, &p); err != nil {
			return err
		}
		s.project = p
		s.normalizeProject()
	case DocConversation:
		var c []Message
		if err := json.Unmarshal(body, &c); err != nil {
			return err
		}
		s.conversation = c
	case DocDeliverables:
		d := deliverableIndex{}
		if err := json.Unmarshal(body, &d); err != nil {
			return err
		}
		s.deliverables = d
	case DocReviews:
		var r []ReviewOutcome
		if err := json.Unmarshal(body, &r); err != nil {
			return err
		}
		s.reviews = r
	case DocStories:
		var c storyCache
		if err := json.Unmarshal(body, &c); err != nil {
			return err
		}
		if c.Stories == nil {
			c.Stories = make(map[string]StructuredStory)
		}
		s.stories = c
	default:
		return fmt.Errorf("unknown document %q", doc)
	}
	return nil
}

func (s *Store) reset(doc Document) {
	switch doc {
	case DocProject:
		s.project = ProjectState{}
		s.normalizeProject()
	case DocConversation:
		s.conversation = nil
	case DocDeliverables:
		s.deliverables = deliverableIndex{}
	case DocReviews:
		s.reviews = nil
	case DocStories:
		s.stories = storyCache{Stories: make(map[string]StructuredStory)}
	}
}

// normalizeProject replaces nil collections so the persisted JSON always
// carries the full shape.
func (s *Store) normalizeProject() {
	p := &s.project
	if p.PhaseHistory == nil {
		p.PhaseHistory = []PhaseTransition{}
	}
	if p.LaneHistory == nil {
		p.LaneHistory = []LaneDecision{}
	}
	if p.Requirements == nil {
		p.Requirements = Fields{}
	}
	if p.UserPreferences == nil {
		p.UserPreferences = Fields{}
	}
	if p.Decisions == nil {
		p.Decisions = make(map[string]Decision)
	}
	if p.Integrations == nil {
		p.Integrations = make(map[string]*IntegrationLog)
	}
}

func (s *Store) touch() {
	s.project.UpdatedAt = nowRFC3339()
}

func asFields(v any) Fields {
	switch t := v.(type) {
	case Fields:
		return t
	case map[string]any:
		return Fields(t)
	default:
		return nil
	}
}
