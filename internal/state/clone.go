package state

import "time"

func (p ProjectState) clone() ProjectState {
	out := p
	out.PhaseHistory = make([]PhaseTransition, len(p.PhaseHistory))
	for i, t := range p.PhaseHistory {
		out.PhaseHistory[i] = t.clone()
	}
	out.LaneHistory = make([]LaneDecision, len(p.LaneHistory))
	for i, d := range p.LaneHistory {
		out.LaneHistory[i] = d.clone()
	}
	out.Requirements = p.Requirements.Clone()
	out.UserPreferences = p.UserPreferences.Clone()
	out.Extra = p.Extra.Clone()
	out.Decisions = make(map[string]Decision, len(p.Decisions))
	for k, d := range p.Decisions {
		d.Value = cloneValue(d.Value)
		out.Decisions[k] = d
	}
	out.Integrations = make(map[string]*IntegrationLog, len(p.Integrations))
	for k, l := range p.Integrations {
		c := l.clone()
		out.Integrations[k] = &c
	}
	return out
}

func (t PhaseTransition) clone() PhaseTransition {
	t.Context = t.Context.Clone()
	return t
}

func (d LaneDecision) clone() LaneDecision {
	if d.Level != nil {
		v := *d.Level
		d.Level = &v
	}
	if d.LevelScore != nil {
		v := *d.LevelScore
		d.LevelScore = &v
	}
	if d.LevelSignals != nil {
		d.LevelSignals = append([]string(nil), d.LevelSignals...)
	}
	return d
}

func (l *IntegrationLog) clone() IntegrationLog {
	if l == nil {
		return IntegrationLog{Records: []IntegrationRecord{}}
	}
	out := IntegrationLog{
		Records:      make([]IntegrationRecord, len(l.Records)),
		LastActivity: l.LastActivity,
	}
	for i, r := range l.Records {
		out.Records[i] = r.clone()
	}
	return out
}

func (r IntegrationRecord) clone() IntegrationRecord {
	r.Fields = r.Fields.Clone()
	return r
}

func (st StructuredStory) clone() StructuredStory {
	st.AcceptanceCriteria = append([]string{}, st.AcceptanceCriteria...)
	st.DefinitionOfDone = append([]string{}, st.DefinitionOfDone...)
	st.TechnicalNotes = append([]string{}, st.TechnicalNotes...)
	st.Dependencies = append([]string{}, st.Dependencies...)
	if st.EpicNumber != nil {
		v := *st.EpicNumber
		st.EpicNumber = &v
	}
	if st.StoryNumber != nil {
		v := *st.StoryNumber
		st.StoryNumber = &v
	}
	return st
}

func cloneDeliverables(in map[string]Deliverable) map[string]Deliverable {
	out := make(map[string]Deliverable, len(in))
	for k, d := range in {
		d.Metadata = d.Metadata.Clone()
		out[k] = d
	}
	return out
}

// laterThan reports whether timestamp a is strictly after b. Unparseable
// timestamps sort first.
func laterThan(a, b string) bool {
	ta, errA := time.Parse(time.RFC3339Nano, a)
	tb, errB := time.Parse(time.RFC3339Nano, b)
	switch {
	case errA != nil:
		return false
	case errB != nil:
		return true
	default:
		return ta.After(tb)
	}
}
