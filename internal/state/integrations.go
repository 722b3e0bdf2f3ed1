package state

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/conductor/internal/workflow"
)

// Integration log names.
const (
	IntegrationDrawbridge     = "drawbridge"
	IntegrationShadcn         = "shadcn"
	IntegrationTweakcn        = "tweakcn"
	IntegrationChromeDevtools = "chrome_devtools"
)

// IntegrationNames lists the integrations with typed record shapes.
var IntegrationNames = []string{
	IntegrationDrawbridge,
	IntegrationShadcn,
	IntegrationTweakcn,
	IntegrationChromeDevtools,
}

// DrawbridgeIngestion records UI annotations pulled from a Drawbridge session.
type DrawbridgeIngestion struct {
	Source      string   `json:"source"`
	URL         string   `json:"url,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	Annotations []string `json:"annotations,omitempty"`
}

// ShadcnInstallation records shadcn/ui components added to the project.
type ShadcnInstallation struct {
	Components []string `json:"components"`
	Style      string   `json:"style,omitempty"`
	Command    string   `json:"command,omitempty"`
}

// TweakcnPalette records a theme palette applied from tweakcn.
type TweakcnPalette struct {
	Name   string            `json:"name"`
	Mode   string            `json:"mode,omitempty"`
	Colors map[string]string `json:"colors,omitempty"`
}

// ChromeDevtoolsAudit records an audit run through Chrome DevTools.
type ChromeDevtoolsAudit struct {
	URL    string             `json:"url"`
	Scores map[string]float64 `json:"scores,omitempty"`
	Issues []string           `json:"issues,omitempty"`
}

// AppendIntegration appends a record to the named integration log. The
// record's id, timestamp and phase default to a fresh uuid, now and the
// current phase. At the cap the oldest records are dropped so the log
// holds exactly cap entries after the append.
func (s *Store) AppendIntegration(ctx context.Context, name string, fields Fields) (IntegrationRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return IntegrationRecord{}, errors.New("integration name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return IntegrationRecord{}, err
	}

	body := fields.Clone()
	if body == nil {
		body = Fields{}
	}
	rec := IntegrationRecord{
		ID:        takeString(body, "id"),
		Timestamp: takeString(body, "timestamp"),
		Phase:     workflow.Phase(takeString(body, "phase")),
		Fields:    body,
	}
	if rec.ID == "" {
		rec.ID = s.newID()
	}
	if rec.Timestamp == "" {
		rec.Timestamp = nowRFC3339()
	}
	if rec.Phase == "" {
		rec.Phase = s.project.CurrentPhase
	}

	prev := s.project.Integrations[name]
	log := prev.clone()
	if len(log.Records) >= s.cap {
		log.Records = append([]IntegrationRecord{}, log.Records[len(log.Records)-(s.cap-1):]...)
	}
	log.Records = append(log.Records, rec)
	log.LastActivity = rec.Timestamp
	s.project.Integrations[name] = &log

	s.touch()
	if err := s.persist(ctx, DocProject); err != nil {
		return IntegrationRecord{}, err
	}
	return rec.clone(), nil
}

// Integration returns a copy of the named log (empty when absent).
func (s *Store) Integration(name string) IntegrationLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project.Integrations[name].clone()
}

// RecordDrawbridgeIngestion appends to the drawbridge log.
func (s *Store) RecordDrawbridgeIngestion(ctx context.Context, in DrawbridgeIngestion) (IntegrationRecord, error) {
	if strings.TrimSpace(in.Source) == "" {
		return IntegrationRecord{}, errors.New("drawbridge ingestion requires a source")
	}
	return s.appendTyped(ctx, IntegrationDrawbridge, in)
}

// DrawbridgeIngestions returns the drawbridge log.
func (s *Store) DrawbridgeIngestions() IntegrationLog { return s.Integration(IntegrationDrawbridge) }

// RecordShadcnComponentInstallation appends to the shadcn log.
func (s *Store) RecordShadcnComponentInstallation(ctx context.Context, in ShadcnInstallation) (IntegrationRecord, error) {
	if len(in.Components) == 0 {
		return IntegrationRecord{}, errors.New("shadcn installation requires at least one component")
	}
	return s.appendTyped(ctx, IntegrationShadcn, in)
}

// ShadcnComponentInstallations returns the shadcn log.
func (s *Store) ShadcnComponentInstallations() IntegrationLog { return s.Integration(IntegrationShadcn) }

// ApplyTweakcnPalette appends to the tweakcn log.
func (s *Store) ApplyTweakcnPalette(ctx context.Context, in TweakcnPalette) (IntegrationRecord, error) {
	if strings.TrimSpace(in.Name) == "" {
		return IntegrationRecord{}, errors.New("tweakcn palette requires a name")
	}
	return s.appendTyped(ctx, IntegrationTweakcn, in)
}

// TweakcnPalettes returns the tweakcn log.
func (s *Store) TweakcnPalettes() IntegrationLog { return s.Integration(IntegrationTweakcn) }

// RecordChromeDevtoolsAudit appends to the chrome_devtools log.
func (s *Store) RecordChromeDevtoolsAudit(ctx context.Context, in ChromeDevtoolsAudit) (IntegrationRecord, error) {
	if strings.TrimSpace(in.URL) == "" {
		return IntegrationRecord{}, errors.New("chrome devtools audit requires a url")
	}
	return s.appendTyped(ctx, IntegrationChromeDevtools, in)
}

// ChromeDevtoolsAudits returns the chrome_devtools log.
func (s *Store) ChromeDevtoolsAudits() IntegrationLog { return s.Integration(IntegrationChromeDevtools) }

func (s *Store) appendTyped(ctx context.Context, name string, v any) (IntegrationRecord, error) {
	fields, err := ToFields(v)
	if err != nil {
		return IntegrationRecord{}, fmt.Errorf("encoding %s record: %w", name, err)
	}
	return s.AppendIntegration(ctx, name, fields)
}

// takeString removes key from f and returns its string value.
func takeString(f Fields, key string) string {
	v := f.String(key)
	delete(f, key)
	return v
}
