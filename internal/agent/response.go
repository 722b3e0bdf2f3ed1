// Package agent defines the collaborators the orchestrator drives (agent
// runner, command runner, deliverable generator) and the boundary type
// their responses arrive in.
package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind tags a RawResponse.
type Kind int

const (
	KindEmpty Kind = iota
	KindText
	KindJSON
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindJSON:
		return "json"
	default:
		return "empty"
	}
}

// RawResponse is what a collaborator returned: nothing, a string, or a
// decoded JSON value. It is resolved exactly once, by Resolve.
type RawResponse struct {
	kind  Kind
	text  string
	value any
}

// Empty is the response of a collaborator that returned nothing.
func Empty() RawResponse { return RawResponse{kind: KindEmpty} }

// Text wraps a string response. It may still contain JSON.
func Text(s string) RawResponse { return RawResponse{kind: KindText, text: s} }

// JSON wraps an already-decoded value.
func JSON(v any) RawResponse {
	if v == nil {
		return Empty()
	}
	return RawResponse{kind: KindJSON, value: v}
}

// FromAny classifies an arbitrary Go value.
func FromAny(v any) RawResponse {
	switch t := v.(type) {
	case nil:
		return Empty()
	case RawResponse:
		return t
	case string:
		return Text(t)
	case []byte:
		return Text(string(t))
	default:
		return JSON(t)
	}
}

// Kind reports which variant r holds.
func (r RawResponse) Kind() Kind { return r.kind }

// Status values with special meaning.
const (
	StatusOK      = "ok"
	StatusHandoff = "handoff"
	StatusError   = "error"
	StatusFailed  = "failed"
)

// Payload is the resolved structured response.
type Payload struct {
	Status         string
	Message        string
	Deliverable    *DeliverableOutput
	ProjectUpdates map[string]any
	// Raw is the decoded object, or the text for plain-text responses.
	Raw any
}

// DeliverableOutput is a deliverable produced by an agent.
type DeliverableOutput struct {
	Type     string         `json:"type"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Failed reports whether the agent said it failed.
func (p Payload) Failed() bool {
	s := strings.ToLower(p.Status)
	return s == StatusError || s == StatusFailed
}

// ParseError reports a response that could not be interpreted.
type ParseError struct {
	Raw    string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unparseable agent response (%s): %v", e.Reason, e.Err)
	}
	return "unparseable agent response: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

// Resolve interprets r. Text that looks like JSON (optionally inside a
// ``` fence) must parse as an object; other text becomes the message.
func Resolve(r RawResponse) (Payload, error) {
	switch r.kind {
	case KindEmpty:
		return Payload{Status: StatusOK}, nil
	case KindText:
		body := stripFence(strings.TrimSpace(r.text))
		if body == "" {
			return Payload{Status: StatusOK}, nil
		}
		if body[0] != '{' && body[0] != '[' {
			return Payload{Status: StatusOK, Message: body, Raw: body}, nil
		}
		var v any
		if err := json.Unmarshal([]byte(body), &v); err != nil {
			return Payload{}, &ParseError{Raw: truncate(body), Reason: "invalid JSON", Err: err}
		}
		return resolveValue(v, body)
	default:
		obj, err := toObject(r.value)
		if err != nil {
			return Payload{}, err
		}
		return resolveValue(obj, "")
	}
}

func resolveValue(v any, raw string) (Payload, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Payload{}, &ParseError{Raw: truncate(raw), Reason: fmt.Sprintf("expected a JSON object, got %T", v)}
	}

	p := Payload{Status: StatusOK, Raw: obj}
	if s, ok := obj["status"]; ok {
		str, ok := s.(string)
		if !ok {
			return Payload{}, &ParseError{Raw: truncate(raw), Reason: "status must be a string"}
		}
		if str != "" {
			p.Status = str
		}
	}
	if m, ok := obj["message"].(string); ok {
		p.Message = m
	}

	if d, ok := obj["deliverable"]; ok && d != nil {
		dm, ok := d.(map[string]any)
		if !ok {
			return Payload{}, &ParseError{Raw: truncate(raw), Reason: "deliverable must be an object"}
		}
		out := &DeliverableOutput{}
		out.Type, _ = dm["type"].(string)
		out.Content, _ = dm["content"].(string)
		out.Metadata, _ = dm["metadata"].(map[string]any)
		if out.Type == "" {
			return Payload{}, &ParseError{Raw: truncate(raw), Reason: "deliverable.type is required"}
		}
		p.Deliverable = out
	}

	if u, ok := obj["projectUpdates"]; ok && u != nil {
		um, ok := u.(map[string]any)
		if !ok {
			return Payload{}, &ParseError{Raw: truncate(raw), Reason: "projectUpdates must be an object"}
		}
		p.ProjectUpdates = um
	}
	return p, nil
}

// toObject normalizes struct and typed-map values through JSON so they
// resolve like decoded responses.
func toObject(v any) (any, error) {
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &ParseError{Reason: "value is not JSON-encodable", Err: err}
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &ParseError{Raw: truncate(string(data)), Reason: "re-decoding value", Err: err}
	}
	return out, nil
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:] // drop the language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string) string {
	const max = 200
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
