package workflow

import (
	"errors"
	"testing"
)

func TestParsePhase(t *testing.T) {
	tests := []struct {
		input   string
		want    Phase
		wantErr bool
	}{
		{"analyst", PhaseAnalyst, false},
		{"PM", PhasePM, false},
		{"  architect ", PhaseArchitect, false},
		{"ux", PhaseUX, false},
		{"po", PhasePO, false},
		{"designer", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePhase(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePhase(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownPhase) {
					t.Errorf("error should wrap ErrUnknownPhase, got: %v", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParsePhase(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPhaseOrder_ContainsEveryPhaseOnce(t *testing.T) {
	seen := map[Phase]int{}
	for _, p := range PhaseOrder {
		seen[p]++
	}
	if len(seen) != 8 {
		t.Fatalf("PhaseOrder has %d distinct phases, want 8", len(seen))
	}
	for p, n := range seen {
		if n != 1 {
			t.Errorf("phase %s appears %d times", p, n)
		}
		if !p.Valid() {
			t.Errorf("phase %s in PhaseOrder is not valid", p)
		}
	}
}

func TestPhaseIndex(t *testing.T) {
	if PhaseAnalyst.Index() != 0 {
		t.Errorf("analyst index = %d, want 0", PhaseAnalyst.Index())
	}
	if Phase("bogus").Index() != -1 {
		t.Error("unknown phase index should be -1")
	}
}

func TestParseLane(t *testing.T) {
	if l, err := ParseLane("Quick"); err != nil || l != LaneQuick {
		t.Errorf("ParseLane(Quick) = %q, %v", l, err)
	}
	if l, err := ParseLane("complex"); err != nil || l != LaneComplex {
		t.Errorf("ParseLane(complex) = %q, %v", l, err)
	}
	if _, err := ParseLane("medium"); !errors.Is(err, ErrUnknownLane) {
		t.Errorf("ParseLane(medium) error = %v, want ErrUnknownLane", err)
	}
}

func TestParseDeliverableType(t *testing.T) {
	for _, dt := range GeneratedTypes {
		got, err := ParseDeliverableType(string(dt))
		if err != nil || got != dt {
			t.Errorf("ParseDeliverableType(%q) = %q, %v", dt, got, err)
		}
	}
	if _, err := ParseDeliverableType("mockup"); !errors.Is(err, ErrUnknownDeliverable) {
		t.Errorf("ParseDeliverableType(mockup) error = %v, want ErrUnknownDeliverable", err)
	}
}

func TestParseRole(t *testing.T) {
	if _, err := ParseRole("system"); err == nil {
		t.Error("ParseRole(system) should fail")
	}
	if r, err := ParseRole("USER"); err != nil || r != RoleUser {
		t.Errorf("ParseRole(USER) = %q, %v", r, err)
	}
}

func TestAgentFor_EveryPhaseMapped(t *testing.T) {
	for _, p := range PhaseOrder {
		id := AgentFor(p)
		if id == "" {
			t.Errorf("phase %s has no agent", p)
			continue
		}
		back, ok := PhaseForAgent(id)
		if !ok || back != p {
			t.Errorf("PhaseForAgent(%q) = %q, %v; want %q", id, back, ok, p)
		}
	}
	if AgentFor(PhaseUX) != "ux-expert" {
		t.Errorf("AgentFor(ux) = %q, want ux-expert", AgentFor(PhaseUX))
	}
	if AgentFor(Phase("bogus")) != "" {
		t.Error("AgentFor(unknown) should be empty")
	}
}

func TestProducingPhase(t *testing.T) {
	for _, dt := range GeneratedTypes {
		if _, ok := ProducingPhase(dt); !ok {
			t.Errorf("deliverable %s has no producing phase", dt)
		}
		if DeliverableFilename(dt) == "" {
			t.Errorf("deliverable %s has no filename", dt)
		}
	}
}
