package persona

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/HendryAvila/conductor/internal/workflow"
)

func TestLoad_EveryAgentEmbedded(t *testing.T) {
	l, err := NewLoader("")
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range workflow.Agents() {
		p, err := l.Load(id)
		if err != nil {
			t.Errorf("Load(%s): %v", id, err)
			continue
		}
		if p.Name == "" || p.Title == "" || p.Instructions == "" {
			t.Errorf("persona %s is incomplete: %+v", id, p)
		}
		if p.Source != "embedded" {
			t.Errorf("persona %s source = %q", id, p.Source)
		}
	}
}

func TestLoad_UnknownAgent(t *testing.T) {
	l, _ := NewLoader("")
	if _, err := l.Load("designer"); !errors.Is(err, ErrUnknownAgent) {
		t.Errorf("error = %v, want ErrUnknownAgent", err)
	}
}

func TestForPhase(t *testing.T) {
	l, _ := NewLoader("")
	p, err := l.ForPhase(workflow.PhaseUX)
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != "ux-expert" {
		t.Errorf("ForPhase(ux).ID = %q", p.ID)
	}
	if _, err := l.ForPhase("designer"); !errors.Is(err, workflow.ErrUnknownPhase) {
		t.Errorf("error = %v, want ErrUnknownPhase", err)
	}
}

func TestList_PhaseOrder(t *testing.T) {
	l, _ := NewLoader("")
	list, err := l.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != len(workflow.PhaseOrder) {
		t.Fatalf("List len = %d", len(list))
	}
	for i, p := range list {
		if p.Phase != workflow.PhaseOrder[i] {
			t.Errorf("List[%d].Phase = %s, want %s", i, p.Phase, workflow.PhaseOrder[i])
		}
	}
}

func TestLoad_OverrideMergesFields(t *testing.T) {
	dir := t.TempDir()
	body := "id: pm\nphase: pm\nname: Priya\n"
	if err := os.WriteFile(filepath.Join(dir, "pm.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	l, _ := NewLoader(dir)
	p, err := l.Load("pm")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Priya" {
		t.Errorf("Name = %q, want override", p.Name)
	}
	if p.Title != "Product Manager" {
		t.Errorf("Title = %q, want embedded value kept", p.Title)
	}
	if p.Source != filepath.Join(dir, "pm.yaml") {
		t.Errorf("Source = %q", p.Source)
	}
}

func TestLoad_OverrideRejectsUnknownFieldsAndWrongID(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "qa.yaml"), []byte("favourite_colour: blue\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "dev.yaml"), []byte("id: qa\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	l, _ := NewLoader(dir)
	if _, err := l.Load("qa"); err == nil {
		t.Error("unknown override field should fail")
	}
	if _, err := l.Load("dev"); err == nil {
		t.Error("override changing the id should fail")
	}
}

func TestLoad_CacheAndPurge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sm.yaml")
	if err := os.WriteFile(path, []byte("name: First\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l, _ := NewLoader(dir)
	if p, _ := l.Load("sm"); p.Name != "First" {
		t.Fatalf("Name = %q", p.Name)
	}

	if err := os.WriteFile(path, []byte("name: Second\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if p, _ := l.Load("sm"); p.Name != "First" {
		t.Errorf("cached persona should be served until Purge, got %q", p.Name)
	}
	l.Purge()
	if p, _ := l.Load("sm"); p.Name != "Second" {
		t.Errorf("after Purge Name = %q, want Second", p.Name)
	}
}

func TestLoad_ReturnsCopies(t *testing.T) {
	l, _ := NewLoader("")
	p, _ := l.Load("analyst")
	p.Responsibilities[0] = "mutated"
	again, _ := l.Load("analyst")
	if again.Responsibilities[0] == "mutated" {
		t.Error("cached persona was mutated through a returned value")
	}
}
