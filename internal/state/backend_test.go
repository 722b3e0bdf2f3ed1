package state

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/HendryAvila/conductor/internal/workflow"
)

func TestFileBackend_ReadMissing(t *testing.T) {
	b := NewFileBackend(filepath.Join(t.TempDir(), "state"))
	if _, err := b.Read(context.Background(), DocProject); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Read missing = %v, want ErrDocumentNotFound", err)
	}
}

func TestFileBackend_WriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	b := NewFileBackend(dir)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := b.Write(ctx, DocReviews, []byte(`[]`)); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "reviews.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory contents = %v, want only reviews.json", names)
	}
}

func TestFileBackend_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := NewFileBackend(t.TempDir())
	if err := b.Write(ctx, DocProject, []byte(`{}`)); !errors.Is(err, context.Canceled) {
		t.Errorf("Write with canceled ctx = %v, want context.Canceled", err)
	}
}

func TestSQLiteBackend_RoundTripAndPurge(t *testing.T) {
	ctx := context.Background()
	b, err := NewSQLiteBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewSQLiteBackend: %v", err)
	}
	defer b.Close()

	if _, err := b.Read(ctx, DocStories); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Read missing = %v, want ErrDocumentNotFound", err)
	}
	if err := b.Write(ctx, DocStories, []byte(`{"stories":{}}`)); err != nil {
		t.Fatal(err)
	}
	if err := b.Write(ctx, DocStories, []byte(`{"stories":{},"latestId":"x"}`)); err != nil {
		t.Fatal(err)
	}
	got, err := b.Read(ctx, DocStories)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"stories":{},"latestId":"x"}` {
		t.Errorf("Read = %s", got)
	}

	if err := b.Purge(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Read(ctx, DocStories); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Read after Purge = %v, want ErrDocumentNotFound", err)
	}
}

func TestSQLiteBackend_OpenError(t *testing.T) {
	orig := openDB
	defer func() { openDB = orig }()
	openDB = func(driver, dsn string) (*sql.DB, error) {
		return nil, errors.New("boom")
	}
	if _, err := NewSQLiteBackend(t.TempDir()); err == nil {
		t.Error("NewSQLiteBackend should surface open errors")
	}
}

// TestBackends_Parity runs the same operation sequence against both
// backends and checks a reopened store sees identical state.
func TestBackends_Parity(t *testing.T) {
	for _, kind := range []BackendKind{BackendFile, BackendSQLite} {
		t.Run(string(kind), func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()

			b, err := OpenBackend(kind, dir)
			if err != nil {
				t.Fatal(err)
			}
			s := New(Options{Backend: b})
			if _, err := s.Initialize(ctx); err != nil {
				t.Fatal(err)
			}
			if _, err := s.TransitionPhase(ctx, workflow.PhasePM, Fields{"why": "brief done"}); err != nil {
				t.Fatal(err)
			}
			if _, err := s.AddMessage(ctx, workflow.RoleUser, "write the prd", nil); err != nil {
				t.Fatal(err)
			}
			if _, err := s.StoreDeliverable(ctx, "story", "body", Fields{"epicNumber": 2, "storyNumber": 1, "title": "Cart"}); err != nil {
				t.Fatal(err)
			}
			if _, err := s.RecordReviewOutcome(ctx, "prd-review", Fields{"approved": true}); err != nil {
				t.Fatal(err)
			}
			id := s.Snapshot().ProjectID
			if err := s.Close(); err != nil {
				t.Fatal(err)
			}

			b2, err := OpenBackend(kind, dir)
			if err != nil {
				t.Fatal(err)
			}
			reopened := New(Options{Backend: b2})
			defer reopened.Close()
			p, err := reopened.Initialize(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if p.ProjectID != id || p.CurrentPhase != workflow.PhasePM || len(p.PhaseHistory) != 1 {
				t.Errorf("project not restored: %+v", p)
			}
			if len(reopened.Conversation()) != 1 || len(reopened.ReviewOutcomes()) != 1 {
				t.Error("conversation or reviews not restored")
			}
			st, ok := reopened.GetStory("")
			if !ok || st.ID != "2.1" || st.Phase != workflow.PhasePM {
				t.Errorf("story not restored: %+v", st)
			}
		})
	}
}

func TestOpenBackend_Unknown(t *testing.T) {
	if _, err := OpenBackend("redis", t.TempDir()); err == nil {
		t.Error("unknown backend kind should fail")
	}
}

func TestNormalizeChecklist(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"nil", nil, []string{}},
		{"string", "a\n\n  b  ", []string{"a", "b"}},
		{"markers", "- [x] done\n2) second\n+ plus", []string{"done", "second", "plus"}},
		{"list", []any{" x ", "", 3}, []string{"x", "3"}},
		{"strings", []string{"* one"}, []string{"one"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeChecklist(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("NormalizeChecklist(%v) = %q, want %q", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("item %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSlugify(t *testing.T) {
	if got := Slugify("  User Login / Signup! "); got != "user-login-signup" {
		t.Errorf("Slugify = %q", got)
	}
	if got := Slugify("!!!"); got != "" {
		t.Errorf("Slugify(!!!) = %q, want empty", got)
	}
}
