package textmatch

import "testing"

func TestTokenize(t *testing.T) {
	got := Tokenize("Build a Multi-Tenant API, fast!")
	want := []string{"build", "a", "multi-tenant", "api", "fast"}
	if len(got) != len(want) {
		t.Fatalf("Tokenize = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMatch(t *testing.T) {
	tokens := Tokenize("A Multi-Tenant landing page, with APIs and an API.")
	hits := Match(tokens, []string{"multi-tenant", "landing page", "api", "page landing"})
	want := []string{"multi-tenant", "landing page", "api"}
	if len(hits) != len(want) {
		t.Fatalf("Match = %q, want %q", hits, want)
	}
	for i := range want {
		if hits[i] != want[i] {
			t.Errorf("hit %d = %q, want %q", i, hits[i], want[i])
		}
	}
}

func TestMatch_NoTokens(t *testing.T) {
	if hits := Match(nil, []string{"api"}); len(hits) != 0 {
		t.Errorf("Match(nil) = %q", hits)
	}
}
