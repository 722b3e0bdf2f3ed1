package templates

import (
	"strings"
	"testing"
)

// --- NewRenderer ---

func TestNewRenderer_Succeeds(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() failed: %v", err)
	}
	if r == nil {
		t.Fatal("NewRenderer() returned nil")
	}
}

// --- Render: Brief ---

func TestRender_Brief(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	data := BriefData{
		Name:        "Test Project",
		Problem:     "Users struggle with X",
		TargetUsers: "Developers and designers",
		Goals:       "Cut time spent in half",
		Scope:       "Web only",
	}

	result, err := r.Render(Brief, data)
	if err != nil {
		t.Fatalf("Render(Brief) failed: %v", err)
	}

	checks := []string{
		"# Test Project — Project Brief",
		"## Problem",
		"Users struggle with X",
		"## Target Users",
		"Developers and designers",
		"## Scope",
		"Web only",
		"## Constraints",
		"_None recorded._",
		"Conductor",
	}
	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("Brief output missing: %q", check)
		}
	}
}

// --- Render: Story ---

func TestRender_Story(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	data := StoryData{
		ID:                 "1.2",
		Title:              "Login",
		Persona:            "registered user",
		Action:             "sign in with email",
		Benefit:            "I can see my dashboard",
		AcceptanceCriteria: []string{"form validates email", "wrong password shows error"},
	}

	result, err := r.Render(Story, data)
	if err != nil {
		t.Fatalf("Render(Story) failed: %v", err)
	}

	checks := []string{
		"# Story 1.2: Login",
		"**As a** registered user, **I want** sign in with email, **so that** I can see my dashboard.",
		"## Acceptance Criteria",
		"- form validates email\n- wrong password shows error",
		"## Dependencies\n\n_None._",
	}
	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("Story output missing: %q\n%s", check, result)
		}
	}
}

func TestRender_StoryWithoutUserStoryLine(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	result, err := r.Render(Story, StoryData{Title: "Chore"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(result, "**As a**") {
		t.Error("user-story sentence should be omitted without persona, action or benefit")
	}
	if !strings.Contains(result, "# Story unnumbered: Chore") {
		t.Errorf("unexpected heading:\n%s", result)
	}
}

// --- Render: Epic ---

func TestRender_Epic(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	result, err := r.Render(Epic, EpicData{Name: "Shop", Number: 3, Title: "Checkout"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result, "# Shop — Epic 3: Checkout") {
		t.Errorf("unexpected heading:\n%s", result)
	}
}

// --- Render: every template with zero values ---

func TestRender_EmptyData(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	cases := map[string]any{
		Brief:        BriefData{},
		PRD:          PRDData{},
		Architecture: ArchitectureData{},
		Epic:         EpicData{},
		Story:        StoryData{},
		QAAssessment: QAAssessmentData{},
	}
	for name, data := range cases {
		out, err := r.Render(name, data)
		if err != nil {
			t.Errorf("Render(%s, empty) failed: %v", name, err)
			continue
		}
		if !strings.Contains(out, "## ") {
			t.Errorf("%s should still contain section headers", name)
		}
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	_, err = r.Render("nonexistent.md.tmpl", nil)
	if err == nil {
		t.Fatal("Render(nonexistent) should fail")
	}
}

// --- Renderer interface compliance ---

func TestEmbedRenderer_ImplementsRenderer(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	// Compile-time interface check.
	var _ Renderer = r
}
