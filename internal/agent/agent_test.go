package agent

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/conductor/internal/persona"
	"github.com/HendryAvila/conductor/internal/templates"
	"github.com/HendryAvila/conductor/internal/workflow"
)

// --- RawResponse / Resolve ---

func TestFromAny(t *testing.T) {
	assert.Equal(t, KindEmpty, FromAny(nil).Kind())
	assert.Equal(t, KindText, FromAny(`{"status":"ok"}`).Kind())
	assert.Equal(t, KindText, FromAny([]byte("hi")).Kind())
	assert.Equal(t, KindJSON, FromAny(map[string]any{"status": "ok"}).Kind())
	assert.Equal(t, KindEmpty, JSON(nil).Kind())
}

func TestResolve_AllThreeShapes(t *testing.T) {
	empty, err := Resolve(Empty())
	require.NoError(t, err)
	assert.Equal(t, StatusOK, empty.Status)

	text, err := Resolve(Text(`{"status":"ok","message":"done"}`))
	require.NoError(t, err)
	assert.Equal(t, "done", text.Message)

	obj, err := Resolve(JSON(map[string]any{"status": "ok"}))
	require.NoError(t, err)
	assert.Equal(t, StatusOK, obj.Status)
}

func TestResolve_PlainText(t *testing.T) {
	p, err := Resolve(Text("  I wrote the brief.  "))
	require.NoError(t, err)
	assert.Equal(t, StatusOK, p.Status)
	assert.Equal(t, "I wrote the brief.", p.Message)
	assert.Nil(t, p.Deliverable)
}

func TestResolve_FencedJSON(t *testing.T) {
	p, err := Resolve(Text("```json\n{\"status\":\"ok\",\"deliverable\":{\"type\":\"prd\",\"content\":\"# PRD\"}}\n```"))
	require.NoError(t, err)
	require.NotNil(t, p.Deliverable)
	assert.Equal(t, "prd", p.Deliverable.Type)
	assert.Equal(t, "# PRD", p.Deliverable.Content)
}

func TestResolve_DeliverableAndUpdates(t *testing.T) {
	type response struct {
		Status         string         `json:"status"`
		Deliverable    map[string]any `json:"deliverable"`
		ProjectUpdates map[string]any `json:"projectUpdates"`
	}
	p, err := Resolve(JSON(response{
		Status:         "ok",
		Deliverable:    map[string]any{"type": "architecture", "content": "x", "metadata": map[string]any{"v": 1}},
		ProjectUpdates: map[string]any{"nextSteps": "review"},
	}))
	require.NoError(t, err)
	require.NotNil(t, p.Deliverable)
	assert.Equal(t, "architecture", p.Deliverable.Type)
	assert.Equal(t, float64(1), p.Deliverable.Metadata["v"])
	assert.Equal(t, "review", p.ProjectUpdates["nextSteps"])
}

func TestResolve_ParseErrors(t *testing.T) {
	cases := map[string]RawResponse{
		"broken json":         Text(`{"status": `),
		"array":               Text(`[1,2]`),
		"scalar value":        JSON(42),
		"status not string":   JSON(map[string]any{"status": 1}),
		"deliverable scalar":  JSON(map[string]any{"deliverable": "x"}),
		"deliverable no type": JSON(map[string]any{"deliverable": map[string]any{"content": "x"}}),
		"updates not object":  JSON(map[string]any{"projectUpdates": []any{}}),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Resolve(raw)
			var pe *ParseError
			assert.ErrorAs(t, err, &pe)
		})
	}
}

func TestPayload_Failed(t *testing.T) {
	assert.True(t, Payload{Status: "error"}.Failed())
	assert.True(t, Payload{Status: "FAILED"}.Failed())
	assert.False(t, Payload{Status: StatusHandoff}.Failed())
}

// --- PersonaRunner ---

func TestPersonaRunner_Handoff(t *testing.T) {
	loader, err := persona.NewLoader("")
	require.NoError(t, err)
	r := NewPersonaRunner(loader, "base")

	raw, err := r.Run(context.Background(), "pm", map[string]any{"toPhase": "pm"})
	require.NoError(t, err)

	p, err := Resolve(raw)
	require.NoError(t, err)
	assert.Equal(t, StatusHandoff, p.Status)
	assert.Contains(t, p.Message, "Product Manager")
	obj := p.Raw.(map[string]any)
	assert.Equal(t, "base", obj["model"])
	assert.Equal(t, "pm", obj["agent"])
}

func TestPersonaRunner_ModelSwap(t *testing.T) {
	loader, _ := persona.NewLoader("")
	r := NewPersonaRunner(loader, "base")
	r.SetModel("override")
	assert.Equal(t, "override", r.Model())
}

func TestPersonaRunner_UnknownAgent(t *testing.T) {
	loader, _ := persona.NewLoader("")
	_, err := NewPersonaRunner(loader, "").Run(context.Background(), "designer", nil)
	assert.ErrorIs(t, err, persona.ErrUnknownAgent)
}

// --- ExecCommandRunner ---

func TestExecCommandRunner_Unknown(t *testing.T) {
	r := NewExecCommandRunner(nil, t.TempDir())
	assert.False(t, r.Has("qa"))
	_, err := r.RunCommand(context.Background(), "qa", nil)
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestExecCommandRunner_EchoesStdin(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
	r := NewExecCommandRunner(map[string]string{"qa": "cat"}, t.TempDir())
	assert.True(t, r.Has("qa"))

	raw, err := r.RunCommand(context.Background(), "qa", map[string]any{"status": "ok", "message": "tests passed"})
	require.NoError(t, err)
	p, err := Resolve(raw)
	require.NoError(t, err)
	assert.Equal(t, "tests passed", p.Message)
}

func TestExecCommandRunner_Failure(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}
	r := NewExecCommandRunner(map[string]string{"dev": "false"}, t.TempDir())
	_, err := r.RunCommand(context.Background(), "dev", nil)
	assert.Error(t, err)
}

// --- TemplateGenerator ---

func newGenerator(t *testing.T) (*TemplateGenerator, string) {
	t.Helper()
	r, err := templates.NewRenderer()
	require.NoError(t, err)
	dir := t.TempDir()
	return NewTemplateGenerator(r, dir), dir
}

func TestGeneratorMethods_CoverEveryType(t *testing.T) {
	g, _ := newGenerator(t)
	methods := g.methods()
	for _, typ := range workflow.GeneratedTypes {
		assert.NotEmpty(t, GeneratorMethods[typ], "method name for %s", typ)
		assert.Contains(t, methods, typ)
	}
	assert.Len(t, GeneratorMethods, len(workflow.GeneratedTypes))
}

func TestGenerate_StoryWritesFile(t *testing.T) {
	g, dir := newGenerator(t)
	out, err := g.Generate(context.Background(), workflow.DeliverableStory, map[string]any{
		"title": "Login", "epicNumber": 1, "storyNumber": 2,
		"acceptanceCriteria": "- shows form\n- validates",
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "stories", "1.2.md"), out.Path)
	assert.Contains(t, out.Content, "# Story 1.2: Login")
	data, err := os.ReadFile(out.Path)
	require.NoError(t, err)
	assert.Equal(t, out.Content, string(data))
}

func TestGenerate_StoryIDCannotLeaveDocs(t *testing.T) {
	g, dir := newGenerator(t)
	out, err := g.Generate(context.Background(), workflow.DeliverableStory, map[string]any{
		"id": "../../escaped", "title": "Login",
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "stories", "escaped.md"), out.Path)
	assert.Contains(t, out.Content, "../../escaped")
	for _, d := range []string{dir, filepath.Dir(dir), filepath.Dir(filepath.Dir(dir))} {
		_, err := os.Stat(filepath.Join(d, "escaped.md"))
		assert.True(t, os.IsNotExist(err), "unexpected file in %s", d)
	}
}

func TestWrite_RejectsPathOutsideDocs(t *testing.T) {
	g, dir := newGenerator(t)
	_, err := g.write(templates.Story, templates.StoryData{ID: "x"}, filepath.Join("..", "outside.md"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutsideDocs))

	_, err = os.Stat(filepath.Join(filepath.Dir(dir), "outside.md"))
	assert.True(t, os.IsNotExist(err))
}

func TestStoryFilename(t *testing.T) {
	tests := map[string]string{
		"1.2":            "1.2",
		"login-form":     "login-form",
		"../../escaped":  "escaped",
		"a/b\\c":         "a-b-c",
		"/etc/passwd":    "etc-passwd",
		"..":             "story",
		"":               "story",
		"  spaced out  ": "spaced-out",
	}
	for id, want := range tests {
		assert.Equal(t, want, storyFilename(id), "id %q", id)
	}
}

func TestGenerate_BriefUsesMessage(t *testing.T) {
	g, dir := newGenerator(t)
	out, err := g.Generate(context.Background(), workflow.DeliverableBrief, map[string]any{
		"projectName": "Acme", "message": "build a quick landing page",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "project-brief.md"), out.Path)
	assert.Contains(t, out.Content, "Acme")
	assert.Contains(t, out.Content, "build a quick landing page")
}

func TestGenerate_UnknownType(t *testing.T) {
	g, _ := newGenerator(t)
	_, err := g.Generate(context.Background(), "mockup", nil)
	assert.True(t, errors.Is(err, workflow.ErrUnknownDeliverable))
}

func TestGenerate_NoDocsDir(t *testing.T) {
	r, err := templates.NewRenderer()
	require.NoError(t, err)
	out, err := NewTemplateGenerator(r, "").Generate(context.Background(), workflow.DeliverablePRD, nil)
	require.NoError(t, err)
	assert.Empty(t, out.Path)
	assert.Contains(t, out.Content, "Product Requirements")
}

func TestStoryID(t *testing.T) {
	assert.Equal(t, "S-9", StoryID(map[string]any{"storyId": "S-9", "epicNumber": 1, "storyNumber": 1}))
	assert.Equal(t, "3.4", StoryID(map[string]any{"epicNumber": "3", "storyNumber": float64(4)}))
	assert.Equal(t, "user-login", StoryID(map[string]any{"title": "User Login"}))
	assert.Equal(t, "", StoryID(nil))
}
