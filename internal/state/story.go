package state

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/HendryAvila/conductor/internal/workflow"
)

var (
	// checklistMarker matches one leading bullet, checkbox or ordinal.
	checklistMarker = regexp.MustCompile(`^(?:[-*+•]\s*|\[[ xX]\]\s*|\d+[.)]\s+)`)
	slugInvalid     = regexp.MustCompile(`[^a-z0-9]+`)
	headingLine     = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
)

// normalizeStory builds the structured record for a "story" deliverable.
// existing is the current cache size, used for the story-<n> fallback id.
func normalizeStory(content string, meta Fields, existing int, phase workflow.Phase, storedAt string) StructuredStory {
	if meta == nil {
		meta = Fields{}
	}

	st := StructuredStory{
		Title:              meta.String("title"),
		Persona:            firstString(meta, "persona", "userRole"),
		Action:             meta.String("action"),
		Benefit:            meta.String("benefit"),
		Summary:            meta.String("summary"),
		Description:        meta.String("description"),
		AcceptanceCriteria: NormalizeChecklist(meta["acceptanceCriteria"]),
		DefinitionOfDone:   NormalizeChecklist(meta["definitionOfDone"]),
		TechnicalNotes:     NormalizeChecklist(meta["technicalNotes"]),
		Dependencies:       NormalizeChecklist(meta["dependencies"]),
		Content:            content,
		Phase:              phase,
		StoredAt:           storedAt,
	}
	if st.Title == "" {
		if m := headingLine.FindStringSubmatch(content); m != nil {
			st.Title = strings.TrimSpace(m[1])
		}
	}
	if n, ok := meta.Int("epicNumber"); ok {
		st.EpicNumber = &n
	}
	if n, ok := meta.Int("storyNumber"); ok {
		st.StoryNumber = &n
	}
	st.ID = resolveStoryID(meta, st, existing)
	return st
}

// resolveStoryID applies the id precedence: explicit id, epic.story
// numbering, title slug, then a positional fallback.
func resolveStoryID(meta Fields, st StructuredStory, existing int) string {
	if id := firstString(meta, "id", "storyId"); id != "" {
		return id
	}
	if st.EpicNumber != nil && st.StoryNumber != nil {
		return fmt.Sprintf("%d.%d", *st.EpicNumber, *st.StoryNumber)
	}
	if slug := Slugify(st.Title); slug != "" {
		return slug
	}
	return FallbackStoryID(existing)
}

// FallbackStoryID is the id of a story with no id, numbers or title,
// given how many stories are already cached.
func FallbackStoryID(existing int) string {
	return fmt.Sprintf("story-%d", existing+1)
}

// NormalizeChecklist accepts a list or a newline-delimited string and
// returns trimmed, non-empty items with list markers removed.
func NormalizeChecklist(v any) []string {
	var raw []string
	switch t := v.(type) {
	case nil:
	case string:
		raw = strings.Split(t, "\n")
	case []string:
		raw = t
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			} else if item != nil {
				raw = append(raw, fmt.Sprint(item))
			}
		}
	default:
		raw = []string{fmt.Sprint(t)}
	}

	out := []string{}
	for _, item := range raw {
		item = strings.TrimSpace(item)
		// "- [x] done" carries two markers.
		for i := 0; i < 2; i++ {
			item = strings.TrimSpace(checklistMarker.ReplaceAllString(item, ""))
		}
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	return strings.Trim(slugInvalid.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func firstString(f Fields, keys ...string) string {
	for _, k := range keys {
		if v := f.String(k); v != "" {
			return v
		}
	}
	return ""
}
