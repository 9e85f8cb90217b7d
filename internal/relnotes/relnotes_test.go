package relnotes

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/fpgadoc/fpgadoc/internal/config"
)

// fakeResolver maps tags to fixed timestamps without a real repository.
type fakeResolver struct {
	tags map[string]time.Time
}

func (f *fakeResolver) ResolveTagTime(tag string) (time.Time, error) {
	when, ok := f.tags[tag]
	if !ok {
		return time.Time{}, fmt.Errorf("failed to resolve tag %s: not found", tag)
	}
	return when, nil
}

func notesConfig() config.NotesConfig {
	return config.NotesConfig{
		CompareBaseURL: "https://gitlab.com/example/project/-/compare",
		UnreleasedDate: "YYYY-MM-DD",
		TagPrefix:      "v",
	}
}

func writeNotes(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func TestCollectOrdering(t *testing.T) {
	dir := writeNotes(t, map[string]string{
		"unreleased.rst": "Nothing yet.\n",
		"7.1.0.rst":      "Fixes.\n",
		"8.0.0.rst":      "Breaking changes.\n",
		"6.0.0.rst":      "Old.\n",
	})
	resolver := &fakeResolver{tags: map[string]time.Time{
		"v6.0.0": time.Date(2022, time.May, 5, 0, 0, 0, 0, time.UTC),
		"v7.1.0": time.Date(2023, time.January, 15, 0, 0, 0, 0, time.UTC),
		"v8.0.0": time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC),
	}}

	entries, err := NewAssembler(dir, notesConfig(), resolver).Collect()
	require.NoError(t, err)

	require.Len(t, entries, 4)
	assert.Equal(t, UnreleasedVersion, entries[0].Version)
	assert.Equal(t, UnreleasedTag, entries[0].Tag)
	assert.Equal(t, "YYYY-MM-DD", entries[0].Date)
	assert.Equal(t, "8.0.0", entries[1].Version)
	assert.Equal(t, "7.1.0", entries[2].Version)
	assert.Equal(t, "6.0.0", entries[3].Version)
	assert.Equal(t, "2 march 2024", entries[1].Date)
}

func TestCollectNumericOrdering(t *testing.T) {
	// 2.10.0 must sort above 2.9.0 even though lexicographic order disagrees.
	dir := writeNotes(t, map[string]string{
		"unreleased.rst": "wip\n",
		"2.9.0.rst":      "old\n",
		"2.10.0.rst":     "new\n",
	})
	resolver := &fakeResolver{tags: map[string]time.Time{
		"v2.9.0":  time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC),
		"v2.10.0": time.Date(2023, time.August, 1, 0, 0, 0, 0, time.UTC),
	}}

	entries, err := NewAssembler(dir, notesConfig(), resolver).Collect()
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, "2.10.0", entries[1].Version)
	assert.Equal(t, "2.9.0", entries[2].Version)
}

func TestPreviousReleaseLinks(t *testing.T) {
	dir := writeNotes(t, map[string]string{
		"unreleased.rst": "wip\n",
		"8.0.0.rst":      "new\n",
		"7.1.0.rst":      "old\n",
	})
	resolver := &fakeResolver{tags: map[string]time.Time{
		"v7.1.0": time.Date(2023, time.January, 15, 0, 0, 0, 0, time.UTC),
		"v8.0.0": time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC),
	}}

	entries, err := NewAssembler(dir, notesConfig(), resolver).Collect()
	require.NoError(t, err)

	// Every entry except the oldest links to the next-older tag.
	assert.Equal(t, "v8.0.0", entries[0].PreviousTag)
	assert.Equal(t, "v7.1.0", entries[1].PreviousTag)
	assert.Equal(t, "", entries[2].PreviousTag)
}

func TestAssembleDocument(t *testing.T) {
	dir := writeNotes(t, map[string]string{
		"unreleased.rst": "Nothing yet.\n",
		"8.0.0.rst":      "Breaking changes.\n",
	})
	resolver := &fakeResolver{tags: map[string]time.Time{
		"v8.0.0": time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC),
	}}
	asm := NewAssembler(dir, notesConfig(), resolver)

	doc, err := asm.Run()
	require.NoError(t, err)

	heading := "Unreleased (YYYY-MM-DD)"
	assert.True(t, strings.HasPrefix(doc, heading+"\n"+strings.Repeat("-", len(heading))+"\n"),
		"document must start with the underlined unreleased heading:\n%s", doc)
	assert.Contains(t, doc, "8.0.0 (2 march 2024)")
	assert.Contains(t, doc,
		"`Changes since previous release <https://gitlab.com/example/project/-/compare/v8.0.0...master>`__")
	assert.Contains(t, doc, "Breaking changes.")

	// The oldest release must not carry a diff link.
	idx := strings.Index(doc, "8.0.0 (")
	require.GreaterOrEqual(t, idx, 0)
	assert.NotContains(t, doc[idx:], "Changes since previous release")

	// Unreleased content precedes released content.
	assert.Less(t, strings.Index(doc, "Nothing yet."), strings.Index(doc, "Breaking changes."))
}

func TestAssembleIdempotent(t *testing.T) {
	dir := writeNotes(t, map[string]string{
		"unreleased.rst": "wip\n",
		"8.0.0.rst":      "new\n",
		"7.1.0.rst":      "old\n",
	})
	resolver := &fakeResolver{tags: map[string]time.Time{
		"v7.1.0": time.Date(2023, time.January, 15, 0, 0, 0, 0, time.UTC),
		"v8.0.0": time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC),
	}}
	asm := NewAssembler(dir, notesConfig(), resolver)

	first, err := asm.Run()
	require.NoError(t, err)
	second, err := asm.Run()
	require.NoError(t, err)

	assert.Equal(t, first, second, "assembly must be byte-identical across runs")
}

func TestUnresolvableTagIsFatal(t *testing.T) {
	dir := writeNotes(t, map[string]string{
		"unreleased.rst": "wip\n",
		"8.0.0.rst":      "new\n",
	})
	asm := NewAssembler(dir, notesConfig(), &fakeResolver{tags: map[string]time.Time{}})

	_, err := asm.Collect()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "v8.0.0")
}

func TestMissingUnreleasedFile(t *testing.T) {
	dir := writeNotes(t, map[string]string{
		"8.0.0.rst": "new\n",
	})
	asm := NewAssembler(dir, notesConfig(), &fakeResolver{tags: map[string]time.Time{
		"v8.0.0": time.Now(),
	}})

	_, err := asm.Collect()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreleased")
}

func TestDuplicateVersionStemsRejected(t *testing.T) {
	dir := writeNotes(t, map[string]string{
		"unreleased.rst": "wip\n",
		"8.0.0.rst":      "rst notes\n",
		"8.0.0.md":       "md notes\n",
	})
	asm := NewAssembler(dir, notesConfig(), &fakeResolver{tags: map[string]time.Time{
		"v8.0.0": time.Now(),
	}})

	_, err := asm.Collect()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate release notes for 8.0.0")
}

func TestDuplicateUnreleasedStemRejected(t *testing.T) {
	dir := writeNotes(t, map[string]string{
		"unreleased.rst": "wip\n",
		"unreleased.md":  "wip too\n",
	})
	asm := NewAssembler(dir, notesConfig(), &fakeResolver{tags: map[string]time.Time{}})

	_, err := asm.Collect()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate release notes for unreleased")
}

func TestCompareVersions(t *testing.T) {
	cases := []struct {
		a, b string
		want int // sign only
	}{
		{"8.0.0", "7.9.9", 1},
		{"2.10.0", "2.9.0", 1},
		{"2.9.0", "2.9.0", 0},
		{"2.9.0", "2.9.1", -1},
		{"2.9", "2.9.0", -1},
		{"2.9.0-rc1", "2.9.0", 1}, // non-numeric component falls back to string order
	}
	for _, tc := range cases {
		got := compareVersions(tc.a, tc.b)
		switch {
		case tc.want > 0:
			assert.Positive(t, got, "%s vs %s", tc.a, tc.b)
		case tc.want < 0:
			assert.Negative(t, got, "%s vs %s", tc.a, tc.b)
		default:
			assert.Zero(t, got, "%s vs %s", tc.a, tc.b)
		}
	}
}

func TestRenderPreview(t *testing.T) {
	html, err := RenderPreview("# Changelog\n\nsome *notes*\n")
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>Changelog</h1>")
	assert.Contains(t, html, "<em>notes</em>")
}
