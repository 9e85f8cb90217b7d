// Package relnotes assembles per-version release note files into one
// newest-first document with resolved release dates and inter-version
// diff links.
package relnotes

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gitlab.com/fpgadoc/fpgadoc/internal/config"
	"gitlab.com/fpgadoc/fpgadoc/internal/gitrepo"
	"gitlab.com/fpgadoc/fpgadoc/internal/logfields"
)

// UnreleasedVersion is the sentinel version shown for notes not yet tagged.
const UnreleasedVersion = "Unreleased"

// UnreleasedTag is the moving ref the unreleased entry diffs against.
const UnreleasedTag = "master"

// unreleasedStem is the filename stem of the unreleased notes file.
const unreleasedStem = "unreleased"

// Entry is one release in the assembled document. Entries are constructed
// once per documentation build and never mutated afterwards.
type Entry struct {
	Version string
	Tag     string
	Date    string
	File    string
	// PreviousTag is the tag of the next-older release; empty for the oldest.
	PreviousTag string
}

// Assembler collects and concatenates release note files.
type Assembler struct {
	dir      string
	cfg      config.NotesConfig
	resolver gitrepo.TagResolver
}

// NewAssembler creates an assembler over the given notes directory. The
// resolver dates released entries from their git tags.
func NewAssembler(dir string, cfg config.NotesConfig, resolver gitrepo.TagResolver) *Assembler {
	return &Assembler{dir: dir, cfg: cfg, resolver: resolver}
}

// Collect enumerates the note files and returns entries ordered newest first
// with the unreleased entry pinned at position 0. Tag lookup failures are
// fatal and propagated unmodified.
func (a *Assembler) Collect() ([]Entry, error) {
	stems, unreleasedFile, err := a.listNoteFiles()
	if err != nil {
		return nil, err
	}
	if unreleasedFile == "" {
		return nil, fmt.Errorf("unreleased notes file missing in %s", a.dir)
	}

	// Versioned files sorted newest -> oldest. Version components are
	// compared numerically so 2.10.0 orders above 2.9.0.
	sort.Slice(stems, func(i, j int) bool {
		return compareVersions(stemOf(stems[i]), stemOf(stems[j])) > 0
	})

	entries := make([]Entry, 0, len(stems)+1)
	entries = append(entries, Entry{
		Version: UnreleasedVersion,
		Tag:     UnreleasedTag,
		Date:    a.cfg.UnreleasedDate,
		File:    unreleasedFile,
	})

	for _, file := range stems {
		version := stemOf(file)
		tag := a.cfg.TagPrefix + version
		when, err := a.resolver.ResolveTagTime(tag)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			Version: version,
			Tag:     tag,
			Date:    formatReleaseDate(when),
			File:    file,
		})
	}

	// Every entry except the oldest links to the next-older release.
	for i := 0; i < len(entries)-1; i++ {
		entries[i].PreviousTag = entries[i+1].Tag
	}

	slog.Debug("Collected release notes", logfields.Path(a.dir), slog.Int("entries", len(entries)))
	return entries, nil
}

// Assemble concatenates the entries into one document, newest first.
// Output is deterministic: the same directory contents produce byte-identical
// documents across runs.
func (a *Assembler) Assemble(entries []Entry) (string, error) {
	var sb strings.Builder

	for _, entry := range entries {
		heading := fmt.Sprintf("%s (%s)", entry.Version, entry.Date)
		sb.WriteString(heading)
		sb.WriteByte('\n')
		sb.WriteString(strings.Repeat("-", len(heading)))
		sb.WriteString("\n\n")

		if entry.PreviousTag != "" {
			diffURL := fmt.Sprintf("%s/%s...%s", a.cfg.CompareBaseURL, entry.PreviousTag, entry.Tag)
			sb.WriteString(fmt.Sprintf("`Changes since previous release <%s>`__\n", diffURL))
		}
		sb.WriteByte('\n')

		body, err := os.ReadFile(entry.File)
		if err != nil {
			return "", fmt.Errorf("failed to read release notes %s: %w", entry.File, err)
		}
		sb.Write(body)
		sb.WriteByte('\n')
	}

	return sb.String(), nil
}

// Run collects and assembles in one step.
func (a *Assembler) Run() (string, error) {
	entries, err := a.Collect()
	if err != nil {
		return "", err
	}
	return a.Assemble(entries)
}

// listNoteFiles returns the versioned note files and the unreleased file.
// A version present under more than one extension is rejected: it would
// produce two entries for the same release.
func (a *Assembler) listNoteFiles() (versioned []string, unreleased string, err error) {
	seen := make(map[string]string)
	for _, pattern := range []string{"*.rst", "*.md"} {
		matches, gerr := filepath.Glob(filepath.Join(a.dir, pattern))
		if gerr != nil {
			return nil, "", gerr
		}
		for _, m := range matches {
			stem := stemOf(m)
			if prev, dup := seen[stem]; dup {
				return nil, "", fmt.Errorf("duplicate release notes for %s: %s and %s",
					stem, filepath.Base(prev), filepath.Base(m))
			}
			seen[stem] = m
			if stem == unreleasedStem {
				unreleased = m
				continue
			}
			versioned = append(versioned, m)
		}
	}
	return versioned, unreleased, nil
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// formatReleaseDate renders a commit timestamp as e.g. "2 march 2024":
// day without leading zero, full month name lower-cased, year.
func formatReleaseDate(when time.Time) string {
	return fmt.Sprintf("%d %s %d", when.Day(), strings.ToLower(when.Month().String()), when.Year())
}

// compareVersions compares dot-separated version strings component-wise,
// numerically where both components are numeric. Returns <0, 0, >0.
func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		var ac, bc string
		if i < len(as) {
			ac = as[i]
		}
		if i < len(bs) {
			bc = bs[i]
		}
		ai, aok := atoi(ac)
		bi, bok := atoi(bc)
		switch {
		case aok && bok:
			if ai != bi {
				return ai - bi
			}
		default:
			if c := strings.Compare(ac, bc); c != 0 {
				return c
			}
		}
	}
	return 0
}

func atoi(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
