// Package docsite builds the full documentation site: release notes assembly,
// API doc generation, sphinx execution, badges and coverage publication. The
// build runs as an ordered stage pipeline with per-stage timing and a
// persisted report.
package docsite

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"

	"gitlab.com/fpgadoc/fpgadoc/internal/badges"
	"gitlab.com/fpgadoc/fpgadoc/internal/config"
	"gitlab.com/fpgadoc/fpgadoc/internal/coverage"
	fperrors "gitlab.com/fpgadoc/fpgadoc/internal/errors"
	"gitlab.com/fpgadoc/fpgadoc/internal/gitrepo"
	"gitlab.com/fpgadoc/fpgadoc/internal/logfields"
	"gitlab.com/fpgadoc/fpgadoc/internal/metrics"
	"gitlab.com/fpgadoc/fpgadoc/internal/observability"
	"gitlab.com/fpgadoc/fpgadoc/internal/relnotes"
)

// Generator orchestrates the documentation site build.
type Generator struct {
	cfg          *config.Config
	outputDir    string
	resolver     gitrepo.TagResolver
	recorder     metrics.Recorder
	skipCoverage bool
}

// NewGenerator creates a site generator writing into outputDir.
func NewGenerator(cfg *config.Config, outputDir string) *Generator {
	return &Generator{
		cfg:       cfg,
		outputDir: outputDir,
		recorder:  metrics.NoopRecorder{},
	}
}

// SetRecorder installs a metrics recorder. Optional.
func (g *Generator) SetRecorder(rec metrics.Recorder) *Generator {
	if rec != nil {
		g.recorder = rec
	}
	return g
}

// SetTagResolver overrides the git tag resolver. When unset, the repository
// at paths.repo_root is opened lazily during the release notes stage.
func (g *Generator) SetTagResolver(resolver gitrepo.TagResolver) *Generator {
	g.resolver = resolver
	return g
}

// SetSkipCoverage disables the coverage stage for builds where no test run
// preceded the documentation build.
func (g *Generator) SetSkipCoverage(skip bool) *Generator {
	g.skipCoverage = skip
	return g
}

// Build runs the full pipeline and returns the build report. The report is
// returned even when the build fails so issues can be inspected and stored.
func (g *Generator) Build(ctx context.Context) (*BuildReport, error) {
	report := newBuildReport(g.outputDir)
	ctx = observability.WithBuildID(ctx, report.BuildID)
	observability.InfoContext(ctx, "Starting documentation build",
		logfields.Path(g.outputDir))

	bs := newBuildState(g, report)
	stages := []StageDef{
		{Name: StagePrepareOutput, Fn: g.stagePrepareOutput},
		{Name: StageReleaseNotes, Fn: g.stageReleaseNotes},
		{Name: StageApidoc, Fn: g.stageApidoc},
		{Name: StageIndex, Fn: g.stageIndex},
		{Name: StageRunSphinx, Fn: g.stageRunSphinx},
		{Name: StageBadges, Fn: g.stageBadges},
		{Name: StageCoverage, Fn: g.stageCoverage},
	}

	runErr := runStages(ctx, bs, stages)
	if se, ok := runErr.(*StageError); ok && se.Kind == StageErrorFatal {
		runErr = fperrors.BuildFailed(string(se.Stage), se.Err)
	}
	report.finish()
	g.recorder.ObserveBuildDuration(report.Duration)
	g.recorder.IncBuildOutcome(string(report.Outcome))

	if persistErr := report.Persist(g.outputDir); persistErr != nil {
		observability.WarnContext(ctx, "Failed to persist build report",
			logfields.Error(persistErr))
	}

	observability.InfoContext(ctx, "Documentation build finished",
		logfields.Outcome(string(report.Outcome)),
		logfields.DurationMS(float64(report.Duration.Milliseconds())))
	return report, runErr
}

func (g *Generator) stagePrepareOutput(ctx context.Context, bs *BuildState) error {
	if g.cfg.Output.Clean {
		if err := os.RemoveAll(g.outputDir); err != nil {
			return fperrors.WorkspaceError("clean output directory", err)
		}
	}
	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return fperrors.WorkspaceError("create output directory", err)
	}
	if err := os.MkdirAll(g.cfg.GeneratedSourceDir(), 0o755); err != nil {
		return fperrors.WorkspaceError("create generated source directory", err)
	}
	return nil
}

func (g *Generator) stageReleaseNotes(ctx context.Context, bs *BuildState) error {
	if g.resolver == nil {
		resolver, err := gitrepo.Open(g.cfg.Paths.RepoRoot)
		if err != nil {
			return err
		}
		g.resolver = resolver
	}
	assembler := relnotes.NewAssembler(g.cfg.Paths.ReleaseNotesDir, g.cfg.Notes, g.resolver)
	entries, err := assembler.Collect()
	if err != nil {
		return err
	}
	doc, err := assembler.Assemble(entries)
	if err != nil {
		return err
	}

	ext := ".rst"
	if notesAreMarkdown(entries) {
		ext = ".md"
	}
	target := filepath.Join(g.cfg.GeneratedSourceDir(), "release_notes"+ext)
	if err := os.WriteFile(target, []byte(doc), 0o644); err != nil {
		return fperrors.WorkspaceError("write release notes", err)
	}

	// Markdown notes additionally get a standalone HTML changelog in the
	// site output; RST documents are rendered by sphinx itself.
	if ext == ".md" {
		html, perr := relnotes.RenderPreview(doc)
		if perr != nil {
			return fperrors.WorkspaceError("render changelog preview", perr)
		}
		preview := filepath.Join(g.outputDir, "changelog.html")
		if werr := os.WriteFile(preview, []byte(html), 0o644); werr != nil {
			return fperrors.WorkspaceError("write changelog preview", werr)
		}
	}
	observability.DebugContext(ctx, "Assembled release notes", logfields.Path(target))
	return nil
}

// notesAreMarkdown reports whether every collected note file is markdown.
func notesAreMarkdown(entries []relnotes.Entry) bool {
	if len(entries) == 0 {
		return false
	}
	for _, entry := range entries {
		if filepath.Ext(entry.File) != ".md" {
			return false
		}
	}
	return true
}

func (g *Generator) stageApidoc(ctx context.Context, bs *BuildState) error {
	apidoc := g.cfg.Sphinx.Apidoc
	if len(apidoc) == 0 {
		observability.DebugContext(ctx, "No apidoc command configured, skipping")
		return nil
	}
	cmd := exec.CommandContext(ctx, apidoc[0], apidoc[1:]...)
	cmd.Dir = g.cfg.Paths.RepoRoot
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fperrors.SphinxExecutionError(
			fmt.Errorf("apidoc command failed: %w: %s", err, string(out)))
	}
	return nil
}

func (g *Generator) stageIndex(ctx context.Context, bs *BuildState) error {
	readme := g.cfg.Paths.Readme
	data, err := os.ReadFile(readme)
	if err != nil {
		return fperrors.WorkspaceError("read readme for index page", err)
	}
	name := "index" + filepath.Ext(readme)
	target := filepath.Join(g.cfg.GeneratedSourceDir(), name)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fperrors.WorkspaceError("write index page", err)
	}
	return nil
}

func (g *Generator) stageRunSphinx(ctx context.Context, bs *BuildState) error {
	args := append([]string{}, g.cfg.Sphinx.Args...)
	args = append(args, g.cfg.SphinxSourceDir(), g.outputDir)

	cmd := exec.CommandContext(ctx, g.cfg.Sphinx.Binary, args...)
	cmd.Dir = g.cfg.Paths.RepoRoot
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	observability.InfoContext(ctx, "Running documentation generator",
		logfields.Name(g.cfg.Sphinx.Binary))
	if err := cmd.Run(); err != nil {
		return fperrors.SphinxExecutionError(err)
	}

	index := filepath.Join(g.outputDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		return fperrors.SphinxExecutionError(
			fmt.Errorf("generator produced no index page at %s", index))
	}
	return nil
}

func (g *Generator) stageBadges(ctx context.Context, bs *BuildState) error {
	badgeDir := filepath.Join(g.outputDir, "badges")
	if err := os.MkdirAll(badgeDir, 0o755); err != nil {
		return fperrors.WorkspaceError("create badge directory", err)
	}
	for _, bc := range g.cfg.Badges {
		badge := badges.Badge{
			Left:       bc.Left,
			Right:      bc.Right,
			RightColor: badges.Fill(bc.Color),
		}
		if err := badges.Write(badgeDir, bc.Name, badge); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) stageCoverage(ctx context.Context, bs *BuildState) error {
	if g.skipCoverage {
		bs.Report.CoverageSkipped = true
		observability.InfoContext(ctx, "Coverage stage skipped by request")
		return nil
	}

	cov := g.cfg.Coverage
	summary, err := coverage.Load(cov.XMLPath, cov.MinimumPercent, cov.HighPercent)
	if err != nil {
		return err
	}
	bs.Report.CoveragePercent = summary.Percent
	g.recorder.SetCoveragePercent(float64(summary.Percent))

	color := badges.Fill("red")
	if summary.High {
		color = badges.Fill("green")
	}
	badge := badges.Badge{
		Left:       "line coverage",
		Right:      fmt.Sprintf("%d%%", summary.Percent),
		RightColor: color,
		LeftLink:   cov.LinkURL,
		RightLink:  cov.LinkURL,
	}
	badgeDir := filepath.Join(g.outputDir, "badges")
	if err := badges.Write(badgeDir, "line_coverage", badge); err != nil {
		return err
	}

	if cov.HTMLDir == "" {
		return nil
	}
	if _, err := os.Stat(filepath.Join(cov.HTMLDir, "index.html")); err != nil {
		return fperrors.CoveragePreconditionError(cov.HTMLDir)
	}
	target := filepath.Join(g.outputDir, "coverage_html")
	if err := copyTree(cov.HTMLDir, target); err != nil {
		return fperrors.WorkspaceError("publish coverage report", err)
	}
	return nil
}

// copyTree recursively copies the regular files under src into dst,
// preserving relative layout.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
