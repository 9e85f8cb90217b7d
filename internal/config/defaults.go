package config

import (
	"path/filepath"
	"time"
)

// applyDefaults fills zero values with the conventional repository layout.
func applyDefaults(cfg *Config) {
	if cfg.Paths.RepoRoot == "" {
		cfg.Paths.RepoRoot = "."
	}
	if cfg.Paths.DocDir == "" {
		cfg.Paths.DocDir = filepath.Join(cfg.Paths.RepoRoot, "doc")
	}
	if cfg.Paths.ReleaseNotesDir == "" {
		cfg.Paths.ReleaseNotesDir = filepath.Join(cfg.Paths.DocDir, "release_notes")
	}
	if cfg.Paths.GeneratedDir == "" {
		cfg.Paths.GeneratedDir = filepath.Join(cfg.Paths.RepoRoot, "generated")
	}
	if cfg.Paths.Readme == "" {
		cfg.Paths.Readme = filepath.Join(cfg.Paths.RepoRoot, "readme.rst")
	}

	if cfg.Sphinx.Binary == "" {
		cfg.Sphinx.Binary = "sphinx-build"
	}
	if len(cfg.Sphinx.Args) == 0 {
		cfg.Sphinx.Args = []string{"-EanWT"}
	}

	if cfg.Notes.UnreleasedDate == "" {
		cfg.Notes.UnreleasedDate = "YYYY-MM-DD"
	}
	if cfg.Notes.TagPrefix == "" {
		cfg.Notes.TagPrefix = "v"
	}

	if cfg.Coverage.XMLPath == "" {
		cfg.Coverage.XMLPath = filepath.Join(cfg.Paths.GeneratedDir, "coverage.xml")
	}
	if cfg.Coverage.HTMLDir == "" {
		cfg.Coverage.HTMLDir = filepath.Join(cfg.Paths.GeneratedDir, "coverage_html")
	}
	if cfg.Coverage.MinimumPercent == 0 {
		cfg.Coverage.MinimumPercent = 50
	}
	if cfg.Coverage.HighPercent == 0 {
		cfg.Coverage.HighPercent = 80
	}

	if cfg.Output.Directory == "" {
		cfg.Output.Directory = filepath.Join(cfg.Paths.GeneratedDir, "sphinx_html")
	}

	if cfg.Daemon.RebuildInterval == 0 {
		cfg.Daemon.RebuildInterval = time.Hour
	}
	if cfg.Daemon.NATSSubject == "" {
		cfg.Daemon.NATSSubject = "fpgadoc.builds"
	}
}
