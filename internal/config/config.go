// Package config holds the explicit configuration object passed to every
// component at construction. The tool deliberately has no ambient global
// paths: everything the build and verify flows touch is declared here.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	fperrors "gitlab.com/fpgadoc/fpgadoc/internal/errors"
)

// Config represents the application configuration
type Config struct {
	Paths    PathsConfig     `yaml:"paths"`
	Sphinx   SphinxConfig    `yaml:"sphinx"`
	Notes    NotesConfig     `yaml:"notes"`
	Coverage CoverageConfig  `yaml:"coverage"`
	Badges   []BadgeConfig   `yaml:"badges,omitempty"`
	Projects []ProjectConfig `yaml:"projects,omitempty"`
	Output   OutputConfig    `yaml:"output"`
	Daemon   DaemonConfig    `yaml:"daemon,omitempty"`
}

// PathsConfig locates the repository trees the documentation build reads.
type PathsConfig struct {
	RepoRoot        string `yaml:"repo_root"`
	DocDir          string `yaml:"doc_dir,omitempty"`
	ReleaseNotesDir string `yaml:"release_notes_dir,omitempty"`
	GeneratedDir    string `yaml:"generated_dir,omitempty"`
	Readme          string `yaml:"readme,omitempty"`
}

// SphinxConfig controls the external documentation generator invocation.
type SphinxConfig struct {
	Binary string   `yaml:"binary,omitempty"`
	Args   []string `yaml:"args,omitempty"`
	// Apidoc is the optional API-doc generation command run before sphinx,
	// e.g. ["sphinx-apidoc", "-o", "generated/sphinx/apidoc", "fpga"].
	Apidoc []string `yaml:"apidoc,omitempty"`
}

// NotesConfig controls release notes assembly.
type NotesConfig struct {
	// CompareBaseURL is the forge compare endpoint prefix used for
	// "changes since previous release" diff links, e.g.
	// "https://gitlab.com/fpgadoc/fpgadoc/-/compare".
	CompareBaseURL string `yaml:"compare_base_url"`
	// UnreleasedDate is the placeholder date shown for the unreleased entry.
	UnreleasedDate string `yaml:"unreleased_date,omitempty"`
	// TagPrefix is prepended to a version to form its git tag.
	TagPrefix string `yaml:"tag_prefix,omitempty"`
}

// CoverageConfig controls coverage report handling and the coverage badge.
type CoverageConfig struct {
	XMLPath        string `yaml:"xml_path,omitempty"`
	HTMLDir        string `yaml:"html_dir,omitempty"`
	MinimumPercent int    `yaml:"minimum_percent,omitempty"`
	HighPercent    int    `yaml:"high_percent,omitempty"`
	LinkURL        string `yaml:"link_url,omitempty"`
}

// BadgeConfig describes one static information badge.
type BadgeConfig struct {
	Name  string `yaml:"name"`
	Left  string `yaml:"left"`
	Right string `yaml:"right"`
	Color string `yaml:"color,omitempty"`
}

// ProjectConfig describes one hardware build variant for the verifier.
type ProjectConfig struct {
	Name string `yaml:"name"`
	// Build is the external build command; project name and path flags are
	// appended by the driver.
	Build     []string `yaml:"build"`
	Part      string   `yaml:"part,omitempty"`
	SynthOnly bool     `yaml:"synth_only,omitempty"`
}

// OutputConfig represents site output configuration
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // Clean output directory before build
}

// DaemonConfig controls continuous-rebuild mode.
type DaemonConfig struct {
	RebuildInterval time.Duration `yaml:"rebuild_interval,omitempty"`
	MetricsListen   string        `yaml:"metrics_listen,omitempty"`
	NATSURL         string        `yaml:"nats_url,omitempty"`
	NATSSubject     string        `yaml:"nats_subject,omitempty"`
	HistoryDB       string        `yaml:"history_db,omitempty"`
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist, just log it
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fperrors.ConfigNotFound(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&config)

	if err := ValidateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Paths: PathsConfig{
			RepoRoot: ".",
		},
		Notes: NotesConfig{
			CompareBaseURL: "https://gitlab.com/example/project/-/compare",
		},
		Coverage: CoverageConfig{
			LinkURL: "https://example.com/coverage_html",
		},
		Badges: []BadgeConfig{
			{Name: "go_install", Left: "go install", Right: "fpgadoc", Color: "blue"},
			{Name: "license", Left: "license", Right: "BSD 3-Clause", Color: "blue"},
		},
		Projects: []ProjectConfig{
			{
				Name:  "artyz7",
				Build: []string{"python3", "examples/build.py"},
				Part:  "xc7z020clg400-1",
			},
		},
		Output: OutputConfig{
			Clean: true,
		},
	}
	applyDefaults(&exampleConfig)

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GeneratedSourceDir returns the directory where generated documentation
// sources (release notes, index, apidoc) are written before sphinx runs.
func (c *Config) GeneratedSourceDir() string {
	return filepath.Join(c.Paths.GeneratedDir, "sphinx")
}

// SphinxSourceDir returns the hand-written sphinx source tree.
func (c *Config) SphinxSourceDir() string {
	return filepath.Join(c.Paths.DocDir, "sphinx")
}

// Project returns the named project configuration, or an error when absent.
func (c *Config) Project(name string) (*ProjectConfig, error) {
	for i := range c.Projects {
		if c.Projects[i].Name == name {
			return &c.Projects[i], nil
		}
	}
	return nil, fmt.Errorf("project '%s' not found in configuration", name)
}
