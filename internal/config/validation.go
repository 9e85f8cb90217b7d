package config

import (
	"fmt"

	fperrors "gitlab.com/fpgadoc/fpgadoc/internal/errors"
)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

// validate performs configuration validation using domain-specific methods.
func (cv *configurationValidator) validate() error {
	if err := cv.validatePaths(); err != nil {
		return err
	}
	if err := cv.validateCoverage(); err != nil {
		return err
	}
	if err := cv.validateBadges(); err != nil {
		return err
	}
	if err := cv.validateProjects(); err != nil {
		return err
	}
	return nil
}

func (cv *configurationValidator) validatePaths() error {
	if cv.config.Paths.RepoRoot == "" {
		return fperrors.ValidationFailed("paths.repo_root", "cannot be empty")
	}
	return nil
}

func (cv *configurationValidator) validateCoverage() error {
	c := cv.config.Coverage
	if c.MinimumPercent < 0 || c.MinimumPercent > 100 {
		return fperrors.ValidationFailed("coverage.minimum_percent",
			fmt.Sprintf("out of range: %d", c.MinimumPercent))
	}
	if c.HighPercent < 0 || c.HighPercent > 100 {
		return fperrors.ValidationFailed("coverage.high_percent",
			fmt.Sprintf("out of range: %d", c.HighPercent))
	}
	if c.HighPercent < c.MinimumPercent {
		return fperrors.ValidationFailed("coverage.high_percent",
			fmt.Sprintf("(%d) below minimum_percent (%d)", c.HighPercent, c.MinimumPercent))
	}
	return nil
}

func (cv *configurationValidator) validateBadges() error {
	names := make(map[string]bool)
	for _, b := range cv.config.Badges {
		if b.Name == "" {
			return fperrors.ValidationFailed("badges", "badge name cannot be empty")
		}
		if names[b.Name] {
			return fperrors.ValidationFailed("badges",
				fmt.Sprintf("duplicate badge name: %s", b.Name))
		}
		names[b.Name] = true
	}
	return nil
}

func (cv *configurationValidator) validateProjects() error {
	names := make(map[string]bool)
	for _, p := range cv.config.Projects {
		if p.Name == "" {
			return fperrors.ValidationFailed("projects", "project name cannot be empty")
		}
		if names[p.Name] {
			return fperrors.ValidationFailed("projects",
				fmt.Sprintf("duplicate project name: %s", p.Name))
		}
		names[p.Name] = true
		if len(p.Build) == 0 {
			return fperrors.ValidationFailed("projects",
				fmt.Sprintf("project %s: build command cannot be empty", p.Name))
		}
	}
	return nil
}
