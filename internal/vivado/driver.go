// Package vivado drives an external FPGA build command and classifies its
// outcome from output artifacts and build-log markers. The toolchain itself
// is an opaque black box; everything here works on its filesystem side
// effects.
package vivado

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"gitlab.com/fpgadoc/fpgadoc/internal/config"
	"gitlab.com/fpgadoc/fpgadoc/internal/logfields"
)

// BuildSpec describes one build invocation.
type BuildSpec struct {
	Project     config.ProjectConfig
	ProjectPath string // directory the toolchain runs in and writes logs to
	OutputPath  string // directory receiving bitstream and binary image
}

// CommandError is a structured build failure carrying the triggering command.
type CommandError struct {
	Args []string
	Err  error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command failed: %s: %v", strings.Join(e.Args, " "), e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// BuildDriver isolates external process invocation so outcome classification
// can be unit-tested without the real toolchain.
type BuildDriver interface {
	Build(ctx context.Context, spec BuildSpec) error
}

// ExecDriver invokes the configured build command as an external process.
// The wait is synchronous; cancellation policy belongs to the caller's context.
type ExecDriver struct{}

// Build runs the project's build command with the fixed argument shape:
// the project name followed by project and output path flags.
func (ExecDriver) Build(ctx context.Context, spec BuildSpec) error {
	args := append([]string{}, spec.Project.Build...)
	args = append(args, spec.Project.Name,
		"--project-path", spec.ProjectPath,
		"--output-path", spec.OutputPath)
	if spec.Project.SynthOnly {
		args = append(args, "--synth-only")
	}

	slog.Info("Running build command",
		logfields.Project(spec.Project.Name),
		slog.String("command", strings.Join(args, " ")))

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = spec.ProjectPath
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		// Cancellation is not a toolchain failure; the verifier must see it
		// unwrapped instead of classifying a killed process from its log.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &CommandError{Args: args, Err: err}
	}
	return nil
}
