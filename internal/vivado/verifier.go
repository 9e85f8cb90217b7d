package vivado

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	fperrors "gitlab.com/fpgadoc/fpgadoc/internal/errors"
	"gitlab.com/fpgadoc/fpgadoc/internal/logfields"
	"gitlab.com/fpgadoc/fpgadoc/internal/metrics"
)

// Log marker substrings emitted by the build flow. Classification of a failed
// build rests entirely on these literals appearing in the log file.
const (
	MarkerSynthFailed   = "ERROR: Run synth_1 failed."
	MarkerClockCrossing = "ERROR: Unhandled clock crossing in synth_1 run."
	MarkerTimingNotOK   = "ERROR: Timing not OK after implementation run."
)

// LogFileName is the build log the toolchain writes into the project path.
const LogFileName = "vivado.log"

// Outcome is the terminal classification of one build. Exactly one outcome
// is derivable per run; the classes are mutually exclusive.
type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomeSynthFailure  Outcome = "synth_failure"
	OutcomeClockCrossing Outcome = "clock_crossing_failure"
	OutcomeTimingFailure Outcome = "timing_failure"
)

// Result reports what a verification run concluded.
type Result struct {
	Outcome Outcome
	// Artifacts lists the expected files whose presence was verified.
	Artifacts []string
	// BuildErr holds the structured command failure for non-success outcomes.
	BuildErr error
}

// Verifier runs one build via a driver and asserts the expected filesystem
// side effects. No retries: a failed build is terminal for the run.
type Verifier struct {
	driver   BuildDriver
	recorder metrics.Recorder
}

// NewVerifier creates a verifier using the given driver.
func NewVerifier(driver BuildDriver) *Verifier {
	return &Verifier{driver: driver, recorder: metrics.NoopRecorder{}}
}

// WithRecorder injects a metrics recorder (fluent helper).
func (v *Verifier) WithRecorder(r metrics.Recorder) *Verifier {
	v.recorder = r
	return v
}

// Verify builds the project and classifies the result. A build failure whose
// log matches no known marker is an error, as is any missing expected artifact.
func (v *Verifier) Verify(ctx context.Context, spec BuildSpec) (*Result, error) {
	buildErr := v.driver.Build(ctx, spec)

	result, err := v.classify(spec, buildErr)
	if err != nil {
		return nil, err
	}

	v.recorder.IncVerifyOutcome(spec.Project.Name, string(result.Outcome))
	slog.Info("Build verified",
		logfields.Project(spec.Project.Name),
		logfields.Outcome(string(result.Outcome)),
		slog.Int("artifacts", len(result.Artifacts)))
	return result, nil
}

func (v *Verifier) classify(spec BuildSpec, buildErr error) (*Result, error) {
	runsDir := filepath.Join(spec.ProjectPath, spec.Project.Name+".runs")

	if buildErr == nil {
		artifacts, err := v.successArtifacts(spec, runsDir)
		if err != nil {
			return nil, err
		}
		return &Result{Outcome: OutcomeSuccess, Artifacts: artifacts}, nil
	}

	var cmdErr *CommandError
	if !errors.As(buildErr, &cmdErr) {
		// Not a process failure (e.g. context canceled): propagate as-is.
		return nil, buildErr
	}

	logPath := filepath.Join(spec.ProjectPath, LogFileName)
	logData, err := os.ReadFile(logPath)
	if err != nil {
		return nil, fperrors.VivadoBuildError(spec.Project.Name,
			fmt.Errorf("build failed and log is unreadable: %w (build error: %v)", err, buildErr))
	}

	outcome, expected, cerr := ClassifyFailure(string(logData), runsDir)
	if cerr != nil {
		return nil, fperrors.VivadoBuildError(spec.Project.Name,
			fmt.Errorf("%w (build error: %v)", cerr, buildErr))
	}

	artifacts, err := assertPresent(expected)
	if err != nil {
		return nil, err
	}
	return &Result{Outcome: outcome, Artifacts: artifacts, BuildErr: buildErr}, nil
}

// successArtifacts returns the artifact set a successful build must produce.
func (v *Verifier) successArtifacts(spec BuildSpec, runsDir string) ([]string, error) {
	if spec.Project.SynthOnly {
		return assertPresent([]string{
			filepath.Join(runsDir, "synth_1", "hierarchical_utilization.rpt"),
		})
	}

	required := []string{
		filepath.Join(spec.OutputPath, spec.Project.Name+".bit"),
		filepath.Join(spec.OutputPath, spec.Project.Name+".bin"),
		filepath.Join(runsDir, "impl_1", "hierarchical_utilization.rpt"),
	}
	artifacts, err := assertPresent(required)
	if err != nil {
		return nil, err
	}

	// The hardware-description export is optional; record it when present.
	hdf := filepath.Join(spec.OutputPath, spec.Project.Name+".hdf")
	if fileExists(hdf) {
		artifacts = append(artifacts, hdf)
	}
	return artifacts, nil
}

// ClassifyFailure maps a build log to a failure outcome and the partial
// artifacts that outcome implies. The marker set is closed: a log matching
// none of them cannot be classified.
func ClassifyFailure(logText, runsDir string) (Outcome, []string, error) {
	switch {
	case strings.Contains(logText, MarkerClockCrossing):
		return OutcomeClockCrossing, []string{
			filepath.Join(runsDir, "synth_1", "clock_interaction.rpt"),
			filepath.Join(runsDir, "synth_1", "timing_summary.rpt"),
		}, nil
	case strings.Contains(logText, MarkerTimingNotOK):
		return OutcomeTimingFailure, []string{
			filepath.Join(runsDir, "impl_1", "timing_summary.rpt"),
		}, nil
	case strings.Contains(logText, MarkerSynthFailed):
		return OutcomeSynthFailure, nil, nil
	default:
		return "", nil, fmt.Errorf("build log matches no known failure marker")
	}
}

func assertPresent(paths []string) ([]string, error) {
	for _, p := range paths {
		if !fileExists(p) {
			return nil, fmt.Errorf("expected artifact missing: %s", p)
		}
	}
	return paths, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

