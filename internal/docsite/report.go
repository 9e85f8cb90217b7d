package docsite

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	fperrors "gitlab.com/fpgadoc/fpgadoc/internal/errors"
	"gitlab.com/fpgadoc/fpgadoc/internal/metrics"
)

// BuildOutcome is the overall verdict of a site build.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// Issue is a single recorded stage problem, serializable for the report file.
type Issue struct {
	Stage    string `json:"stage"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// BuildReport aggregates the outcome of one documentation build.
type BuildReport struct {
	BuildID         string                   `json:"build_id"`
	StartedAt       time.Time                `json:"started_at"`
	FinishedAt      time.Time                `json:"finished_at"`
	Duration        time.Duration            `json:"duration_ns"`
	Outcome         BuildOutcome             `json:"outcome"`
	StageDurations  map[string]time.Duration `json:"stage_durations_ns"`
	Issues          []Issue                  `json:"issues,omitempty"`
	CoveragePercent int                      `json:"coverage_percent"`
	CoverageSkipped bool                     `json:"coverage_skipped"`
	OutputDir       string                   `json:"output_dir"`
}

func newBuildReport(outputDir string) *BuildReport {
	return &BuildReport{
		BuildID:        uuid.NewString(),
		StartedAt:      time.Now(),
		StageDurations: make(map[string]time.Duration),
		OutputDir:      outputDir,
	}
}

func (r *BuildReport) recordStageError(se *StageError, rec metrics.Recorder) {
	sev := metrics.ResultFatal
	switch se.Kind {
	case StageErrorWarning:
		sev = metrics.ResultWarning
	case StageErrorCanceled:
		sev = metrics.ResultCanceled
	}
	rec.IncStageResult(string(se.Stage), sev)
	r.Issues = append(r.Issues, Issue{
		Stage:    string(se.Stage),
		Severity: string(se.Kind),
		Message:  se.Err.Error(),
	})
}

// finish stamps the end time and derives the final outcome.
func (r *BuildReport) finish() {
	r.FinishedAt = time.Now()
	r.Duration = r.FinishedAt.Sub(r.StartedAt)
	r.Outcome = r.deriveOutcome()
}

func (r *BuildReport) deriveOutcome() BuildOutcome {
	outcome := OutcomeSuccess
	for _, issue := range r.Issues {
		switch StageErrorKind(issue.Severity) {
		case StageErrorCanceled:
			return OutcomeCanceled
		case StageErrorFatal:
			outcome = OutcomeFailed
		case StageErrorWarning:
			if outcome == OutcomeSuccess {
				outcome = OutcomeWarning
			}
		}
	}
	return outcome
}

// Summary renders a short human-readable build account.
func (r *BuildReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "build %s: %s in %s\n", r.BuildID, r.Outcome, r.Duration.Round(time.Millisecond))
	names := make([]string, 0, len(r.StageDurations))
	for name := range r.StageDurations {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "  %-16s %s\n", name, r.StageDurations[name].Round(time.Millisecond))
	}
	for _, issue := range r.Issues {
		fmt.Fprintf(&b, "  [%s] %s: %s\n", issue.Severity, issue.Stage, issue.Message)
	}
	return b.String()
}

// Persist writes the report as JSON next to the built site. The write goes
// through a temp file and rename so readers never observe a partial report.
func (r *BuildReport) Persist(dir string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fperrors.InternalError("marshal build report", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	target := filepath.Join(dir, "build-report.json")
	tmp, err := os.CreateTemp(dir, ".build-report-*.json")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp report: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename report into place: %w", err)
	}
	return nil
}
