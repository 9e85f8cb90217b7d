package docsite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gitlab.com/fpgadoc/fpgadoc/internal/metrics"
)

// StageName is a strongly-typed identifier for a build stage. All canonical
// stages are declared as constants here for compile-time safety.
type StageName string

// Canonical stage names.
const (
	StagePrepareOutput StageName = "prepare_output"
	StageReleaseNotes  StageName = "release_notes"
	StageApidoc        StageName = "apidoc"
	StageIndex         StageName = "index"
	StageRunSphinx     StageName = "run_sphinx"
	StageBadges        StageName = "badges"
	StageCoverage      StageName = "coverage"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}
func newWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}
func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// BuildState carries mutable state and metrics across stages.
type BuildState struct {
	Generator *Generator
	Report    *BuildReport
}

func newBuildState(g *Generator, report *BuildReport) *BuildState {
	return &BuildState{Generator: g, Report: report}
}

// runStages executes stages in order, recording timing and stopping on first
// fatal error. Warnings are recorded and execution continues.
func runStages(ctx context.Context, bs *BuildState, stages []StageDef) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.Name, ctx.Err())
			bs.Report.recordStageError(se, bs.Generator.recorder)
			return se
		default:
		}

		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)
		bs.Report.StageDurations[string(st.Name)] = dur
		bs.Generator.recorder.ObserveStageDuration(string(st.Name), dur)

		if err == nil {
			bs.Generator.recorder.IncStageResult(string(st.Name), metrics.ResultSuccess)
			continue
		}

		se := asStageError(st.Name, err)
		bs.Report.recordStageError(se, bs.Generator.recorder)
		if se.Kind == StageErrorWarning {
			slog.Warn("Stage completed with warning", "stage", string(st.Name), "error", se.Err.Error())
			continue
		}
		return se
	}
	return nil
}

// asStageError normalizes a raw stage error into a StageError (fatal default).
func asStageError(stage StageName, err error) *StageError {
	if se, ok := err.(*StageError); ok {
		return se
	}
	return newFatalStageError(stage, err)
}
