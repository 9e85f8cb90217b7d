package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/fpgadoc/fpgadoc/internal/config"
	"gitlab.com/fpgadoc/fpgadoc/internal/history"
	"gitlab.com/fpgadoc/fpgadoc/internal/vivado"
)

// stubDriver fabricates the filesystem side effects of a build instead of
// running the real toolchain.
type stubDriver struct {
	failWithMarker string
}

func (s stubDriver) Build(ctx context.Context, spec vivado.BuildSpec) error {
	runsDir := filepath.Join(spec.ProjectPath, spec.Project.Name+".runs")

	if s.failWithMarker != "" {
		if err := os.WriteFile(filepath.Join(spec.ProjectPath, vivado.LogFileName),
			[]byte(s.failWithMarker+"\n"), 0o644); err != nil {
			return err
		}
		implDir := filepath.Join(runsDir, "impl_1")
		if err := os.MkdirAll(implDir, 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(implDir, "timing_summary.rpt"), []byte("rpt"), 0o644); err != nil {
			return err
		}
		return &vivado.CommandError{Args: []string{"build", spec.Project.Name}, Err: os.ErrInvalid}
	}

	synthDir := filepath.Join(runsDir, "synth_1")
	if err := os.MkdirAll(synthDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(synthDir, "hierarchical_utilization.rpt"), []byte("rpt"), 0o644)
}

func testVerifyStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestVerifyProjectsRecordsSuccessOutcome(t *testing.T) {
	store := testVerifyStore(t)
	verifier := vivado.NewVerifier(stubDriver{})
	projects := []config.ProjectConfig{
		{Name: "artyz7", Build: []string{"build"}, SynthOnly: true},
	}

	err := verifyProjects(context.Background(), verifier, store, nil,
		projects, t.TempDir(), t.TempDir())
	require.NoError(t, err)

	records, err := store.VerificationsForProject(context.Background(), "artyz7", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, string(vivado.OutcomeSuccess), records[0].Outcome)
	assert.Empty(t, records[0].Detail)
}

func TestVerifyProjectsRecordsFailureOutcomeAndFails(t *testing.T) {
	store := testVerifyStore(t)
	verifier := vivado.NewVerifier(stubDriver{
		failWithMarker: "ERROR: Timing not OK after implementation run.",
	})
	projects := []config.ProjectConfig{
		{Name: "artyz7", Build: []string{"build"}},
	}

	err := verifyProjects(context.Background(), verifier, store, nil,
		projects, t.TempDir(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 projects failed verification")

	records, err := store.VerificationsForProject(context.Background(), "artyz7", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, string(vivado.OutcomeTimingFailure), records[0].Outcome)
	assert.Contains(t, records[0].Detail, "command failed")
}

func TestVerifyProjectsWithoutStoreOrPublisher(t *testing.T) {
	verifier := vivado.NewVerifier(stubDriver{})
	projects := []config.ProjectConfig{
		{Name: "artyz7", Build: []string{"build"}, SynthOnly: true},
	}

	err := verifyProjects(context.Background(), verifier, nil, nil,
		projects, t.TempDir(), t.TempDir())
	require.NoError(t, err)
}
