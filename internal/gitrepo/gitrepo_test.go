package gitrepo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fperrors "gitlab.com/fpgadoc/fpgadoc/internal/errors"
)

// initRepoWithCommit creates a repository with a single commit at a fixed time.
func initRepoWithCommit(t *testing.T, when time.Time) (*git.Repository, string) {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.rst"), []byte("fpgadoc\n"), 0o600))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("readme.rst")
	require.NoError(t, err)

	sig := &object.Signature{Name: "test", Email: "test@example.com", When: when}
	_, err = wt.Commit("initial", &git.CommitOptions{Author: sig, Committer: sig})
	require.NoError(t, err)

	return repo, dir
}

func TestResolveLightweightTag(t *testing.T) {
	when := time.Date(2024, time.March, 2, 12, 0, 0, 0, time.UTC)
	repo, dir := initRepoWithCommit(t, when)

	head, err := repo.Head()
	require.NoError(t, err)
	_, err = repo.CreateTag("v8.0.0", head.Hash(), nil)
	require.NoError(t, err)

	resolver, err := Open(dir)
	require.NoError(t, err)

	got, err := resolver.ResolveTagTime("v8.0.0")
	require.NoError(t, err)
	assert.True(t, got.Equal(when), "got %v, want %v", got, when)
}

func TestResolveAnnotatedTag(t *testing.T) {
	when := time.Date(2023, time.December, 24, 9, 30, 0, 0, time.UTC)
	repo, dir := initRepoWithCommit(t, when)

	head, err := repo.Head()
	require.NoError(t, err)
	_, err = repo.CreateTag("v7.1.0", head.Hash(), &git.CreateTagOptions{
		Tagger:  &object.Signature{Name: "test", Email: "test@example.com", When: when.Add(time.Hour)},
		Message: "release v7.1.0",
	})
	require.NoError(t, err)

	resolver, err := Open(dir)
	require.NoError(t, err)

	// The commit timestamp is what dates the release, not the tagger time.
	got, err := resolver.ResolveTagTime("v7.1.0")
	require.NoError(t, err)
	assert.True(t, got.Equal(when), "got %v, want %v", got, when)
}

func TestResolveMissingTag(t *testing.T) {
	_, dir := initRepoWithCommit(t, time.Now())

	resolver, err := Open(dir)
	require.NoError(t, err)

	_, err = resolver.ResolveTagTime("v0.0.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "v0.0.0")
	assert.True(t, fperrors.IsCategory(err, fperrors.CategoryGit))
}

func TestOpenMissingRepository(t *testing.T) {
	_, err := Open(t.TempDir())
	require.Error(t, err)
}
