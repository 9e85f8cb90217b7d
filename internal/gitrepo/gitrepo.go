// Package gitrepo resolves release tags to commit timestamps.
//
// The release notes assembler only needs one narrow capability from source
// control, so it is expressed as an interface here and faked in tests.
package gitrepo

import (
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	fperrors "gitlab.com/fpgadoc/fpgadoc/internal/errors"
)

// TagResolver resolves a tag name to the timestamp of the commit it points to.
type TagResolver interface {
	ResolveTagTime(tag string) (time.Time, error)
}

// RepoResolver is a TagResolver backed by an on-disk git repository.
type RepoResolver struct {
	repo *git.Repository
}

// Open opens the repository at path for tag resolution.
func Open(path string) (*RepoResolver, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", path, err)
	}
	return &RepoResolver{repo: repo}, nil
}

// ResolveTagTime looks up refs/tags/<tag> and returns the committer timestamp
// of the tagged commit. Both lightweight and annotated tags are handled.
func (r *RepoResolver) ResolveTagTime(tag string) (time.Time, error) {
	ref, err := r.repo.Reference(plumbing.NewTagReferenceName(tag), true)
	if err != nil {
		return time.Time{}, fperrors.TagLookupError(tag, err)
	}

	hash := ref.Hash()

	// Annotated tags point at a tag object that in turn points at the commit.
	if tagObj, terr := r.repo.TagObject(hash); terr == nil {
		commit, cerr := tagObj.Commit()
		if cerr != nil {
			return time.Time{}, fperrors.TagLookupError(tag, cerr)
		}
		return commit.Committer.When, nil
	}

	commit, err := r.repo.CommitObject(hash)
	if err != nil {
		return time.Time{}, fperrors.TagLookupError(tag, err)
	}
	return commit.Committer.When, nil
}
