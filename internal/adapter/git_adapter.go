package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	m "skippy.dev/pkg/skippy/internal/model"
)

// ErrNoDefaultBranch is returned when neither origin/HEAD, main nor master
// can be resolved.
var ErrNoDefaultBranch = errors.New("cannot determine default branch")

var fallbackBranches = []string{"main", "master"}

// GitAdapter produces unified diffs from a git repository.
type GitAdapter interface {
	// DiffAgainst returns the diff from the merge base of rev and HEAD to
	// HEAD, the same change set `git diff rev...HEAD` shows. An empty rev
	// means the default branch.
	DiffAgainst(ctx context.Context, dir m.Path, rev string) (string, error)

	// DefaultBranch returns the revision the repository treats as its main
	// line.
	DefaultBranch(ctx context.Context, dir m.Path) (string, error)

	// RepositoryRoot returns the top-level directory of the work tree.
	RepositoryRoot(ctx context.Context, dir m.Path) (m.Path, error)
}

// LocalGitAdapter implements GitAdapter with go-git.
type LocalGitAdapter struct{}

// NewLocalGitAdapter constructs a LocalGitAdapter.
func NewLocalGitAdapter() *LocalGitAdapter {
	return &LocalGitAdapter{}
}

// DiffAgainst computes the triple-dot diff between rev and HEAD.
func (a *LocalGitAdapter) DiffAgainst(ctx context.Context, dir m.Path, rev string) (string, error) {
	repo, err := openRepository(dir)
	if err != nil {
		return "", err
	}

	if rev == "" {
		rev, err = defaultBranch(repo)
		if err != nil {
			return "", err
		}
	}

	other, err := resolveCommit(repo, rev)
	if err != nil {
		return "", err
	}

	headRef, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}

	head, err := repo.CommitObject(headRef.Hash())
	if err != nil {
		return "", fmt.Errorf("getting HEAD commit: %w", err)
	}

	bases, err := other.MergeBase(head)
	if err != nil {
		return "", fmt.Errorf("computing merge base of %s and HEAD: %w", rev, err)
	}

	if len(bases) == 0 {
		return "", fmt.Errorf("%s and HEAD have no common ancestor", rev)
	}

	patch, err := bases[0].PatchContext(ctx, head)
	if err != nil {
		return "", fmt.Errorf("computing diff: %w", err)
	}

	return patch.String(), nil
}

// DefaultBranch resolves origin/HEAD, then main, then master.
func (a *LocalGitAdapter) DefaultBranch(_ context.Context, dir m.Path) (string, error) {
	repo, err := openRepository(dir)
	if err != nil {
		return "", err
	}

	return defaultBranch(repo)
}

// RepositoryRoot returns the work tree root containing dir.
func (a *LocalGitAdapter) RepositoryRoot(_ context.Context, dir m.Path) (m.Path, error) {
	repo, err := openRepository(dir)
	if err != nil {
		return "", err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("opening work tree: %w", err)
	}

	return m.Path(wt.Filesystem.Root()), nil
}

func openRepository(dir m.Path) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(string(dir), &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository: %w", err)
	}

	return repo, nil
}

func resolveCommit(repo *git.Repository, rev string) (*object.Commit, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolving revision %q: %w", rev, err)
	}

	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("getting commit %s: %w", hash, err)
	}

	return commit, nil
}

func defaultBranch(repo *git.Repository) (string, error) {
	if ref, err := repo.Reference(plumbing.NewRemoteHEADReferenceName("origin"), false); err == nil {
		if ref.Type() == plumbing.SymbolicReference {
			return ref.Target().Short(), nil
		}
	}

	for _, name := range fallbackBranches {
		if _, err := repo.Reference(plumbing.NewBranchReferenceName(name), true); err == nil {
			return name, nil
		}
	}

	return "", ErrNoDefaultBranch
}
