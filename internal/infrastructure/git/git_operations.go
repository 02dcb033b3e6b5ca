package git

import (
	"context"
	"errors"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/bravo68web/repolens/internal/domain/service"
	apperror "github.com/bravo68web/repolens/pkg/errors"
)

// GitOperations implements the GitService interface using go-git library
type GitOperations struct{}

// NewGitOperations creates a new GitOperations instance
func NewGitOperations() *GitOperations {
	return &GitOperations{}
}

func open(repoPath string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, apperror.ErrNotRepository
		}
		return nil, apperror.GitError("open", err)
	}
	return repo, nil
}

// RepositoryExists checks if a repository exists at the given path
func (g *GitOperations) RepositoryExists(ctx context.Context, repoPath string) (bool, error) {
	_, err := open(repoPath)
	if err != nil {
		if errors.Is(err, apperror.ErrNotRepository) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ReadHistory walks the log from HEAD in committer time order.
// The walk stops once the recent list and contributor sample are full and the
// commits have fallen out of the counting window.
func (g *GitOperations) ReadHistory(ctx context.Context, repoPath string, opts service.HistoryOptions) (*service.History, error) {
	repo, err := open(repoPath)
	if err != nil {
		return nil, err
	}

	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, apperror.ErrNoCommits
		}
		return nil, apperror.GitError("resolve HEAD", err)
	}

	iter, err := repo.Log(&git.LogOptions{From: head.Hash(), Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, apperror.GitError("log", err)
	}
	defer iter.Close()

	history := &service.History{}
	authors := make(map[string]struct{})
	seen := 0

	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		commit := toCommit(c)
		if seen == 0 {
			history.Last = commit
		}
		if seen < opts.Recent {
			history.Recent = append(history.Recent, commit)
		}
		if seen < opts.ContributorLimit && c.Author.Name != "" {
			authors[c.Author.Name] = struct{}{}
		}
		if !c.Author.When.Before(opts.Since) {
			history.CommitsInWindow++
		}
		seen++

		if seen >= opts.Recent && seen >= opts.ContributorLimit && c.Committer.When.Before(opts.Since) {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apperror.GitError("walk log", err)
	}
	if seen == 0 {
		return nil, apperror.ErrNoCommits
	}

	history.Contributors = make([]string, 0, len(authors))
	for name := range authors {
		history.Contributors = append(history.Contributors, name)
	}
	sort.Strings(history.Contributors)

	return history, nil
}

// RemoteURL returns the first URL of origin, else of the first remote by name
func (g *GitOperations) RemoteURL(ctx context.Context, repoPath string) (string, bool, error) {
	repo, err := open(repoPath)
	if err != nil {
		return "", false, err
	}

	remotes, err := repo.Remotes()
	if err != nil {
		return "", false, apperror.GitError("list remotes", err)
	}

	sort.Slice(remotes, func(i, j int) bool {
		a, b := remotes[i].Config().Name, remotes[j].Config().Name
		if (a == git.DefaultRemoteName) != (b == git.DefaultRemoteName) {
			return a == git.DefaultRemoteName
		}
		return a < b
	})
	for _, r := range remotes {
		if urls := r.Config().URLs; len(urls) > 0 && urls[0] != "" {
			return urls[0], true, nil
		}
	}
	return "", false, nil
}

func toCommit(c *object.Commit) service.Commit {
	hash := c.Hash.String()
	return service.Commit{
		Hash:        hash,
		ShortHash:   hash[:7],
		Message:     c.Message,
		Author:      c.Author.Name,
		AuthorEmail: c.Author.Email,
		AuthorDate:  c.Author.When,
	}
}

// Verify interface compliance at compile time
var _ service.GitService = (*GitOperations)(nil)
