// Package testutil builds throwaway git repositories for tests
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// Commit describes one fixture commit
type Commit struct {
	Message string
	Author  string
	When    time.Time
	Files   map[string]string
}

// Repo is a fixture repository on disk
type Repo struct {
	t    *testing.T
	Path string
	repo *git.Repository
}

// InitRepo creates an empty repository at dir
func InitRepo(t *testing.T, dir string) *Repo {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return &Repo{t: t, Path: dir, repo: repo}
}

// WriteFile writes a file relative to the work tree without committing it
func (r *Repo) WriteFile(rel, content string) {
	r.t.Helper()
	full := filepath.Join(r.Path, filepath.FromSlash(rel))
	require.NoError(r.t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(r.t, os.WriteFile(full, []byte(content), 0o644))
}

// Commit writes the commit's files and records them
func (r *Repo) Commit(c Commit) {
	r.t.Helper()
	if c.Author == "" {
		c.Author = "Test Author"
	}
	if c.When.IsZero() {
		c.When = time.Now()
	}
	if len(c.Files) == 0 {
		c.Files = map[string]string{".keep": c.Message + " " + c.When.String()}
	}

	wt, err := r.repo.Worktree()
	require.NoError(r.t, err)
	for rel, content := range c.Files {
		r.WriteFile(rel, content)
		_, err := wt.Add(filepath.ToSlash(rel))
		require.NoError(r.t, err)
	}

	sig := &object.Signature{Name: c.Author, Email: "test@example.com", When: c.When}
	_, err = wt.Commit(c.Message, &git.CommitOptions{Author: sig, Committer: sig})
	require.NoError(r.t, err)
}

// AddRemote registers a named remote
func (r *Repo) AddRemote(name, url string) {
	r.t.Helper()
	_, err := r.repo.CreateRemote(&config.RemoteConfig{Name: name, URLs: []string{url}})
	require.NoError(r.t, err)
}
