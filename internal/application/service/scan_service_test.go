package service

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bravo68web/repolens/internal/application/dto"
	"github.com/bravo68web/repolens/internal/application/extractor"
	"github.com/bravo68web/repolens/internal/domain/repository"
	domainservice "github.com/bravo68web/repolens/internal/domain/service"
	"github.com/bravo68web/repolens/internal/infrastructure/git"
	"github.com/bravo68web/repolens/internal/testutil"
	apperror "github.com/bravo68web/repolens/pkg/errors"
	"github.com/bravo68web/repolens/pkg/logger"
)

func newScanService(t *testing.T, now time.Time) (*ScanService, repository.ProjectRepository) {
	t.Helper()
	projects := newTestProjects(t)
	svc := NewScanService(extractor.New(git.NewGitOperations(), nil, extractor.DefaultOptions()), projects)
	svc.now = func() time.Time { return now }
	svc.log = logger.NewNop()
	return svc, projects
}

func scanRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return root
}

// buildTree lays out a fresh repository, a stale one, an empty one and a
// plain directory under root
func buildTree(t *testing.T, root string) {
	t.Helper()
	fresh := testutil.InitRepo(t, filepath.Join(root, "fresh"))
	fresh.Commit(testutil.Commit{
		Message: "add cli",
		When:    fixedNow.Add(-2 * day),
		Files:   map[string]string{"go.mod": "module fresh", "cmd/fresh/main.go": "package main"},
	})
	fresh.AddRemote("origin", "https://github.com/alice/fresh.git")

	stale := testutil.InitRepo(t, filepath.Join(root, "work", "stale"))
	stale.Commit(testutil.Commit{Message: "last touch", When: fixedNow.Add(-400 * day)})
	stale.AddRemote("origin", "git@github.com:someone/stale.git")

	testutil.InitRepo(t, filepath.Join(root, "empty"))

	require.NoError(t, os.MkdirAll(filepath.Join(root, "notes"), 0o755))
}

func TestScanRun(t *testing.T) {
	root := scanRoot(t)
	buildTree(t, root)
	svc, projects := newScanService(t, fixedNow)

	result, err := svc.Run(context.Background(), dto.ScanOptions{
		Root:       root,
		MaxDepth:   3,
		CutoffDays: 365,
		Identity:   "alice",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Discovered)
	assert.Equal(t, 1, result.Saved)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Errored)
	assert.Equal(t, 1, result.Filtered)
	assert.Contains(t, result.Summary, "Discovered 3 repositories: 1 saved, 1 skipped, 0 errored, 1 older than cutoff")
	assert.Contains(t, result.Summary, "Ownership: 1 owned, 0 forks")
	assert.Contains(t, result.Summary, "Types: cli 1")
	assert.Contains(t, result.Summary, "fresh ("+filepath.Join(root, "fresh")+")")

	p, err := projects.Get(context.Background(), filepath.Join(root, "fresh"))
	require.NoError(t, err)
	assert.False(t, p.IsFork)
	assert.Equal(t, "add cli", p.Message())
	assert.Equal(t, []string{"go"}, p.Meta().TechStack)

	_, err = projects.Get(context.Background(), filepath.Join(root, "work", "stale"))
	assert.True(t, apperror.IsNotFound(err))
}

func TestScanRunWithoutCutoffKeepsEverythingDated(t *testing.T) {
	root := scanRoot(t)
	buildTree(t, root)
	svc, projects := newScanService(t, fixedNow)

	result, err := svc.Run(context.Background(), dto.ScanOptions{Root: root, MaxDepth: 3, Identity: "alice"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Saved)
	assert.Contains(t, result.Summary, "Ownership: 1 owned, 1 forks")

	stale, err := projects.Get(context.Background(), filepath.Join(root, "work", "stale"))
	require.NoError(t, err)
	assert.True(t, stale.IsFork)
}

func TestScanRunDryRun(t *testing.T) {
	root := scanRoot(t)
	buildTree(t, root)
	svc, projects := newScanService(t, fixedNow)

	result, err := svc.Run(context.Background(), dto.ScanOptions{Root: root, MaxDepth: 3, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Saved)
	assert.Len(t, result.Projects, 2)
	assert.Contains(t, result.Summary, "Dry run: discovered 3 repositories, 2 would be saved")

	count, err := projects.Count(context.Background(), repository.ProjectFilter{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestScanRunIsIdempotent(t *testing.T) {
	root := scanRoot(t)
	buildTree(t, root)
	svc, projects := newScanService(t, fixedNow)
	ctx := context.Background()
	opts := dto.ScanOptions{Root: root, MaxDepth: 3}
	path := filepath.Join(root, "fresh")

	_, err := svc.Run(ctx, opts)
	require.NoError(t, err)
	before, err := projects.Get(ctx, path)
	require.NoError(t, err)
	require.NoError(t, projects.SetPinned(ctx, path, true))

	result, err := svc.Run(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Saved)

	count, err := projects.Count(ctx, repository.ProjectFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	after, err := projects.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.LastCommitDate, after.LastCommitDate)
	assert.Equal(t, before.LastCommitMessage, after.LastCommitMessage)
	assert.Equal(t, before.Meta(), after.Meta())
	assert.Equal(t, before.IsFork, after.IsFork)
	assert.True(t, after.IsPinned)
}

func TestScanRunCommitWindowFollowsScanTime(t *testing.T) {
	root := scanRoot(t)
	committed := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	repo := testutil.InitRepo(t, filepath.Join(root, "svc"))
	repo.Commit(testutil.Commit{Message: "only commit", When: committed})

	projects := newTestProjects(t)
	svc := NewScanService(extractor.New(git.NewGitOperations(), nil, extractor.DefaultOptions()), projects)
	ctx := context.Background()
	opts := dto.ScanOptions{Root: root, MaxDepth: 2}

	firstScan := committed.Add(5 * day)
	svc.now = func() time.Time { return firstScan }
	_, err := svc.Run(ctx, opts)
	require.NoError(t, err)
	p, err := projects.Get(ctx, repo.Path)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Meta().CommitsInWindow)

	svc.now = func() time.Time { return firstScan.AddDate(0, 9, 0) }
	_, err = svc.Run(ctx, opts)
	require.NoError(t, err)
	p, err = projects.Get(ctx, repo.Path)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Meta().CommitsInWindow)
}

func TestScanRunRejectsInvalidOptions(t *testing.T) {
	svc, _ := newScanService(t, fixedNow)

	result, err := svc.Run(context.Background(), dto.ScanOptions{
		Root:       filepath.Join(t.TempDir(), "missing"),
		MaxDepth:   0,
		CutoffDays: -3,
	})
	assert.Nil(t, result)
	assert.True(t, apperror.IsValidation(err))
	assert.Len(t, apperror.FieldErrors(err), 3)
}

func TestScanRunCancelledStillSummarizes(t *testing.T) {
	root := scanRoot(t)
	buildTree(t, root)
	svc, _ := newScanService(t, fixedNow)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := svc.Run(ctx, dto.ScanOptions{Root: root, MaxDepth: 3})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, 0, result.Saved)
	assert.Contains(t, result.Summary, "Stopped early")
}

// interruptingGit cancels the scan as soon as the first repository is opened
type interruptingGit struct {
	domainservice.GitService
	cancel context.CancelFunc
	opened atomic.Int32
}

func (g *interruptingGit) RepositoryExists(ctx context.Context, repoPath string) (bool, error) {
	g.opened.Add(1)
	g.cancel()
	return g.GitService.RepositoryExists(ctx, repoPath)
}

func TestScanRunCancelledMidwayCountsNothingUnfinished(t *testing.T) {
	root := scanRoot(t)
	for _, name := range []string{"one", "two", "three"} {
		fx := testutil.InitRepo(t, filepath.Join(root, name))
		fx.Commit(testutil.Commit{Message: "init", When: fixedNow.Add(-day)})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gitSvc := &interruptingGit{GitService: git.NewGitOperations(), cancel: cancel}

	projects := newTestProjects(t)
	svc := NewScanService(extractor.New(gitSvc, nil, extractor.DefaultOptions()), projects)
	svc.now = func() time.Time { return fixedNow }

	result, err := svc.Run(ctx, dto.ScanOptions{Root: root, MaxDepth: 2, Workers: 1})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, int32(1), gitSvc.opened.Load())
	assert.Equal(t, 3, result.Discovered)
	assert.Zero(t, result.Saved)
	assert.Zero(t, result.Skipped)
	assert.Zero(t, result.Errored)
	assert.Contains(t, result.Summary, "Stopped early")
}
