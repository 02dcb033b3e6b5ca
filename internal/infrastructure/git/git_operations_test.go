package git

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bravo68web/repolens/internal/domain/service"
	"github.com/bravo68web/repolens/internal/testutil"
	apperror "github.com/bravo68web/repolens/pkg/errors"
)

func TestReadHistory(t *testing.T) {
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	fx := testutil.InitRepo(t, filepath.Join(t.TempDir(), "repo"))
	fx.Commit(testutil.Commit{Message: "init", Author: "alice", When: base.Add(-90 * 24 * time.Hour)})
	fx.Commit(testutil.Commit{Message: "add parser\n\nlonger body", Author: "bob", When: base.Add(-10 * 24 * time.Hour)})
	fx.Commit(testutil.Commit{Message: "WIP: refactor", Author: "alice", When: base.Add(-2 * 24 * time.Hour)})

	ops := NewGitOperations()
	h, err := ops.ReadHistory(context.Background(), fx.Path, service.HistoryOptions{
		Recent:           2,
		ContributorLimit: 500,
		Since:            base.Add(-30 * 24 * time.Hour),
	})
	require.NoError(t, err)

	assert.Equal(t, "WIP: refactor", h.Last.Subject())
	assert.Equal(t, "alice", h.Last.Author)
	require.Len(t, h.Recent, 2)
	assert.Equal(t, "add parser", h.Recent[1].Subject())
	assert.Equal(t, []string{"alice", "bob"}, h.Contributors)
	assert.Equal(t, 2, h.CommitsInWindow)
}

func TestReadHistoryWindowMovesWithNow(t *testing.T) {
	committed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fx := testutil.InitRepo(t, filepath.Join(t.TempDir(), "repo"))
	fx.Commit(testutil.Commit{Message: "only", When: committed})

	ops := NewGitOperations()
	window := 30 * 24 * time.Hour

	first := committed.Add(15 * 24 * time.Hour)
	h, err := ops.ReadHistory(context.Background(), fx.Path, service.HistoryOptions{Since: first.Add(-window)})
	require.NoError(t, err)
	assert.Equal(t, 1, h.CommitsInWindow)

	nineMonthsLater := first.AddDate(0, 9, 0)
	h, err = ops.ReadHistory(context.Background(), fx.Path, service.HistoryOptions{Since: nineMonthsLater.Add(-window)})
	require.NoError(t, err)
	assert.Equal(t, 0, h.CommitsInWindow)
}

func TestReadHistoryNoCommits(t *testing.T) {
	fx := testutil.InitRepo(t, filepath.Join(t.TempDir(), "empty"))

	_, err := NewGitOperations().ReadHistory(context.Background(), fx.Path, service.HistoryOptions{})
	assert.ErrorIs(t, err, apperror.ErrNoCommits)
}

func TestReadHistoryNotRepository(t *testing.T) {
	_, err := NewGitOperations().ReadHistory(context.Background(), t.TempDir(), service.HistoryOptions{})
	assert.ErrorIs(t, err, apperror.ErrNotRepository)

	ok, err := NewGitOperations().RepositoryExists(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadHistoryCancelled(t *testing.T) {
	fx := testutil.InitRepo(t, filepath.Join(t.TempDir(), "repo"))
	fx.Commit(testutil.Commit{Message: "init"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewGitOperations().ReadHistory(ctx, fx.Path, service.HistoryOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRemoteURL(t *testing.T) {
	fx := testutil.InitRepo(t, filepath.Join(t.TempDir(), "repo"))
	ops := NewGitOperations()

	_, ok, err := ops.RemoteURL(context.Background(), fx.Path)
	require.NoError(t, err)
	assert.False(t, ok)

	fx.AddRemote("backup", "https://example.com/x/y.git")
	url, ok, err := ops.RemoteURL(context.Background(), fx.Path)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/x/y.git", url)

	fx.AddRemote("origin", "git@github.com:alice/foo.git")
	url, _, err = ops.RemoteURL(context.Background(), fx.Path)
	require.NoError(t, err)
	assert.Equal(t, "git@github.com:alice/foo.git", url)
}
