package extractor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bravo68web/repolens/internal/config"
)

func mkRepoMarker(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
}

func tempRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return root
}

func TestDiscover(t *testing.T) {
	root := tempRoot(t)

	mkRepoMarker(t, filepath.Join(root, "alpha"))
	mkRepoMarker(t, filepath.Join(root, "group", "beta"))
	mkRepoMarker(t, filepath.Join(root, "alpha", "plugins", "nested"))
	mkRepoMarker(t, filepath.Join(root, "web", "node_modules", "dep"))
	mkRepoMarker(t, filepath.Join(root, "a", "b", "c", "d", "deep"))

	// worktree style marker file
	require.NoError(t, os.MkdirAll(filepath.Join(root, "wt"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "wt", ".git"), []byte("gitdir: /elsewhere\n"), 0o644))

	require.NoError(t, os.Symlink(filepath.Join(root, "alpha"), filepath.Join(root, "link-to-alpha")))

	repos, err := Discover(context.Background(), DiscoverOptions{
		Root:     root,
		MaxDepth: 4,
		Ignore:   config.DefaultIgnorePatterns,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "alpha"),
		filepath.Join(root, "alpha", "plugins", "nested"),
		filepath.Join(root, "group", "beta"),
		filepath.Join(root, "wt"),
	}, repos)
}

func TestDiscoverRespectsDepth(t *testing.T) {
	root := tempRoot(t)
	mkRepoMarker(t, filepath.Join(root, "one"))
	mkRepoMarker(t, filepath.Join(root, "one", "two", "three"))

	repos, err := Discover(context.Background(), DiscoverOptions{Root: root, MaxDepth: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "one")}, repos)
}

func TestDiscoverRootIsRepository(t *testing.T) {
	root := tempRoot(t)
	mkRepoMarker(t, root)

	repos, err := Discover(context.Background(), DiscoverOptions{Root: root, MaxDepth: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{root}, repos)
}

func TestDiscoverIgnoreByRelativePath(t *testing.T) {
	root := tempRoot(t)
	mkRepoMarker(t, filepath.Join(root, "work", "keep"))
	mkRepoMarker(t, filepath.Join(root, "work", "old", "skip"))

	repos, err := Discover(context.Background(), DiscoverOptions{Root: root, MaxDepth: 4, Ignore: []string{"work/old"}})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "work", "keep")}, repos)
}

func TestDiscoverMissingRoot(t *testing.T) {
	_, err := Discover(context.Background(), DiscoverOptions{Root: filepath.Join(t.TempDir(), "missing"), MaxDepth: 2})
	assert.Error(t, err)
}

func TestDiscoverCancelled(t *testing.T) {
	root := tempRoot(t)
	mkRepoMarker(t, filepath.Join(root, "alpha"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Discover(ctx, DiscoverOptions{Root: root, MaxDepth: 2})
	assert.ErrorIs(t, err, context.Canceled)
}
