package extractor

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bravo68web/repolens/pkg/logger"
)

// DiscoverOptions bound a discovery walk
type DiscoverOptions struct {
	Root     string
	MaxDepth int
	Ignore   []string
}

// Discover walks Root and returns the sorted absolute paths of every
// directory holding a .git marker. Symlinks are never followed, ignored and
// unreadable directories are skipped, and nested repositories are found too.
func Discover(ctx context.Context, opts DiscoverOptions) ([]string, error) {
	log := logger.Get().WithContext(ctx).WithFields(logger.Component("discover"))

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, err
	}
	// The root itself may be a link; nothing below it is followed.
	if root, err = filepath.EvalSymlinks(root); err != nil {
		return nil, err
	}

	log.Debug("Walking tree", logger.String("root", root), logger.Int("max_depth", opts.MaxDepth), logger.Strings("ignore", opts.Ignore))
	found := make(map[string]struct{})
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if p == root {
				return walkErr
			}
			log.Debug("Skipping unreadable path", logger.String("path", p), logger.Error(walkErr))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		if name == ".git" && p != root {
			found[filepath.Dir(p)] = struct{}{}
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() || p == root {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return filepath.SkipDir
		}
		rel = filepath.ToSlash(rel)
		if strings.Count(rel, "/")+1 > opts.MaxDepth || matchesAny(opts.Ignore, name, rel) {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	repos := make([]string, 0, len(found))
	for p := range found {
		repos = append(repos, p)
	}
	sort.Strings(repos)

	log.Debug("Discovery finished", logger.String("root", root), logger.Int("repositories", len(repos)))
	return repos, nil
}
