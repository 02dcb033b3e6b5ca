package extractor

import (
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar"
)

const (
	// maxReadBytes bounds every file read during extraction
	maxReadBytes = 256 << 10

	// maxListDepth is how many directory levels below the repository root are listed
	maxListDepth = 3

	// maxListEntries bounds the listing of very large trees
	maxListEntries = 5000
)

// listingSkipDirs are never listed, in addition to the configured ignore patterns
var listingSkipDirs = []string{".git", "archive"}

// entry is one listed path, slash separated and relative to the repository root
type entry struct {
	rel   string
	isDir bool
}

// fileCache memoizes reads and the directory listing of one repository.
// It lives for a single Extract call.
type fileCache struct {
	root   string
	ignore []string

	mu      sync.Mutex
	reads   map[string]cachedRead
	listed  bool
	entries []entry
	nested  []string
}

type cachedRead struct {
	data []byte
	err  error
}

func newFileCache(root string, ignore []string) *fileCache {
	return &fileCache{
		root:   root,
		ignore: ignore,
		reads:  make(map[string]cachedRead),
	}
}

// Read returns at most maxReadBytes of the file at rel
func (c *fileCache) Read(rel string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.reads[rel]; ok {
		return r.data, r.err
	}
	data, err := readBounded(filepath.Join(c.root, filepath.FromSlash(rel)))
	c.reads[rel] = cachedRead{data: data, err: err}
	return data, err
}

// Text returns the file content, or "" when it cannot be read
func (c *fileCache) Text(rel string) string {
	data, err := c.Read(rel)
	if err != nil {
		return ""
	}
	return string(data)
}

func readBounded(p string) ([]byte, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxReadBytes))
}

// Match returns listed paths matching the doublestar pattern, sorted
func (c *fileCache) Match(pattern string, dirs bool) []string {
	var out []string
	for _, e := range c.list() {
		if e.isDir != dirs {
			continue
		}
		if ok, _ := doublestar.Match(pattern, e.rel); ok {
			out = append(out, e.rel)
		}
	}
	return out
}

// Has reports whether any listed file or directory matches pattern
func (c *fileCache) Has(pattern string) bool {
	for _, e := range c.list() {
		if ok, _ := doublestar.Match(pattern, e.rel); ok {
			return true
		}
	}
	return false
}

// Nested returns the relative paths of repositories below the root
func (c *fileCache) Nested() []string {
	c.list()
	return c.nested
}

func (c *fileCache) list() []entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listed {
		return c.entries
	}
	c.listed = true

	_ = filepath.WalkDir(c.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && p != c.root {
				return filepath.SkipDir
			}
			return nil
		}
		if p == c.root {
			return nil
		}
		if len(c.entries) >= maxListEntries {
			return filepath.SkipAll
		}

		rel, relErr := filepath.Rel(c.root, p)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		name := d.Name()

		if name == ".git" {
			if parent := path.Dir(rel); parent != "." {
				c.nested = append(c.nested, parent)
			}
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		if strings.Count(rel, "/")+1 > maxListDepth {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() && skipDir(name, rel, c.ignore) {
			return filepath.SkipDir
		}
		c.entries = append(c.entries, entry{rel: rel, isDir: d.IsDir()})
		return nil
	})

	sort.Strings(c.nested)
	return c.entries
}

func skipDir(name, rel string, ignore []string) bool {
	for _, s := range listingSkipDirs {
		if name == s {
			return true
		}
	}
	return matchesAny(ignore, name, rel)
}

// matchesAny reports whether any pattern matches the base name or the relative path
func matchesAny(patterns []string, name, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
