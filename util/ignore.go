package util

import (
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// IgnoreGuard answers whether a path is excluded by the repository's .gitignore.
type IgnoreGuard struct {
	root    string
	matcher *ignore.GitIgnore
}

// NewIgnoreGuard loads <root>/.gitignore. A missing file yields a guard that ignores nothing.
func NewIgnoreGuard(root string) (*IgnoreGuard, error) {
	g := &IgnoreGuard{root: root}
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return g, nil
		}
		return nil, err
	}
	m, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil, err
	}
	g.matcher = m
	return g, nil
}

// Ignored reports whether path (absolute or relative to the root) is gitignored.
func (g *IgnoreGuard) Ignored(path string) bool {
	if g == nil || g.matcher == nil {
		return false
	}
	rel := path
	if filepath.IsAbs(path) {
		r, err := filepath.Rel(g.root, path)
		if err != nil || strings.HasPrefix(r, "..") {
			return false
		}
		rel = r
	}
	return g.matcher.MatchesPath(filepath.ToSlash(rel))
}
