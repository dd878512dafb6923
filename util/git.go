package util

import (
	"os"
	"path/filepath"
)

// FindGitRoot walks up from dir looking for a .git entry.
// Returns dir itself if no repository root is found.
func FindGitRoot(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	for cur := abs; ; {
		if _, err := os.Stat(filepath.Join(cur, ".git")); err == nil {
			return cur
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs
		}
		cur = parent
	}
}
