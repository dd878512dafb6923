package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURIRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "with space", "main.go")

	uri := PathToURI(path)
	assert.Contains(t, uri, "file://")
	assert.Equal(t, path, URIToPath(uri))
}

func TestContentHashSeparatesParts(t *testing.T) {
	assert.NotEqual(t, ContentHash("ab", "c"), ContentHash("a", "bc"))
	assert.Equal(t, ContentHash("x"), ContentHash("x"))
}

func TestFindGitRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0755))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	assert.Equal(t, root, FindGitRoot(nested))
}

func TestIgnoreGuard(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("vendor/\n*.gen.go\n"), 0644))

	g, err := NewIgnoreGuard(root)
	require.NoError(t, err)

	assert.True(t, g.Ignored(filepath.Join(root, "vendor", "lib.go")))
	assert.True(t, g.Ignored("api.gen.go"))
	assert.False(t, g.Ignored(filepath.Join(root, "main.go")))
	assert.False(t, g.Ignored("/elsewhere/main.go"))
}

func TestIgnoreGuardWithoutFile(t *testing.T) {
	g, err := NewIgnoreGuard(t.TempDir())
	require.NoError(t, err)
	assert.False(t, g.Ignored("anything.go"))
}
