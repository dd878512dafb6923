package installer

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codenote/internal/lsp"
)

const serverBinary = "#!/bin/sh\necho codenote-test-server\n"

func gzipped(t *testing.T, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func zipped(t *testing.T, name, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("dist/README.md")
	require.NoError(t, err)
	_, _ = w.Write([]byte("readme"))
	w, err = zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// newTestInstaller installs into home and resolves recipes from table.
func newTestInstaller(home string, table map[string]Server) *Installer {
	in := New(home)
	in.platform = "test-os"
	in.backOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	in.lookup = func(lang string) (Server, error) {
		s, ok := table[lang]
		if !ok {
			return Server{}, ErrUnsupported
		}
		return s, nil
	}
	return in
}

func TestInstallReleaseResolvesLatestVersion(t *testing.T) {
	var downloaded string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/ls/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"tag_name":"2025-02-03"}`))
	})
	mux.HandleFunc("/download/", func(w http.ResponseWriter, r *http.Request) {
		downloaded = r.URL.Path
		_, _ = w.Write(gzipped(t, serverBinary))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resolver := NewGitHubResolver("acme", "ls")
	resolver.BaseURL = srv.URL
	home := t.TempDir()
	in := newTestInstaller(home, map[string]Server{
		"acme": {
			Name:     "acme-ls",
			Binary:   "acme-ls",
			Method:   MethodRelease,
			Version:  "2024-01-01",
			URLs:     map[string]string{"test-os": srv.URL + "/download/{version}/acme-ls.gz"},
			Archive:  "gz",
			Resolver: resolver,
		},
	})

	path, err := in.Install(context.Background(), "acme", "")
	require.NoError(t, err)
	assert.Equal(t, "/download/2025-02-03/acme-ls.gz", downloaded)
	assert.Equal(t, filepath.Join(home, "bin", "acme-ls"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, serverBinary, string(data))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o100, "installed binary must be executable")

	t.Setenv("CODENOTE_HOME", home)
	found, err := lsp.Resolve("acme-ls", "")
	require.NoError(t, err)
	assert.Equal(t, path, found)
}

func TestInstallReleaseFallsBackToPinnedVersion(t *testing.T) {
	var downloaded string
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/ls/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	})
	mux.HandleFunc("/download/", func(w http.ResponseWriter, r *http.Request) {
		downloaded = r.URL.Path
		_, _ = w.Write([]byte(serverBinary))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resolver := NewGitHubResolver("acme", "ls")
	resolver.BaseURL = srv.URL
	in := newTestInstaller(t.TempDir(), map[string]Server{
		"acme": {
			Name:     "acme-ls",
			Binary:   "acme-ls",
			Method:   MethodRelease,
			Version:  "2024-01-01",
			URLs:     map[string]string{"test-os": srv.URL + "/download/{version}/acme-ls"},
			Resolver: resolver,
		},
	})

	_, err := in.Install(context.Background(), "acme", "latest")
	require.NoError(t, err)
	assert.Equal(t, "/download/2024-01-01/acme-ls", downloaded)

	_, err = in.Install(context.Background(), "acme", "v9")
	require.NoError(t, err)
	assert.Equal(t, "/download/v9/acme-ls", downloaded)
}

func TestInstallReleaseRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "busy", http.StatusBadGateway)
			return
		}
		_, _ = w.Write(zipped(t, "dist/bin/acme-ls", serverBinary))
	}))
	defer srv.Close()

	home := t.TempDir()
	in := newTestInstaller(home, map[string]Server{
		"acme": {
			Name:        "acme-ls",
			Binary:      "acme-ls",
			Method:      MethodRelease,
			Version:     "1.0.0",
			URLs:        map[string]string{"test-os": srv.URL + "/acme-ls-{version}.zip"},
			ArchivePath: "bin/acme-ls",
		},
	})

	path, err := in.Install(context.Background(), "acme", "")
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, serverBinary, string(data))
}

func TestInstallReleaseDoesNotRetryMissingAsset(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	home := t.TempDir()
	in := newTestInstaller(home, map[string]Server{
		"acme": {
			Name:    "acme-ls",
			Binary:  "acme-ls",
			Method:  MethodRelease,
			Version: "1.0.0",
			URLs:    map[string]string{"test-os": srv.URL + "/{version}/acme-ls.gz"},
			Archive: "gz",
		},
	})

	_, err := in.Install(context.Background(), "acme", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int32(1), hits.Load())
	assert.NoFileExists(t, filepath.Join(home, "bin", "acme-ls"))
}

func TestInstallReleaseNeedsPlatformBuild(t *testing.T) {
	in := newTestInstaller(t.TempDir(), map[string]Server{
		"acme": {Name: "acme-ls", Binary: "acme-ls", Method: MethodRelease, URLs: map[string]string{"plan9-mips": "x"}},
	})
	_, err := in.Install(context.Background(), "acme", "")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestInstallGoUsesHomeBin(t *testing.T) {
	home := t.TempDir()
	in := newTestInstaller(home, map[string]Server{
		"go": {Name: "gopls", Binary: "gopls", Method: MethodGo, Packages: []string{"golang.org/x/tools/gopls"}, Version: "latest"},
	})
	var calls []string
	in.run = func(ctx context.Context, dir string, env []string, name string, args ...string) error {
		calls = append(calls, name+" "+strings.Join(args, " "))
		require.Equal(t, []string{"GOBIN=" + filepath.Join(home, "bin")}, env)
		return os.WriteFile(filepath.Join(home, "bin", "gopls"), []byte(serverBinary), 0o755)
	}

	path, err := in.Install(context.Background(), "go", "v0.18.1")
	require.NoError(t, err)
	assert.Equal(t, []string{"go install golang.org/x/tools/gopls@v0.18.1"}, calls)
	assert.Equal(t, filepath.Join(home, "bin", "gopls"), path)
}

func TestInstallNPMLinksExecutable(t *testing.T) {
	home := t.TempDir()
	in := newTestInstaller(home, map[string]Server{
		"typescript": {
			Name:     "typescript-language-server",
			Binary:   "typescript-language-server",
			Method:   MethodNPM,
			Packages: []string{"typescript-language-server", "typescript"},
			Version:  "latest",
		},
	})
	var calls []string
	in.run = func(ctx context.Context, dir string, env []string, name string, args ...string) error {
		calls = append(calls, name+" "+strings.Join(args, " "))
		bin := filepath.Join(dir, "node_modules", ".bin")
		require.NoError(t, os.MkdirAll(bin, 0o755))
		return os.WriteFile(filepath.Join(bin, "typescript-language-server"), []byte(serverBinary), 0o755)
	}

	path, err := in.Install(context.Background(), "typescript", "")
	require.NoError(t, err)
	prefix := filepath.Join(home, "lib", "typescript-language-server")
	assert.Equal(t, []string{
		"npm install --prefix " + prefix + " --no-fund --no-audit typescript-language-server@latest typescript",
	}, calls)

	target, err := os.Readlink(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(prefix, "node_modules", ".bin", "typescript-language-server"), target)

	// reinstalling replaces the link
	_, err = in.Install(context.Background(), "typescript", "4.3.3")
	require.NoError(t, err)
	assert.Contains(t, calls[1], "typescript-language-server@4.3.3")
}

func TestInstallToolFailure(t *testing.T) {
	in := newTestInstaller(t.TempDir(), map[string]Server{
		"python": {Name: "pyright", Binary: "pyright-langserver", Method: MethodNPM, Packages: []string{"pyright"}, Version: "latest"},
	})
	in.run = func(context.Context, string, []string, string, ...string) error {
		return assert.AnError
	}
	_, err := in.Install(context.Background(), "python", "")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestLookup(t *testing.T) {
	s, err := Lookup("python")
	require.NoError(t, err)
	assert.Equal(t, "pyright-langserver", s.Binary)
	assert.Equal(t, MethodNPM, s.Method)

	js, err := Lookup("javascript")
	require.NoError(t, err)
	assert.Equal(t, "typescript-language-server", js.Binary)

	for _, lang := range Languages() {
		s, err := Lookup(lang)
		require.NoError(t, err, lang)
		assert.Equal(t, lsp.DefaultServers[lang][0], s.Binary)
	}

	_, err = Lookup("cobol")
	assert.ErrorIs(t, err, ErrUnsupported)
}
