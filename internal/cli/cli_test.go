package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codenote/internal/installer"
	"codenote/internal/settings"
)

const addSource = "package main\n\nfunc add(a, b int) int {\n\treturn a + b\n}\n"

var envKeys = []string{
	"CODENOTE_PROVIDER", "CODENOTE_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY",
	"CODENOTE_MODEL", "CODENOTE_BASE_URL", "CODENOTE_MODE", "CODENOTE_TIMEOUT",
	"CODENOTE_AUTHOR", "CODENOTE_UI_LANGUAGE", "CODENOTE_MAX_HISTORY_SIZE", "CODENOTE_LSP_PATH",
	"CODENOTE_WRAP_BLOCKS", "LANG",
}

// isolate points codenote at a scratch home without language servers.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	t.Setenv("CODENOTE_HOME", filepath.Join(dir, "home"))
	t.Setenv("CODENOTE_DISABLE_LSP", "true")
	t.Setenv("CODENOTE_LOG_LEVEL", "error")
	return dir
}

func fakeModel(t *testing.T, content string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":` +
			content + `}}]}`))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("CODENOTE_API_KEY", "sk-test")
	t.Setenv("CODENOTE_BASE_URL", srv.URL+"/v1")
}

func resetFlags() {
	commentStart, commentEnd, commentDryRun, commentMode, commentJSON = 0, -1, false, "", false
	analyzeStart, analyzeEnd, analyzeJSON = 0, -1, false
	serveDir = ""
	lspVersion = ""
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "add.go")
	require.NoError(t, os.WriteFile(path, []byte(addSource), 0o644))
	return path
}

func TestSettingsCommands(t *testing.T) {
	isolate(t)

	_, err := run(t, "settings", "set", "author", "Jane Doe")
	require.NoError(t, err)
	_, err = run(t, "settings", "set", "mode", "listing")
	require.NoError(t, err)

	out, err := run(t, "settings", "get", "author")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\n", out)

	out, err = run(t, "settings", "list")
	require.NoError(t, err)
	assert.Equal(t, "author=Jane Doe\nmode=listing\n", out)

	_, err = run(t, "settings", "unset", "mode")
	require.NoError(t, err)
	_, err = run(t, "settings", "get", "mode")
	assert.Error(t, err)

	_, err = run(t, "settings", "set", "colour", "blue")
	assert.ErrorIs(t, err, settings.ErrUnknownKey)
}

func TestAnalyzeCommand(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir)

	out, err := run(t, "analyze", path)
	require.NoError(t, err)
	assert.Contains(t, out, "add")

	out, err = run(t, "analyze", path, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"range"`)

	_, err = run(t, "analyze", path, "--start", "3", "--end", "1")
	assert.Error(t, err)
}

func TestCommentDryRun(t *testing.T) {
	dir := isolate(t)
	fakeModel(t, `"0:line:adds two numbers"`)
	path := writeFile(t, dir)

	out, err := run(t, "comment", path, "--start", "2", "--end", "4", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "+// adds two numbers")
	assert.NotContains(t, out, "Applied")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, addSource, string(data))
}

func TestCommentApplies(t *testing.T) {
	dir := isolate(t)
	fakeModel(t, `"0:line:adds two numbers\n1:line:sum"`)
	path := writeFile(t, dir)

	out, err := run(t, "comment", path, "--start", "2", "--end", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 2 edit(s)")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"package main\n\n// adds two numbers\nfunc add(a, b int) int {\n\t// sum\n\treturn a + b\n}\n",
		string(data))
}

func TestCommentWithoutAPIKey(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir)

	_, err := run(t, "comment", path, "--dry-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text generator")
}

func TestCommentRejectsUnknownMode(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir)

	_, err := run(t, "comment", path, "--mode", "poetry")
	assert.Error(t, err)
}

func TestLSPStatusFindsHomeBinary(t *testing.T) {
	dir := isolate(t)
	bin := filepath.Join(dir, "home", "bin")
	require.NoError(t, os.MkdirAll(bin, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bin, "rust-analyzer"), []byte("#!/bin/sh\n"), 0o755))

	out, err := run(t, "lsp", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Language servers are disabled")
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "rust ") {
			assert.Contains(t, line, "rust-analyzer")
			assert.NotContains(t, line, "not installed")
			return
		}
	}
	t.Fatalf("no rust line in %q", out)
}

func TestLSPInstallUnknownLanguage(t *testing.T) {
	isolate(t)
	_, err := run(t, "lsp", "install", "cobol")
	assert.ErrorIs(t, err, installer.ErrUnsupported)
}
