package installer

import (
	"errors"
	"fmt"
	"runtime"
	"sort"

	"codenote/internal/lsp"
)

var ErrUnsupported = errors.New("no installer for language server")

// Method is how a server is provisioned.
type Method string

const (
	// MethodRelease downloads a prebuilt binary.
	MethodRelease Method = "release"
	// MethodGo builds the server with `go install`.
	MethodGo Method = "go"
	// MethodNPM installs an npm package and links its executable.
	MethodNPM Method = "npm"
)

// Server describes how to install the language server for one language.
type Server struct {
	Name     string
	Binary   string
	Method   Method
	Packages []string // go module path, or npm packages with the server first
	Version  string   // used when no version is requested or resolution fails

	URLs        map[string]string // platform -> URL template with {version}
	Archive     string            // "gz", "tar.gz", "zip" or "" for a bare binary
	ArchivePath string            // binary inside a tar or zip archive
	Resolver    VersionResolver
}

var servers = map[string]Server{
	"go": {
		Name:     "gopls",
		Method:   MethodGo,
		Packages: []string{"golang.org/x/tools/gopls"},
		Version:  "latest",
	},
	"python": {
		Name:     "pyright",
		Method:   MethodNPM,
		Packages: []string{"pyright"},
		Version:  "latest",
	},
	"typescript": {
		Name:     "typescript-language-server",
		Method:   MethodNPM,
		Packages: []string{"typescript-language-server", "typescript"},
		Version:  "latest",
	},
	"rust": {
		Name:    "rust-analyzer",
		Method:  MethodRelease,
		Version: "2025-01-20",
		URLs: map[string]string{
			"linux-amd64":   "https://github.com/rust-lang/rust-analyzer/releases/download/{version}/rust-analyzer-x86_64-unknown-linux-gnu.gz",
			"linux-arm64":   "https://github.com/rust-lang/rust-analyzer/releases/download/{version}/rust-analyzer-aarch64-unknown-linux-gnu.gz",
			"darwin-amd64":  "https://github.com/rust-lang/rust-analyzer/releases/download/{version}/rust-analyzer-x86_64-apple-darwin.gz",
			"darwin-arm64":  "https://github.com/rust-lang/rust-analyzer/releases/download/{version}/rust-analyzer-aarch64-apple-darwin.gz",
			"windows-amd64": "https://github.com/rust-lang/rust-analyzer/releases/download/{version}/rust-analyzer-x86_64-pc-windows-msvc.zip",
		},
		Archive:     "gz",
		ArchivePath: "rust-analyzer.exe",
		Resolver:    NewGitHubResolver("rust-lang", "rust-analyzer"),
	},
}

func init() {
	// javascript files are served by the typescript server
	servers["javascript"] = servers["typescript"]
}

// Lookup returns the install recipe for languageID. The binary name is the
// one lsp.ServerCommand looks for.
func Lookup(languageID string) (Server, error) {
	s, ok := servers[languageID]
	if !ok {
		return Server{}, fmt.Errorf("%w: %s", ErrUnsupported, languageID)
	}
	command, ok := lsp.DefaultServers[languageID]
	if !ok {
		return Server{}, fmt.Errorf("%w: %s", ErrUnsupported, languageID)
	}
	s.Binary = command[0]
	return s, nil
}

// Languages lists the languages with an install recipe.
func Languages() []string {
	out := make([]string, 0, len(servers))
	for lang := range servers {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// PlatformKey identifies the running system, e.g. linux-amd64.
func PlatformKey() string {
	return runtime.GOOS + "-" + runtime.GOARCH
}

func exeName(binary string) string {
	if runtime.GOOS == "windows" {
		return binary + ".exe"
	}
	return binary
}
