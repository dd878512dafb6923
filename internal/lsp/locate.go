package lsp

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"codenote/internal/settings"
)

// DefaultServers maps language ids to the command that serves them over stdio.
var DefaultServers = map[string][]string{
	"go":         {"gopls", "serve"},
	"python":     {"pyright-langserver", "--stdio"},
	"typescript": {"typescript-language-server", "--stdio"},
	"javascript": {"typescript-language-server", "--stdio"},
	"rust":       {"rust-analyzer"},
}

// ServerCommand resolves the command line for languageID. A non-empty custom
// path replaces the default binary.
func ServerCommand(languageID, custom string) ([]string, error) {
	def, ok := DefaultServers[languageID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, languageID)
	}
	bin, err := Resolve(def[0], custom)
	if err != nil {
		return nil, err
	}
	return append([]string{bin}, def[1:]...), nil
}

// Resolve locates a server binary.
// Priority: custom path > PATH > codenote home bin directory.
func Resolve(binary, custom string) (string, error) {
	if custom != "" {
		if _, err := os.Stat(custom); err != nil {
			return "", fmt.Errorf("%w: %s", ErrServerNotInstalled, custom)
		}
		return custom, nil
	}

	if path, err := exec.LookPath(binary); err == nil {
		return path, nil
	}

	home, err := settings.Home()
	if err == nil {
		names := []string{binary}
		if runtime.GOOS == "windows" {
			names = append(names, binary+".exe")
		}
		for _, name := range names {
			local := filepath.Join(home, "bin", name)
			if info, err := os.Stat(local); err == nil && !info.IsDir() {
				return local, nil
			}
		}
	}

	return "", fmt.Errorf("%w: %s", ErrServerNotInstalled, binary)
}
