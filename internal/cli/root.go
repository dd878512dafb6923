package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "codenote",
	Short: "Insert generated comments into source code",
	Long: `codenote - generated comments without touching the code

codenote reconciles the structure of a selection from several signals
(language servers, tree-sitter, imports), asks a language model for
annotations and inserts them above the lines they describe. Code lines
are never modified.

Quick Start:
  codenote analyze main.go --start 0 --end 40    Show the block structure
  codenote comment main.go --start 10 --end 30   Comment a selection
  codenote comment main.go --dry-run             Preview the diff only
  codenote serve                                 Start the MCP server
  codenote settings set author "Jane Doe"        Persist a setting
  codenote lsp install go                        Install a language server

Configuration is read from the environment (and .env): CODENOTE_PROVIDER,
CODENOTE_API_KEY, CODENOTE_MODEL, CODENOTE_MODE, CODENOTE_LOG_LEVEL, ...
Persisted settings override the environment.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(commentCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(lspCmd)
	// versionCmd is registered in version.go
}
