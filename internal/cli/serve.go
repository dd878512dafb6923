package cli

import (
	"github.com/spf13/cobra"

	"codenote/internal/server"
)

var serveDir string

var serveCmd = &cobra.Command{
	Use:   "serve [path]",
	Short: "Start the MCP server for IDE integration",
	Long: `Start the MCP (Model Context Protocol) server on stdio.

The project directory decides which .gitignore applies and where language
servers are rooted. It defaults to the current directory.

Examples:
  codenote serve
  codenote serve /path/to/project
  codenote serve --dir /path/to/project`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveDir, "dir", "d", "", "Project directory")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Priority: 1. --dir flag, 2. positional argument, 3. current directory
	startDir := serveDir
	if startDir == "" && len(args) > 0 {
		startDir = args[0]
	}
	dir, err := workingDir(startDir)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), dir)
	if err != nil {
		return err
	}
	defer a.close()

	srv := server.New(a.orchestrator, server.Options{Version: buildVersion, WrapBlocks: a.cfg.WrapBlocks})
	return srv.Run(cmd.Context())
}
