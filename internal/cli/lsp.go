package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"codenote/internal/config"
	"codenote/internal/installer"
	"codenote/internal/lsp"
	"codenote/internal/settings"
)

var lspVersion string

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Manage the language servers used for structure analysis",
}

var lspInstallCmd = &cobra.Command{
	Use:   "install <language>",
	Short: "Install a language server into codenote's bin directory",
	Long: `Install the language server for a language into codenote's home bin
directory. Servers already on PATH take precedence over installed ones.

Languages: ` + strings.Join(installer.Languages(), ", ") + `

Examples:
  codenote lsp install go
  codenote lsp install rust --version 2025-01-20`,
	Args: cobra.ExactArgs(1),
	RunE: runLSPInstall,
}

var lspStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which language servers codenote would start",
	Args:  cobra.NoArgs,
	RunE:  runLSPStatus,
}

func init() {
	lspInstallCmd.Flags().StringVar(&lspVersion, "version", "", "Server version (default: latest)")
	lspCmd.AddCommand(lspInstallCmd)
	lspCmd.AddCommand(lspStatusCmd)
}

func runLSPInstall(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogging(cfg.SlogLevel())

	home, err := settings.Home()
	if err != nil {
		return err
	}
	path, err := installer.New(home).Install(cmd.Context(), args[0], lspVersion)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Installed %s language server to %s\n", args[0], path)
	return nil
}

func runLSPStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	langs := make([]string, 0, len(lsp.DefaultServers))
	for lang := range lsp.DefaultServers {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	out := cmd.OutOrStdout()
	if cfg.DisableLSP {
		fmt.Fprintln(out, "Language servers are disabled (CODENOTE_DISABLE_LSP).")
	}
	for _, lang := range langs {
		command, err := lsp.ServerCommand(lang, cfg.LSPPath)
		if err != nil {
			fmt.Fprintf(out, "%-12s not installed (codenote lsp install %s)\n", lang, lang)
			continue
		}
		fmt.Fprintf(out, "%-12s %s\n", lang, strings.Join(command, " "))
	}
	return nil
}

// loadConfig reads the effective configuration without wiring the pipeline.
func loadConfig() (*config.Config, error) {
	store, err := openSettings()
	if err != nil {
		return nil, err
	}
	defer store.Close()
	stored, err := store.List()
	if err != nil {
		return nil, err
	}
	return config.Load(stored)
}
