package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"codenote/internal/commenter"
	"codenote/internal/config"
	"codenote/internal/edit"
	"codenote/internal/generator"
	"codenote/internal/history"
	"codenote/internal/lsp"
	"codenote/internal/scanner"
	"codenote/internal/settings"
	"codenote/internal/signal"
	"codenote/internal/structure"
	"codenote/util"
)

const shutdownTimeout = 5 * time.Second

// app holds everything a command needs, built once per invocation.
type app struct {
	cfg          *config.Config
	settings     *settings.Store
	pool         *lsp.Pool
	indexer      *scanner.Indexer
	orchestrator *commenter.Orchestrator
}

func openSettings() (*settings.Store, error) {
	if err := settings.EnsureHome(); err != nil {
		return nil, err
	}
	path, err := settings.DefaultPath()
	if err != nil {
		return nil, err
	}
	return settings.Open(path)
}

func setupLogging(level slog.Level) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// newApp loads configuration and wires the commenting pipeline for files
// under dir. A missing generator is only logged; commands that need one
// fail when they reach it.
func newApp(ctx context.Context, dir string) (*app, error) {
	store, err := openSettings()
	if err != nil {
		return nil, err
	}
	stored, err := store.List()
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	cfg, err := config.Load(stored)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	setupLogging(cfg.SlogLevel())

	a := &app{cfg: cfg, settings: store}
	root := util.FindGitRoot(dir)

	a.indexer, err = scanner.NewIndexer(scanner.DefaultCacheSize)
	if err != nil {
		a.close()
		return nil, err
	}
	indexers := signal.FallbackIndexer{}
	classifiers := signal.FallbackClassifier{}
	if !cfg.DisableLSP {
		a.pool = lsp.NewPool(root, cfg.LSPPath)
		indexers = append(indexers, a.pool)
		classifiers = append(classifiers, a.pool)
	}
	indexers = append(indexers, a.indexer)
	classifiers = append(classifiers, scanner.NewClassifier())

	analyzer := structure.NewAnalyzer(
		signal.NewSymbolSignal(indexers),
		signal.NewTokenSignal(classifiers),
		signal.NewContextSignal(indexers),
	)

	guard, err := util.NewIgnoreGuard(root)
	if err != nil {
		slog.Warn("cli: could not read .gitignore", "root", root, "error", err)
	}

	gen, err := generator.NewRegistry().New(ctx, cfg.Generator())
	if err != nil {
		slog.Warn("cli: text generator unavailable", "provider", cfg.Provider, "error", err)
		gen = nil
	}

	a.orchestrator = commenter.New(analyzer, gen, edit.NewFileSurface(),
		history.NewStore(cfg.MaxHistorySize), guard, commenter.Options{
			Author:     cfg.Author,
			UILanguage: cfg.UILanguage,
			Mode:       cfg.GenerationMode(),
			WrapBlocks: cfg.WrapBlocks,
			Provider:   cfg.Provider,
		})
	slog.Debug("cli: ready", "root", root, "provider", cfg.Provider, "mode", cfg.Mode, "lsp", a.pool != nil)
	return a, nil
}

func (a *app) close() {
	if a.pool != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := a.pool.Close(ctx); err != nil {
			slog.Debug("cli: language server shutdown", "error", err)
		}
		cancel()
	}
	if a.indexer != nil {
		a.indexer.Close()
	}
	if a.settings != nil {
		_ = a.settings.Close()
	}
}

func workingDir(path string) (string, error) {
	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if info.IsDir() {
			return path, nil
		}
		return filepath.Dir(path), nil
	}
	return os.Getwd()
}
