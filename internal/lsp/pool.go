package lsp

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"codenote/internal/document"
)

// Pool keeps one running client per language, started on first use. A
// language whose server failed to start is not retried.
type Pool struct {
	rootDir string
	custom  string
	start   func(ctx context.Context, command []string, rootDir string) (*Client, error)

	mu      sync.Mutex
	clients map[string]*Client
	failed  map[string]error
}

// NewPool creates a pool rooted at rootDir. A non-empty custom path replaces
// the default server binary for every language.
func NewPool(rootDir, custom string) *Pool {
	return &Pool{
		rootDir: rootDir,
		custom:  custom,
		start:   Start,
		clients: make(map[string]*Client),
		failed:  make(map[string]error),
	}
}

func (p *Pool) client(ctx context.Context, languageID string) (*Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[languageID]; ok {
		return c, nil
	}
	if err, ok := p.failed[languageID]; ok {
		return nil, err
	}

	command, err := ServerCommand(languageID, p.custom)
	if err == nil {
		var c *Client
		if c, err = p.start(ctx, command, p.rootDir); err == nil {
			slog.Info("lsp: server ready", "language", languageID, "command", command[0])
			p.clients[languageID] = c
			return c, nil
		}
	}
	slog.Debug("lsp: server unavailable", "language", languageID, "error", err)
	p.failed[languageID] = err
	return nil, err
}

func (p *Pool) DocumentSymbols(ctx context.Context, doc *document.Document) ([]DocumentSymbol, error) {
	c, err := p.client(ctx, doc.LanguageID)
	if err != nil {
		return nil, err
	}
	return c.DocumentSymbols(ctx, doc)
}

func (p *Pool) SemanticTokens(ctx context.Context, doc *document.Document) (SemanticTokens, error) {
	c, err := p.client(ctx, doc.LanguageID)
	if err != nil {
		return SemanticTokens{}, err
	}
	return c.SemanticTokens(ctx, doc)
}

func (p *Pool) Legend(ctx context.Context, doc *document.Document) (SemanticTokensLegend, error) {
	c, err := p.client(ctx, doc.LanguageID)
	if err != nil {
		return SemanticTokensLegend{}, err
	}
	return c.Legend(ctx, doc)
}

// Close shuts down every running server.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for id, c := range p.clients {
		if err := c.Close(ctx); err != nil {
			errs = append(errs, err)
		}
		delete(p.clients, id)
	}
	return errors.Join(errs...)
}
