package structure

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"codenote/internal/document"
	"codenote/internal/span"
)

// Signal is one independent source of structural information. Implementations
// report failures by logging and returning an empty slice.
type Signal interface {
	Source() Source
	Analyze(ctx context.Context, doc *document.Document, rng span.Range) []Block
}

// Analyzer runs the symbol, token and context signals concurrently and
// reconciles their output. Any signal may be nil.
type Analyzer struct {
	symbol  Signal
	token   Signal
	context Signal
}

func NewAnalyzer(symbol, token, context Signal) *Analyzer {
	return &Analyzer{symbol: symbol, token: token, context: context}
}

// Analyze never fails: a signal that panics contributes nothing.
func (a *Analyzer) Analyze(ctx context.Context, doc *document.Document, rng span.Range) *Forest {
	signals := [3]Signal{a.symbol, a.token, a.context}
	var results [3][]Block

	start := time.Now()
	var wg sync.WaitGroup
	for i, s := range signals {
		if s == nil {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					slog.Error("analyze: signal panicked",
						"source", s.Source(), "panic", fmt.Sprint(r))
					results[i] = nil
				}
			}()
			results[i] = s.Analyze(ctx, doc, rng)
		}()
	}
	wg.Wait()

	forest := Reconcile(results[0], results[1], results[2])
	slog.Debug("analyze: reconciled",
		"path", doc.Path,
		"symbol", len(results[0]), "token", len(results[1]), "context", len(results[2]),
		"blocks", forest.Len(), "elapsed", time.Since(start))
	return forest
}
