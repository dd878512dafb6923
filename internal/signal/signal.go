package signal

import (
	"context"
	"errors"
	"log/slog"

	"codenote/internal/document"
	"codenote/internal/lsp"
	"codenote/internal/structure"
)

// StructuralIndexer yields the declaration tree of a document.
type StructuralIndexer interface {
	DocumentSymbols(ctx context.Context, doc *document.Document) ([]lsp.DocumentSymbol, error)
}

// TokenClassifier yields the delta-encoded semantic token stream of a document
// together with the legend naming its token types.
type TokenClassifier interface {
	SemanticTokens(ctx context.Context, doc *document.Document) (lsp.SemanticTokens, error)
	Legend(ctx context.Context, doc *document.Document) (lsp.SemanticTokensLegend, error)
}

// KindFor maps a declaration kind onto a block kind.
func KindFor(k lsp.SymbolKind) structure.Kind {
	switch k {
	case lsp.SymbolKindClass, lsp.SymbolKindInterface, lsp.SymbolKindStruct:
		return structure.KindClass
	case lsp.SymbolKindMethod, lsp.SymbolKindFunction, lsp.SymbolKindConstructor:
		return structure.KindMethod
	case lsp.SymbolKindProperty, lsp.SymbolKindField, lsp.SymbolKindVariable, lsp.SymbolKindConstant:
		return structure.KindProperty
	case lsp.SymbolKindNamespace, lsp.SymbolKindModule, lsp.SymbolKindPackage:
		return structure.KindNamespace
	}
	return structure.KindOther
}

func unavailable(source structure.Source, doc *document.Document, err error) {
	slog.Warn("signal unavailable", "source", source, "path", doc.Path, "error", err)
}

// FallbackIndexer asks each indexer in turn and returns the first success.
type FallbackIndexer []StructuralIndexer

func (f FallbackIndexer) DocumentSymbols(ctx context.Context, doc *document.Document) ([]lsp.DocumentSymbol, error) {
	var errs []error
	for _, ix := range f {
		if ix == nil {
			continue
		}
		symbols, err := ix.DocumentSymbols(ctx, doc)
		if err == nil {
			return symbols, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, errors.New("no structural indexer configured")
	}
	return nil, errors.Join(errs...)
}

// pairedClassifier returns a token stream together with the legend that
// decodes it.
type pairedClassifier interface {
	Classify(ctx context.Context, doc *document.Document) (lsp.SemanticTokens, lsp.SemanticTokensLegend, error)
}

// classify fetches the legend and the token stream from one classifier.
func classify(ctx context.Context, c TokenClassifier, doc *document.Document) (lsp.SemanticTokens, lsp.SemanticTokensLegend, error) {
	if p, ok := c.(pairedClassifier); ok {
		return p.Classify(ctx, doc)
	}
	legend, err := c.Legend(ctx, doc)
	if err != nil {
		return lsp.SemanticTokens{}, lsp.SemanticTokensLegend{}, err
	}
	tokens, err := c.SemanticTokens(ctx, doc)
	if err != nil {
		return lsp.SemanticTokens{}, lsp.SemanticTokensLegend{}, err
	}
	return tokens, legend, nil
}

// FallbackClassifier asks each classifier in turn. The legend and the tokens
// always come from the same classifier, the first that yields both.
type FallbackClassifier []TokenClassifier

func (f FallbackClassifier) Classify(ctx context.Context, doc *document.Document) (lsp.SemanticTokens, lsp.SemanticTokensLegend, error) {
	var errs []error
	for _, c := range f {
		if c == nil {
			continue
		}
		tokens, legend, err := classify(ctx, c, doc)
		if err == nil {
			return tokens, legend, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		errs = append(errs, errors.New("no token classifier configured"))
	}
	return lsp.SemanticTokens{}, lsp.SemanticTokensLegend{}, errors.Join(errs...)
}

func (f FallbackClassifier) SemanticTokens(ctx context.Context, doc *document.Document) (lsp.SemanticTokens, error) {
	tokens, _, err := f.Classify(ctx, doc)
	return tokens, err
}

func (f FallbackClassifier) Legend(ctx context.Context, doc *document.Document) (lsp.SemanticTokensLegend, error) {
	_, legend, err := f.Classify(ctx, doc)
	return legend, err
}
