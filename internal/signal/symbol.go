package signal

import (
	"context"

	"codenote/internal/document"
	"codenote/internal/lsp"
	"codenote/internal/span"
	"codenote/internal/structure"
)

// SymbolSignal turns the declaration tree into nested blocks, keeping every
// declaration that touches the target lines.
type SymbolSignal struct {
	indexer StructuralIndexer
}

func NewSymbolSignal(indexer StructuralIndexer) *SymbolSignal {
	return &SymbolSignal{indexer: indexer}
}

func (s *SymbolSignal) Source() structure.Source { return structure.SourceSymbol }

func (s *SymbolSignal) Analyze(ctx context.Context, doc *document.Document, rng span.Range) []structure.Block {
	symbols, err := s.indexer.DocumentSymbols(ctx, doc)
	if err != nil {
		unavailable(structure.SourceSymbol, doc, err)
		return nil
	}
	return filterSymbols(symbols, rng)
}

// filterSymbols keeps symbols whose lines intersect rng. A symbol that
// straddles the boundary is kept whole.
func filterSymbols(symbols []lsp.DocumentSymbol, rng span.Range) []structure.Block {
	var out []structure.Block
	for _, sym := range symbols {
		r := sym.Range.Span()
		if !r.Intersects(rng) {
			continue
		}
		out = append(out, structure.Block{
			Range: r,
			Kind:  KindFor(sym.Kind),
			Context: &structure.Context{
				Name:       sym.Name,
				Source:     structure.SourceSymbol,
				SymbolKind: int(sym.Kind),
			},
			Children: filterSymbols(sym.Children, rng),
		})
	}
	return out
}
