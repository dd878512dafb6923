package signal

import (
	"context"
	"regexp"
	"strings"

	"codenote/internal/document"
	"codenote/internal/lsp"
	"codenote/internal/span"
	"codenote/internal/structure"
)

// ImportsBlockName names the synthetic block that gathers import statements.
const ImportsBlockName = "Imports"

var importPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*import\s+\S`),
	regexp.MustCompile(`^\s*from\s+\S+\s+import\s+`),
	regexp.MustCompile(`^\s*#\s*include\s*[<"]`),
	regexp.MustCompile(`^\s*using\s+[\w.:]+.*;\s*$`),
	regexp.MustCompile(`^\s*(?:(?:const|let|var)\s+[\w${}\s,:]+=\s*)?require\s*\(\s*['"]`),
	regexp.MustCompile(`^\s*use\s+[\w:\\{}, ]+;?\s*$`),
}

var (
	importGroupOpen  = regexp.MustCompile(`^\s*(?:import|from\s+\S+\s+import)\s*\(\s*$`)
	importGroupClose = regexp.MustCompile(`^\s*\)`)
)

// ContextSignal reports the import header of the document and the
// innermost declaration enclosing the target lines.
type ContextSignal struct {
	indexer StructuralIndexer
}

// NewContextSignal accepts a nil indexer, in which case only imports are reported.
func NewContextSignal(indexer StructuralIndexer) *ContextSignal {
	return &ContextSignal{indexer: indexer}
}

func (s *ContextSignal) Source() structure.Source { return structure.SourceContext }

func (s *ContextSignal) Analyze(ctx context.Context, doc *document.Document, rng span.Range) []structure.Block {
	var out []structure.Block
	if b, ok := ImportsBlock(doc); ok {
		out = append(out, b)
	}
	if s.indexer == nil {
		return out
	}
	symbols, err := s.indexer.DocumentSymbols(ctx, doc)
	if err != nil {
		unavailable(structure.SourceContext, doc, err)
		return out
	}
	if sym, ok := Enclosing(symbols, rng); ok {
		out = append(out, structure.Block{
			Range: sym.Range.Span(),
			Kind:  KindFor(sym.Kind),
			Context: &structure.Context{
				Name:       sym.Name,
				Source:     structure.SourceContext,
				SymbolKind: int(sym.Kind),
			},
		})
	}
	return out
}

// ImportsBlock collects the leading import header of doc into one block. The
// header starts at the first unindented import and runs through the imports,
// blank lines and comments that follow it; the first other line ends it, so
// imports local to a function body are never part of it.
func ImportsBlock(doc *document.Document) (structure.Block, bool) {
	var imports []string
	first, last := -1, -1
	inGroup := false
	mark := func(i int) {
		if first < 0 {
			first = i
		}
		last = i
	}

scan:
	for i := 0; i < doc.LineCount(); i++ {
		line, _ := doc.Line(i)
		trimmed := strings.TrimSpace(line)
		started := first >= 0
		switch {
		case inGroup:
			mark(i)
			if importGroupClose.MatchString(line) {
				inGroup = false
				continue
			}
			if trimmed != "" && !isComment(trimmed) {
				imports = append(imports, strings.TrimSuffix(trimmed, ","))
			}
		case importGroupOpen.MatchString(line) && (started || !indented(line)):
			inGroup = true
			mark(i)
		case isImport(line) && (started || !indented(line)):
			mark(i)
			imports = append(imports, trimmed)
		case !started, trimmed == "", isComment(trimmed):
			// preamble before the header, or a gap inside it
		default:
			break scan
		}
	}
	if first < 0 {
		return structure.Block{}, false
	}

	lastLine, _ := doc.Line(last)
	return structure.Block{
		Range: span.New(first, 0, last, len(lastLine)),
		Kind:  structure.KindOther,
		Context: &structure.Context{
			Name:    ImportsBlockName,
			Source:  structure.SourceContext,
			Imports: imports,
		},
	}, true
}

func isImport(line string) bool {
	for _, re := range importPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func isComment(trimmed string) bool {
	for _, prefix := range []string{"//", "#", "/*", "*", "--", ";"} {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

func indented(line string) bool {
	return line != "" && (line[0] == ' ' || line[0] == '\t')
}

// Enclosing returns the deepest declaration whose lines cover every line of rng.
func Enclosing(symbols []lsp.DocumentSymbol, rng span.Range) (lsp.DocumentSymbol, bool) {
	for _, sym := range symbols {
		if !sym.Range.Span().EnclosesLines(rng) {
			continue
		}
		if inner, ok := Enclosing(sym.Children, rng); ok {
			return inner, true
		}
		return sym, true
	}
	return lsp.DocumentSymbol{}, false
}
