package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"codenote/internal/document"
	"codenote/internal/lsp"
	"codenote/internal/span"
	"codenote/util"
)

const DefaultCacheSize = 256

// Indexer produces declaration trees from tree-sitter queries. Results are
// cached by content so repeated requests for an unchanged document are free.
type Indexer struct {
	cache *lru.Cache[string, []lsp.DocumentSymbol]

	mu      sync.Mutex
	queries map[*tree_sitter.Language]*tree_sitter.Query
}

func NewIndexer(cacheSize int) (*Indexer, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, []lsp.DocumentSymbol](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create symbol cache: %w", err)
	}
	return &Indexer{
		cache:   cache,
		queries: make(map[*tree_sitter.Language]*tree_sitter.Query),
	}, nil
}

type decl struct {
	name string
	kind lsp.SymbolKind
	rng  span.Range
	sel  span.Range
}

// DocumentSymbols returns the declarations of doc nested by containment.
// The returned slice is shared with the cache and must not be modified.
func (ix *Indexer) DocumentSymbols(ctx context.Context, doc *document.Document) ([]lsp.DocumentSymbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lang, queryKey, err := grammarFor(doc)
	if err != nil {
		return nil, err
	}

	key := util.ContentHash(doc.LanguageID, filepath.Ext(doc.Path), doc.Text())
	if symbols, ok := ix.cache.Get(key); ok {
		return symbols, nil
	}

	query, err := ix.query(lang, queryKey)
	if err != nil {
		return nil, err
	}

	content := []byte(doc.Text())
	tree, err := parse(lang, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	decls := collect(query, tree.RootNode(), content)
	symbols := nest(decls)
	ix.cache.Add(key, symbols)

	slog.Debug("scanner: indexed", "path", doc.Path, "declarations", len(decls))
	return symbols, nil
}

func (ix *Indexer) query(lang *tree_sitter.Language, languageID string) (*tree_sitter.Query, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if q, ok := ix.queries[lang]; ok {
		return q, nil
	}
	q, qerr := tree_sitter.NewQuery(lang, Queries[languageID])
	if qerr != nil {
		return nil, fmt.Errorf("compile %s query: %s", languageID, qerr.Error())
	}
	ix.queries[lang] = q
	return q, nil
}

// Close releases the compiled queries.
func (ix *Indexer) Close() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for lang, q := range ix.queries {
		q.Close()
		delete(ix.queries, lang)
	}
}

func collect(query *tree_sitter.Query, root *tree_sitter.Node, content []byte) []decl {
	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()
	matches := qc.Matches(query, root, content)
	names := query.CaptureNames()

	seen := make(map[span.Range]bool)
	var out []decl
	for {
		match := matches.Next()
		if match == nil {
			break
		}
		var d decl
		var def *tree_sitter.Node
		for _, c := range match.Captures {
			node := c.Node
			switch names[c.Index] {
			case "def":
				d.rng = nodeRange(&node)
				def = &node
			case "name":
				d.name = node.Utf8Text(content)
				d.sel = nodeRange(&node)
			}
		}
		if def == nil || seen[d.rng] {
			continue
		}
		seen[d.rng] = true
		d.kind = symbolKind(def)
		out = append(out, d)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].rng.Start != out[j].rng.Start {
			return out[i].rng.Start.Before(out[j].rng.Start)
		}
		return out[j].rng.End.Before(out[i].rng.End)
	})
	return out
}

func nodeRange(n *tree_sitter.Node) span.Range {
	start, end := n.StartPosition(), n.EndPosition()
	return span.New(int(start.Row), int(start.Column), int(end.Row), int(end.Column))
}

func symbolKind(n *tree_sitter.Node) lsp.SymbolKind {
	switch n.Kind() {
	case "function_declaration", "function_definition":
		return lsp.SymbolKindFunction
	case "method_declaration", "method_definition", "method_signature":
		return lsp.SymbolKindMethod
	case "class_declaration", "class_definition", "abstract_class_declaration", "type_alias_declaration":
		return lsp.SymbolKindClass
	case "interface_declaration":
		return lsp.SymbolKindInterface
	case "enum_declaration":
		return lsp.SymbolKindEnum
	case "field_declaration", "field_definition", "public_field_definition":
		return lsp.SymbolKindField
	case "const_spec":
		return lsp.SymbolKindConstant
	case "type_declaration":
		for i := uint(0); i < n.NamedChildCount(); i++ {
			spec := n.NamedChild(i)
			if spec == nil || spec.Kind() != "type_spec" {
				continue
			}
			if t := spec.ChildByFieldName("type"); t != nil {
				switch t.Kind() {
				case "struct_type":
					return lsp.SymbolKindStruct
				case "interface_type":
					return lsp.SymbolKindInterface
				}
			}
		}
		return lsp.SymbolKindClass
	case "variable_declarator":
		if v := n.ChildByFieldName("value"); v != nil {
			switch v.Kind() {
			case "arrow_function", "function_expression", "function":
				return lsp.SymbolKindFunction
			}
		}
	}
	return lsp.SymbolKindVariable
}

// nest builds the symbol tree from declarations sorted by start, outermost first.
func nest(decls []decl) []lsp.DocumentSymbol {
	children := make([][]int, len(decls))
	var roots, stack []int
	for i, d := range decls {
		for len(stack) > 0 && !decls[stack[len(stack)-1]].rng.Contains(d.rng) {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			p := stack[len(stack)-1]
			children[p] = append(children[p], i)
		} else {
			roots = append(roots, i)
		}
		stack = append(stack, i)
	}

	var build func(i int, parent lsp.SymbolKind) lsp.DocumentSymbol
	build = func(i int, parent lsp.SymbolKind) lsp.DocumentSymbol {
		d := decls[i]
		kind := d.kind
		if kind == lsp.SymbolKindFunction && isTypeLike(parent) {
			kind = lsp.SymbolKindMethod
		}
		sym := lsp.DocumentSymbol{
			Name:           d.name,
			Kind:           kind,
			Range:          lsp.RangeFromSpan(d.rng),
			SelectionRange: lsp.RangeFromSpan(d.sel),
		}
		for _, c := range children[i] {
			sym.Children = append(sym.Children, build(c, kind))
		}
		return sym
	}

	out := make([]lsp.DocumentSymbol, 0, len(roots))
	for _, r := range roots {
		out = append(out, build(r, 0))
	}
	return out
}

func isTypeLike(k lsp.SymbolKind) bool {
	switch k {
	case lsp.SymbolKindClass, lsp.SymbolKindStruct, lsp.SymbolKindInterface:
		return true
	}
	return false
}
