package scanner

import (
	"context"
	"strings"
	"unicode"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"codenote/internal/document"
	"codenote/internal/lsp"
)

// Token type indexes into Legend.
const (
	TokenComment uint32 = iota
	TokenString
	TokenNumber
	TokenKeyword
	TokenOperator
	TokenVariable
	TokenType
)

var Legend = lsp.SemanticTokensLegend{
	TokenTypes:     []string{"comment", "string", "number", "keyword", "operator", "variable", "type"},
	TokenModifiers: []string{},
}

// Token is one classified single-line lexical token. Columns are byte offsets.
type Token struct {
	Line      uint32
	Col       uint32
	Length    uint32
	Type      uint32
	Modifiers uint32
}

// EncodeTokens packs tokens, sorted by position, into the LSP relative
// format: the column is relative to the previous token only when both sit on
// the same line.
func EncodeTokens(tokens []Token) []uint32 {
	data := make([]uint32, 0, len(tokens)*5)
	var prevLine, prevCol uint32
	for _, t := range tokens {
		deltaLine := t.Line - prevLine
		deltaCol := t.Col
		if deltaLine == 0 {
			deltaCol = t.Col - prevCol
		}
		data = append(data, deltaLine, deltaCol, t.Length, t.Type, t.Modifiers)
		prevLine, prevCol = t.Line, t.Col
	}
	return data
}

// Classifier classifies the leaves of a tree-sitter parse into semantic tokens.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

func (c *Classifier) Legend(ctx context.Context, doc *document.Document) (lsp.SemanticTokensLegend, error) {
	return Legend, nil
}

func (c *Classifier) SemanticTokens(ctx context.Context, doc *document.Document) (lsp.SemanticTokens, error) {
	if err := ctx.Err(); err != nil {
		return lsp.SemanticTokens{}, err
	}
	lang, _, err := grammarFor(doc)
	if err != nil {
		return lsp.SemanticTokens{}, err
	}
	content := []byte(doc.Text())
	tree, err := parse(lang, content)
	if err != nil {
		return lsp.SemanticTokens{}, err
	}
	defer tree.Close()

	tokens := Classify(tree.RootNode(), content, doc)
	return lsp.SemanticTokens{Data: EncodeTokens(tokens)}, nil
}

// Classify walks the leaves under root in document order. Comments and string
// literals are taken whole and split into one token per line.
func Classify(root *tree_sitter.Node, content []byte, doc *document.Document) []Token {
	var out []Token
	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		kind := n.Kind()
		whole := isComment(kind) || isString(kind)
		if n.ChildCount() > 0 && !whole {
			for i := uint(0); i < n.ChildCount(); i++ {
				if child := n.Child(i); child != nil {
					walk(child)
				}
			}
			return
		}
		typ, ok := classifyLeaf(n, kind, content)
		if !ok {
			return
		}
		out = appendSplit(out, n, typ, doc)
	}
	walk(root)
	return out
}

func classifyLeaf(n *tree_sitter.Node, kind string, content []byte) (uint32, bool) {
	switch {
	case isComment(kind):
		return TokenComment, true
	case isString(kind):
		return TokenString, true
	case strings.Contains(kind, "int") && strings.Contains(kind, "literal"),
		strings.Contains(kind, "float"), kind == "number", kind == "integer":
		return TokenNumber, true
	case kind == "type_identifier", kind == "primitive_type", kind == "predefined_type":
		return TokenType, true
	case strings.HasSuffix(kind, "identifier"):
		return TokenVariable, true
	}
	if n.IsNamed() {
		return 0, false
	}
	text := n.Utf8Text(content)
	if text == "" {
		return 0, false
	}
	if isWord(text) {
		return TokenKeyword, true
	}
	if strings.ContainsAny(text, "(){}[],;.") {
		return 0, false
	}
	return TokenOperator, true
}

func isComment(kind string) bool {
	return strings.Contains(kind, "comment")
}

func isString(kind string) bool {
	switch kind {
	case "string", "template_string", "interpreted_string_literal", "raw_string_literal", "rune_literal", "string_literal":
		return true
	}
	return false
}

func isWord(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && r != '_' {
			return false
		}
	}
	return true
}

// appendSplit emits one token per line covered by n. Interior empty lines
// produce zero-length tokens so the run stays contiguous.
func appendSplit(out []Token, n *tree_sitter.Node, typ uint32, doc *document.Document) []Token {
	start, end := n.StartPosition(), n.EndPosition()
	if start.Row == end.Row {
		if end.Column > start.Column {
			out = append(out, Token{
				Line:   uint32(start.Row),
				Col:    uint32(start.Column),
				Length: uint32(end.Column - start.Column),
				Type:   typ,
			})
		}
		return out
	}
	for row := start.Row; row <= end.Row; row++ {
		line, _ := doc.Line(int(row))
		from, to := uint(0), uint(len(line))
		if row == start.Row {
			from = start.Column
		}
		if row == end.Row {
			to = end.Column
		}
		if to < from {
			to = from
		}
		if row == end.Row && to == from {
			break
		}
		out = append(out, Token{Line: uint32(row), Col: uint32(from), Length: uint32(to - from), Type: typ})
	}
	return out
}
