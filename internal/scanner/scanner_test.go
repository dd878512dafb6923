package scanner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codenote/internal/document"
	"codenote/internal/lsp"
)

const goSource = `package main

import "fmt"

// Server answers requests.
type Server struct {
	addr string
}

func (s *Server) Start() error {
	fmt.Println(s.addr)
	return nil
}

func main() {}
`

const pySource = `class Greeter:
    """Says hello."""

    def greet(self, name):
        # friendly
        return "hi " + name


def helper():
    pass
`

func names(symbols []lsp.DocumentSymbol) []string {
	var out []string
	for _, s := range symbols {
		out = append(out, s.Name)
	}
	return out
}

func TestIndexerGo(t *testing.T) {
	ix, err := NewIndexer(8)
	require.NoError(t, err)
	defer ix.Close()

	doc := document.New("/src/main.go", "", goSource)
	symbols, err := ix.DocumentSymbols(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"Server", "Start", "main"}, names(symbols))
	assert.Equal(t, lsp.SymbolKindStruct, symbols[0].Kind)
	require.Len(t, symbols[0].Children, 1)
	assert.Equal(t, "addr", symbols[0].Children[0].Name)
	assert.Equal(t, lsp.SymbolKindField, symbols[0].Children[0].Kind)
	assert.Equal(t, lsp.SymbolKindMethod, symbols[1].Kind)
	assert.Equal(t, 9, symbols[1].Range.Start.Line)
	assert.Equal(t, 12, symbols[1].Range.End.Line)

	again, err := ix.DocumentSymbols(context.Background(), document.New("/src/main.go", "", goSource))
	require.NoError(t, err)
	assert.Equal(t, symbols, again)
}

func TestIndexerPythonPromotesMethods(t *testing.T) {
	ix, err := NewIndexer(0)
	require.NoError(t, err)
	defer ix.Close()

	symbols, err := ix.DocumentSymbols(context.Background(), document.New("greet.py", "", pySource))
	require.NoError(t, err)

	assert.Equal(t, []string{"Greeter", "helper"}, names(symbols))
	assert.Equal(t, lsp.SymbolKindClass, symbols[0].Kind)
	require.Len(t, symbols[0].Children, 1)
	assert.Equal(t, lsp.SymbolKindMethod, symbols[0].Children[0].Kind)
	assert.Equal(t, lsp.SymbolKindFunction, symbols[1].Kind)
}

func TestIndexerUnsupportedLanguage(t *testing.T) {
	ix, err := NewIndexer(0)
	require.NoError(t, err)

	_, err = ix.DocumentSymbols(context.Background(), document.New("notes.txt", "", "hello"))
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
	assert.False(t, Supported("plaintext"))
	assert.True(t, Supported("typescript"))
}

func TestIndexerTypeScript(t *testing.T) {
	ix, err := NewIndexer(0)
	require.NoError(t, err)
	defer ix.Close()

	src := "interface Shape {\n  area(): number;\n}\n\nclass Circle {\n  radius = 1;\n  area() { return 3; }\n}\n\nconst double = (x: number) => x * 2;\n"
	symbols, err := ix.DocumentSymbols(context.Background(), document.New("shapes.ts", "", src))
	require.NoError(t, err)

	assert.Equal(t, []string{"Shape", "Circle", "double"}, names(symbols))
	assert.Equal(t, lsp.SymbolKindInterface, symbols[0].Kind)
	assert.Equal(t, []string{"radius", "area"}, names(symbols[1].Children))
	assert.Equal(t, lsp.SymbolKindFunction, symbols[2].Kind)
}

func TestClassifierFindsComments(t *testing.T) {
	doc := document.New("main.go", "", goSource)
	tokens, err := NewClassifier().SemanticTokens(context.Background(), doc)
	require.NoError(t, err)
	require.NotEmpty(t, tokens.Data)
	require.Zero(t, len(tokens.Data)%5)

	// Rebuild absolute positions to find the comment token.
	var line, col uint32
	found := false
	for i := 0; i < len(tokens.Data); i += 5 {
		dl, dc := tokens.Data[i], tokens.Data[i+1]
		line += dl
		if dl == 0 {
			col += dc
		} else {
			col = dc
		}
		if tokens.Data[i+3] == TokenComment {
			found = true
			assert.Equal(t, uint32(4), line)
			assert.Equal(t, uint32(0), col)
			assert.Equal(t, uint32(len("// Server answers requests.")), tokens.Data[i+2])
		}
	}
	assert.True(t, found)
}

func TestClassifierSplitsMultiLineComments(t *testing.T) {
	src := "package p\n\n/* one\n\n   three */\nvar x = 1\n"
	doc := document.New("p.go", "", src)
	content := []byte(src)
	tree, err := parse(goLang, content)
	require.NoError(t, err)
	defer tree.Close()

	var comments []Token
	for _, tok := range Classify(tree.RootNode(), content, doc) {
		if tok.Type == TokenComment {
			comments = append(comments, tok)
		}
	}
	assert.Equal(t, []Token{
		{Line: 2, Col: 0, Length: 6, Type: TokenComment},
		{Line: 3, Col: 0, Length: 0, Type: TokenComment},
		{Line: 4, Col: 0, Length: 11, Type: TokenComment},
	}, comments)
}

func TestEncodeTokens(t *testing.T) {
	data := EncodeTokens([]Token{
		{Line: 1, Col: 4, Length: 3, Type: TokenKeyword},
		{Line: 1, Col: 10, Length: 2, Type: TokenVariable},
		{Line: 3, Col: 2, Length: 5, Type: TokenComment},
	})
	assert.Equal(t, []uint32{
		1, 4, 3, TokenKeyword, 0,
		0, 6, 2, TokenVariable, 0,
		2, 2, 5, TokenComment, 0,
	}, data)
}
