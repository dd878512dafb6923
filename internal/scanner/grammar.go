package scanner

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"codenote/internal/document"
)

var ErrUnsupportedLanguage = errors.New("no grammar for language")

var (
	goLang         = tree_sitter.NewLanguage(tree_sitter_go.Language())
	pythonLang     = tree_sitter.NewLanguage(tree_sitter_python.Language())
	javascriptLang = tree_sitter.NewLanguage(tree_sitter_javascript.Language())
	typescriptLang = tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	tsxLang        = tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
)

// grammarFor picks the grammar for a document. TSX files get their own
// grammar but share the TypeScript queries.
func grammarFor(doc *document.Document) (*tree_sitter.Language, string, error) {
	switch doc.LanguageID {
	case "go":
		return goLang, "go", nil
	case "python":
		return pythonLang, "python", nil
	case "javascript":
		return javascriptLang, "javascript", nil
	case "typescript":
		if strings.EqualFold(filepath.Ext(doc.Path), ".tsx") {
			return tsxLang, "typescript", nil
		}
		return typescriptLang, "typescript", nil
	}
	return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, doc.LanguageID)
}

// Supported reports whether a grammar exists for the language id.
func Supported(languageID string) bool {
	_, ok := Queries[languageID]
	return ok
}

func parse(lang *tree_sitter.Language, content []byte) (*tree_sitter.Tree, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("set language: %w", err)
	}
	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse failed")
	}
	return tree, nil
}
