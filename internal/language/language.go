package language

import (
	"path/filepath"
	"strings"
)

// CommentStyle describes how a language spells its comments.
type CommentStyle struct {
	LineComment  string    `json:"line_comment"`
	BlockComment [2]string `json:"block_comment"`
	DocComment   [2]string `json:"doc_comment"`
}

// HasBlock reports whether the language has block comment delimiters.
func (s CommentStyle) HasBlock() bool { return s.BlockComment[0] != "" }

// HasDoc reports whether the language has doc comment delimiters.
func (s CommentStyle) HasDoc() bool { return s.DocComment[0] != "" }

// Info describes a known language.
type Info struct {
	ID         string
	Name       string
	Extensions []string
	Style      CommentStyle
}

const PlainText = "plaintext"

var (
	cStyle = CommentStyle{
		LineComment:  "//",
		BlockComment: [2]string{"/*", "*/"},
		DocComment:   [2]string{"/**", "*/"},
	}
	hashStyle = CommentStyle{
		LineComment: "#",
	}
)

// The tables below are filled once in init and only read afterwards.
var (
	byID  = map[string]Info{}
	byExt = map[string]string{}
)

func init() {
	for _, info := range []Info{
		{ID: "go", Name: "Go", Extensions: []string{".go"}, Style: CommentStyle{
			LineComment:  "//",
			BlockComment: [2]string{"/*", "*/"},
		}},
		{ID: "typescript", Name: "TypeScript", Extensions: []string{".ts", ".tsx", ".mts", ".cts"}, Style: cStyle},
		{ID: "javascript", Name: "JavaScript", Extensions: []string{".js", ".jsx", ".mjs", ".cjs"}, Style: cStyle},
		{ID: "java", Name: "Java", Extensions: []string{".java"}, Style: cStyle},
		{ID: "kotlin", Name: "Kotlin", Extensions: []string{".kt", ".kts"}, Style: cStyle},
		{ID: "csharp", Name: "C#", Extensions: []string{".cs"}, Style: CommentStyle{
			LineComment:  "//",
			BlockComment: [2]string{"/*", "*/"},
			DocComment:   [2]string{"/**", "*/"},
		}},
		{ID: "c", Name: "C", Extensions: []string{".c", ".h"}, Style: cStyle},
		{ID: "cpp", Name: "C++", Extensions: []string{".cc", ".cpp", ".cxx", ".hpp", ".hh"}, Style: cStyle},
		{ID: "rust", Name: "Rust", Extensions: []string{".rs"}, Style: CommentStyle{
			LineComment:  "//",
			BlockComment: [2]string{"/*", "*/"},
			DocComment:   [2]string{"/**", "*/"},
		}},
		{ID: "swift", Name: "Swift", Extensions: []string{".swift"}, Style: cStyle},
		{ID: "php", Name: "PHP", Extensions: []string{".php"}, Style: cStyle},
		{ID: "python", Name: "Python", Extensions: []string{".py", ".pyi"}, Style: CommentStyle{
			LineComment:  "#",
			BlockComment: [2]string{`"""`, `"""`},
			DocComment:   [2]string{`"""`, `"""`},
		}},
		{ID: "ruby", Name: "Ruby", Extensions: []string{".rb"}, Style: CommentStyle{
			LineComment:  "#",
			BlockComment: [2]string{"=begin", "=end"},
		}},
		{ID: "shellscript", Name: "Shell", Extensions: []string{".sh", ".bash", ".zsh"}, Style: hashStyle},
		{ID: "yaml", Name: "YAML", Extensions: []string{".yaml", ".yml"}, Style: hashStyle},
		{ID: "lua", Name: "Lua", Extensions: []string{".lua"}, Style: CommentStyle{
			LineComment:  "--",
			BlockComment: [2]string{"--[[", "]]"},
		}},
		{ID: "sql", Name: "SQL", Extensions: []string{".sql"}, Style: CommentStyle{
			LineComment:  "--",
			BlockComment: [2]string{"/*", "*/"},
		}},
	} {
		byID[info.ID] = info
		for _, ext := range info.Extensions {
			byExt[ext] = info.ID
		}
	}
}

// Detect returns the language id for a file path, or plaintext.
func Detect(path string) string {
	if id, ok := byExt[strings.ToLower(filepath.Ext(path))]; ok {
		return id
	}
	return PlainText
}

// Lookup returns the language info for id, falling back to plain text.
func Lookup(id string) Info {
	if info, ok := byID[id]; ok {
		return info
	}
	return Info{
		ID:         PlainText,
		Name:       "Plain Text",
		Extensions: []string{".txt"},
		Style:      DefaultStyle(),
	}
}

// Style returns the comment style for a language id.
func Style(id string) CommentStyle {
	return Lookup(id).Style
}

func DefaultStyle() CommentStyle {
	return cStyle
}
