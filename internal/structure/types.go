package structure

import (
	"encoding/json"

	"codenote/internal/span"
)

// Kind is the structural category of a block.
type Kind string

const (
	KindClass     Kind = "class"
	KindMethod    Kind = "method"
	KindProperty  Kind = "property"
	KindNamespace Kind = "namespace"
	KindComment   Kind = "comment"
	KindOther     Kind = "other"
)

// Source names the signal a block came from.
type Source string

const (
	SourceSymbol  Source = "symbol"
	SourceToken   Source = "token"
	SourceContext Source = "context"
)

// Context carries the optional descriptive data attached to a block.
// For comment blocks Name holds the comment text.
type Context struct {
	Name       string   `json:"name,omitempty"`
	Source     Source   `json:"source,omitempty"`
	SymbolKind int      `json:"symbol_kind,omitempty"`
	Imports    []string `json:"imports,omitempty"`
}

func (c *Context) clone() *Context {
	if c == nil {
		return nil
	}
	out := *c
	if c.Imports != nil {
		out.Imports = append([]string(nil), c.Imports...)
	}
	return &out
}

// Block is the input shape produced by signal sources. Children are optional
// and are flattened before reconciliation.
type Block struct {
	Range    span.Range `json:"range"`
	Kind     Kind       `json:"kind"`
	Context  *Context   `json:"context,omitempty"`
	Children []Block    `json:"children,omitempty"`
}

// Name returns the context name or the empty string.
func (b Block) Name() string {
	if b.Context == nil {
		return ""
	}
	return b.Context.Name
}

// CodeBlock is one node of a reconciled forest. Parent and Children are
// indexes into the forest's block table; Parent is -1 for roots.
type CodeBlock struct {
	Range    span.Range `json:"range"`
	Kind     Kind       `json:"kind"`
	Context  *Context   `json:"context,omitempty"`
	Parent   int        `json:"parent"`
	Children []int      `json:"children,omitempty"`
}

func (b CodeBlock) Name() string {
	if b.Context == nil {
		return ""
	}
	return b.Context.Name
}

// Forest is a flat table of blocks plus the indexes of its roots.
type Forest struct {
	blocks []CodeBlock
	roots  []int
}

func (f *Forest) Len() int {
	if f == nil {
		return 0
	}
	return len(f.blocks)
}

func (f *Forest) Roots() []int {
	if f == nil {
		return nil
	}
	return f.roots
}

func (f *Forest) Block(i int) CodeBlock {
	return f.blocks[i]
}

func (f *Forest) Children(i int) []int {
	return f.blocks[i].Children
}

// Walk visits blocks depth first in start order. Returning false from fn
// skips the children of that block.
func (f *Forest) Walk(fn func(i, depth int) bool) {
	var visit func(i, depth int)
	visit = func(i, depth int) {
		if !fn(i, depth) {
			return
		}
		for _, c := range f.blocks[i].Children {
			visit(c, depth+1)
		}
	}
	for _, r := range f.Roots() {
		visit(r, 0)
	}
}

// BlockAt returns the index of the deepest block whose lines include line, or -1.
func (f *Forest) BlockAt(line int) int {
	found := -1
	f.Walk(func(i, _ int) bool {
		if !f.blocks[i].Range.ContainsLine(line) {
			return false
		}
		found = i
		return true
	})
	return found
}

// Ancestors returns the chain of parent indexes from i up to its root.
func (f *Forest) Ancestors(i int) []int {
	var out []int
	for p := f.blocks[i].Parent; p >= 0; p = f.blocks[p].Parent {
		out = append(out, p)
	}
	return out
}

// Node is the nested rendering of a forest used for JSON output.
type Node struct {
	Range    span.Range `json:"range"`
	Kind     Kind       `json:"kind"`
	Context  *Context   `json:"context,omitempty"`
	Children []Node     `json:"children,omitempty"`
}

func (f *Forest) Tree() []Node {
	var build func(i int) Node
	build = func(i int) Node {
		b := f.blocks[i]
		n := Node{Range: b.Range, Kind: b.Kind, Context: b.Context}
		for _, c := range b.Children {
			n.Children = append(n.Children, build(c))
		}
		return n
	}
	out := make([]Node, 0, len(f.Roots()))
	for _, r := range f.Roots() {
		out = append(out, build(r))
	}
	return out
}

func (f *Forest) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Tree())
}
