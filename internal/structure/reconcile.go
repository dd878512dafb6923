package structure

import (
	"log/slog"
	"sort"
	"strings"

	"codenote/internal/span"
)

type candidate struct {
	block Block
	order int
}

// Reconcile merges the three signal outputs into one forest in which any two
// blocks are either nested or disjoint. Inputs may carry nested children.
// Where two blocks start at the same position the earlier input wins, so
// symbol blocks take precedence over token blocks, and token blocks over
// context blocks.
func Reconcile(symbolBlocks, tokenBlocks, contextBlocks []Block) *Forest {
	var all []candidate
	for _, group := range [][]Block{symbolBlocks, tokenBlocks, contextBlocks} {
		for _, b := range flatten(group, nil) {
			all = append(all, candidate{block: b, order: len(all)})
		}
	}
	if len(all) == 0 {
		return &Forest{}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].block.Range.Less(all[j].block.Range)
	})

	unique := dedup(all)
	accepted := rejectCrossing(unique)
	merged := coalesceComments(accepted)
	return build(merged)
}

func flatten(blocks []Block, out []Block) []Block {
	for _, b := range blocks {
		children := b.Children
		b.Children = nil
		b.Context = b.Context.clone()
		out = append(out, b)
		out = flatten(children, out)
	}
	return out
}

// dedup keeps the first block for each start position. The input is sorted by
// start with ties in concatenation order.
func dedup(sorted []candidate) []candidate {
	out := sorted[:0:0]
	for i, c := range sorted {
		if i > 0 && c.block.Range.Start == sorted[i-1].block.Range.Start {
			slog.Debug("reconcile: duplicate start dropped",
				"start", c.block.Range.Start.String(), "kind", c.block.Kind)
			continue
		}
		out = append(out, c)
	}
	return out
}

// rejectCrossing drops any block that partially overlaps a block accepted
// before it in concatenation order. The result is back in start order.
func rejectCrossing(sorted []candidate) []candidate {
	byOrder := append([]candidate(nil), sorted...)
	sort.Slice(byOrder, func(i, j int) bool { return byOrder[i].order < byOrder[j].order })

	var accepted []candidate
	for _, c := range byOrder {
		crossing := false
		for _, a := range accepted {
			if c.block.Range.Crosses(a.block.Range) {
				crossing = true
				slog.Debug("reconcile: crossing block dropped",
					"range", c.block.Range.String(), "kind", c.block.Kind,
					"conflicts_with", a.block.Range.String())
				break
			}
		}
		if !crossing {
			accepted = append(accepted, c)
		}
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].block.Range.Less(accepted[j].block.Range)
	})
	return accepted
}

// coalesceComments merges runs of comment blocks whose lines touch. A merge is
// skipped when the combined range would cross another block.
func coalesceComments(sorted []candidate) []Block {
	out := make([]Block, 0, len(sorted))
	for _, c := range sorted {
		cur := c.block
		if len(out) > 0 && cur.Kind == KindComment {
			prev := &out[len(out)-1]
			if prev.Kind == KindComment && prev.Range.End.Line+1 >= cur.Range.Start.Line {
				union := prev.Range.Union(cur.Range)
				if !crossesAny(union, sorted) {
					prev.Range = union
					if prev.Context == nil {
						prev.Context = &Context{Source: sourceOf(cur)}
					}
					prev.Context.Name = joinText(prev.Name(), cur.Name())
					continue
				}
			}
		}
		out = append(out, cur)
	}
	return out
}

func crossesAny(r span.Range, blocks []candidate) bool {
	for _, other := range blocks {
		if r.Crosses(other.block.Range) {
			return true
		}
	}
	return false
}

func sourceOf(b Block) Source {
	if b.Context == nil {
		return SourceToken
	}
	return b.Context.Source
}

func joinText(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return strings.Join([]string{a, b}, "\n")
}

// build assembles the hierarchy with a containment stack. The input is in
// start order and free of partial overlaps.
func build(blocks []Block) *Forest {
	f := &Forest{blocks: make([]CodeBlock, 0, len(blocks))}
	var stack []int
	for _, b := range blocks {
		idx := len(f.blocks)
		for len(stack) > 0 && !f.blocks[stack[len(stack)-1]].Range.Contains(b.Range) {
			stack = stack[:len(stack)-1]
		}
		parent := -1
		if len(stack) > 0 {
			parent = stack[len(stack)-1]
			f.blocks[parent].Children = append(f.blocks[parent].Children, idx)
		} else {
			f.roots = append(f.roots, idx)
		}
		f.blocks = append(f.blocks, CodeBlock{
			Range:   b.Range,
			Kind:    b.Kind,
			Context: b.Context,
			Parent:  parent,
		})
		stack = append(stack, idx)
	}
	return f
}
