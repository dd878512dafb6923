package edit

import (
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"codenote/internal/annotation"
	"codenote/internal/document"
)

const contextLines = 3

type op struct {
	kind byte
	text string
}

// Preview renders the edit set as a unified diff of doc. An empty edit set
// yields an empty string.
func Preview(doc *document.Document, edits []annotation.PendingEdit) (string, error) {
	if len(edits) == 0 {
		return "", nil
	}
	out, err := Render(doc, edits)
	if err != nil {
		return "", err
	}

	ops := align(doc, edits, out)
	hunks := buildHunks(ops)
	if len(hunks) == 0 {
		return "", nil
	}

	name := doc.Path
	if name == "" {
		name = "untitled"
	}
	fd := &diff.FileDiff{
		OrigName: "a/" + strings.TrimPrefix(name, "/"),
		NewName:  "b/" + strings.TrimPrefix(name, "/"),
		Hunks:    hunks,
	}
	b, err := diff.PrintFileDiff(fd)
	if err != nil {
		return "", fmt.Errorf("failed to print diff: %w", err)
	}
	return string(b), nil
}

// align walks the original lines in order. Lines no edit touches appear
// verbatim in the rendered text, so everything between two of them in the
// output is an addition.
func align(doc *document.Document, edits []annotation.PendingEdit, rendered string) []op {
	touched := make(map[int]bool)
	for _, e := range edits {
		if e.Replace != nil {
			for l := e.Replace.Start.Line; l <= e.Replace.End.Line; l++ {
				touched[l] = true
			}
			continue
		}
		if e.Position.Col > 0 || !strings.HasSuffix(e.Text, "\n") {
			touched[e.Position.Line] = true
		}
	}

	orig := splitLines(doc.Text())
	next := splitLines(rendered)

	var ops []op
	j := 0
	for i, line := range orig {
		if touched[i] {
			ops = append(ops, op{'-', line})
			continue
		}
		for j < len(next) && next[j] != line {
			ops = append(ops, op{'+', next[j]})
			j++
		}
		if j < len(next) {
			ops = append(ops, op{' ', line})
			j++
		} else {
			ops = append(ops, op{'-', line})
		}
	}
	for ; j < len(next); j++ {
		ops = append(ops, op{'+', next[j]})
	}
	return ops
}

func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func buildHunks(ops []op) []*diff.Hunk {
	var changed []int
	for i, o := range ops {
		if o.kind != ' ' {
			changed = append(changed, i)
		}
	}
	if len(changed) == 0 {
		return nil
	}

	type window struct{ from, to int }
	var windows []window
	for _, c := range changed {
		from := max(c-contextLines, 0)
		to := min(c+contextLines+1, len(ops))
		if n := len(windows); n > 0 && from <= windows[n-1].to {
			windows[n-1].to = max(windows[n-1].to, to)
			continue
		}
		windows = append(windows, window{from, to})
	}

	var hunks []*diff.Hunk
	for _, w := range windows {
		origBefore, newBefore := 0, 0
		for _, o := range ops[:w.from] {
			if o.kind != '+' {
				origBefore++
			}
			if o.kind != '-' {
				newBefore++
			}
		}

		var body strings.Builder
		origLines, newLines := 0, 0
		for _, o := range ops[w.from:w.to] {
			body.WriteByte(o.kind)
			body.WriteString(o.text)
			body.WriteByte('\n')
			if o.kind != '+' {
				origLines++
			}
			if o.kind != '-' {
				newLines++
			}
		}

		hunks = append(hunks, &diff.Hunk{
			OrigStartLine: startLine(origBefore, origLines),
			OrigLines:     int32(origLines),
			NewStartLine:  startLine(newBefore, newLines),
			NewLines:      int32(newLines),
			Body:          []byte(body.String()),
		})
	}
	return hunks
}

// startLine follows the unified diff convention that an empty side names the
// line before the hunk.
func startLine(before, count int) int32 {
	if count == 0 {
		return int32(before)
	}
	return int32(before + 1)
}
