package edit

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"codenote/internal/annotation"
	"codenote/internal/document"
)

// ErrApplyConflict means an edit set cannot be applied to the document as it
// currently is.
var ErrApplyConflict = errors.New("edit conflict")

type placed struct {
	start, end int
	text       string
	replace    bool
}

// Render returns the text of doc with every edit applied. Positions refer to
// the unedited document; insertions at the same position keep their order.
// Inserted newlines follow the document's line ending.
func Render(doc *document.Document, edits []annotation.PendingEdit) (string, error) {
	text := doc.Text()
	starts := lineStarts(text)

	eol := "\n"
	if strings.Contains(text, "\r\n") {
		eol = "\r\n"
	}

	items := make([]placed, 0, len(edits))
	for _, e := range edits {
		start, err := offset(doc, starts, e.Position.Line, e.Position.Col)
		if err != nil {
			return "", err
		}
		p := placed{start: start, end: start, text: e.Text}
		if eol != "\n" {
			p.text = strings.ReplaceAll(strings.ReplaceAll(p.text, "\r\n", "\n"), "\n", eol)
		}
		if e.Replace != nil {
			if p.start, err = offset(doc, starts, e.Replace.Start.Line, e.Replace.Start.Col); err != nil {
				return "", err
			}
			if p.end, err = offset(doc, starts, e.Replace.End.Line, e.Replace.End.Col); err != nil {
				return "", err
			}
			if p.end < p.start {
				return "", fmt.Errorf("%w: inverted replacement %s", ErrApplyConflict, e.Replace)
			}
			p.replace = true
		}
		items = append(items, p)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].start != items[j].start {
			return items[i].start < items[j].start
		}
		return !items[i].replace && items[j].replace
	})

	reach := 0
	for i, it := range items {
		if i > 0 && it.start < reach {
			return "", fmt.Errorf("%w: edits overlap at offset %d", ErrApplyConflict, it.start)
		}
		if it.end > reach {
			reach = it.end
		}
	}

	var b strings.Builder
	b.Grow(len(text))
	cursor := 0
	for _, it := range items {
		b.WriteString(text[cursor:it.start])
		b.WriteString(it.text)
		cursor = it.end
	}
	b.WriteString(text[cursor:])
	return b.String(), nil
}

func lineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// offset converts a position to a byte offset, clamping the column to the
// line's content.
func offset(doc *document.Document, starts []int, line, col int) (int, error) {
	content, ok := doc.Line(line)
	if !ok || line >= len(starts) {
		return 0, fmt.Errorf("%w: line %d outside document of %d lines", ErrApplyConflict, line, doc.LineCount())
	}
	if col < 0 {
		col = 0
	}
	if col > len(content) {
		col = len(content)
	}
	return starts[line] + col, nil
}
