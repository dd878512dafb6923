package annotation

import (
	"log/slog"
	"sort"
	"strings"

	"codenote/internal/document"
	"codenote/internal/language"
	"codenote/internal/span"
	"codenote/internal/structure"
)

// PendingEdit is one text insertion, or the single whole-range replacement of
// listing mode. Position is in the coordinates of the unedited document so a
// full edit set applies in one pass. ResultLine is where the inserted text
// starts once every earlier edit of the set has been applied.
type PendingEdit struct {
	Position   span.Position `json:"position"`
	Text       string        `json:"text"`
	Replace    *span.Range   `json:"replace,omitempty"`
	ResultLine int           `json:"result_line"`
}

type Options struct {
	// WrapBlocks wraps block runs that carry no comment delimiters of their own.
	WrapBlocks bool
}

// Placer maps annotation records onto document edits.
type Placer struct {
	style  language.CommentStyle
	forest *structure.Forest
	opts   Options
}

// NewPlacer accepts a nil forest.
func NewPlacer(style language.CommentStyle, forest *structure.Forest, opts Options) *Placer {
	return &Placer{style: style, forest: forest, opts: opts}
}

type pending struct {
	target   int
	contents []string
}

// Place converts records into insertions for doc, where offset is the document
// line of relative line 0. Records whose line falls outside the document are
// skipped.
func (p *Placer) Place(records []Record, doc *document.Document, offset int) []PendingEdit {
	sorted := append([]Record(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Line < sorted[j].Line })

	var (
		edits []PendingEdit
		block *pending
		// cursor is the line in the edited document that relative line 0 now
		// maps to. cursor-inserted always equals offset.
		cursor   = offset
		inserted = 0
	)

	emit := func(target int, text string) {
		edits = append(edits, PendingEdit{
			Position:   span.Pos(target, 0),
			Text:       text,
			ResultLine: target + inserted,
		})
		cursor++
		inserted++
	}

	flush := func() {
		if block == nil {
			return
		}
		indent := doc.Indentation(block.target)
		contents := block.contents
		if p.opts.WrapBlocks && !p.hasDelimiters(contents) {
			contents = p.wrap(contents, block.target)
		}
		emit(block.target, indent+strings.Join(contents, "\n"+indent)+"\n")
		block = nil
	}

	for _, rec := range sorted {
		line := cursor + rec.Line
		target := line - inserted
		if target < 0 || target >= doc.LineCount() {
			slog.Warn("annotation: line out of range",
				"relative", rec.Line, "line", line, "document_lines", doc.LineCount())
			continue
		}

		if rec.Kind == KindBlock {
			if block == nil {
				block = &pending{target: target}
			}
			block.contents = append(block.contents, rec.Content)
			continue
		}

		flush()
		indent := doc.Indentation(target)
		emit(target, indent+p.style.LineComment+" "+p.cleanLine(rec.Content)+"\n")
	}
	flush()

	return edits
}

func (p *Placer) cleanLine(content string) string {
	content = strings.TrimSpace(content)
	if p.style.LineComment != "" {
		content = strings.TrimPrefix(content, p.style.LineComment)
	}
	return strings.TrimSpace(content)
}

func (p *Placer) hasDelimiters(contents []string) bool {
	if len(contents) == 0 {
		return true
	}
	first := strings.TrimSpace(contents[0])
	for _, d := range []string{p.style.DocComment[0], p.style.BlockComment[0], p.style.LineComment} {
		if d != "" && strings.HasPrefix(first, d) {
			return true
		}
	}
	return false
}

// wrap formats a block run as a comment suited to the code it describes.
func (p *Placer) wrap(contents []string, target int) []string {
	kind := structure.KindOther
	if b, ok := p.describedBlock(target); ok {
		kind = b.Kind
	}
	f := NewFormatter(p.style, FormatOptions{PreferDocComment: true})
	return strings.Split(f.Format(strings.Join(contents, "\n"), kind, ""), "\n")
}

// describedBlock returns the outermost non-comment block starting on the
// target line, which is the code a comment inserted above that line describes.
func (p *Placer) describedBlock(target int) (structure.CodeBlock, bool) {
	if p.forest == nil {
		return structure.CodeBlock{}, false
	}
	deepest := p.forest.BlockAt(target)
	if deepest < 0 {
		return structure.CodeBlock{}, false
	}
	found := -1
	for _, i := range append([]int{deepest}, p.forest.Ancestors(deepest)...) {
		b := p.forest.Block(i)
		if b.Range.Start.Line == target && b.Kind != structure.KindComment {
			found = i
		}
	}
	if found < 0 {
		return structure.CodeBlock{}, false
	}
	return p.forest.Block(found), true
}

// Review validates records against the code they describe. A run of block
// records is checked as one comment. Problems are logged and returned; they
// never prevent placement.
func (p *Placer) Review(records []Record, offset int) []Issue {
	sorted := append([]Record(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Line < sorted[j].Line })

	var issues []Issue
	check := func(rec Record) {
		var described *structure.CodeBlock
		if b, ok := p.describedBlock(offset + rec.Line); ok {
			described = &b
		}
		for _, issue := range Validate(rec, described) {
			slog.Warn("annotation: validation", "line", rec.Line, "issue", issue.Message)
			issues = append(issues, issue)
		}
	}

	var run *Record
	for _, rec := range sorted {
		if rec.Kind == KindBlock {
			if run == nil {
				r := rec
				run = &r
			} else {
				run.Content += "\n" + rec.Content
			}
			continue
		}
		if run != nil {
			check(*run)
			run = nil
		}
		check(rec)
	}
	if run != nil {
		check(*run)
	}
	return issues
}
