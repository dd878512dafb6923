package span

import "fmt"

// Position is a zero-based line/column pair. Columns are byte offsets into the line.
type Position struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// Range is a half-open span from Start to End.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

func Pos(line, col int) Position {
	return Position{Line: line, Col: col}
}

func New(startLine, startCol, endLine, endCol int) Range {
	return Range{Start: Pos(startLine, startCol), End: Pos(endLine, endCol)}
}

// Compare returns -1, 0 or 1 ordering p before, equal to or after q.
func (p Position) Compare(q Position) int {
	switch {
	case p.Line < q.Line:
		return -1
	case p.Line > q.Line:
		return 1
	case p.Col < q.Col:
		return -1
	case p.Col > q.Col:
		return 1
	}
	return 0
}

func (p Position) Before(q Position) bool {
	return p.Compare(q) < 0
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}

func (r Range) IsEmpty() bool {
	return r.Start.Compare(r.End) >= 0
}

// Less orders ranges by start position.
func (r Range) Less(o Range) bool {
	return r.Start.Before(o.Start)
}

// ContainsPosition reports whether p lies within r, end inclusive.
func (r Range) ContainsPosition(p Position) bool {
	return r.Start.Compare(p) <= 0 && p.Compare(r.End) <= 0
}

// Contains reports whether inner lies entirely within r.
func (r Range) Contains(inner Range) bool {
	return r.ContainsPosition(inner.Start) && r.ContainsPosition(inner.End)
}

// ContainsLine reports whether line falls between the start and end lines of r.
func (r Range) ContainsLine(line int) bool {
	return r.Start.Line <= line && line <= r.End.Line
}

// Intersects is a line-granular overlap test. A declaration that straddles the
// boundary of a selection intersects it even though neither contains the other.
func (r Range) Intersects(o Range) bool {
	return r.Start.Line <= o.End.Line && r.End.Line >= o.Start.Line
}

// EnclosesLines reports whether the lines of r cover every line of o.
func (r Range) EnclosesLines(o Range) bool {
	return r.Start.Line <= o.Start.Line && r.End.Line >= o.End.Line
}

// Overlaps is a strict positional overlap test on half-open ranges.
func (r Range) Overlaps(o Range) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// Crosses reports a partial overlap: the ranges share positions but neither contains the other.
func (r Range) Crosses(o Range) bool {
	return r.Overlaps(o) && !r.Contains(o) && !o.Contains(r)
}

// Adjacent reports whether o follows r with nothing in between: on the same line with
// touching columns, or starting on the line after r ends.
func (r Range) Adjacent(o Range) bool {
	if r.End.Line == o.Start.Line {
		return r.End.Col == o.Start.Col
	}
	return r.End.Line+1 == o.Start.Line
}

// Union returns the smallest range covering both r and o.
func (r Range) Union(o Range) Range {
	u := r
	if o.Start.Before(u.Start) {
		u.Start = o.Start
	}
	if u.End.Before(o.End) {
		u.End = o.End
	}
	return u
}
