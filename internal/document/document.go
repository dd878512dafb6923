package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"codenote/internal/language"
	"codenote/internal/span"
	"codenote/util"
)

// Document is an immutable snapshot of a source file.
type Document struct {
	Path       string
	URI        string
	LanguageID string
	Version    int

	text  string
	lines []string
}

// New creates a document from in-memory text.
func New(path, languageID, text string) *Document {
	if languageID == "" {
		languageID = language.Detect(path)
	}
	uri := ""
	if path != "" {
		uri = util.PathToURI(path)
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return &Document{
		Path:       path,
		URI:        uri,
		LanguageID: languageID,
		Version:    1,
		text:       text,
		lines:      lines,
	}
}

// Load reads a document from disk and detects its language from the file extension.
func Load(path string) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return New(abs, "", string(data)), nil
}

func (d *Document) Text() string { return d.text }

func (d *Document) LineCount() int { return len(d.lines) }

// Hash identifies the content of this snapshot.
func (d *Document) Hash() string {
	return util.ContentHash(d.text)
}

// Line returns the text of line i without its line terminator.
func (d *Document) Line(i int) (string, bool) {
	if i < 0 || i >= len(d.lines) {
		return "", false
	}
	return d.lines[i], true
}

// Indentation returns the leading whitespace of line i.
func (d *Document) Indentation(i int) string {
	line, ok := d.Line(i)
	if !ok {
		return ""
	}
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// LineRange covers whole lines from startLine through endLine.
func (d *Document) LineRange(startLine, endLine int) span.Range {
	end, _ := d.Line(endLine)
	return span.New(startLine, 0, endLine, len(end))
}

// TextIn returns the text covered by r, clamped to the document.
func (d *Document) TextIn(r span.Range) string {
	if len(d.lines) == 0 || r.IsEmpty() {
		return ""
	}
	start := d.clamp(r.Start)
	end := d.clamp(r.End)
	if start.Line == end.Line {
		return d.lines[start.Line][start.Col:end.Col]
	}
	var b strings.Builder
	b.WriteString(d.lines[start.Line][start.Col:])
	for i := start.Line + 1; i < end.Line; i++ {
		b.WriteByte('\n')
		b.WriteString(d.lines[i])
	}
	b.WriteByte('\n')
	b.WriteString(d.lines[end.Line][:end.Col])
	return b.String()
}

func (d *Document) clamp(p span.Position) span.Position {
	if p.Line < 0 {
		return span.Pos(0, 0)
	}
	if p.Line >= len(d.lines) {
		last := len(d.lines) - 1
		return span.Pos(last, len(d.lines[last]))
	}
	if p.Col < 0 {
		p.Col = 0
	}
	if p.Col > len(d.lines[p.Line]) {
		p.Col = len(d.lines[p.Line])
	}
	return p
}
