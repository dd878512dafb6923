package annotation

import (
	"strings"

	"codenote/internal/document"
)

// ReplaceListing builds the single edit that swaps the selected lines for a
// fully rewritten listing. The listing is preceded by a blank line and the
// indentation of the first non-blank selected line.
func ReplaceListing(doc *document.Document, startLine, endLine int, listing string) PendingEdit {
	rng := doc.LineRange(startLine, endLine)

	baseIndent := ""
	for i := rng.Start.Line; i <= rng.End.Line; i++ {
		line, _ := doc.Line(i)
		if strings.TrimSpace(line) != "" {
			baseIndent = doc.Indentation(i)
			break
		}
	}

	return PendingEdit{
		Position:   rng.Start,
		Text:       "\n" + baseIndent + listing,
		Replace:    &rng,
		ResultLine: rng.Start.Line,
	}
}
