package annotation

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// Kind says whether a record belongs to a multi-line block or stands alone.
type Kind string

const (
	KindBlock Kind = "block"
	KindLine  Kind = "line"
)

// Record is one generator instruction. Line is relative to the first line of
// the selection.
type Record struct {
	Line    int    `json:"line"`
	Kind    Kind   `json:"kind"`
	Content string `json:"content"`
}

// Grammar is the textual form of one record.
const Grammar = `^(\d+):(block|line):(.+)$`

var recordPattern = regexp.MustCompile(Grammar)

// Parse extracts records from raw generator output. Blank lines are ignored
// and lines that do not match the record grammar are dropped. The result keeps
// input order.
func Parse(raw string) []Record {
	var out []Record
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := recordPattern.FindStringSubmatch(line)
		if m == nil {
			slog.Debug("annotation: malformed line dropped", "line", line)
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			slog.Debug("annotation: malformed line dropped", "line", line, "error", err)
			continue
		}
		content := strings.TrimSpace(m[3])
		if content == "" {
			continue
		}
		out = append(out, Record{Line: n, Kind: Kind(m[2]), Content: content})
	}
	return out
}

// Serialize renders records in the grammar Parse accepts, one per line.
func Serialize(records []Record) string {
	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, fmt.Sprintf("%d:%s:%s", r.Line, r.Kind, r.Content))
	}
	return strings.Join(lines, "\n")
}
