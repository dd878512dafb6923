package annotation

import (
	"strings"
	"unicode/utf8"

	"codenote/internal/structure"
)

const MaxContentLength = 1000

type Issue struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

var methodMarkers = []string{"param", "return", "参数", "返回", "引数", "戻り値"}

// Validate checks one record against the block it describes, which may be nil.
func Validate(rec Record, described *structure.CodeBlock) []Issue {
	var issues []Issue
	if utf8.RuneCountInString(rec.Content) > MaxContentLength {
		issues = append(issues, Issue{Line: rec.Line, Message: "comment is too long"})
	}
	if rec.Kind == KindBlock && described != nil && described.Kind == structure.KindMethod {
		lower := strings.ToLower(rec.Content)
		mentioned := false
		for _, m := range methodMarkers {
			if strings.Contains(lower, m) {
				mentioned = true
				break
			}
		}
		if !mentioned {
			issues = append(issues, Issue{
				Line:    rec.Line,
				Message: "method comment does not describe parameters or return value",
			})
		}
	}
	return issues
}
