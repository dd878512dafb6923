package annotation

import (
	"strings"

	"codenote/internal/language"
	"codenote/internal/structure"
)

type FormatOptions struct {
	// PreferDocComment uses doc comment delimiters for declarations when the
	// language has them.
	PreferDocComment bool
	// KeepIndentation prefixes every output line with the given indent.
	KeepIndentation bool
}

func DefaultFormatOptions() FormatOptions {
	return FormatOptions{PreferDocComment: true, KeepIndentation: true}
}

// Formatter renders free text as a comment in a given style.
type Formatter struct {
	Style   language.CommentStyle
	Options FormatOptions
}

func NewFormatter(style language.CommentStyle, opts FormatOptions) *Formatter {
	return &Formatter{Style: style, Options: opts}
}

// Format renders comment for code of the given kind. Declarations get doc
// comments, other multi-line text gets a block comment and everything else
// line comments. The result has no trailing newline.
func (f *Formatter) Format(comment string, kind structure.Kind, indent string) string {
	lines := strings.Split(strings.TrimRight(comment, "\n"), "\n")
	if !f.Options.KeepIndentation {
		indent = ""
	}

	switch {
	case f.Options.PreferDocComment && isDeclaration(kind) && f.Style.HasDoc():
		return f.delimited(lines, f.Style.DocComment, indent)
	case len(lines) > 1 && f.Style.HasBlock():
		return f.delimited(lines, f.Style.BlockComment, indent)
	}

	prefix := f.Style.LineComment
	if prefix == "" {
		prefix = language.DefaultStyle().LineComment
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimRight(indent+prefix+" "+strings.TrimSpace(l), " ")
	}
	return strings.Join(out, "\n")
}

func (f *Formatter) delimited(lines []string, delims [2]string, indent string) string {
	star := strings.HasPrefix(delims[0], "/*")
	out := make([]string, 0, len(lines)+2)
	out = append(out, indent+delims[0])
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if star {
			out = append(out, strings.TrimRight(indent+" * "+l, " "))
		} else {
			out = append(out, indent+l)
		}
	}
	if star {
		out = append(out, indent+" "+delims[1])
	} else {
		out = append(out, indent+delims[1])
	}
	return strings.Join(out, "\n")
}

func isDeclaration(kind structure.Kind) bool {
	switch kind {
	case structure.KindClass, structure.KindMethod, structure.KindProperty:
		return true
	}
	return false
}
