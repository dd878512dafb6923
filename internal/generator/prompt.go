package generator

import (
	"fmt"
	"regexp"
	"strings"

	"codenote/internal/language"
	"codenote/internal/structure"
)

type phrases struct {
	intro        string
	codeHeader   string
	outline      string
	requirements []string
	annotations  []string
	listing      []string
	info         string
	author       string
	date         string
	unknown      string
}

var prompts = map[string]phrases{
	"en": {
		intro:      "This is a %s code snippet. Please add comments to it.",
		codeHeader: "Code (each line is prefixed with its line number):",
		outline:    "Structure:",
		requirements: []string{
			"Comments should be concise and clear.",
			"Follow %s's standard commenting conventions: block comments for classes, interfaces and methods; line comments for simple explanations.",
			"Class comments include the class purpose, author and creation date.",
			"Method comments include the purpose, parameters, return value and exceptions if any.",
			"If no explicit class name is present, do not add class comments.",
			"Absolutely no modifications to the code itself.",
		},
		annotations: []string{
			"Return only annotation lines in the form <line>:<block|line>:<content>.",
			"<line> is the number of the code line the comment goes above.",
			"Use block for each line of a multi-line comment, all with the same line number, and line for single-line comments.",
			"Do not return the code, code fences or any explanation.",
		},
		listing: []string{
			"Maintain the original indentation.",
			"Return the complete code with comments as plain text, without line numbers, code fences or explanations.",
		},
		info:    "Comment information:",
		author:  "Author",
		date:    "Date",
		unknown: "unspecified",
	},
	"zh": {
		intro:      "这是一段 %s 代码，请为其添加注释。",
		codeHeader: "代码（每行前为行号）：",
		outline:    "结构：",
		requirements: []string{
			"注释应该简洁明了。",
			"根据 %s 的通用编程规范选择注释类型：类、接口、方法等使用多行注释，简单的代码说明使用单行注释。",
			"类注释需包含：类的功能描述、作者、创建日期。",
			"方法注释需包含：方法用途、参数说明、返回值说明、异常说明（如果有）。",
			"如果没有明示的类名，不要补充关于类的注释。",
			"绝对禁止对代码本身进行任何修改。",
		},
		annotations: []string{
			"只返回注释行，格式为 <行号>:<block|line>:<内容>。",
			"<行号> 是注释所在代码行的行号，注释插入在该行之上。",
			"多行注释的每一行都使用 block 和相同的行号，单行注释使用 line。",
			"不要返回代码、代码块标记或任何解释。",
		},
		listing: []string{
			"保持原有缩进。",
			"以纯文本返回包含注释的完整代码，不要包含行号、代码块标记或解释。",
		},
		info:    "注释相关信息：",
		author:  "作者",
		date:    "日期",
		unknown: "未指定",
	},
	"ja": {
		intro:      "これは %s のコードです。コメントを追加してください。",
		codeHeader: "コード（各行の先頭は行番号）：",
		outline:    "構造：",
		requirements: []string{
			"コメントは簡潔で明確であること。",
			"%s の標準的なコメント規約に従う：クラス、インターフェース、メソッドにはブロックコメント、簡単な説明には行コメントを使用。",
			"クラスコメントには機能説明、著者、作成日を含める。",
			"メソッドコメントには目的、引数、戻り値、例外（ある場合）を含める。",
			"明示的なクラス名がない場合、クラスコメントを追加しない。",
			"コード自体の変更は絶対に行わないでください。",
		},
		annotations: []string{
			"<行番号>:<block|line>:<内容> の形式のコメント行のみを返す。",
			"<行番号> はコメントを挿入する直下のコード行の番号。",
			"複数行コメントは各行に block と同じ行番号を使い、単一行コメントには line を使う。",
			"コード、コードブロック、説明は返さない。",
		},
		listing: []string{
			"元のインデントを維持。",
			"コメント付きの完全なコードをプレーンテキストで返す。行番号、コードブロック、説明は含めない。",
		},
		info:    "コメント情報：",
		author:  "著者",
		date:    "日付",
		unknown: "未指定",
	},
}

// promptLanguage maps a UI locale such as "zh-cn" or "ja_JP" to a prompt set.
func promptLanguage(ui string) string {
	ui = strings.ToLower(ui)
	for _, lang := range []string{"zh", "ja"} {
		if strings.HasPrefix(ui, lang) {
			return lang
		}
	}
	return "en"
}

// BuildPrompt renders the instruction sent to a provider for code.
func BuildPrompt(code string, gctx Context) string {
	p := prompts[promptLanguage(gctx.UILanguage)]
	langName := language.Lookup(gctx.LanguageID).Name
	if gctx.LanguageID == "" {
		langName = p.unknown
	}

	var b strings.Builder
	fmt.Fprintf(&b, p.intro+"\n\n", langName)

	b.WriteString(p.codeHeader + "\n")
	for i, line := range strings.Split(strings.TrimSuffix(code, "\n"), "\n") {
		if gctx.Mode == ModeListing {
			b.WriteString(line + "\n")
			continue
		}
		fmt.Fprintf(&b, "%d| %s\n", i, line)
	}

	if outline := Outline(gctx.Forest, gctx.Offset); outline != "" {
		b.WriteString("\n" + p.outline + "\n" + outline)
	}

	rules := append([]string(nil), p.requirements...)
	rules[1] = fmt.Sprintf(rules[1], langName)
	if gctx.Mode == ModeListing {
		rules = append(rules, p.listing...)
	} else {
		rules = append(rules, p.annotations...)
	}
	b.WriteString("\n")
	for i, r := range rules {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}

	author := gctx.Author
	if author == "" {
		author = p.unknown
	}
	fmt.Fprintf(&b, "\n%s\n- %s: %s\n", p.info, p.author, author)
	if !gctx.Date.IsZero() {
		fmt.Fprintf(&b, "- %s: %s\n", p.date, gctx.Date.Format("2006-01-02"))
	}
	return b.String()
}

// Outline lists the named blocks of forest with line numbers relative to
// offset, one per line and indented by depth.
func Outline(forest *structure.Forest, offset int) string {
	if forest == nil {
		return ""
	}
	var b strings.Builder
	forest.Walk(func(i, depth int) bool {
		blk := forest.Block(i)
		if blk.Kind == structure.KindComment {
			return false
		}
		name := blk.Name()
		if name == "" {
			return true
		}
		fmt.Fprintf(&b, "%s- %s %s (lines %d-%d)\n", strings.Repeat("  ", depth), blk.Kind, name,
			blk.Range.Start.Line-offset, blk.Range.End.Line-offset)
		return true
	})
	return b.String()
}

var fence = regexp.MustCompile("^```[\\w+-]*[ \\t]*\\r?\\n?")

// CleanResponse strips a surrounding code fence and outer blank lines.
func CleanResponse(s string) string {
	s = strings.TrimSpace(s)
	s = fence.ReplaceAllString(s, "")
	s = strings.TrimSuffix(s, "```")
	return strings.Trim(s, "\r\n")
}
