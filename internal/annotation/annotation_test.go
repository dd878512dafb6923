package annotation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codenote/internal/document"
	"codenote/internal/language"
	"codenote/internal/span"
	"codenote/internal/structure"
)

func goDoc(lines ...string) *document.Document {
	return document.New("main.go", "", strings.Join(lines, "\n")+"\n")
}

// tenLines has 4-space indentation on lines 5 and 6.
func tenLines() *document.Document {
	return goDoc(
		"package main",
		"",
		"func main() {",
		"\tx := 1",
		"\tif x > 0 {",
		"    for {",
		"    }",
		"\t}",
		"}",
		"",
	)
}

func TestParse(t *testing.T) {
	raw := "Here are your comments:\r\n" +
		"0:block:/**\r\n" +
		"0:block: * Adds numbers.  \n" +
		"\n" +
		"3:line:   guard against zero\n" +
		"x:line:nope\n" +
		"4:inline:nope\n" +
		"5:line:\n" +
		"12:line:a:b:c\n"

	got := Parse(raw)
	assert.Equal(t, []Record{
		{Line: 0, Kind: KindBlock, Content: "/**"},
		{Line: 0, Kind: KindBlock, Content: "* Adds numbers."},
		{Line: 3, Kind: KindLine, Content: "guard against zero"},
		{Line: 12, Kind: KindLine, Content: "a:b:c"},
	}, got)
}

func TestParseSerializeRoundTrip(t *testing.T) {
	records := []Record{
		{Line: 4, Kind: KindLine, Content: "late"},
		{Line: 0, Kind: KindBlock, Content: "Package doc."},
		{Line: 0, Kind: KindBlock, Content: "@param x the input"},
		{Line: 17, Kind: KindLine, Content: "ratio: a/b"},
	}
	assert.Equal(t, records, Parse(Serialize(records)))
	assert.Empty(t, Parse(""))
}

func TestPlaceLineRecordsAtOffset(t *testing.T) {
	doc := tenLines()
	p := NewPlacer(language.Style("go"), nil, Options{})

	edits := p.Place([]Record{
		{Line: 0, Kind: KindLine, Content: "loop"},
		{Line: 1, Kind: KindLine, Content: "guard"},
	}, doc, 5)

	require.Len(t, edits, 2)
	assert.Equal(t, span.Pos(5, 0), edits[0].Position)
	assert.Equal(t, "    // loop\n", edits[0].Text)
	assert.Equal(t, span.Pos(6, 0), edits[1].Position)
	assert.Equal(t, "    // guard\n", edits[1].Text)
	assert.Equal(t, []int{5, 7}, []int{edits[0].ResultLine, edits[1].ResultLine})
}

func TestPlaceBlockRunIsOneInsertion(t *testing.T) {
	doc := tenLines()
	p := NewPlacer(language.Style("go"), nil, Options{})

	edits := p.Place([]Record{
		{Line: 0, Kind: KindBlock, Content: "desc"},
		{Line: 0, Kind: KindBlock, Content: "@param x"},
		{Line: 1, Kind: KindLine, Content: "next"},
	}, doc, 2)

	require.Len(t, edits, 2)
	assert.Equal(t, span.Pos(2, 0), edits[0].Position)
	assert.Equal(t, "desc\n@param x\n", edits[0].Text)
	assert.Equal(t, 2, edits[0].ResultLine)

	// Relative line 1 is original line 3, pushed down by the block above.
	assert.Equal(t, span.Pos(3, 0), edits[1].Position)
	assert.Equal(t, "\t// next\n", edits[1].Text)
	assert.Equal(t, 4, edits[1].ResultLine)
}

func TestPlaceSkipsOutOfRange(t *testing.T) {
	doc := tenLines()
	p := NewPlacer(language.Style("go"), nil, Options{})

	edits := p.Place([]Record{
		{Line: -3, Kind: KindLine, Content: "before start"},
		{Line: 1, Kind: KindLine, Content: "kept"},
		{Line: 40, Kind: KindLine, Content: "past end"},
		{Line: 40, Kind: KindBlock, Content: "also past end"},
	}, doc, 2)

	require.Len(t, edits, 1)
	assert.Equal(t, span.Pos(3, 0), edits[0].Position)
	assert.Equal(t, "\t// kept\n", edits[0].Text)
}

func TestPlaceIsMonotonic(t *testing.T) {
	doc := tenLines()
	p := NewPlacer(language.Style("go"), nil, Options{})

	var records []Record
	for i := 0; i < 6; i++ {
		records = append(records, Record{Line: 5 - i, Kind: KindLine, Content: "c"})
	}
	edits := p.Place(records, doc, 1)

	require.Len(t, edits, 6)
	for i := 1; i < len(edits); i++ {
		assert.Equal(t, edits[i-1].Position.Line+1, edits[i].Position.Line)
		assert.Equal(t, edits[i-1].ResultLine+2, edits[i].ResultLine)
	}
}

func TestPlaceTrailingBlockAndEqualPositions(t *testing.T) {
	doc := tenLines()
	p := NewPlacer(language.Style("go"), nil, Options{})

	edits := p.Place([]Record{
		{Line: 2, Kind: KindLine, Content: "// already prefixed"},
		{Line: 2, Kind: KindBlock, Content: "/* tail */"},
	}, doc, 0)

	require.Len(t, edits, 2)
	assert.Equal(t, "// already prefixed\n", edits[0].Text)
	assert.Equal(t, span.Pos(2, 0), edits[0].Position)
	assert.Equal(t, span.Pos(2, 0), edits[1].Position)
	assert.Equal(t, "/* tail */\n", edits[1].Text)
	assert.Equal(t, 3, edits[1].ResultLine)
}

func methodForest() *structure.Forest {
	return structure.Reconcile([]structure.Block{{
		Range:   span.New(2, 0, 8, 1),
		Kind:    structure.KindMethod,
		Context: &structure.Context{Name: "main"},
	}}, nil, nil)
}

func TestPlaceWrapsBareBlocks(t *testing.T) {
	doc := tenLines()

	ts := NewPlacer(language.Style("typescript"), methodForest(), Options{WrapBlocks: true})
	edits := ts.Place([]Record{
		{Line: 0, Kind: KindBlock, Content: "Entry point."},
		{Line: 0, Kind: KindBlock, Content: "@returns nothing"},
	}, doc, 2)
	require.Len(t, edits, 1)
	assert.Equal(t, "/**\n * Entry point.\n * @returns nothing\n */\n", edits[0].Text)

	goPlacer := NewPlacer(language.Style("go"), methodForest(), Options{WrapBlocks: true})
	edits = goPlacer.Place([]Record{{Line: 0, Kind: KindBlock, Content: "main runs."}}, doc, 2)
	require.Len(t, edits, 1)
	assert.Equal(t, "// main runs.\n", edits[0].Text)

	edits = goPlacer.Place([]Record{{Line: 0, Kind: KindBlock, Content: "// already a comment"}}, doc, 2)
	assert.Equal(t, "// already a comment\n", edits[0].Text)
}

func TestReview(t *testing.T) {
	p := NewPlacer(language.Style("go"), methodForest(), Options{})

	issues := p.Review([]Record{
		{Line: 0, Kind: KindBlock, Content: "Runs things."},
		{Line: 0, Kind: KindBlock, Content: "Nothing else."},
		{Line: 3, Kind: KindLine, Content: strings.Repeat("x", MaxContentLength+1)},
	}, 2)
	require.Len(t, issues, 2)
	assert.Contains(t, issues[0].Message, "parameters")
	assert.Equal(t, 3, issues[1].Line)

	assert.Empty(t, p.Review([]Record{
		{Line: 0, Kind: KindBlock, Content: "Runs things."},
		{Line: 0, Kind: KindBlock, Content: "@return nothing"},
	}, 2))
}

func TestReplaceListing(t *testing.T) {
	doc := goDoc(
		"package main",
		"",
		"",
		"    func f() {",
		"        return",
		"    }",
	)
	edit := ReplaceListing(doc, 2, 5, "// f does nothing.\nfunc f() {\n    return\n}")

	require.NotNil(t, edit.Replace)
	assert.Equal(t, span.New(2, 0, 5, 5), *edit.Replace)
	assert.Equal(t, span.Pos(2, 0), edit.Position)
	assert.True(t, strings.HasPrefix(edit.Text, "\n    // f does nothing."))
}

func TestFormatter(t *testing.T) {
	ts := NewFormatter(language.Style("typescript"), DefaultFormatOptions())
	assert.Equal(t, "  /**\n   * Adds.\n   */", ts.Format("Adds.", structure.KindMethod, "  "))
	assert.Equal(t, "  /*\n   * one\n   * two\n   */", ts.Format("one\ntwo", structure.KindOther, "  "))
	assert.Equal(t, "  // note", ts.Format("note", structure.KindOther, "  "))

	py := NewFormatter(language.Style("python"), FormatOptions{PreferDocComment: true})
	assert.Equal(t, "\"\"\"\nGreets.\n\"\"\"", py.Format("Greets.", structure.KindClass, "    "))

	sh := NewFormatter(language.Style("shellscript"), DefaultFormatOptions())
	assert.Equal(t, "# a\n# b", sh.Format("a\nb", structure.KindMethod, ""))
}
