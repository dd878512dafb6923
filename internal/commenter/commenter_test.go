package commenter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codenote/internal/document"
	"codenote/internal/edit"
	"codenote/internal/generator"
	"codenote/internal/history"
	"codenote/internal/span"
	"codenote/internal/structure"
	"codenote/util"
)

const source = `package main

func add(a, b int) int {
	sum := a + b
	return sum
}
`

type fakeGenerator struct {
	out  string
	err  error
	seen generator.Context
	code string
}

func (f *fakeGenerator) Generate(_ context.Context, code string, gctx generator.Context) (string, error) {
	f.seen = gctx
	f.code = code
	return f.out, f.err
}

type methodSignal struct{}

func (methodSignal) Source() structure.Source { return structure.SourceSymbol }

func (methodSignal) Analyze(context.Context, *document.Document, span.Range) []structure.Block {
	return []structure.Block{{
		Range:   span.New(2, 0, 5, 1),
		Kind:    structure.KindMethod,
		Context: &structure.Context{Name: "add"},
	}}
}

func setup(t *testing.T, gen generator.TextGenerator, opts Options) (*Orchestrator, *document.Document, *history.Store) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	doc, err := document.Load(path)
	require.NoError(t, err)

	store := history.NewStore(10)
	o := New(structure.NewAnalyzer(methodSignal{}, nil, nil), gen, edit.NewFileSurface(), store, nil, opts)
	o.now = func() time.Time { return time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC) }
	return o, doc, store
}

func TestCommentAppliesAnnotations(t *testing.T) {
	gen := &fakeGenerator{out: "0:block:// add computes the sum of a and b.\n2:line:return the total"}
	o, doc, store := setup(t, gen, Options{Author: "ada", Provider: "openai"})

	res, err := o.Comment(context.Background(), Request{Doc: doc, StartLine: 2, EndLine: 5})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	require.Len(t, res.Edits, 2)
	assert.Len(t, res.Issues, 1)

	assert.Equal(t, "ada", gen.seen.Author)
	assert.Equal(t, 2, gen.seen.Offset)
	assert.Equal(t, "go", gen.seen.LanguageID)
	assert.True(t, strings.HasPrefix(gen.code, "func add(a, b int) int {"))
	assert.Equal(t, 1, gen.seen.Forest.Len())

	data, err := os.ReadFile(doc.Path)
	require.NoError(t, err)
	assert.Equal(t, `package main

// add computes the sum of a and b.
func add(a, b int) int {
	sum := a + b
	// return the total
	return sum
}
`, string(data))

	require.NotNil(t, res.Entry)
	entries := store.ForFile(doc.Path)
	require.Len(t, entries, 1)
	assert.Equal(t, "openai", entries[0].Provider)
	assert.Equal(t, "ada", entries[0].Author)
	assert.True(t, strings.HasPrefix(entries[0].Commented, "// add computes the sum of a and b.\nfunc add"))
	assert.True(t, strings.HasSuffix(entries[0].Commented, "\treturn sum\n}"))
}

func TestCommentDryRunLeavesFile(t *testing.T) {
	gen := &fakeGenerator{out: "1:line:sum it"}
	o, doc, store := setup(t, gen, Options{})

	res, err := o.Comment(context.Background(), Request{Doc: doc, StartLine: 2, EndLine: 5, DryRun: true})
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Contains(t, res.Diff, "+\t// sum it\n")

	data, err := os.ReadFile(doc.Path)
	require.NoError(t, err)
	assert.Equal(t, source, string(data))
	assert.Zero(t, store.Len())
}

func TestCommentListingMode(t *testing.T) {
	listing := "// add sums.\nfunc add(a, b int) int {\n\treturn a + b\n}"
	gen := &fakeGenerator{out: listing}
	o, doc, _ := setup(t, gen, Options{Mode: generator.ModeListing})

	res, err := o.Comment(context.Background(), Request{Doc: doc, StartLine: 2, EndLine: 5})
	require.NoError(t, err)
	require.Len(t, res.Edits, 1)
	assert.NotNil(t, res.Edits[0].Replace)
	assert.Equal(t, generator.ModeListing, gen.seen.Mode)

	data, err := os.ReadFile(doc.Path)
	require.NoError(t, err)
	assert.Equal(t, "package main\n\n\n"+listing+"\n", string(data))
}

func TestCommentFailuresLeaveFile(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
		req  func(doc *document.Document) Request
		want error
	}{
		{
			name: "generator error",
			gen:  &fakeGenerator{err: generator.ErrGeneration},
			req:  func(doc *document.Document) Request { return Request{Doc: doc, StartLine: 2, EndLine: 5} },
			want: generator.ErrGeneration,
		},
		{
			name: "no records",
			gen:  &fakeGenerator{out: "Sure! Here are your comments."},
			req:  func(doc *document.Document) Request { return Request{Doc: doc, StartLine: 2, EndLine: 5} },
			want: generator.ErrGeneration,
		},
		{
			name: "range past end",
			gen:  &fakeGenerator{out: "0:line:x"},
			req:  func(doc *document.Document) Request { return Request{Doc: doc, StartLine: 2, EndLine: 40} },
			want: ErrInvalidRange,
		},
		{
			name: "inverted range",
			gen:  &fakeGenerator{out: "0:line:x"},
			req:  func(doc *document.Document) Request { return Request{Doc: doc, StartLine: 4, EndLine: 2} },
			want: ErrInvalidRange,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, doc, _ := setup(t, tt.gen, Options{})
			_, err := o.Comment(context.Background(), tt.req(doc))
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			data, rerr := os.ReadFile(doc.Path)
			require.NoError(t, rerr)
			assert.Equal(t, source, string(data))
		})
	}
}

func TestCommentStaleDocument(t *testing.T) {
	gen := &fakeGenerator{out: "0:line:x"}
	o, doc, store := setup(t, gen, Options{})
	require.NoError(t, os.WriteFile(doc.Path, []byte(source+"// edited\n"), 0o644))

	_, err := o.Comment(context.Background(), Request{Doc: doc, StartLine: 2, EndLine: 5})
	assert.ErrorIs(t, err, edit.ErrApplyConflict)
	assert.Zero(t, store.Len())
}

func TestCommentRefusesIgnoredFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("gen/\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "gen"), 0o755))
	path := filepath.Join(dir, "gen", "out.go")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))

	guard, err := util.NewIgnoreGuard(dir)
	require.NoError(t, err)
	doc, err := document.Load(path)
	require.NoError(t, err)

	gen := &fakeGenerator{out: "0:line:x"}
	o := New(structure.NewAnalyzer(nil, nil, nil), gen, nil, nil, guard, Options{})
	_, err = o.Comment(context.Background(), Request{Doc: doc, StartLine: 0, EndLine: 1})
	assert.ErrorIs(t, err, ErrIgnored)
}

func TestAnalyze(t *testing.T) {
	o, doc, _ := setup(t, &fakeGenerator{}, Options{})
	forest, err := o.Analyze(context.Background(), doc, 2, 5)
	require.NoError(t, err)
	require.Equal(t, 1, forest.Len())
	assert.Equal(t, "add", forest.Block(0).Name())

	_, err = o.Analyze(context.Background(), doc, -1, 2)
	assert.ErrorIs(t, err, ErrInvalidRange)
}
