package commenter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"codenote/internal/annotation"
	"codenote/internal/document"
	"codenote/internal/edit"
	"codenote/internal/generator"
	"codenote/internal/history"
	"codenote/internal/language"
	"codenote/internal/structure"
	"codenote/util"
)

var (
	// ErrIgnored means the file is excluded by .gitignore.
	ErrIgnored = errors.New("file is ignored")
	// ErrInvalidRange means the selection does not fit the document.
	ErrInvalidRange = errors.New("invalid line range")
)

// Surface is an edit surface that snapshots documents before editing them.
type Surface interface {
	edit.Surface
	Track(doc *document.Document) string
}

type Options struct {
	Author     string
	UILanguage string
	Mode       generator.Mode
	WrapBlocks bool
	Provider   string
}

// Orchestrator runs one commenting pass: analyze, generate, place, apply.
type Orchestrator struct {
	analyzer  *structure.Analyzer
	generator generator.TextGenerator
	surface   Surface
	history   *history.Store
	guard     *util.IgnoreGuard
	opts      Options
	now       func() time.Time
}

// New wires an orchestrator. surface, store and guard may be nil; without a
// surface every request behaves as a dry run.
func New(analyzer *structure.Analyzer, gen generator.TextGenerator, surface Surface,
	store *history.Store, guard *util.IgnoreGuard, opts Options) *Orchestrator {
	if opts.Mode == "" {
		opts.Mode = generator.ModeAnnotations
	}
	return &Orchestrator{
		analyzer:  analyzer,
		generator: gen,
		surface:   surface,
		history:   store,
		guard:     guard,
		opts:      opts,
		now:       time.Now,
	}
}

type Request struct {
	Doc       *document.Document
	StartLine int
	EndLine   int
	DryRun    bool
	// Mode overrides the orchestrator's mode when set.
	Mode generator.Mode
}

type Result struct {
	Forest  *structure.Forest        `json:"structure"`
	Raw     string                   `json:"raw"`
	Records []annotation.Record      `json:"records,omitempty"`
	Edits   []annotation.PendingEdit `json:"edits"`
	Issues  []annotation.Issue       `json:"issues,omitempty"`
	Diff    string                   `json:"diff"`
	Applied bool                     `json:"applied"`
	Entry   *history.Entry           `json:"history_entry,omitempty"`
}

// Analyze reconciles the structure of the selected lines.
func (o *Orchestrator) Analyze(ctx context.Context, doc *document.Document, startLine, endLine int) (*structure.Forest, error) {
	if err := checkRange(doc, startLine, endLine); err != nil {
		return nil, err
	}
	return o.analyzer.Analyze(ctx, doc, doc.LineRange(startLine, endLine)), nil
}

// Comment generates comments for the selection and applies them unless the
// request is a dry run. No edit reaches the document when any step fails.
func (o *Orchestrator) Comment(ctx context.Context, req Request) (*Result, error) {
	doc := req.Doc
	if err := checkRange(doc, req.StartLine, req.EndLine); err != nil {
		return nil, err
	}
	if o.guard.Ignored(doc.Path) {
		return nil, fmt.Errorf("%w: %s", ErrIgnored, doc.Path)
	}
	if o.generator == nil {
		return nil, fmt.Errorf("%w: no text generator configured", generator.ErrGeneration)
	}
	mode := req.Mode
	if mode == "" {
		mode = o.opts.Mode
	}

	rng := doc.LineRange(req.StartLine, req.EndLine)
	forest := o.analyzer.Analyze(ctx, doc, rng)
	style := language.Style(doc.LanguageID)
	code := doc.TextIn(rng)

	raw, err := o.generator.Generate(ctx, code, generator.Context{
		LanguageID: doc.LanguageID,
		Forest:     forest,
		Style:      style,
		Options:    annotation.DefaultFormatOptions(),
		Offset:     req.StartLine,
		Author:     o.opts.Author,
		Date:       o.now(),
		UILanguage: o.opts.UILanguage,
		Mode:       mode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate comments: %w", err)
	}

	res := &Result{Forest: forest, Raw: raw}
	switch mode {
	case generator.ModeListing:
		res.Edits = []annotation.PendingEdit{annotation.ReplaceListing(doc, req.StartLine, req.EndLine, raw)}
	default:
		res.Records = annotation.Parse(raw)
		if len(res.Records) == 0 {
			return nil, fmt.Errorf("%w: no annotation records in response", generator.ErrGeneration)
		}
		placer := annotation.NewPlacer(style, forest, annotation.Options{WrapBlocks: o.opts.WrapBlocks})
		res.Issues = placer.Review(res.Records, req.StartLine)
		res.Edits = placer.Place(res.Records, doc, req.StartLine)
	}

	res.Diff, err = edit.Preview(doc, res.Edits)
	if err != nil {
		return nil, err
	}
	if req.DryRun || o.surface == nil || len(res.Edits) == 0 {
		slog.Info("commenter: computed edits", "path", doc.Path, "edits", len(res.Edits), "dry_run", req.DryRun)
		return res, nil
	}

	id := o.surface.Track(doc)
	if err := o.surface.Apply(ctx, id, res.Edits); err != nil {
		return nil, fmt.Errorf("failed to apply edits: %w", err)
	}
	res.Applied = true
	slog.Info("commenter: applied edits", "path", doc.Path, "edits", len(res.Edits))

	if o.history != nil {
		commented, err := selection(doc, res.Edits, req.StartLine, req.EndLine)
		if err != nil {
			return nil, err
		}
		entry := o.history.Record(history.Entry{
			FilePath:   doc.Path,
			LanguageID: doc.LanguageID,
			StartLine:  req.StartLine,
			EndLine:    req.EndLine,
			Original:   code,
			Commented:  commented,
			Author:     o.opts.Author,
			Provider:   o.opts.Provider,
			Mode:       string(mode),
		})
		res.Entry = &entry
	}
	return res, nil
}

// History exposes the run log, which may be nil.
func (o *Orchestrator) History() *history.Store { return o.history }

func checkRange(doc *document.Document, start, end int) error {
	if doc == nil {
		return fmt.Errorf("%w: no document", ErrInvalidRange)
	}
	if start < 0 || end < start || end >= doc.LineCount() {
		return fmt.Errorf("%w: %d-%d outside document of %d lines", ErrInvalidRange, start, end, doc.LineCount())
	}
	return nil
}

// selection returns the edited text of the selected lines.
func selection(doc *document.Document, edits []annotation.PendingEdit, start, end int) (string, error) {
	out, err := edit.Render(doc, edits)
	if err != nil {
		return "", err
	}
	lines := strings.Split(out, "\n")
	last := end + len(lines) - doc.LineCount()
	if last >= len(lines) {
		last = len(lines) - 1
	}
	return strings.Join(lines[start:last+1], "\n"), nil
}
