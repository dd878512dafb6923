package server

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"codenote/internal/annotation"
	"codenote/internal/commenter"
	"codenote/internal/document"
	"codenote/internal/generator"
	"codenote/internal/language"
	"codenote/internal/structure"
)

// Arguments structs

type AnalyzeStructureArgs struct {
	FilePath  string `json:"file_path" jsonschema:"The absolute path to the file to analyze"`
	StartLine int    `json:"start_line" jsonschema:"First line of the selection, zero-based"`
	EndLine   int    `json:"end_line" jsonschema:"Last line of the selection, zero-based and inclusive"`
}

type ParseAnnotationsArgs struct {
	Text string `json:"text" jsonschema:"Raw annotation stream, one <line>:<block|line>:<content> record per line"`
}

type ComputeEditsArgs struct {
	FilePath    string              `json:"file_path" jsonschema:"The absolute path to the file the annotations belong to"`
	StartLine   int                 `json:"start_line" jsonschema:"Document line that relative line 0 refers to"`
	Annotations string              `json:"annotations,omitempty" jsonschema:"Raw annotation stream, used when records is empty"`
	Records     []annotation.Record `json:"records,omitempty" jsonschema:"Already parsed annotation records"`
	WrapBlocks  bool                `json:"wrap_blocks,omitempty" jsonschema:"Wrap block runs without delimiters in the language's comment syntax"`
}

type AddCommentsArgs struct {
	FilePath  string `json:"file_path" jsonschema:"The absolute path to the file to comment"`
	StartLine int    `json:"start_line" jsonschema:"First line of the selection, zero-based"`
	EndLine   int    `json:"end_line" jsonschema:"Last line of the selection, zero-based and inclusive"`
	DryRun    bool   `json:"dry_run,omitempty" jsonschema:"If true, return the edits and diff without writing the file"`
	Mode      string `json:"mode,omitempty" jsonschema:"annotations (default) or listing"`
}

type CommentHistoryArgs struct {
	FilePath string `json:"file_path,omitempty" jsonschema:"Only return entries for this file"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Maximum number of entries to return, newest first"`
	Clear    bool   `json:"clear,omitempty" jsonschema:"Clear the history after returning it"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "analyze_structure",
		Description: "Reconciles the code blocks of a file selection into a non-overlapping hierarchy",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args AnalyzeStructureArgs) (*mcp.CallToolResult, any, error) {
		doc, err := document.Load(args.FilePath)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		forest, err := s.orchestrator.Analyze(ctx, doc, args.StartLine, args.EndLine)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		return jsonResult(forest), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "parse_annotations",
		Description: "Parses a raw annotation stream into records, dropping malformed lines",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ParseAnnotationsArgs) (*mcp.CallToolResult, any, error) {
		records := annotation.Parse(args.Text)
		if records == nil {
			records = []annotation.Record{}
		}
		return jsonResult(records), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "compute_edits",
		Description: "Maps annotation records onto insertions in the file without modifying it",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ComputeEditsArgs) (*mcp.CallToolResult, any, error) {
		doc, err := document.Load(args.FilePath)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		records := args.Records
		if len(records) == 0 {
			records = annotation.Parse(args.Annotations)
		}
		if len(records) == 0 {
			return errorResult("no annotation records"), nil, nil
		}

		wrap := args.WrapBlocks || s.wrapBlocks
		var forest *structure.Forest
		if wrap {
			end := doc.LineCount() - 1
			if forest, err = s.orchestrator.Analyze(ctx, doc, 0, end); err != nil {
				return errorResult(err.Error()), nil, nil
			}
		}
		placer := annotation.NewPlacer(language.Style(doc.LanguageID), forest, annotation.Options{WrapBlocks: wrap})
		edits := placer.Place(records, doc, args.StartLine)
		if edits == nil {
			edits = []annotation.PendingEdit{}
		}
		return jsonResult(edits), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_comments",
		Description: "Generates comments for a file selection and inserts them, or previews them as a diff",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args AddCommentsArgs) (*mcp.CallToolResult, any, error) {
		doc, err := document.Load(args.FilePath)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		var mode generator.Mode
		if args.Mode != "" {
			if mode, err = generator.ParseMode(args.Mode); err != nil {
				return errorResult(err.Error()), nil, nil
			}
		}
		res, err := s.orchestrator.Comment(ctx, commenterRequest(doc, args, mode))
		if err != nil {
			return errorResult(fmt.Sprintf("Commenting failed: %v", err)), nil, nil
		}
		return jsonResult(res), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "comment_history",
		Description: "Lists previous commenting runs, newest first",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args CommentHistoryArgs) (*mcp.CallToolResult, any, error) {
		store := s.orchestrator.History()
		if store == nil {
			return errorResult("history is disabled"), nil, nil
		}
		entries := store.Entries()
		if args.FilePath != "" {
			path, err := filepath.Abs(args.FilePath)
			if err != nil {
				return errorResult(err.Error()), nil, nil
			}
			entries = store.ForFile(path)
		}
		if args.Limit > 0 && len(entries) > args.Limit {
			entries = entries[:args.Limit]
		}
		if args.Clear {
			store.Clear()
		}
		result := map[string]any{
			"count":   len(entries),
			"entries": entries,
		}
		return jsonResult(result), nil, nil
	})
}

func commenterRequest(doc *document.Document, args AddCommentsArgs, mode generator.Mode) commenter.Request {
	return commenter.Request{
		Doc:       doc,
		StartLine: args.StartLine,
		EndLine:   args.EndLine,
		DryRun:    args.DryRun,
		Mode:      mode,
	}
}
