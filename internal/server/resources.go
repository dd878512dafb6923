package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"codenote/internal/annotation"
)

const (
	grammarURI    = "codenote://annotation-grammar"
	schemaURIBase = "codenote://schemas/"
)

const usageGuide = `codenote inserts generated comments into source files without touching the code.

Tools:
- analyze_structure: reconciled block hierarchy of a selection.
- parse_annotations: parse an annotation stream into records.
- compute_edits: map records to insertions (read-only).
- add_comments: generate, place and apply comments; dry_run previews a diff.
- comment_history: previous runs, newest first.

Line numbers are zero-based. Read codenote://annotation-grammar for the record format.`

var grammarGuide = "# Annotation grammar\n\n" +
	"One record per line, matching `" + annotation.Grammar + "`:\n\n" +
	"    <line>:<block|line>:<content>\n\n" +
	"- `<line>` is relative to the first selected line; the comment goes above that line.\n" +
	"- `block` records with the same line form one multi-line comment, inserted in order.\n" +
	"- `line` records become a single line comment in the file's syntax.\n" +
	"- Blank and malformed lines are ignored; lines outside the document are skipped.\n\n" +
	"Example:\n\n" +
	"    0:block:/**\n" +
	"    0:block: * Adds two numbers.\n" +
	"    0:block: */\n" +
	"    2:line:guard against overflow\n"

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         grammarURI,
		Name:        "Annotation Grammar",
		Description: "Format of the annotation stream accepted by parse_annotations and compute_edits",
		MIMEType:    "text/markdown",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      grammarURI,
					MIMEType: "text/markdown",
					Text:     grammarGuide,
				},
			},
		}, nil
	})

	schemaMap := buildSchemaMap()

	s.mcpServer.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: schemaURIBase + "{tool_name}",
		Name:        "Tool Schema",
		Description: "JSON schema for the named tool's arguments",
		MIMEType:    "application/schema+json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := req.Params.URI
		toolName := strings.TrimPrefix(uri, schemaURIBase)
		schemaJSON, ok := schemaMap[toolName]
		if !ok {
			return nil, fmt.Errorf("unknown tool schema: %q", toolName)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "application/schema+json",
					Text:     schemaJSON,
				},
			},
		}, nil
	})
}

// buildSchemaMap maps each tool name to the JSON schema inferred from its
// arguments struct.
func buildSchemaMap() map[string]string {
	m := make(map[string]string)
	addSchema[AnalyzeStructureArgs](m, "analyze_structure")
	addSchema[ParseAnnotationsArgs](m, "parse_annotations")
	addSchema[ComputeEditsArgs](m, "compute_edits")
	addSchema[AddCommentsArgs](m, "add_comments")
	addSchema[CommentHistoryArgs](m, "comment_history")
	return m
}

func addSchema[T any](m map[string]string, name string) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		slog.Warn("server: schema inference failed", "tool", name, "error", err)
		return
	}
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return
	}
	m[name] = string(schemaJSON)
}
