package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"codenote/internal/commenter"
)

// Server exposes codenote over the Model Context Protocol.
type Server struct {
	mcpServer    *mcp.Server
	orchestrator *commenter.Orchestrator
	wrapBlocks   bool
}

type Options struct {
	Version    string
	WrapBlocks bool
}

func New(o *commenter.Orchestrator, opts Options) *Server {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    "codenote",
			Version: opts.Version,
		}, &mcp.ServerOptions{Instructions: usageGuide}),
		orchestrator: o,
		wrapBlocks:   opts.WrapBlocks,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// Run serves on stdin/stdout until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	slog.Info("server: serving MCP on stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves a single session over t.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcpServer.Connect(ctx, t, nil)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}, IsError: true}
}

func jsonResult(v any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("failed to encode result: " + err.Error())
	}
	return textResult(string(b))
}
