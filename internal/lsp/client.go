package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"codenote/internal/document"
	"codenote/util"
)

const jsonrpcVersion = "2.0"

type openDoc struct {
	version int
	hash    string
}

// Client speaks LSP over a pair of streams. It serves as both the structural
// indexer and the token classifier for one language.
type Client struct {
	reader *bufio.Reader
	writer io.WriteCloser
	cmd    *exec.Cmd

	writeMu sync.Mutex

	pendingMu sync.Mutex
	nextID    int
	pending   map[int]chan message

	done    chan struct{}
	readErr error

	openMu sync.Mutex
	open   map[string]openDoc

	caps ServerCapabilities
}

// NewClient wraps an established connection and starts reading from it.
func NewClient(r io.Reader, w io.WriteCloser) *Client {
	c := &Client{
		reader:  bufio.NewReader(r),
		writer:  w,
		pending: make(map[int]chan message),
		done:    make(chan struct{}),
		open:    make(map[string]openDoc),
	}
	go c.readLoop()
	return c
}

// Start launches a language server process and performs the initialize handshake.
func Start(ctx context.Context, command []string, rootDir string) (*Client, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("empty language server command")
	}
	cmd := exec.Command(command[0], command[1:]...)
	cmd.Dir = rootDir
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", command[0], err)
	}
	slog.Debug("lsp: server started", "command", command[0], "pid", cmd.Process.Pid)

	c := NewClient(stdout, stdin)
	c.cmd = cmd
	if err := c.Initialize(ctx, rootDir); err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	return c, nil
}

// Initialize performs the initialize/initialized exchange and records the
// server capabilities.
func (c *Client) Initialize(ctx context.Context, rootDir string) error {
	params := InitializeParams{
		ProcessID: os.Getpid(),
		Capabilities: ClientCapabilities{
			General: GeneralClientCapabilities{PositionEncodings: []string{"utf-8"}},
			TextDocument: TextDocumentClientCapabilities{
				DocumentSymbol: DocumentSymbolClientCapabilities{HierarchicalDocumentSymbolSupport: true},
				SemanticTokens: SemanticTokensClientCapabilities{
					Requests:       SemanticTokensRequests{Full: true},
					TokenTypes:     []string{"comment", "string", "number", "keyword", "operator", "variable", "type", "function", "class", "namespace"},
					TokenModifiers: []string{},
					Formats:        []string{"relative"},
				},
			},
		},
	}
	if rootDir != "" {
		params.RootURI = util.PathToURI(rootDir)
	}

	var result InitializeResult
	if err := c.call(ctx, "initialize", params, &result); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	c.caps = result.Capabilities
	if enc := c.caps.PositionEncoding; enc != "" && enc != "utf-8" {
		slog.Warn("lsp: server ignored utf-8 position encoding", "encoding", enc)
	}
	return c.notify("initialized", struct{}{})
}

func (c *Client) Capabilities() ServerCapabilities {
	return c.caps
}

// DocumentSymbols returns the declaration tree for doc. Servers answering with
// the flat SymbolInformation form are converted to childless symbols.
func (c *Client) DocumentSymbols(ctx context.Context, doc *document.Document) ([]DocumentSymbol, error) {
	if err := c.ensureOpen(doc); err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	params := DocumentSymbolParams{TextDocument: TextDocumentIdentifier{URI: doc.URI}}
	if err := c.call(ctx, "textDocument/documentSymbol", params, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var first map[string]json.RawMessage
	if err := json.Unmarshal(raw[0], &first); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	symbols := make([]DocumentSymbol, 0, len(raw))
	_, flat := first["location"]
	for _, item := range raw {
		if flat {
			var info SymbolInformation
			if err := json.Unmarshal(item, &info); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
			}
			symbols = append(symbols, DocumentSymbol{
				Name:           info.Name,
				Kind:           info.Kind,
				Range:          info.Location.Range,
				SelectionRange: info.Location.Range,
			})
			continue
		}
		var sym DocumentSymbol
		if err := json.Unmarshal(item, &sym); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, nil
}

// SemanticTokens returns the full delta-encoded token stream for doc.
func (c *Client) SemanticTokens(ctx context.Context, doc *document.Document) (SemanticTokens, error) {
	if c.caps.SemanticTokensProvider == nil {
		return SemanticTokens{}, ErrNoSemanticTokens
	}
	if err := c.ensureOpen(doc); err != nil {
		return SemanticTokens{}, err
	}

	var tokens *SemanticTokens
	params := SemanticTokensParams{TextDocument: TextDocumentIdentifier{URI: doc.URI}}
	if err := c.call(ctx, "textDocument/semanticTokens/full", params, &tokens); err != nil {
		return SemanticTokens{}, err
	}
	if tokens == nil {
		return SemanticTokens{}, nil
	}
	return *tokens, nil
}

// Legend returns the token type names advertised during initialization.
func (c *Client) Legend(ctx context.Context, doc *document.Document) (SemanticTokensLegend, error) {
	if c.caps.SemanticTokensProvider == nil {
		return SemanticTokensLegend{}, ErrNoSemanticTokens
	}
	return c.caps.SemanticTokensProvider.Legend, nil
}

// ensureOpen sends didOpen the first time a document is seen and didChange
// when its content has changed since.
func (c *Client) ensureOpen(doc *document.Document) error {
	c.openMu.Lock()
	defer c.openMu.Unlock()

	hash := doc.Hash()
	state, ok := c.open[doc.URI]
	switch {
	case !ok:
		c.open[doc.URI] = openDoc{version: 1, hash: hash}
		return c.notify("textDocument/didOpen", DidOpenTextDocumentParams{
			TextDocument: TextDocumentItem{
				URI:        doc.URI,
				LanguageID: doc.LanguageID,
				Version:    1,
				Text:       doc.Text(),
			},
		})
	case state.hash != hash:
		state.version++
		state.hash = hash
		c.open[doc.URI] = state
		return c.notify("textDocument/didChange", DidChangeTextDocumentParams{
			TextDocument:   VersionedTextDocumentIdentifier{URI: doc.URI, Version: state.version},
			ContentChanges: []TextDocumentContentChangeEvent{{Text: doc.Text()}},
		})
	}
	return nil
}

// Close shuts the server down and releases the connection.
func (c *Client) Close(ctx context.Context) error {
	c.openMu.Lock()
	for uri := range c.open {
		_ = c.notify("textDocument/didClose", DidCloseTextDocumentParams{
			TextDocument: TextDocumentIdentifier{URI: uri},
		})
	}
	c.open = make(map[string]openDoc)
	c.openMu.Unlock()

	if err := c.call(ctx, "shutdown", nil, nil); err != nil {
		slog.Debug("lsp: shutdown failed", "error", err)
	}
	_ = c.notify("exit", nil)
	err := c.writer.Close()

	if c.cmd != nil {
		if waitErr := c.cmd.Wait(); waitErr != nil {
			slog.Debug("lsp: server exited", "error", waitErr)
		}
	}
	return err
}

func (c *Client) call(ctx context.Context, method string, params, result interface{}) error {
	c.pendingMu.Lock()
	c.nextID++
	id := c.nextID
	ch := make(chan message, 1)
	c.pending[id] = ch
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	req := Request{JSONRPC: jsonrpcVersion, ID: id, Method: method, Params: params}
	if err := c.write(req); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", method, ctx.Err())
	case <-c.done:
		return fmt.Errorf("%s: %w", method, c.closedErr())
	case msg := <-ch:
		if msg.Error != nil {
			return &ResponseError{Method: method, Code: msg.Error.Code, Message: msg.Error.Message}
		}
		if result == nil || len(msg.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(msg.Result, result); err != nil {
			return fmt.Errorf("%s: %w: %v", method, ErrInvalidResponse, err)
		}
		return nil
	}
}

func (c *Client) notify(method string, params interface{}) error {
	return c.write(Notification{JSONRPC: jsonrpcVersion, Method: method, Params: params})
}

func (c *Client) write(msg interface{}) error {
	select {
	case <-c.done:
		return c.closedErr()
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return WriteMessage(c.writer, msg)
}

func (c *Client) closedErr() error {
	if c.readErr != nil && !errors.Is(c.readErr, io.EOF) {
		return fmt.Errorf("%w: %v", ErrServerNotRunning, c.readErr)
	}
	return ErrServerNotRunning
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		body, err := ReadMessage(c.reader)
		if err != nil {
			c.readErr = err
			return
		}

		var msg message
		if err := json.Unmarshal(body, &msg); err != nil {
			slog.Debug("lsp: dropping unparseable message", "error", err)
			continue
		}

		switch {
		case msg.ID != nil && msg.Method != "":
			// Server-initiated request. Nothing here needs a real answer, but the
			// reply must not block the read loop.
			reply := struct {
				JSONRPC string          `json:"jsonrpc"`
				ID      json.RawMessage `json:"id"`
				Result  interface{}     `json:"result"`
			}{JSONRPC: jsonrpcVersion, ID: *msg.ID}
			go func(method string) {
				if err := c.write(reply); err != nil {
					slog.Debug("lsp: reply failed", "method", method, "error", err)
				}
			}(msg.Method)
		case msg.ID != nil:
			var id int
			if err := json.Unmarshal(*msg.ID, &id); err != nil {
				continue
			}
			c.pendingMu.Lock()
			ch, ok := c.pending[id]
			c.pendingMu.Unlock()
			if ok {
				select {
				case ch <- msg:
				default:
				}
			}
		default:
			slog.Debug("lsp: notification", "method", msg.Method)
		}
	}
}
