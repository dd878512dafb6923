package lsp

import (
	"errors"
	"fmt"
)

var (
	ErrServerNotRunning    = errors.New("lsp server not running")
	ErrServerNotInstalled  = errors.New("lsp server not installed")
	ErrUnsupportedLanguage = errors.New("no lsp server configured for language")
	ErrNoSemanticTokens    = errors.New("lsp server does not provide semantic tokens")
	ErrInvalidResponse     = errors.New("invalid lsp response")
)

// ResponseError is an error returned by the language server over JSON-RPC.
type ResponseError struct {
	Method  string
	Code    int
	Message string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s: lsp error %d: %s", e.Method, e.Code, e.Message)
}

func (e *ResponseError) IsMethodNotFound() bool {
	return e.Code == -32601
}
