package signal

import (
	"context"
	"strings"

	"codenote/internal/document"
	"codenote/internal/lsp"
	"codenote/internal/span"
	"codenote/internal/structure"
)

type TokenKind string

const (
	TokenCode    TokenKind = "code"
	TokenComment TokenKind = "comment"
)

// TokenInfo is one decoded token.
type TokenInfo struct {
	Kind  TokenKind
	Type  string
	Range span.Range
	Text  string
}

var commentTypes = map[string]bool{
	"comment":      true,
	"doccomment":   true,
	"blockcomment": true,
	"linecomment":  true,
}

// DecodeTokens expands the five-integer token records of data. A record's
// column is relative to the previous token only when it shares its line.
func DecodeTokens(data []uint32, legend lsp.SemanticTokensLegend, doc *document.Document) []TokenInfo {
	out := make([]TokenInfo, 0, len(data)/5)
	line, start := 0, 0
	for i := 0; i+4 < len(data); i += 5 {
		deltaLine, deltaStart := int(data[i]), int(data[i+1])
		length, typeIndex := int(data[i+2]), int(data[i+3])

		line += deltaLine
		if deltaLine == 0 {
			start += deltaStart
		} else {
			start = deltaStart
		}

		typ := "unknown"
		if typeIndex < len(legend.TokenTypes) {
			typ = legend.TokenTypes[typeIndex]
		}
		kind := TokenCode
		if commentTypes[strings.ToLower(typ)] {
			kind = TokenComment
		}

		r := span.New(line, start, line, start+length)
		info := TokenInfo{Kind: kind, Type: typ, Range: r}
		if doc != nil {
			info.Text = doc.TextIn(r)
		}
		out = append(out, info)
	}
	return out
}

// TokenSignal emits comment and code blocks from the classified token stream.
type TokenSignal struct {
	classifier TokenClassifier
}

func NewTokenSignal(classifier TokenClassifier) *TokenSignal {
	return &TokenSignal{classifier: classifier}
}

func (s *TokenSignal) Source() structure.Source { return structure.SourceToken }

func (s *TokenSignal) Analyze(ctx context.Context, doc *document.Document, rng span.Range) []structure.Block {
	tokens, legend, err := classify(ctx, s.classifier, doc)
	if err != nil {
		unavailable(structure.SourceToken, doc, err)
		return nil
	}

	var inRange []TokenInfo
	for _, tok := range DecodeTokens(tokens.Data, legend, doc) {
		if tok.Range.Intersects(rng) {
			inRange = append(inRange, tok)
		}
	}
	return tokenBlocks(coalesceTokens(inRange), doc)
}

// coalesceTokens joins neighbouring tokens of the same kind.
func coalesceTokens(tokens []TokenInfo) []TokenInfo {
	var out []TokenInfo
	for _, tok := range tokens {
		if n := len(out); n > 0 {
			prev := &out[n-1]
			if prev.Kind == tok.Kind && prev.Range.Adjacent(tok.Range) {
				prev.Range = prev.Range.Union(tok.Range)
				continue
			}
		}
		out = append(out, tok)
	}
	return out
}

func tokenBlocks(tokens []TokenInfo, doc *document.Document) []structure.Block {
	out := make([]structure.Block, 0, len(tokens))
	for _, tok := range tokens {
		kind := structure.KindOther
		if tok.Kind == TokenComment {
			kind = structure.KindComment
		}
		name := tok.Text
		if doc != nil {
			name = doc.TextIn(tok.Range)
		}
		out = append(out, structure.Block{
			Range: tok.Range,
			Kind:  kind,
			Context: &structure.Context{
				Name:   name,
				Source: structure.SourceToken,
			},
		})
	}
	return out
}
