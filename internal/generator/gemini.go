package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	genai "google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// Gemini generates comments through the Gemini API.
type Gemini struct {
	cli *genai.Client
	cfg Config
}

func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key not set")
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
		slog.Warn("generator: model not set, using default", "provider", ProviderGemini, "model", cfg.Model)
	}
	cc := &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	cli, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return &Gemini{cli: cli, cfg: cfg}, nil
}

func (g *Gemini) Generate(ctx context.Context, code string, gctx Context) (string, error) {
	ctx, cancel := withTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	gc := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
	}
	if g.cfg.Temperature > 0 {
		t := g.cfg.Temperature
		gc.Temperature = &t
	}
	if g.cfg.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(g.cfg.MaxTokens)
	}

	slog.Debug("generator: requesting completion", "provider", ProviderGemini, "model", g.cfg.Model, "mode", gctx.Mode)
	resp, err := g.cli.Models.GenerateContent(ctx, g.cfg.Model,
		[]*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: BuildPrompt(code, gctx)}}}},
		gc,
	)
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %w", ErrGeneration, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: gemini returned no candidates", ErrGeneration)
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	out := CleanResponse(b.String())
	if out == "" {
		return "", fmt.Errorf("%w: gemini returned empty content", ErrGeneration)
	}
	return out, nil
}
