package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

const systemPrompt = "You are a meticulous senior engineer who writes source code comments."

// OpenAI generates comments through the chat completions API.
type OpenAI struct {
	client *openai.Client
	cfg    Config
}

func NewOpenAI(cfg Config) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key not set")
	}
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
		slog.Warn("generator: model not set, using default", "provider", ProviderOpenAI, "model", cfg.Model)
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(clientCfg), cfg: cfg}, nil
}

func (o *OpenAI) Generate(ctx context.Context, code string, gctx Context) (string, error) {
	ctx, cancel := withTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: o.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(code, gctx)},
		},
	}
	if o.cfg.Temperature > 0 {
		req.Temperature = o.cfg.Temperature
	}
	if o.cfg.MaxTokens > 0 {
		req.MaxCompletionTokens = o.cfg.MaxTokens
	}

	slog.Debug("generator: requesting completion", "provider", ProviderOpenAI, "model", o.cfg.Model, "mode", gctx.Mode)
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: openai: %w", ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", ErrGeneration)
	}
	slog.Debug("generator: completion received", "provider", ProviderOpenAI, "finish_reason", resp.Choices[0].FinishReason)

	out := CleanResponse(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("%w: openai returned empty content", ErrGeneration)
	}
	return out, nil
}
