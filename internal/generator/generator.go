package generator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"codenote/internal/annotation"
	"codenote/internal/language"
	"codenote/internal/structure"
)

// ErrGeneration covers every failure to obtain usable text from a provider,
// including empty output.
var ErrGeneration = errors.New("generation failed")

// Mode selects the output format requested from the provider.
type Mode string

const (
	// ModeAnnotations asks for the line-tagged annotation stream.
	ModeAnnotations Mode = "annotations"
	// ModeListing asks for the full commented listing of the selection.
	ModeListing Mode = "listing"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAnnotations:
		return ModeAnnotations, nil
	case ModeListing:
		return ModeListing, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Context is everything a provider may use besides the code itself.
type Context struct {
	LanguageID string
	Forest     *structure.Forest
	Style      language.CommentStyle
	Options    annotation.FormatOptions
	// Offset is the document line of the first line of code.
	Offset     int
	Author     string
	Date       time.Time
	UILanguage string
	Mode       Mode
}

// TextGenerator produces comment text for a code selection.
type TextGenerator interface {
	Generate(ctx context.Context, code string, gctx Context) (string, error)
}

// Provider names a text generation backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// Config configures one provider instance.
type Config struct {
	Provider    Provider
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
}

// Factory builds a generator from its configuration.
type Factory func(ctx context.Context, cfg Config) (TextGenerator, error)

// Registry maps providers to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[Provider]Factory
}

// NewRegistry returns a registry with the built-in providers.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[Provider]Factory)}
	r.Register(ProviderOpenAI, func(_ context.Context, cfg Config) (TextGenerator, error) {
		return NewOpenAI(cfg)
	})
	r.Register(ProviderGemini, func(ctx context.Context, cfg Config) (TextGenerator, error) {
		return NewGemini(ctx, cfg)
	})
	return r
}

// Register adds or replaces the factory for p.
func (r *Registry) Register(p Provider, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[p] = f
}

// Providers lists the registered providers in name order.
func (r *Registry) Providers() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, 0, len(r.factories))
	for p := range r.factories {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) New(ctx context.Context, cfg Config) (TextGenerator, error) {
	r.mu.RLock()
	f, ok := r.factories[cfg.Provider]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	return f(ctx, cfg)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
