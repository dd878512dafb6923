package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"codenote/internal/generator"
	"codenote/internal/history"
	"codenote/internal/settings"
)

const defaultTimeout = 60 * time.Second

// Config is the resolved runtime configuration.
type Config struct {
	Provider       string        `validate:"required,oneof=openai gemini"`
	APIKey         string        `validate:"-"`
	Model          string        `validate:"omitempty,max=128"`
	BaseURL        string        `validate:"omitempty,url"`
	Mode           string        `validate:"required,oneof=annotations listing"`
	Timeout        time.Duration `validate:"gt=0"`
	LogLevel       string        `validate:"required,oneof=debug info warn error"`
	Author         string        `validate:"max=256"`
	UILanguage     string        `validate:"omitempty,max=16"`
	MaxHistorySize int           `validate:"gt=0,lte=10000"`
	LSPPath        string
	DisableLSP     bool
	WrapBlocks     bool
}

var validate = validator.New()

// Load reads .env and the environment, then overlays persisted settings, which
// win when set. settings may be nil.
func Load(stored map[string]string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Provider:       strings.ToLower(firstNonEmpty(env("CODENOTE_PROVIDER"), string(generator.ProviderOpenAI))),
		Model:          env("CODENOTE_MODEL"),
		BaseURL:        env("CODENOTE_BASE_URL"),
		Mode:           strings.ToLower(firstNonEmpty(env("CODENOTE_MODE"), string(generator.ModeAnnotations))),
		Timeout:        defaultTimeout,
		LogLevel:       strings.ToLower(firstNonEmpty(env("CODENOTE_LOG_LEVEL"), "info")),
		Author:         firstNonEmpty(env("CODENOTE_AUTHOR"), env("USER")),
		UILanguage:     firstNonEmpty(env("CODENOTE_UI_LANGUAGE"), uiLanguageFromLocale(env("LANG"))),
		MaxHistorySize: history.DefaultMaxSize,
		LSPPath:        env("CODENOTE_LSP_PATH"),
		DisableLSP:     parseBool(env("CODENOTE_DISABLE_LSP")),
		WrapBlocks:     parseBool(env("CODENOTE_WRAP_BLOCKS")),
	}

	if raw := env("CODENOTE_TIMEOUT"); raw != "" {
		d, err := parseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid CODENOTE_TIMEOUT %q: %w", raw, err)
		}
		cfg.Timeout = d
	}
	if raw := env("CODENOTE_MAX_HISTORY_SIZE"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid CODENOTE_MAX_HISTORY_SIZE %q: %w", raw, err)
		}
		cfg.MaxHistorySize = n
	}

	if err := cfg.overlay(stored); err != nil {
		return nil, err
	}
	cfg.APIKey = resolveAPIKey(cfg.Provider)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) overlay(stored map[string]string) error {
	for key, value := range stored {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch key {
		case settings.KeyAuthor:
			c.Author = value
		case settings.KeyUILanguage:
			c.UILanguage = value
		case settings.KeyProvider:
			c.Provider = strings.ToLower(value)
		case settings.KeyModel:
			c.Model = value
		case settings.KeyMode:
			c.Mode = strings.ToLower(value)
		case settings.KeyLSPPath:
			c.LSPPath = value
		case settings.KeyMaxHistorySize:
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid setting %s=%q: %w", key, value, err)
			}
			c.MaxHistorySize = n
		default:
			slog.Debug("config: ignoring setting", "key", key)
		}
	}
	return nil
}

// Generator returns the provider configuration.
func (c *Config) Generator() generator.Config {
	return generator.Config{
		Provider: generator.Provider(c.Provider),
		APIKey:   c.APIKey,
		Model:    c.Model,
		BaseURL:  c.BaseURL,
		Timeout:  c.Timeout,
	}
}

func (c *Config) GenerationMode() generator.Mode {
	m, err := generator.ParseMode(c.Mode)
	if err != nil {
		return generator.ModeAnnotations
	}
	return m
}

// SlogLevel maps LogLevel to a slog level.
func (c *Config) SlogLevel() slog.Level {
	return ParseLevel(c.LogLevel)
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func resolveAPIKey(provider string) string {
	switch generator.Provider(provider) {
	case generator.ProviderGemini:
		return firstNonEmpty(env("CODENOTE_API_KEY"), env("GEMINI_API_KEY"), env("GOOGLE_API_KEY"))
	default:
		return firstNonEmpty(env("CODENOTE_API_KEY"), env("OPENAI_API_KEY"))
	}
}

// parseDuration accepts Go durations and plain seconds.
func parseDuration(raw string) (time.Duration, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(raw)
}

// uiLanguageFromLocale turns a POSIX locale such as zh_CN.UTF-8 into zh-cn.
func uiLanguageFromLocale(locale string) string {
	locale, _, _ = strings.Cut(locale, ".")
	if locale == "" || locale == "C" || locale == "POSIX" {
		return ""
	}
	return strings.ToLower(strings.ReplaceAll(locale, "_", "-"))
}

func parseBool(raw string) bool {
	v, err := strconv.ParseBool(raw)
	return err == nil && v
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
