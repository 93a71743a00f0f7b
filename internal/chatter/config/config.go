// Package config loads and validates the bot's configuration. Settings come
// from a YAML file, with environment variables overriding the secrets and the
// most commonly tuned fields so deployments never have to write tokens to
// disk.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Viktor-Uv/chatter/common/environment"
	"github.com/Viktor-Uv/chatter/internal/chatter/convo"
)

// Update delivery modes.
const (
	ModePoll    = "poll"
	ModeWebhook = "webhook"
)

// Storage backends.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// Config is the full bot configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Storage  StorageConfig  `yaml:"storage"`
	Dialog   DialogConfig   `yaml:"dialog"`
	Log      LogConfig      `yaml:"log"`
}

// TelegramConfig configures the Bot API transport.
type TelegramConfig struct {
	// Token is the bot token. Overridable via CHATTER_TELEGRAM_TOKEN.
	Token string `yaml:"token"`
	// BotName is the bot's @username, used to strip command mentions in
	// group chats.
	BotName string `yaml:"bot_name"`
	// BaseURL overrides the Bot API server, mainly for tests.
	BaseURL string `yaml:"base_url"`
	// Mode selects update delivery: "poll" (default) or "webhook".
	Mode string `yaml:"mode"`
	// WebhookAddr is the listen address in webhook mode, e.g. ":8443".
	WebhookAddr string `yaml:"webhook_addr"`
	// WebhookSecret, when set, must match the secret token header on every
	// webhook delivery.
	WebhookSecret string `yaml:"webhook_secret"`
	// Timeout for single-shot Bot API calls.
	Timeout time.Duration `yaml:"timeout"`
}

// OpenAIConfig configures the completion and image providers.
type OpenAIConfig struct {
	// APIKey is the OpenAI API key. Overridable via CHATTER_OPENAI_API_KEY.
	APIKey string `yaml:"api_key"`
	// Model is the completion model. Defaults to gpt-3.5-turbo.
	Model string `yaml:"model"`
	// BaseURL overrides the API endpoint for compatible gateways.
	BaseURL string `yaml:"base_url"`
	// Timeout for each API request.
	Timeout time.Duration `yaml:"timeout"`
}

// StorageConfig selects where conversation snapshots are persisted.
type StorageConfig struct {
	// Backend is "file" (default) or "sqlite".
	Backend string `yaml:"backend"`
	// Path is the snapshot file or SQLite database path.
	Path string `yaml:"path"`
}

// DialogConfig tunes the conversation window.
type DialogConfig struct {
	// MaxPairs is the number of retained user/assistant pairs.
	MaxPairs int `yaml:"max_pairs"`
	// MinSummaryChars is the threshold below which stored entries are kept
	// whole rather than cut at a sentence boundary.
	MinSummaryChars int `yaml:"min_summary_chars"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when a field is left unset.
func Default() Config {
	return Config{
		Telegram: TelegramConfig{
			Mode:        ModePoll,
			WebhookAddr: ":8443",
			Timeout:     30 * time.Second,
		},
		OpenAI: OpenAIConfig{
			Model:   "gpt-3.5-turbo",
			Timeout: 120 * time.Second,
		},
		Storage: StorageConfig{
			Backend: StorageFile,
			Path:    "data.json",
		},
		Dialog: DialogConfig{
			MaxPairs:        convo.MaxDialogSize,
			MinSummaryChars: convo.MinSummaryChars,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path (when path is non-empty), applies
// environment overrides, fills defaults, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config yaml: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv lets the environment override secrets and deploy-specific fields.
func (c *Config) applyEnv() {
	c.Telegram.Token = environment.StringOr("CHATTER_TELEGRAM_TOKEN", c.Telegram.Token)
	c.Telegram.BotName = environment.StringOr("CHATTER_BOT_NAME", c.Telegram.BotName)
	c.Telegram.Mode = environment.StringOr("CHATTER_MODE", c.Telegram.Mode)
	c.Telegram.WebhookAddr = environment.StringOr("CHATTER_WEBHOOK_ADDR", c.Telegram.WebhookAddr)
	c.Telegram.WebhookSecret = environment.StringOr("CHATTER_WEBHOOK_SECRET", c.Telegram.WebhookSecret)
	c.Telegram.Timeout = environment.DurationOr("CHATTER_TELEGRAM_TIMEOUT", c.Telegram.Timeout)
	c.OpenAI.APIKey = environment.StringOr("CHATTER_OPENAI_API_KEY", c.OpenAI.APIKey)
	c.OpenAI.Model = environment.StringOr("CHATTER_OPENAI_MODEL", c.OpenAI.Model)
	c.OpenAI.Timeout = environment.DurationOr("CHATTER_OPENAI_TIMEOUT", c.OpenAI.Timeout)
	c.Storage.Backend = environment.StringOr("CHATTER_STORAGE_BACKEND", c.Storage.Backend)
	c.Storage.Path = environment.StringOr("CHATTER_STORAGE_PATH", c.Storage.Path)
	c.Dialog.MaxPairs = environment.IntOr("CHATTER_DIALOG_MAX_PAIRS", c.Dialog.MaxPairs)
	c.Dialog.MinSummaryChars = environment.IntOr("CHATTER_DIALOG_MIN_SUMMARY_CHARS", c.Dialog.MinSummaryChars)
	c.Log.Level = environment.StringOr("CHATTER_LOG_LEVEL", c.Log.Level)
	c.Log.Format = environment.StringOr("CHATTER_LOG_FORMAT", c.Log.Format)
}

// applyDefaults backfills fields a partial YAML file may have zeroed.
func (c *Config) applyDefaults() {
	def := Default()
	if c.Telegram.Mode == "" {
		c.Telegram.Mode = def.Telegram.Mode
	}
	if c.Telegram.WebhookAddr == "" {
		c.Telegram.WebhookAddr = def.Telegram.WebhookAddr
	}
	if c.Telegram.Timeout == 0 {
		c.Telegram.Timeout = def.Telegram.Timeout
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = def.OpenAI.Model
	}
	if c.OpenAI.Timeout == 0 {
		c.OpenAI.Timeout = def.OpenAI.Timeout
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = def.Storage.Backend
	}
	if c.Storage.Path == "" {
		c.Storage.Path = def.Storage.Path
	}
	if c.Dialog.MaxPairs == 0 {
		c.Dialog.MaxPairs = def.Dialog.MaxPairs
	}
	if c.Dialog.MinSummaryChars == 0 {
		c.Dialog.MinSummaryChars = def.Dialog.MinSummaryChars
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
}

// Validate checks that the configuration is complete enough to start.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required (or set CHATTER_TELEGRAM_TOKEN)")
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required (or set CHATTER_OPENAI_API_KEY)")
	}
	switch c.Telegram.Mode {
	case ModePoll:
	case ModeWebhook:
		if c.Telegram.WebhookAddr == "" {
			return fmt.Errorf("telegram.webhook_addr is required in webhook mode")
		}
	default:
		return fmt.Errorf("telegram.mode must be %q or %q, got %q", ModePoll, ModeWebhook, c.Telegram.Mode)
	}
	switch c.Storage.Backend {
	case StorageFile, StorageSQLite:
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", StorageFile, StorageSQLite, c.Storage.Backend)
	}
	if c.Dialog.MaxPairs < 0 {
		return fmt.Errorf("dialog.max_pairs must not be negative")
	}
	if c.Dialog.MinSummaryChars < 0 {
		return fmt.Errorf("dialog.min_summary_chars must not be negative")
	}
	return nil
}
