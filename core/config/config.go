// Package config is the configuration shared by every bot built on core.
// Values come from a YAML file first and are then overridden by the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Run modes accepted in telegram.run_mode.
const (
	RunModeWebhook  = "webhook"
	RunModeLongpoll = "longpoll"
)

// Update kinds accepted in rate_limit.exclude_updates.
const (
	UpdateCallback = "callback"
	UpdateMessage  = "message"
)

// TelegramConfig holds the bot token and how updates are received.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// 0 selects the poller default.
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig feeds logger.InitLogger. Environment variables of the
// same name win over these values.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir" envconfig:"LOG_DIR"`
	BotFile     string `yaml:"bot_file"`
	Profile     string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// RateLimitConfig throttles updates per user. IntervalMS of 0 disables it.
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// Config is the core section embedded by application configs.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ErrNoConfigFile reports a missing file. The environment has still been
// applied to dst when it is returned.
var ErrNoConfigFile = errors.New("config file not found")

// LoadFile decodes YAML at path into dst, then overlays the environment.
func LoadFile(path string, dst any) error {
	var missing bool
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		missing = true
	case err != nil:
		return fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, dst); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := envconfig.Process("", dst); err != nil {
		return fmt.Errorf("apply environment: %w", err)
	}
	if missing {
		return fmt.Errorf("%w: %s", ErrNoConfigFile, path)
	}
	return nil
}

// Load reads and validates a core-only config.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := LoadFile(path, &cfg); err != nil && !errors.Is(err, ErrNoConfigFile) {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize trims and lowercases values in place, fills defaults and
// rejects anything the runtime cannot use.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if err := cfg.Telegram.normalize(); err != nil {
		return err
	}
	if cfg.Telegram.RunMode == RunModeWebhook {
		if err := cfg.Webhook.validate(); err != nil {
			return err
		}
	}
	return cfg.RateLimit.normalize()
}

func (t *TelegramConfig) normalize() error {
	t.Token = strings.TrimSpace(t.Token)
	if t.Token == "" {
		return errors.New("telegram token is required")
	}
	mode := strings.ToLower(strings.TrimSpace(t.RunMode))
	switch mode {
	case "", "polling", RunModeLongpoll:
		mode = RunModeLongpoll
	case RunModeWebhook:
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", t.RunMode)
	}
	t.RunMode = mode
	if t.LongPollTimeoutSeconds < 0 {
		return errors.New("telegram.longpoll_timeout_seconds must be >= 0")
	}
	return nil
}

func (w WebhookConfig) validate() error {
	var missing []string
	if strings.TrimSpace(w.URL) == "" {
		missing = append(missing, "webhook.url")
	}
	if strings.TrimSpace(w.Listen) == "" {
		missing = append(missing, "webhook.listen")
	}
	if w.Port <= 0 {
		missing = append(missing, "webhook.port")
	}
	if len(missing) > 0 {
		return fmt.Errorf("webhook mode needs %s", strings.Join(missing, ", "))
	}
	return nil
}

func (r *RateLimitConfig) normalize() error {
	if r.IntervalMS < 0 {
		return errors.New("rate_limit.interval_ms must be >= 0")
	}
	kept := r.ExcludeUpdates[:0]
	for _, v := range r.ExcludeUpdates {
		kind := strings.ToLower(strings.TrimSpace(v))
		switch kind {
		case "":
			continue
		case UpdateCallback, UpdateMessage:
			kept = append(kept, kind)
		default:
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
	}
	r.ExcludeUpdates = kept
	return nil
}
