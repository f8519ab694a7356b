package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalizeDefaultsToLongpoll(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: " t ", RunMode: "Polling"}}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q, want %q", cfg.Telegram.RunMode, RunModeLongpoll)
	}
	if cfg.Telegram.Token != "t" {
		t.Fatalf("token not trimmed: %q", cfg.Telegram.Token)
	}
}

func TestNormalizeRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"missing token", Config{}, "token is required"},
		{"bad run mode", Config{Telegram: TelegramConfig{Token: "t", RunMode: "push"}}, "invalid telegram.run_mode"},
		{"webhook without url", Config{Telegram: TelegramConfig{Token: "t", RunMode: "webhook"}}, "webhook.url"},
		{"bad exclusion", Config{
			Telegram:  TelegramConfig{Token: "t"},
			RateLimit: RateLimitConfig{ExcludeUpdates: []string{"inline_query"}},
		}, "exclude_updates"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			err := Normalize(&cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadFileOverlaysEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "telegram:\n  token: from-file\n  run_mode: longpoll\nlogging:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("BOT_TOKEN", "from-env")

	var cfg Config
	if err := LoadFile(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Fatalf("token = %q, want env override", cfg.Telegram.Token)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadFileMissing(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-only")
	var cfg Config
	err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"), &cfg)
	if !errors.Is(err, ErrNoConfigFile) {
		t.Fatalf("err = %v, want ErrNoConfigFile", err)
	}
	if cfg.Telegram.Token != "env-only" {
		t.Fatalf("env should still be applied, got %q", cfg.Telegram.Token)
	}
}

func TestNormalizeWebhookListsMissingFields(t *testing.T) {
	cfg := Config{
		Telegram: TelegramConfig{Token: "t", RunMode: " WEBHOOK "},
		Webhook:  WebhookConfig{URL: "https://bot.example.com/hook"},
	}
	err := Normalize(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "webhook.listen, webhook.port") {
		t.Fatalf("err = %v", err)
	}
}

func TestNormalizeCleansExclusions(t *testing.T) {
	cfg := Config{
		Telegram:  TelegramConfig{Token: "t"},
		RateLimit: RateLimitConfig{IntervalMS: 500, ExcludeUpdates: []string{" Callback ", "", "MESSAGE"}},
	}
	if err := Normalize(&cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	got := strings.Join(cfg.RateLimit.ExcludeUpdates, ",")
	if got != "callback,message" {
		t.Fatalf("exclusions = %q", got)
	}
}
