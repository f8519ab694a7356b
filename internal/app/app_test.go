package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/taskbot/core/bootstrap"
	coreconfig "github.com/m3rciful/taskbot/core/config"
	coredatabase "github.com/m3rciful/taskbot/core/database"
	"github.com/m3rciful/taskbot/internal/conversation"

	tele "gopkg.in/telebot.v4"
)

func validConfig() *Config {
	return &Config{
		Config: coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t"}},
		Database: coredatabase.Config{
			Host: "db", Name: "tasks", User: "bot", Password: "secret",
		},
		Session: SessionConfig{Backend: SessionBackendMemory},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Fatalf("ttl = %v", cfg.Session.TTL)
	}
	if cfg.Session.SweepSchedule != "@every 5m" {
		t.Fatalf("sweep = %q", cfg.Session.SweepSchedule)
	}
	if cfg.Conversation.OpTimeout != 3*time.Second {
		t.Fatalf("op timeout = %v", cfg.Conversation.OpTimeout)
	}
	if cfg.Database.Port != "5432" {
		t.Fatalf("port = %q", cfg.Database.Port)
	}
}

func TestNormalizeRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing token", func(c *Config) { c.Telegram.Token = "" }, "token is required"},
		{"missing database password", func(c *Config) { c.Database.Password = "" }, "database.password"},
		{"redis without host", func(c *Config) { c.Session.Backend = "Redis" }, "redis.host"},
		{"unknown backend", func(c *Config) { c.Session.Backend = "etcd" }, "session.backend"},
		{"bad schedule", func(c *Config) { c.Session.SweepSchedule = "every minute" }, "sweep_schedule"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Normalize()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadConfigFromFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `telegram:
  token: file-token
database:
  host: db
  name: tasks
  user: bot
session:
  backend: memory
  ttl: 30m
conversation:
  op_timeout: 2s
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("POSTGRES_PASSWORD", "from-env")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "file-token" || cfg.Database.Password != "from-env" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Session.TTL != 30*time.Minute || cfg.Conversation.OpTimeout != 2*time.Second {
		t.Fatalf("durations = %v, %v", cfg.Session.TTL, cfg.Conversation.OpTimeout)
	}
	if cfg.CoreConfig().Telegram.RunMode != coreconfig.RunModeLongpoll {
		t.Fatalf("run mode = %q", cfg.CoreConfig().Telegram.RunMode)
	}
}

func TestNewAppMemoryBackend(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	a, err := newApp(cfg, &bootstrap.Result{})
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	if a.sweeper == nil || a.engine == nil {
		t.Fatal("expected sweeper and engine")
	}

	opts, err := a.TelegramRunOptions()
	if err != nil {
		t.Fatalf("run options: %v", err)
	}
	if opts.Registry == nil || opts.Outbox.MaxRetries != 2 {
		t.Fatalf("opts = %+v", opts)
	}
	// two commands, text and document, callbacks
	if len(opts.Routes) != 5 {
		t.Fatalf("routes = %d, want 5", len(opts.Routes))
	}
	if got := opts.Registry.Actions(); got != len(conversation.Actions) {
		t.Fatalf("actions = %d, want %d", got, len(conversation.Actions))
	}
	menu := opts.Registry.Menu()
	if len(menu) != 2 || menu[0].Text != "start" || menu[1].Text != "help" {
		t.Fatalf("menu = %+v", menu)
	}
}

func TestNewAppRedisBackendNeedsClient(t *testing.T) {
	cfg := validConfig()
	cfg.Session.Backend = SessionBackendRedis
	if _, err := newApp(cfg, &bootstrap.Result{}); err == nil {
		t.Fatal("expected error without redis client")
	}
}

func TestMarkup(t *testing.T) {
	if markup(conversation.Keyboard{}) != nil {
		t.Fatal("none should produce no markup")
	}
	if m := markup(conversation.Keyboard{Kind: conversation.KeyboardRemove}); m == nil || !m.RemoveKeyboard {
		t.Fatalf("remove = %+v", m)
	}
	m := markup(conversation.Keyboard{Kind: conversation.KeyboardMain})
	if len(m.ReplyKeyboard) != 2 || m.ReplyKeyboard[0][0].Text != conversation.ButtonAddTask {
		t.Fatalf("main = %+v", m.ReplyKeyboard)
	}

	m = markup(conversation.Keyboard{Kind: conversation.KeyboardTaskActions, TaskID: 4, Editing: true})
	var data []string
	for _, row := range m.InlineKeyboard {
		for _, b := range row {
			data = append(data, b.Data)
		}
	}
	want := "toggle_status:4,cancel_edit:4,delete_task:4"
	if got := strings.Join(data, ","); got != want {
		t.Fatalf("inline data = %s, want %s", got, want)
	}
}

func TestSenderIDFallsBackToChat(t *testing.T) {
	b, err := tele.NewBot(tele.Settings{Offline: true})
	if err != nil {
		t.Fatalf("bot: %v", err)
	}
	c := b.NewContext(tele.Update{Message: &tele.Message{Chat: &tele.Chat{ID: 55}}})
	if got := senderID(c); got != 55 {
		t.Fatalf("sender id = %d", got)
	}
}

func TestRunOptionsAddRateLimitWhenConfigured(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit.IntervalMS = 500
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	a, err := newApp(cfg, &bootstrap.Result{})
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	opts, err := a.TelegramRunOptions()
	if err != nil {
		t.Fatalf("run options: %v", err)
	}
	var names []string
	for _, m := range opts.Middlewares {
		names = append(names, m.Name)
	}
	if got := strings.Join(names, ","); got != "recover,trace,rate_limit" {
		t.Fatalf("middlewares = %s", got)
	}
}
