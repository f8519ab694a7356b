package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	corecache "github.com/m3rciful/taskbot/core/cache"
	coreconfig "github.com/m3rciful/taskbot/core/config"
	coredatabase "github.com/m3rciful/taskbot/core/database"
)

const (
	// SessionBackendRedis keeps sessions in Redis.
	SessionBackendRedis = "redis"
	// SessionBackendMemory keeps sessions in process memory.
	SessionBackendMemory = "memory"
)

// SessionConfig selects and tunes the session store.
type SessionConfig struct {
	Backend string        `yaml:"backend" envconfig:"SESSION_BACKEND"`
	TTL     time.Duration `yaml:"ttl" envconfig:"SESSION_TTL"`
	// SweepSchedule is a cron expression for dropping expired memory sessions.
	SweepSchedule string `yaml:"sweep_schedule" envconfig:"SESSION_SWEEP_SCHEDULE"`
}

// ConversationConfig tunes the conversation engine.
type ConversationConfig struct {
	// OpTimeout bounds each repository statement.
	OpTimeout time.Duration `yaml:"op_timeout" envconfig:"CONVERSATION_OP_TIMEOUT"`
}

// Config is the complete taskbot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database     coredatabase.Config `yaml:"database"`
	Redis        corecache.Config    `yaml:"redis"`
	Session      SessionConfig       `yaml:"session"`
	Conversation ConversationConfig  `yaml:"conversation"`
}

// CoreConfig exposes the embedded core configuration to the runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// LoadConfig reads YAML and environment overrides, then validates.
// A missing file is tolerated so the bot can run from environment alone.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadFile(path, &cfg); err != nil && !errors.Is(err, coreconfig.ErrNoConfigFile) {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}

	c.Session.Backend = strings.ToLower(strings.TrimSpace(c.Session.Backend))
	if c.Session.Backend == "" {
		c.Session.Backend = SessionBackendRedis
	}
	switch c.Session.Backend {
	case SessionBackendRedis:
		if err := c.Redis.Normalize(); err != nil {
			return err
		}
	case SessionBackendMemory:
		if c.Session.SweepSchedule == "" {
			c.Session.SweepSchedule = "@every 5m"
		}
		if _, err := cron.ParseStandard(c.Session.SweepSchedule); err != nil {
			return fmt.Errorf("invalid session.sweep_schedule %q: %w", c.Session.SweepSchedule, err)
		}
	default:
		return fmt.Errorf("invalid session.backend %q; allowed: redis, memory", c.Session.Backend)
	}
	if c.Session.TTL < 0 {
		return fmt.Errorf("session.ttl must be >= 0")
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = 24 * time.Hour
	}

	if c.Conversation.OpTimeout < 0 {
		return fmt.Errorf("conversation.op_timeout must be >= 0")
	}
	if c.Conversation.OpTimeout == 0 {
		c.Conversation.OpTimeout = 3 * time.Second
	}
	return nil
}
