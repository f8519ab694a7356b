package cache

import (
	"fmt"
	"net"
	"strings"
)

// Config holds Redis connection settings.
type Config struct {
	Host     string `yaml:"host" envconfig:"REDIS_HOST"`
	Port     string `yaml:"port" envconfig:"REDIS_PORT"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
}

// Normalize reports missing connection settings.
func (c *Config) Normalize() error {
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("redis.host is required")
	}
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("redis.port is required")
	}
	if c.DB < 0 {
		return fmt.Errorf("redis.db must be >= 0")
	}
	return nil
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}
