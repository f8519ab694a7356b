package database

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Config holds database connection settings.
type Config struct {
	Host           string `yaml:"host" envconfig:"POSTGRES_HOST"`
	Port           string `yaml:"port" envconfig:"POSTGRES_PORT"`
	User           string `yaml:"user" envconfig:"POSTGRES_USER"`
	Password       string `yaml:"password" envconfig:"POSTGRES_PASSWORD"`
	Name           string `yaml:"name" envconfig:"POSTGRES_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"POSTGRES_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"POSTGRES_MAX_CONNECTIONS"`
	// MigrationsDir is resolved relative to the working directory when not absolute.
	MigrationsDir string `yaml:"migrations_dir" envconfig:"MIGRATIONS_DIR"`
}

// Normalize fills defaults and reports missing credentials.
func (c *Config) Normalize() error {
	var missing []string
	for name, v := range map[string]string{
		"database.host":     c.Host,
		"database.name":     c.Name,
		"database.user":     c.User,
		"database.password": c.Password,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required database settings: %s", strings.Join(missing, ", "))
	}
	if c.Port == "" {
		c.Port = "5432"
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = 5
	}
	if c.MigrationsDir == "" {
		c.MigrationsDir = "migrations"
	}
	return nil
}

// DSN returns the key/value connection string understood by lib/pq.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// URL returns the postgres:// form required by golang-migrate.
func (c Config) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}
