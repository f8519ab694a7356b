package database

import (
	"strings"
	"testing"
)

func TestConfigNormalizeRequiresCredentials(t *testing.T) {
	cfg := Config{Host: "db", User: "bot"}
	err := cfg.Normalize()
	if err == nil {
		t.Fatal("expected error for missing name and password")
	}
	if !strings.Contains(err.Error(), "database.name, database.password") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConfigNormalizeDefaults(t *testing.T) {
	cfg := Config{Host: "db", User: "bot", Password: "p@ss word", Name: "tasks"}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Port != "5432" || cfg.SSLMode != "disable" || cfg.MaxConnections != 5 || cfg.MigrationsDir != "migrations" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	want := "postgres://bot:p%40ss%20word@db:5432/tasks?sslmode=disable"
	if got := cfg.URL(); got != want {
		t.Fatalf("URL() = %q, want %q", got, want)
	}
}
