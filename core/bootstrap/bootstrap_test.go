package bootstrap

import (
	"errors"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	corecache "github.com/m3rciful/taskbot/core/cache"
	coreconfig "github.com/m3rciful/taskbot/core/config"
	coredatabase "github.com/m3rciful/taskbot/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunOrder(t *testing.T) {
	var steps []string
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		Cache:      &corecache.Config{Host: "localhost", Port: "6379"},
		LoggerInit: func(*coreconfig.Config) error { steps = append(steps, "logger"); return nil },
		Migrate:    func(coredatabase.Config) error { steps = append(steps, "migrate"); return nil },
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			steps = append(steps, "db")
			return nil, nil
		},
		ConnectCache: func(corecache.Config) (*redis.Client, error) {
			steps = append(steps, "cache")
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res == nil {
		t.Fatal("expected result")
	}
	if got := strings.Join(steps, ","); got != "logger,migrate,db,cache" {
		t.Fatalf("steps = %s", got)
	}
}

func TestRunStopsOnMigrationFailure(t *testing.T) {
	connected := false
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Migrate:    func(coredatabase.Config) error { return errors.New("dirty") },
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			connected = true
			return nil, nil
		},
	})
	if err == nil || !strings.Contains(err.Error(), "migrations failed") {
		t.Fatalf("err = %v", err)
	}
	if connected {
		t.Fatal("database should not be opened after failed migrations")
	}
}

func TestRunSkipsCacheWhenNotConfigured(t *testing.T) {
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Migrate:    func(coredatabase.Config) error { return nil },
		Connect:    func(coredatabase.Config) (*sqlx.DB, error) { return nil, nil },
		ConnectCache: func(corecache.Config) (*redis.Client, error) {
			t.Fatal("cache connect should not be called")
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Redis != nil {
		t.Fatal("expected nil redis client")
	}
}
