// Package bootstrap brings up the infrastructure a bot needs before it can
// serve updates.
package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	corecache "github.com/m3rciful/taskbot/core/cache"
	coreconfig "github.com/m3rciful/taskbot/core/config"
	coredatabase "github.com/m3rciful/taskbot/core/database"
	"github.com/m3rciful/taskbot/core/logger"
)

// Options selects what to start. Nil functions fall back to the core
// implementations; a nil Cache skips Redis.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config
	Cache    *corecache.Config

	LoggerInit   func(*coreconfig.Config) error
	Connect      func(coredatabase.Config) (*sqlx.DB, error)
	Migrate      func(coredatabase.Config) error
	ConnectCache func(corecache.Config) (*redis.Client, error)
}

// Result holds the live connections.
type Result struct {
	DB    *sqlx.DB
	Redis *redis.Client
}

// Close releases Redis then the database.
func (r *Result) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.Redis != nil {
		errs = append(errs, r.Redis.Close())
	}
	if r.DB != nil {
		errs = append(errs, r.DB.Close())
	}
	return errors.Join(errs...)
}

type stage struct {
	name string
	run  func() error
}

// Run starts the logger, migrates, opens the database and, when
// configured, Redis. A failed stage closes whatever was already opened.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}
	opts.fillDefaults()

	res := &Result{}
	stages := []stage{
		{"logger init", func() error { return opts.LoggerInit(opts.Config) }},
		{"migrations", func() error { return opts.Migrate(opts.Database) }},
		{"database initialization", func() (err error) {
			res.DB, err = opts.Connect(opts.Database)
			return err
		}},
	}
	if opts.Cache != nil {
		stages = append(stages, stage{"cache initialization", func() (err error) {
			res.Redis, err = opts.ConnectCache(*opts.Cache)
			return err
		}})
	}

	for _, s := range stages {
		start := time.Now()
		if err := s.run(); err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("bootstrap: %s failed: %w", s.name, err)
		}
		logger.Debug(logger.Background(), "app", "bootstrap.stage",
			slog.String("stage", s.name),
			slog.String("status", "ok"),
			slog.Duration("took", logger.Took(start)),
		)
	}
	return res, nil
}

func (o *Options) fillDefaults() {
	if o.LoggerInit == nil {
		o.LoggerInit = logger.InitLogger
	}
	if o.Migrate == nil {
		o.Migrate = coredatabase.RunMigrations
	}
	if o.Connect == nil {
		o.Connect = coredatabase.Connect
	}
	if o.ConnectCache == nil {
		o.ConnectCache = corecache.Connect
	}
}
