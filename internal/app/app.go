package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/m3rciful/taskbot/core/bootstrap"
	coredatabase "github.com/m3rciful/taskbot/core/database"
	"github.com/m3rciful/taskbot/core/logger"
	coretelegram "github.com/m3rciful/taskbot/core/telegram"
	"github.com/m3rciful/taskbot/core/telegram/router"
	tgsender "github.com/m3rciful/taskbot/core/telegram/sender"
	"github.com/m3rciful/taskbot/core/telegram/state"
	"github.com/m3rciful/taskbot/internal/conversation"
	"github.com/m3rciful/taskbot/internal/tasks"
)

// App owns the infrastructure and services of a running taskbot.
type App struct {
	cfg      *Config
	infra    *bootstrap.Result
	repo     *tasks.Repository
	sessions state.Store[conversation.Session]
	sweeper  *cron.Cron
	engine   *conversation.Engine
}

// Bootstrap initializes logging, migrations, the database and the session
// backend, then wires the conversation engine.
func Bootstrap(cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}
	opts := bootstrap.Options{
		Config:   &cfg.Config,
		Database: cfg.Database,
	}
	if cfg.Session.Backend == SessionBackendRedis {
		redisCfg := cfg.Redis
		opts.Cache = &redisCfg
	}
	infra, err := bootstrap.Run(opts)
	if err != nil {
		return nil, err
	}

	a, err := newApp(cfg, infra)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	return a, nil
}

func newApp(cfg *Config, infra *bootstrap.Result) (*App, error) {
	a := &App{cfg: cfg, infra: infra}
	a.repo = tasks.NewRepository(infra.DB, tasks.Options{OpTimeout: cfg.Conversation.OpTimeout})

	switch cfg.Session.Backend {
	case SessionBackendRedis:
		if infra.Redis == nil {
			return nil, fmt.Errorf("app: redis session backend without a redis client")
		}
		a.sessions = state.NewRedisStore[conversation.Session](infra.Redis, state.RedisOptions{
			TTL:       cfg.Session.TTL,
			OpTimeout: cfg.Conversation.OpTimeout,
		})
	case SessionBackendMemory:
		mem := state.NewMemoryStore[conversation.Session](cfg.Session.TTL)
		a.sweeper = cron.New()
		if _, err := a.sweeper.AddFunc(cfg.Session.SweepSchedule, func() { mem.Sweep() }); err != nil {
			return nil, fmt.Errorf("app: schedule session sweep: %w", err)
		}
		a.sessions = mem
	default:
		return nil, fmt.Errorf("app: unknown session backend %q", cfg.Session.Backend)
	}

	a.engine = conversation.NewEngine(a.repo, a.sessions)
	logger.Info(logger.Background(), "app", "app.wired",
		slog.String("status", "ok"),
		slog.String("session_backend", cfg.Session.Backend),
		slog.Duration("session_ttl", cfg.Session.TTL),
	)
	return a, nil
}

// TelegramRunOptions assembles routes, middlewares and lifecycle hooks.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	h := newTelegramHandlers(a.engine, a.repo)
	if err := h.register(reg); err != nil {
		return coretelegram.RunOptions{}, err
	}

	routes := router.CommandRoutes(reg)
	routes = append(routes, router.TextRoutes(h.fallbacks())...)
	routes = append(routes, router.CallbackRoute(reg))

	return coretelegram.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    reg,
		Outbox:      tgsender.Options{MaxRetries: 2},
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Config, h.onLimited),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(_ context.Context, _ coretelegram.Runtime) error {
	if a.sweeper != nil {
		a.sweeper.Start()
	}
	return nil
}

func (a *App) onStop(_ context.Context, _ coretelegram.Runtime) error {
	if a.sweeper != nil {
		<-a.sweeper.Stop().Done()
	}
	return a.infra.Close()
}

// Migrate applies pending migrations without starting the bot.
func Migrate(cfg *Config) error {
	if err := logger.InitLogger(&cfg.Config); err != nil {
		return fmt.Errorf("app: logger init failed: %w", err)
	}
	defer func() { _ = logger.Shutdown() }()
	return coredatabase.RunMigrations(cfg.Database)
}
