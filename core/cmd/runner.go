// Package cmd holds the process lifecycle shared by bot binaries: resolve
// and load config, bootstrap, run until a signal arrives.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m3rciful/taskbot/core/buildinfo"
	coreconfig "github.com/m3rciful/taskbot/core/config"
	"github.com/m3rciful/taskbot/core/logger"
	coretelegram "github.com/m3rciful/taskbot/core/telegram"
)

// ConfigCarrier is an application config that embeds the core one.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// TelegramApp is a bootstrapped application ready to be run.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// Options wires an application into Run. LoadConfig and Bootstrap are
// required; the rest have defaults.
type Options struct {
	// ConfigPath wins over ConfigEnvVar, which wins over DefaultConfigPath.
	ConfigPath        string
	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (ConfigCarrier, error)
	Bootstrap  func(cfg ConfigCarrier) (TelegramApp, error)

	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
}

// ResolveConfigPath picks the config file: explicit path, then the
// environment variable (CONFIG_PATH unless set), then the default.
func ResolveConfigPath(opts Options) (string, error) {
	env := opts.ConfigEnvVar
	if env == "" {
		env = "CONFIG_PATH"
	}
	for _, p := range []string{opts.ConfigPath, os.Getenv(env), opts.DefaultConfigPath} {
		if p != "" {
			return p, nil
		}
	}
	return "", fmt.Errorf("cmd: no config path: pass --config, set %s or provide a default", env)
}

// Run loads the config, bootstraps the app and serves updates until
// SIGINT or SIGTERM.
func Run(opts Options) error {
	if opts.LoadConfig == nil || opts.Bootstrap == nil {
		return errors.New("cmd: LoadConfig and Bootstrap are required")
	}
	if opts.ShutdownLogger == nil {
		opts.ShutdownLogger = logger.Shutdown
	}
	if opts.RunTelegram == nil {
		opts.RunTelegram = coretelegram.RunTelegram
	}
	startedAt := time.Now()

	path, err := ResolveConfigPath(opts)
	if err != nil {
		return err
	}
	cfg, err := opts.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("cmd: load config %s: %w", path, err)
	}
	if cfg.CoreConfig() == nil {
		return errors.New("cmd: loaded config is missing core configuration")
	}

	app, err := opts.Bootstrap(cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap: %w", err)
	}
	defer func() {
		if err := opts.ShutdownLogger(); err != nil {
			fmt.Fprintf(os.Stderr, "logger shutdown: %v\n", err)
		}
	}()

	runOpts, err := app.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: build telegram options: %w", err)
	}
	announceLifecycle(&runOpts, path, startedAt)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return opts.RunTelegram(ctx, runOpts)
}

// announceLifecycle wraps the app hooks with ready and shutdown log lines.
func announceLifecycle(opts *coretelegram.RunOptions, configPath string, startedAt time.Time) {
	onStart, onStop := opts.OnStart, opts.OnStop
	opts.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if onStart != nil {
			if err := onStart(ctx, rt); err != nil {
				return err
			}
		}
		logger.Info(ctx, "app", "app.ready",
			slog.String("status", "ok"),
			slog.String("version", buildinfo.Version),
			slog.String("config", configPath),
			slog.Duration("startup", logger.Took(startedAt)),
		)
		return nil
	}
	opts.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		logger.Info(ctx, "app", "app.shutdown", slog.String("status", "ok"))
		if onStop != nil {
			return onStop(ctx, rt)
		}
		return nil
	}
}
