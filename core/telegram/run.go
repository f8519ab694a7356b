package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/taskbot/core/config"
	"github.com/m3rciful/taskbot/core/logger"
	tghelpers "github.com/m3rciful/taskbot/core/telegram/helpers"
	"github.com/m3rciful/taskbot/core/telegram/middleware"
	"github.com/m3rciful/taskbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// drainTimeout bounds how long shutdown waits for running handlers.
const drainTimeout = 10 * time.Second

// Middleware is a named bot-wide middleware.
type Middleware struct {
	Name string
	Use  tele.MiddlewareFunc
}

// Route binds a handler to a Telebot endpoint such as "/start" or tele.OnText.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions describes everything the bot needs to start.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	Outbox      sender.Options
	Middlewares []Middleware
	Routes      []Route

	// KeepWebhook skips removing a stale webhook before long polling.
	KeepWebhook bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime is handed to lifecycle hooks.
type Runtime struct {
	Bot      *tele.Bot
	Outbox   *sender.Outbox
	Registry *Registry
}

// RunTelegram starts the bot and blocks until ctx is cancelled or the
// poller stops on its own.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if opts.Config == nil {
		return errors.New("telegram: nil config provided")
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}
	cfg := opts.Config

	start := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: newPoller(cfg),
		Client: BuildHTTPClient(),
	})
	if err != nil {
		return fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	logMode(ctx, cfg, time.Since(start))

	if cfg.Telegram.RunMode == coreconfig.RunModeLongpoll && !opts.KeepWebhook {
		removeWebhook(ctx, bot)
	}

	inflight := &middleware.InFlight{}
	bot.Use(inflight.Track)
	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, route := range opts.Routes {
		if route.Endpoint != nil && route.Handler != nil {
			bot.Handle(route.Endpoint, route.Handler)
		}
	}
	publishMenu(ctx, bot, opts.Registry)

	outbox := sender.New(opts.Outbox)
	tghelpers.UseOutbox(outbox)
	defer func() {
		outbox.Close()
		tghelpers.UseOutbox(nil)
	}()

	rt := Runtime{Bot: bot, Outbox: outbox, Registry: opts.Registry}
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		bot.Start()
	}()

	select {
	case <-ctx.Done():
		bot.Stop()
		<-stopped
	case <-stopped:
	}
	drain(ctx, inflight)

	if opts.OnStop != nil {
		// ctx is usually cancelled here; hooks still need a live context.
		if err := opts.OnStop(context.WithoutCancel(ctx), rt); err != nil {
			return err
		}
	}
	logger.Info(ctx, "tg", "bot.stopped",
		slog.String("status", "ok"),
		slog.Uint64("send_failures", outbox.Failures()),
	)
	return nil
}

func logMode(ctx context.Context, cfg *coreconfig.Config, took time.Duration) {
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.String("mode", cfg.Telegram.RunMode),
		slog.Duration("took", logger.RoundMS(took)),
	}
	if cfg.Telegram.RunMode == coreconfig.RunModeWebhook {
		attrs = append(attrs,
			slog.String("listen", cfg.Webhook.Listen),
			slog.Int("port", cfg.Webhook.Port),
			slog.String("public_url", cfg.Webhook.URL),
		)
	}
	logger.Info(ctx, "tg", "bot.mode", attrs...)
}

func removeWebhook(ctx context.Context, bot *tele.Bot) {
	if err := bot.RemoveWebhook(false); err != nil {
		logger.Warn(ctx, "tg", "webhook.remove",
			slog.String("status", "fail"),
			slog.String("err", sender.Redact(err)),
		)
		return
	}
	logger.Debug(ctx, "tg", "webhook.remove", slog.String("status", "ok"))
}

// drain waits for handlers still running after the poller stopped, so
// OnStop can close what they use.
func drain(ctx context.Context, inflight *middleware.InFlight) {
	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancel()
	start := time.Now()
	if err := inflight.Wait(waitCtx); err != nil {
		logger.Warn(ctx, "tg", "bot.drain",
			slog.String("status", "fail"),
			slog.Int("pending", inflight.Count()),
			slog.Duration("took", logger.Took(start)),
		)
		return
	}
	logger.Debug(ctx, "tg", "bot.drain",
		slog.String("status", "ok"),
		slog.Duration("took", logger.Took(start)),
	)
}
