package telegram

import (
	"time"

	coreconfig "github.com/m3rciful/taskbot/core/config"
	"github.com/m3rciful/taskbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares returns the bot-wide chain, outermost first:
// panic recovery, update tracing, then rate limiting when configured.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited tele.HandlerFunc) []Middleware {
	chain := []Middleware{
		{Name: "recover", Use: middleware.Recover},
		{Name: "trace", Use: middleware.Trace},
	}
	if cfg == nil || cfg.RateLimit.IntervalMS <= 0 {
		return chain
	}
	return append(chain, Middleware{
		Name: "rate_limit",
		Use: middleware.RateLimit(middleware.RateLimitOptions{
			Interval:  time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
			Exclude:   cfg.RateLimit.ExcludeUpdates,
			OnLimited: onLimited,
		}),
	})
}
