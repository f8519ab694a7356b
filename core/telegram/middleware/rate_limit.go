package middleware

import (
	"log/slog"
	"sync"
	"time"

	coreconfig "github.com/m3rciful/taskbot/core/config"
	"github.com/m3rciful/taskbot/core/logger"
	tghelpers "github.com/m3rciful/taskbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// UpdateKind classifies an update with the names accepted by
// rate_limit.exclude_updates.
func UpdateKind(c tele.Context) string {
	switch {
	case c.Callback() != nil:
		return coreconfig.UpdateCallback
	case c.Message() != nil:
		return coreconfig.UpdateMessage
	}
	return "other"
}

// RateLimitOptions configures RateLimit.
type RateLimitOptions struct {
	// Interval is the minimum gap between two updates from one user.
	Interval time.Duration
	// Exclude lists update kinds that are never limited.
	Exclude []string
	// OnLimited runs instead of the handler for a dropped update.
	OnLimited tele.HandlerFunc
	// Now is a clock override for tests.
	Now func() time.Time
}

// RateLimit drops updates that arrive from the same user faster than
// opts.Interval.
func RateLimit(opts RateLimitOptions) tele.MiddlewareFunc {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	skip := make(map[string]bool, len(opts.Exclude))
	for _, kind := range opts.Exclude {
		skip[kind] = true
	}
	var (
		mu       sync.Mutex
		lastSeen = make(map[int64]time.Time)
	)
	// allow also forgets users idle for more than a minute so the map
	// does not grow with every user ever seen.
	allow := func(userID int64, now time.Time) bool {
		mu.Lock()
		defer mu.Unlock()
		if last, ok := lastSeen[userID]; ok && now.Sub(last) < opts.Interval {
			return false
		}
		lastSeen[userID] = now
		if len(lastSeen) > 1024 {
			for id, ts := range lastSeen {
				if now.Sub(ts) > time.Minute {
					delete(lastSeen, id)
				}
			}
		}
		return true
	}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			u := c.Sender()
			if u == nil || opts.Interval <= 0 || skip[UpdateKind(c)] {
				return next(c)
			}
			if allow(u.ID, opts.Now()) {
				return next(c)
			}
			logger.Warn(tghelpers.BuildContext(c), "tg", "update.limited",
				slog.String("status", "rate_limited"),
				slog.String("kind", UpdateKind(c)),
			)
			if opts.OnLimited != nil {
				return opts.OnLimited(c)
			}
			return nil
		}
	}
}
