package middleware

import (
	"log/slog"

	"github.com/m3rciful/taskbot/core/logger"
	"github.com/m3rciful/taskbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/taskbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Trace attaches the update's logging context and records a sampled
// receipt line with what the user sent.
func Trace(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		if !logger.ShouldSampleDebug() {
			return next(c)
		}

		attrs := []slog.Attr{slog.String("kind", UpdateKind(c))}
		if chat := c.Chat(); chat != nil {
			attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
		}
		if u := c.Sender(); u != nil && u.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(u.Username, 64)))
		}
		if cb := c.Callback(); cb != nil {
			action, payload := callbacks.ParseCallbackData(cb)
			attrs = append(attrs,
				slog.String("action", logger.SanitizeLimit(action, 64)),
				slog.String("payload", logger.SanitizeLimit(payload, 64)),
			)
		} else if text := c.Text(); text != "" {
			attrs = append(attrs, slog.String("text", logger.SanitizeLimit(text, 256)))
		}
		logger.Debug(ctx, "tg", "update.received", attrs...)
		return next(c)
	}
}
