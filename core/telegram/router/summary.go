package router

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/taskbot/core/logger"
	tghelpers "github.com/m3rciful/taskbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// handled runs h and logs one summary line for the update.
func handled(c tele.Context, name string, h tele.HandlerFunc, extras ...slog.Attr) error {
	start := time.Now()
	tghelpers.WithHandler(c, name)
	err := h(c)
	status := "ok"
	if err != nil {
		status = "fail"
	}
	logSummary(c, name, start, status, err, extras...)
	return err
}

func logSummary(c tele.Context, name string, start time.Time, status string, err error, extras ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("handler", name),
		slog.Int("replies", tghelpers.Replies(c)),
		slog.Int64("took_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	attrs = append(attrs, extras...)
	logger.Info(tghelpers.BuildContext(c), "tg", "update.handled", attrs...)
}

// errorCode names the concrete error type: *tele.Error becomes ERROR.
func errorCode(err error) string {
	name := fmt.Sprintf("%T", err)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToUpper(name)
}
