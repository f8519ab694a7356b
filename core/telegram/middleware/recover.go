package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/m3rciful/taskbot/core/logger"
	tghelpers "github.com/m3rciful/taskbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Recover turns a handler panic into a logged error so one bad update
// cannot take the bot down.
func Recover(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.Error(tghelpers.BuildContext(c), "tg", "handler.panic",
				slog.String("status", "fail"),
				slog.String("err", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("telegram: handler panic: %v", r)
		}()
		return next(c)
	}
}
