// Package router turns the registry and the fallback handlers into
// Telebot routes.
package router

import (
	"log/slog"
	"time"

	tg "github.com/m3rciful/taskbot/core/telegram"
	"github.com/m3rciful/taskbot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// Fallbacks handle text and documents that no command claimed. The
// application decides whether the text continues a flow.
type Fallbacks struct {
	Text     tele.HandlerFunc
	Document tele.HandlerFunc
}

// CommandRoutes binds every registered command to its endpoint.
func CommandRoutes(reg *tg.Registry) []tg.Route {
	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for _, cmd := range cmds {
		name, handler := "cmd."+cmd.Name[1:], cmd.Handler
		routes = append(routes, tg.Route{
			Endpoint: cmd.Name,
			Handler: func(c tele.Context) error {
				return handled(c, name, handler)
			},
		})
	}
	return routes
}

// TextRoutes sends free text and documents to the fallbacks.
func TextRoutes(fb Fallbacks) []tg.Route {
	route := func(kind string, h tele.HandlerFunc) tele.HandlerFunc {
		name := "on." + kind
		return func(c tele.Context) error {
			if h == nil {
				logSummary(c, name, time.Now(), "skip", nil)
				return nil
			}
			return handled(c, name, h)
		}
	}
	return []tg.Route{
		{Endpoint: tele.OnText, Handler: route("text", fb.Text)},
		{Endpoint: tele.OnDocument, Handler: route("document", fb.Document)},
	}
}

// CallbackRoute dispatches inline button presses by their action prefix.
func CallbackRoute(reg *tg.Registry) tg.Route {
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler: func(c tele.Context) error {
			cb := c.Callback()
			if cb == nil {
				return nil
			}
			action, _ := callbacks.ParseCallbackData(cb)
			h, known := reg.Action(action)
			name := "action." + action
			if !known {
				name = "action.unknown"
			}
			return handled(c, name, h, slog.String("action", action))
		},
	}
}
