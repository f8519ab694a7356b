package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/m3rciful/taskbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Command is a slash command shown in the bot menu.
type Command struct {
	Name        string
	Description string
	Handler     tele.HandlerFunc
}

// Registry collects slash commands and inline-button actions before the
// bot starts. Commands keep their registration order in the menu.
type Registry struct {
	mu        sync.RWMutex
	commands  []Command
	callbacks map[string]tele.HandlerFunc
	fallback  tele.HandlerFunc
}

// NewRegistry returns an empty registry whose unknown-action fallback
// answers the press with a short notice.
func NewRegistry() *Registry {
	return &Registry{
		callbacks: make(map[string]tele.HandlerFunc),
		fallback: func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
		},
	}
}

// AddCommand registers cmd. Names must start with a slash and be unique.
func (r *Registry) AddCommand(cmd Command) error {
	cmd.Name = strings.TrimSpace(cmd.Name)
	switch {
	case cmd.Handler == nil:
		return fmt.Errorf("telegram: command %q has no handler", cmd.Name)
	case !strings.HasPrefix(cmd.Name, "/") || len(cmd.Name) < 2:
		return fmt.Errorf("telegram: command %q must start with '/'", cmd.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.commands {
		if existing.Name == cmd.Name {
			return fmt.Errorf("telegram: command %s already registered", cmd.Name)
		}
	}
	r.commands = append(r.commands, cmd)
	return nil
}

// Commands returns the registered commands in registration order.
func (r *Registry) Commands() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Command(nil), r.commands...)
}

// AddAction binds handler to the action prefix of inline callback data.
func (r *Registry) AddAction(action string, handler tele.HandlerFunc) error {
	if action == "" || handler == nil {
		return errors.New("telegram: action and handler are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.callbacks[action]; dup {
		return fmt.Errorf("telegram: action %q already registered", action)
	}
	r.callbacks[action] = handler
	return nil
}

// Action returns the handler for action. Unknown actions resolve to the
// fallback and report false.
func (r *Registry) Action(action string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h, ok := r.callbacks[action]; ok {
		return h, true
	}
	return r.fallback, false
}

// Actions reports how many actions are bound.
func (r *Registry) Actions() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.callbacks)
}

// OnUnknownAction replaces the fallback for unbound actions.
func (r *Registry) OnUnknownAction(h tele.HandlerFunc) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.fallback = h
	r.mu.Unlock()
}

// Menu converts the commands into the Bot API menu representation.
func (r *Registry) Menu() []tele.Command {
	cmds := r.Commands()
	menu := make([]tele.Command, 0, len(cmds))
	for _, c := range cmds {
		if c.Description == "" {
			continue
		}
		menu = append(menu, tele.Command{Text: strings.TrimPrefix(c.Name, "/"), Description: c.Description})
	}
	return menu
}

// publishMenu pushes the command menu to Telegram. Failure is logged and
// does not stop the bot.
func publishMenu(ctx context.Context, bot *tele.Bot, reg *Registry) {
	menu := reg.Menu()
	if len(menu) == 0 {
		return
	}
	if err := bot.SetCommands(menu); err != nil {
		logger.Warn(ctx, "tg.wire", "menu.publish",
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return
	}
	logger.Debug(ctx, "tg.wire", "menu.publish",
		slog.String("status", "ok"),
		slog.Int("commands", len(menu)),
	)
}
