package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m3rciful/taskbot/core/logger"
	coretelegram "github.com/m3rciful/taskbot/core/telegram"
	tghelpers "github.com/m3rciful/taskbot/core/telegram/helpers"
	"github.com/m3rciful/taskbot/core/telegram/keyboard"
	"github.com/m3rciful/taskbot/core/telegram/router"
	"github.com/m3rciful/taskbot/internal/conversation"
	"github.com/m3rciful/taskbot/internal/tasks"

	tele "gopkg.in/telebot.v4"
)

type userLookup interface {
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*tasks.User, error)
}

// telegramHandlers adapts the conversation engine to Telebot. The engine
// decides what to say; this type only performs the sends and edits.
type telegramHandlers struct {
	engine *conversation.Engine
	users  userLookup
}

func newTelegramHandlers(engine *conversation.Engine, users userLookup) *telegramHandlers {
	return &telegramHandlers{engine: engine, users: users}
}

func (h *telegramHandlers) register(reg *coretelegram.Registry) error {
	for _, cmd := range []coretelegram.Command{
		{Name: "/start", Description: "Start the bot", Handler: h.onText},
		{Name: "/help", Description: "Show help", Handler: h.onText},
	} {
		if err := reg.AddCommand(cmd); err != nil {
			return err
		}
	}
	for _, action := range conversation.Actions {
		if err := reg.AddAction(string(action), h.onCallback); err != nil {
			return err
		}
	}
	reg.OnUnknownAction(h.onCallback)
	return nil
}

func (h *telegramHandlers) fallbacks() router.Fallbacks {
	return router.Fallbacks{Text: h.onText, Document: h.onDocument}
}

// onDocument answers files sent outside a flow the way unknown text is answered.
func (h *telegramHandlers) onDocument(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	exists, err := h.userExists(ctx, senderID(c))
	if err != nil {
		return h.send(c, []conversation.Message{{Text: conversation.UnexpectedError}})
	}
	kb := conversation.Keyboard{Kind: conversation.KeyboardRegistration}
	if exists {
		kb.Kind = conversation.KeyboardMain
	}
	return h.send(c, []conversation.Message{{Text: conversation.UnknownCommand, Keyboard: kb}})
}

func (h *telegramHandlers) onText(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID := senderID(c)

	exists, err := h.userExists(ctx, userID)
	if err != nil {
		logger.Error(ctx, "conversation", "user.lookup_failed",
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return h.send(c, []conversation.Message{{Text: conversation.UnexpectedError}})
	}
	return h.send(c, h.engine.HandleMessage(ctx, userID, exists, c.Text()))
}

func (h *telegramHandlers) onCallback(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	cb := c.Callback()
	if cb == nil {
		return nil
	}
	current := ""
	if cb.Message != nil {
		current = cb.Message.Text
	}

	res := h.engine.HandleCallback(ctx, senderID(c), cb.Data, current)

	answer := res.Answer
	if res.Edit != nil {
		if err := c.Edit(res.Edit.Text, sendOptions(res.Edit.Keyboard)); err != nil {
			logger.Warn(ctx, "conversation", "callback.edit_failed",
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
			if res.EditFailedAnswer != "" {
				answer = res.EditFailedAnswer
			}
		}
	}
	if res.EditMarkup != nil && cb.Message != nil {
		if _, err := c.Bot().EditReplyMarkup(cb.Message, markup(*res.EditMarkup)); err != nil {
			logger.Warn(ctx, "conversation", "callback.edit_markup_failed",
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
		}
	}
	// The press is answered even when a follow-up message fails.
	respondErr := c.Respond(&tele.CallbackResponse{Text: answer, ShowAlert: res.Alert})
	return errors.Join(respondErr, h.send(c, res.Messages))
}

// onLimited answers a throttled update: a toast for button presses, a
// plain reply otherwise.
func (h *telegramHandlers) onLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: conversation.SlowDown})
	}
	return tghelpers.SendText(c, conversation.SlowDown, nil)
}

func (h *telegramHandlers) userExists(ctx context.Context, userID int64) (bool, error) {
	_, err := h.users.GetUserByTelegramID(ctx, userID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, tasks.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (h *telegramHandlers) send(c tele.Context, msgs []conversation.Message) error {
	for _, m := range msgs {
		if err := tghelpers.SendText(c, m.Text, sendOptions(m.Keyboard)); err != nil {
			return err
		}
	}
	return nil
}

// senderID is the chat identity that owns sessions and tasks.
func senderID(c tele.Context) int64 {
	if u := c.Sender(); u != nil {
		return u.ID
	}
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	return 0
}

func sendOptions(kb conversation.Keyboard) *tele.SendOptions {
	return &tele.SendOptions{ReplyMarkup: markup(kb)}
}

// markup converts a keyboard descriptor into Telebot markup.
func markup(kb conversation.Keyboard) *tele.ReplyMarkup {
	switch kb.Kind {
	case conversation.KeyboardRemove:
		return keyboard.Remove()
	case conversation.KeyboardRegistration, conversation.KeyboardMain:
		return keyboard.Reply(kb.ReplyRows())
	case conversation.KeyboardTaskActions:
		var rows [][]keyboard.Button
		for _, row := range kb.InlineRows() {
			r := make([]keyboard.Button, len(row))
			for i, b := range row {
				r[i] = keyboard.Button(b)
			}
			rows = append(rows, r)
		}
		return keyboard.Inline(rows)
	}
	return nil
}
