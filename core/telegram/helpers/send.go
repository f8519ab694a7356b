package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/taskbot/core/logger"
	"github.com/m3rciful/taskbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var outbox atomic.Pointer[sender.Outbox]

// UseOutbox routes SendText through o. A nil outbox sends inline.
func UseOutbox(o *sender.Outbox) {
	outbox.Store(o)
}

// SendText queues a plain-text reply to the current chat.
func SendText(c tele.Context, text string, opts *tele.SendOptions) error {
	send := func() error {
		if opts == nil {
			return c.Send(text)
		}
		return c.Send(text, opts)
	}
	countReply(c)
	o := outbox.Load()
	if o == nil {
		return send()
	}

	var chatID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	ctx := BuildContext(c)
	err := o.Enqueue(ctx, sender.Delivery{ChatID: chatID, Method: "sendMessage", Send: send})
	if errors.Is(err, sender.ErrLaneFull) || errors.Is(err, sender.ErrClosed) {
		logger.Warn(ctx, "tg.sender", "send.inline",
			slog.Int64("chat_id", chatID),
			slog.String("reason", err.Error()),
		)
		return send()
	}
	return err
}
