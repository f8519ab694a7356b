// Package helpers bridges Telebot contexts to the context.Context based
// services and queues replies through the outbox.
package helpers

import (
	"context"

	"github.com/m3rciful/taskbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const (
	ctxKey     = "taskbot.ctx"
	repliesKey = "taskbot.replies"
)

// BuildContext returns the logging context of the current update,
// creating and caching it on first use.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := c.Get(ctxKey).(context.Context); ok {
		return ctx
	}

	var chatID, userID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if u := c.Sender(); u != nil {
		userID = u.ID
	}
	updateID := c.Update().ID

	ctx := logger.WithUpdateMeta(context.Background(), updateID, userID, chatID)
	ctx = logger.WithRID(ctx, logger.BuildRID(updateID, chatID, userID))
	c.Set(ctxKey, ctx)
	return ctx
}

// WithHandler tags the update context with the handler serving it.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := logger.WithHandler(BuildContext(c), handler)
	c.Set(ctxKey, ctx)
	return ctx
}

// Replies reports how many replies the current update has queued.
func Replies(c tele.Context) int {
	n, _ := c.Get(repliesKey).(int)
	return n
}

func countReply(c tele.Context) {
	c.Set(repliesKey, Replies(c)+1)
}
