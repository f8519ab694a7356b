package helpers

import (
	"testing"

	"github.com/m3rciful/taskbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

func newContext(t *testing.T) tele.Context {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	if err != nil {
		t.Fatalf("bot: %v", err)
	}
	return b.NewContext(tele.Update{ID: 11, Message: &tele.Message{
		Sender: &tele.User{ID: 5},
		Chat:   &tele.Chat{ID: 6},
	}})
}

func TestBuildContextIsCached(t *testing.T) {
	c := newContext(t)
	first := BuildContext(c)
	if first != BuildContext(c) {
		t.Fatal("context should be built once per update")
	}
	if got := logger.RIDFrom(first); got != logger.BuildRID(11, 6, 5) {
		t.Fatalf("rid = %q", got)
	}
	if logger.UserIDFrom(first) != 5 || logger.ChatIDFrom(first) != 6 || logger.UpdateIDFrom(first) != 11 {
		t.Fatal("update meta missing")
	}
}

func TestWithHandlerUpdatesCachedContext(t *testing.T) {
	c := newContext(t)
	WithHandler(c, "flow.text")
	if got := logger.HandlerFrom(BuildContext(c)); got != "flow.text" {
		t.Fatalf("handler = %q", got)
	}
}

func TestRepliesCounter(t *testing.T) {
	c := newContext(t)
	if Replies(c) != 0 {
		t.Fatal("fresh update has no replies")
	}
	countReply(c)
	countReply(c)
	if Replies(c) != 2 {
		t.Fatalf("replies = %d", Replies(c))
	}
}
