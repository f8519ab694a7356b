package middleware

import (
	"errors"
	"testing"
	"time"

	coreconfig "github.com/m3rciful/taskbot/core/config"
	"github.com/m3rciful/taskbot/core/logger"
	tghelpers "github.com/m3rciful/taskbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

func newContext(t *testing.T, upd tele.Update) tele.Context {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	if err != nil {
		t.Fatalf("bot: %v", err)
	}
	return b.NewContext(upd)
}

func textUpdate(id int, userID int64) tele.Update {
	return tele.Update{ID: id, Message: &tele.Message{
		Text:   "hello",
		Sender: &tele.User{ID: userID},
		Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
	}}
}

func callbackUpdate(id int, userID int64) tele.Update {
	return tele.Update{ID: id, Callback: &tele.Callback{
		Sender: &tele.User{ID: userID},
		Data:   "toggle_status:1",
	}}
}

func TestRateLimitDropsBurst(t *testing.T) {
	now := time.Unix(1000, 0)
	limited := 0
	mw := RateLimit(RateLimitOptions{
		Interval:  time.Second,
		Now:       func() time.Time { return now },
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	handled := 0
	h := mw(func(tele.Context) error { handled++; return nil })

	_ = h(newContext(t, textUpdate(1, 7)))
	_ = h(newContext(t, textUpdate(2, 7)))
	_ = h(newContext(t, textUpdate(3, 8)))
	now = now.Add(2 * time.Second)
	_ = h(newContext(t, textUpdate(4, 7)))

	if handled != 3 || limited != 1 {
		t.Fatalf("handled = %d, limited = %d", handled, limited)
	}
}

func TestRateLimitExcludesKinds(t *testing.T) {
	now := time.Unix(1000, 0)
	mw := RateLimit(RateLimitOptions{
		Interval: time.Minute,
		Exclude:  []string{coreconfig.UpdateCallback},
		Now:      func() time.Time { return now },
	})
	handled := 0
	h := mw(func(tele.Context) error { handled++; return nil })
	for i := 0; i < 3; i++ {
		_ = h(newContext(t, callbackUpdate(i, 7)))
	}
	if handled != 3 {
		t.Fatalf("handled = %d, want 3", handled)
	}
}

func TestUpdateKind(t *testing.T) {
	if got := UpdateKind(newContext(t, textUpdate(1, 1))); got != coreconfig.UpdateMessage {
		t.Fatalf("text kind = %q", got)
	}
	if got := UpdateKind(newContext(t, callbackUpdate(1, 1))); got != coreconfig.UpdateCallback {
		t.Fatalf("callback kind = %q", got)
	}
}

func TestRecoverReturnsError(t *testing.T) {
	h := Recover(func(tele.Context) error { panic("boom") })
	err := h(newContext(t, textUpdate(1, 1)))
	if err == nil || err.Error() != "telegram: handler panic: boom" {
		t.Fatalf("err = %v", err)
	}

	want := errors.New("plain")
	if err := Recover(func(tele.Context) error { return want })(newContext(t, textUpdate(2, 1))); !errors.Is(err, want) {
		t.Fatalf("err = %v", err)
	}
}

func TestTraceAttachesRID(t *testing.T) {
	c := newContext(t, textUpdate(42, 9))
	var rid string
	_ = Trace(func(c tele.Context) error {
		rid = logger.RIDFrom(tghelpers.BuildContext(c))
		return nil
	})(c)
	if rid != logger.BuildRID(42, 9, 9) {
		t.Fatalf("rid = %q", rid)
	}
}
