package logger

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// render logs one line through a fresh handler and returns it.
func render(t *testing.T, format logFormat, lvl slog.Level, fn func(l *slog.Logger)) string {
	t.Helper()
	buf := &bytes.Buffer{}
	s := newSink([]io.Writer{buf}, 1024, time.Hour)
	fn(slog.New(newStructuredHandler(lvl, s, format, nil)))
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return strings.TrimSpace(buf.String())
}

func TestKVLineLeadsWithFixedKeys(t *testing.T) {
	ctx := WithUpdateMeta(WithRID(Background(), "rid-123"), 42, 7, 9)
	line := render(t, formatKV, slog.LevelInfo, func(l *slog.Logger) {
		l.LogAttrs(ctx, slog.LevelInfo, "task.created",
			slog.String("component", "tasks"),
			slog.String("status", "OK"),
			slog.Int64("task_id", 3),
		)
	})

	tokens := strings.Split(line, " ")
	want := []string{"ts=", "level=INFO", "component=tasks", "event=task.created", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9", "task_id=3"}
	if len(tokens) < len(want) {
		t.Fatalf("line = %s", line)
	}
	for i, prefix := range want {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, want prefix %s (line %s)", i, tokens[i], prefix, line)
		}
	}
}

func TestJSONLineOrderAndRID(t *testing.T) {
	ctx := WithRID(Background(), "12:34:56")
	line := render(t, formatJSON, slog.LevelInfo, func(l *slog.Logger) {
		l.LogAttrs(ctx, slog.LevelError, "", slog.String("component", "db"), slog.String("event", "db.connect"),
			slog.Any("err", errors.New("refused")))
	})

	ordered := []string{`{"ts":`, `"level":"ERROR"`, `"component":"db"`, `"event":"db.connect"`, `"rid":"` + CompactRID("12:34:56") + `"`, `"rid_full":"12:34:56"`, `"ts_unix_nano"`, `"err":"refused"`}
	pos := -1
	for _, part := range ordered {
		idx := strings.Index(line, part)
		if idx < pos || idx == -1 {
			t.Fatalf("%s missing or out of order in %s", part, line)
		}
		pos = idx
	}
}

func TestKVOmitsFullRID(t *testing.T) {
	ctx := WithRID(Background(), "1:2:3")
	line := render(t, formatKV, slog.LevelInfo, func(l *slog.Logger) {
		l.InfoContext(ctx, "rid.test")
	})
	if !strings.Contains(line, "rid=1.2.3") || strings.Contains(line, "rid_full") {
		t.Fatalf("line = %s", line)
	}
	if !strings.Contains(line, "component=app") || !strings.Contains(line, "event=rid.test") {
		t.Fatalf("defaults missing: %s", line)
	}
}

func TestDurationsBecomeMilliseconds(t *testing.T) {
	line := render(t, formatKV, slog.LevelDebug, func(l *slog.Logger) {
		l.Debug("session.get",
			slog.String("cache", "MISS"),
			slog.Duration("took", 1500*time.Microsecond),
			slog.Duration("delay_ms", 3*time.Millisecond),
		)
	})
	for _, want := range []string{"cache=miss", "took_ms=2", "delay_ms=3"} {
		if !strings.Contains(line, want) {
			t.Fatalf("want %q in %s", want, line)
		}
	}
}

func TestUnknownCacheValueDropped(t *testing.T) {
	line := render(t, formatKV, slog.LevelInfo, func(l *slog.Logger) {
		l.Info("x", slog.String("cache", "bogus"), slog.String("empty", ""))
	})
	if strings.Contains(line, "cache=") || strings.Contains(line, "empty=") {
		t.Fatalf("line = %s", line)
	}
}

func TestGroupsFlattenToDottedKeys(t *testing.T) {
	line := render(t, formatKV, slog.LevelInfo, func(l *slog.Logger) {
		l.WithGroup("db").With(slog.String("host", "pg")).Info("x", slog.Group("pool", slog.Int("open", 2)))
	})
	for _, want := range []string{"db.host=pg", "db.pool.open=2"} {
		if !strings.Contains(line, want) {
			t.Fatalf("want %q in %s", want, line)
		}
	}
}

func TestLevelFilter(t *testing.T) {
	line := render(t, formatKV, slog.LevelWarn, func(l *slog.Logger) {
		l.Info("hidden")
	})
	if line != "" {
		t.Fatalf("info should be filtered at warn, got %s", line)
	}
}

func TestKVQuotesSpaces(t *testing.T) {
	if got := kvValue("Buy milk"); got != `"Buy milk"` {
		t.Fatalf("got %s", got)
	}
	if got := kvValue("plain"); got != "plain" {
		t.Fatalf("got %s", got)
	}
}
