package logger

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	coreconfig "github.com/m3rciful/taskbot/core/config"
)

func TestContextMeta(t *testing.T) {
	ctx := WithHandler(WithUpdateMeta(WithRID(Background(), "r"), 1, 2, 3), "flow.text")
	if RIDFrom(ctx) != "r" || UpdateIDFrom(ctx) != 1 || UserIDFrom(ctx) != 2 || ChatIDFrom(ctx) != 3 || HandlerFrom(ctx) != "flow.text" {
		t.Fatal("meta lost")
	}
	if RIDFrom(Background()) != "" || HandlerFrom(Background()) != "" {
		t.Fatal("empty context should have no meta")
	}
}

func TestCompactRID(t *testing.T) {
	tests := map[string]string{
		"35:36:1":   "z.10.1",
		" 1:-2:3 ":  "1.-2.3",
		"not-a-rid": "not-a-rid",
		"a:b:c":     "a:b:c",
		"1:2":       "1:2",
	}
	for in, want := range tests {
		if got := CompactRID(in); got != want {
			t.Errorf("CompactRID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSampler(t *testing.T) {
	var s sampler
	s.set(2, 5)
	passed := 0
	for i := 0; i < 10; i++ {
		if s.allow() {
			passed++
		}
	}
	if passed != 4 {
		t.Fatalf("passed = %d, want 4", passed)
	}
	s.set(0, 0)
	if !s.allow() {
		t.Fatal("disabled sampler lets everything through")
	}
}

func TestParseRatio(t *testing.T) {
	tests := []struct {
		in       string
		num, den int
	}{
		{"1/50", 1, 50},
		{"10", 1, 10},
		{" 3 / 4 ", 3, 4},
		{"0", 0, 0},
		{"x/y", 0, 0},
	}
	for _, tt := range tests {
		if n, d := parseRatio(tt.in); n != tt.num || d != tt.den {
			t.Errorf("parseRatio(%q) = %d/%d, want %d/%d", tt.in, n, d, tt.num, tt.den)
		}
	}
}

func TestResolveSettings(t *testing.T) {
	s := resolveSettings(nil)
	if s.format != formatJSON || s.level != slog.LevelInfo || s.sampleDen != 50 {
		t.Fatalf("defaults = %+v", s)
	}

	s = resolveSettings(&coreconfig.Config{Logging: coreconfig.LoggingConfig{
		Level:     "Debug",
		Profile:   "dev",
		KeysOrder: "event, ts",
		Dir:       "/var/log/taskbot",
		BotFile:   "bot.log",
	}})
	if s.format != formatKV || s.level != slog.LevelDebug {
		t.Fatalf("dev profile = %+v", s)
	}
	if len(s.keyOrder) != 2 || s.keyOrder[0] != "event" {
		t.Fatalf("order = %v", s.keyOrder)
	}
	if s.file != filepath.Join("/var/log/taskbot", "bot.log") {
		t.Fatalf("file = %q", s.file)
	}
}

func TestSinkFlushAndClose(t *testing.T) {
	buf := &bytes.Buffer{}
	s := newSink([]io.Writer{buf}, 1024, time.Hour)
	if err := s.Write([]byte("a\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatal("line should stay buffered until flush")
	}
	if err := s.Flush(); err != nil || buf.String() != "a\n" {
		t.Fatalf("flush: %v, %q", err, buf.String())
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Write([]byte("b\n")); err != errSinkClosed {
		t.Fatalf("write after close = %v", err)
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("a\x00b\u200bc\td", 10); got != "abc\td" {
		t.Fatalf("got %q", got)
	}
	if got := SanitizeLimit("привет", 3); got != "при" {
		t.Fatalf("got %q", got)
	}
}
