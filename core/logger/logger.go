// Package logger is the structured slog setup shared by every component.
// Lines carry a component, an event and, inside an update, the
// correlation fields of that update.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/m3rciful/taskbot/core/buildinfo"
	coreconfig "github.com/m3rciful/taskbot/core/config"
)

var (
	initOnce sync.Once
	stopOnce sync.Once

	out     *sink
	logFile *os.File
	level   slog.LevelVar

	debugSample sampler
	traceAll    bool

	// L is the process-wide logger. It discards everything until InitLogger runs.
	L = slog.New(slog.NewTextHandler(io.Discard, nil))
)

// InitLogger configures L from cfg. Only the first call has an effect.
func InitLogger(cfg *coreconfig.Config) error {
	var err error
	initOnce.Do(func() {
		s := resolveSettings(cfg)
		level.Set(s.level)
		debugSample.set(s.sampleNum, s.sampleDen)
		traceAll = s.trace

		outputs := []io.Writer{os.Stdout}
		if s.file != "" {
			if logFile, err = openLogFile(s.file); err != nil {
				return
			}
			outputs = append(outputs, logFile)
		}
		out = newSink(outputs, 64*1024, 200*time.Millisecond)

		L = slog.New(newStructuredHandler(&level, out, s.format, s.keyOrder))
		slog.SetDefault(L)

		Info(context.Background(), "app", "startup",
			slog.String("go_version", runtime.Version()),
			slog.String("build_version", buildinfo.Version),
			slog.String("build_commit", buildinfo.Commit),
			slog.String("build_time", buildinfo.Date),
			slog.String("cfg_profile", s.profile),
			slog.String("log_level", levelName(s.level)),
		)
	})
	return err
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logger: create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logger: open log file: %w", err)
	}
	return f, nil
}

// Shutdown flushes pending lines and closes the log file.
func Shutdown() error {
	var errs []error
	stopOnce.Do(func() {
		if out != nil {
			errs = append(errs, out.Close())
		}
		if logFile != nil {
			errs = append(errs, logFile.Close())
		}
	})
	return errors.Join(errs...)
}

// Background is the context for log lines outside any update.
func Background() context.Context {
	return context.Background()
}

func emit(ctx context.Context, lvl slog.Level, component, event string, attrs []slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !L.Enabled(ctx, lvl) {
		return
	}
	head := []slog.Attr{slog.String("component", component), slog.String("event", event)}
	L.LogAttrs(ctx, lvl, event, append(head, attrs...)...)
}

// Debug logs event for component at debug level.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, slog.LevelDebug, component, event, attrs)
}

// Info logs event for component at info level.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, slog.LevelInfo, component, event, attrs)
}

// Warn logs event for component at warn level.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, slog.LevelWarn, component, event, attrs)
}

// Error logs event for component at error level.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, slog.LevelError, component, event, attrs)
}

// ShouldSampleDebug reports whether a high-volume debug line should be
// written. TRACE=1 in the environment lets every line through.
func ShouldSampleDebug() bool {
	return traceAll || debugSample.allow()
}
