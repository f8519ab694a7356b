package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	coreconfig "github.com/m3rciful/taskbot/core/config"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"
)

// settings is the logging section of the config resolved to concrete values.
type settings struct {
	format    logFormat
	level     slog.Level
	keyOrder  []string
	sampleNum int
	sampleDen int
	trace     bool
	profile   string
	file      string
}

func resolveSettings(cfg *coreconfig.Config) settings {
	s := settings{
		format:    formatJSON,
		level:     slog.LevelInfo,
		keyOrder:  append([]string(nil), defaultKeyOrder...),
		sampleNum: 1,
		sampleDen: 50,
		trace:     envFlag("TRACE") || envFlag("LOG_TRACE"),
		profile:   "prod",
	}
	if cfg == nil {
		return s
	}
	lc := cfg.Logging

	if p := strings.ToLower(strings.TrimSpace(lc.Profile)); p != "" {
		s.profile = p
	}
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		s.format = formatKV
	case "json":
	default:
		if s.profile == "debug" || s.profile == "dev" {
			s.format = formatKV
		}
	}
	switch strings.ToLower(strings.TrimSpace(lc.Level)) {
	case "debug":
		s.level = slog.LevelDebug
	case "warn", "warning":
		s.level = slog.LevelWarn
	case "error":
		s.level = slog.LevelError
	}
	if order := splitList(lc.KeysOrder); len(order) > 0 && lc.KeysOrder != "default" {
		s.keyOrder = order
	}
	if ratio := strings.TrimSpace(lc.DebugSample); ratio != "" {
		s.sampleNum, s.sampleDen = parseRatio(ratio)
	}
	if dir, name := strings.TrimSpace(lc.Dir), strings.TrimSpace(lc.BotFile); dir != "" && name != "" {
		s.file = filepath.Join(dir, name)
	}
	return s
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envFlag(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
