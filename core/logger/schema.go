package logger

import (
	"log/slog"
	"strings"
)

// Values accepted in the cache field. Anything else is dropped.
var cacheResults = map[string]bool{"hit": true, "miss": true}

func levelName(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return "DEBUG"
	case l < slog.LevelWarn:
		return "INFO"
	case l < slog.LevelError:
		return "WARN"
	}
	return "ERROR"
}

// normalizeStatus lower-cases the status field. Callers use ok, fail,
// skip, retry, rate_limited or cancelled.
func normalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// defaultKeyOrder lists fields that lead every line, in this order.
// Remaining fields follow alphabetically.
var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"kind",
	"action",
	"state",
	"next_state",
	"command",
	"task_id",
	"ordinal",
	"field",
	"count",
	"replies",
	"took_ms",
	"cache",
	"text",
	"payload",
	"username",
	"mode",
	"method",
	"db",
	"host",
	"port",
	"err",
	"err_code",
	"error_kind",
	"attempt",
	"attempts",
}
