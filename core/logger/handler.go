package logger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

const tsLayout = "2006-01-02T15:04:05.000Z07:00"

// lineWriter receives one encoded line per record.
type lineWriter interface {
	Write(line []byte) error
}

// structuredHandler renders records as flat key/value lines with the
// correlation fields of the update taken from the context.
type structuredHandler struct {
	level    slog.Leveler
	out      lineWriter
	format   logFormat
	keyOrder []string

	attrs  []slog.Attr
	prefix string
}

func newStructuredHandler(level slog.Leveler, out lineWriter, format logFormat, keyOrder []string) *structuredHandler {
	if keyOrder == nil {
		keyOrder = defaultKeyOrder
	}
	return &structuredHandler{level: level, out: out, format: format, keyOrder: keyOrder}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	f := make(fields, 16)
	ts := r.Time.UTC()
	f["ts"] = ts.Truncate(time.Millisecond).Format(tsLayout)
	f["level"] = levelName(r.Level)
	if h.format == formatJSON {
		f["ts_unix_nano"] = ts.UnixNano()
	}

	for _, a := range h.attrs {
		f.add("", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		f.add(h.prefix, a)
		return true
	})
	f.fillFromContext(ctx)
	f.finish(r.Message, h.format == formatJSON)

	var line []byte
	if h.format == formatJSON {
		var err error
		if line, err = encodeJSON(f, h.keyOrder); err != nil {
			return err
		}
	} else {
		line = encodeKV(f, h.keyOrder)
	}
	return h.out.Write(append(line, '\n'))
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

// fields is one log line before encoding.
type fields map[string]any

// add flattens groups into dotted keys and normalizes values.
func (f fields) add(prefix string, a slog.Attr) {
	key := prefix + a.Key
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		if a.Key != "" {
			key += "."
		}
		for _, child := range v.Group() {
			f.add(key, child)
		}
		return
	}
	if key == "" {
		return
	}
	if d, ok := durationOf(v); ok {
		f[msKey(key)] = RoundMS(d).Milliseconds()
		return
	}
	if val, ok := plainValue(v); ok {
		f[key] = val
	}
}

func durationOf(v slog.Value) (time.Duration, bool) {
	if v.Kind() == slog.KindDuration {
		return v.Duration(), true
	}
	if v.Kind() == slog.KindAny {
		d, ok := v.Any().(time.Duration)
		return d, ok
	}
	return 0, false
}

func plainValue(v slog.Value) (any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return strings.TrimSpace(v.String()), true
	case slog.KindBool:
		return v.Bool(), true
	case slog.KindInt64:
		return v.Int64(), true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return int64(u), true
		}
		return v.Uint64(), true
	case slog.KindFloat64:
		return v.Float64(), true
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339Nano), true
	}
	switch x := v.Any().(type) {
	case nil:
		return nil, false
	case error:
		return x.Error(), true
	case fmt.Stringer:
		return x.String(), true
	case string:
		return strings.TrimSpace(x), true
	default:
		return fmt.Sprint(x), true
	}
}

// msKey makes every duration key end in _ms.
func msKey(key string) string {
	if strings.HasSuffix(key, "_ms") {
		return key
	}
	return key + "_ms"
}

func (f fields) fillFromContext(ctx context.Context) {
	m := metaFrom(ctx)
	f.setDefault("rid", m.rid)
	f.setDefault("handler", m.handler)
	if m.updateID != 0 {
		f.setDefault("update_id", int64(m.updateID))
	}
	if m.userID != 0 {
		f.setDefault("user_id", m.userID)
	}
	if m.chatID != 0 {
		f.setDefault("chat_id", m.chatID)
	}
}

func (f fields) setDefault(key string, v any) {
	if s, ok := v.(string); ok && s == "" {
		return
	}
	if _, taken := f[key]; !taken {
		f[key] = v
	}
}

func (f fields) str(key string) string {
	s, _ := f[key].(string)
	return s
}

// finish applies the line-level rules: compact rid (the full one is kept
// in JSON), event and component defaults, enum cleanup, empty pruning.
func (f fields) finish(msg string, keepFullRID bool) {
	if rid := f.str("rid"); rid != "" {
		if compact := CompactRID(rid); compact != rid {
			if keepFullRID {
				f.setDefault("rid_full", rid)
			}
			f["rid"] = compact
		}
	}
	if f.str("event") == "" {
		if msg == "" {
			msg = "unknown"
		}
		f["event"] = msg
	}
	if f.str("component") == "" {
		f["component"] = "app"
	}
	if s := f.str("status"); s != "" {
		f["status"] = normalizeStatus(s)
	}
	if c, ok := f["cache"].(string); ok {
		c = strings.ToLower(c)
		if cacheResults[c] {
			f["cache"] = c
		} else {
			delete(f, "cache")
		}
	}
	for k, v := range f {
		if s, ok := v.(string); ok && s == "" {
			delete(f, k)
		}
	}
}
