package logger

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// orderKeys returns the keys of f: those named in order first, the rest
// sorted.
func orderKeys(f fields, order []string) []string {
	keys := make([]string, 0, len(f))
	listed := make(map[string]bool, len(order))
	for _, k := range order {
		if listed[k] {
			continue
		}
		listed[k] = true
		if _, ok := f[k]; ok {
			keys = append(keys, k)
		}
	}
	rest := make([]string, 0, len(f)-len(keys))
	for k := range f {
		if !listed[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func encodeJSON(f fields, order []string) ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range orderKeys(f, order) {
		v, err := json.Marshal(f[k])
		if err != nil {
			return nil, fmt.Errorf("logger: encode %s: %w", k, err)
		}
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendQuote(buf, k)
		buf = append(buf, ':')
		buf = append(buf, v...)
	}
	return append(buf, '}'), nil
}

func encodeKV(f fields, order []string) []byte {
	var b strings.Builder
	for i, k := range orderKeys(f, order) {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(kvValue(f[k]))
	}
	return []byte(b.String())
}

func kvValue(v any) string {
	s := fmt.Sprint(v)
	if strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
