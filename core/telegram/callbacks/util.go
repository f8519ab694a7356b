package callbacks

import (
	"errors"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Separator joins the action and its target in raw callback data.
const Separator = ":"

// ErrMalformed is returned when callback data lacks an action or target.
var ErrMalformed = errors.New("malformed callback data")

// Join encodes action and target id as "action:id".
func Join(action string, id int64) string {
	return action + Separator + strconv.FormatInt(id, 10)
}

// Split separates raw data into action and payload. ok is false when the
// data has fewer than two parts.
func Split(data string) (action, payload string, ok bool) {
	parts := strings.SplitN(data, Separator, 2)
	if len(parts) < 2 {
		return strings.TrimSpace(parts[0]), "", false
	}
	return strings.TrimSpace(parts[0]), parts[1], true
}

// ParseTarget decodes "action:id" data into its action and numeric id.
func ParseTarget(data string) (string, int64, error) {
	action, payload, ok := Split(data)
	if !ok || action == "" {
		return "", 0, ErrMalformed
	}
	id, err := strconv.ParseInt(strings.TrimSpace(payload), 10, 64)
	if err != nil {
		return action, 0, ErrMalformed
	}
	return action, id, nil
}

// ParseCallbackData returns the routing key and payload of a callback.
// Buttons registered with a Unique keep Telebot's own split; raw buttons
// are split on Separator.
func ParseCallbackData(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	key, payload, _ := Split(strings.TrimPrefix(cb.Data, "\f"))
	return key, payload
}
