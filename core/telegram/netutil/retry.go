// Package netutil decides which Bot API failures deserve another attempt.
package netutil

import (
	"errors"
	"net"
	"syscall"
	"time"

	tele "gopkg.in/telebot.v4"
)

// Transient reports whether err is worth retrying: timeouts, refused or
// reset connections and Telegram flood control.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := RetryAfter(err); ok {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}

// RetryAfter extracts the wait Telegram asked for in a 429 response.
func RetryAfter(err error) (time.Duration, bool) {
	var flood tele.FloodError
	if errors.As(err, &flood) && flood.RetryAfter > 0 {
		return time.Duration(flood.RetryAfter) * time.Second, true
	}
	return 0, false
}
