package middleware

import (
	"context"
	"sync"

	tele "gopkg.in/telebot.v4"
)

// InFlight counts handlers that are still running so shutdown can wait
// for them before closing what they use.
type InFlight struct {
	mu   sync.Mutex
	n    int
	idle chan struct{}
}

// Track is the middleware that counts a handler while it runs.
func (f *InFlight) Track(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		f.mu.Lock()
		f.n++
		f.mu.Unlock()
		defer f.done()
		return next(c)
	}
}

func (f *InFlight) done() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.n--; f.n == 0 && f.idle != nil {
		close(f.idle)
		f.idle = nil
	}
}

// Count reports how many handlers are running.
func (f *InFlight) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.n
}

// Wait blocks until no handler is running or ctx ends.
func (f *InFlight) Wait(ctx context.Context) error {
	f.mu.Lock()
	if f.n == 0 {
		f.mu.Unlock()
		return nil
	}
	if f.idle == nil {
		f.idle = make(chan struct{})
	}
	idle := f.idle
	f.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
