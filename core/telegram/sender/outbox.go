package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/taskbot/core/logger"
	"github.com/m3rciful/taskbot/core/telegram/netutil"
)

var (
	// ErrClosed is returned when a delivery is offered after Close.
	ErrClosed = errors.New("telegram sender: outbox closed")
	// ErrLaneFull means the chat's lane has no free slot.
	ErrLaneFull = errors.New("telegram sender: lane full")
)

// Options tunes the outbox. Zero values pick defaults.
type Options struct {
	// Lanes is the number of concurrent senders. A chat always maps to
	// the same lane, so its replies keep their order.
	Lanes int
	// LaneDepth bounds the backlog of each lane.
	LaneDepth    int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent on one delivery including retries.
	MaxDuration time.Duration
}

func (o *Options) applyDefaults() {
	if o.Lanes <= 0 {
		o.Lanes = 4
	}
	if o.LaneDepth <= 0 {
		o.LaneDepth = 64
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
}

// Delivery is one outbound Bot API call addressed to a chat.
type Delivery struct {
	ChatID int64
	// Method names the Bot API method for logs, e.g. sendMessage.
	Method string
	Send   func() error
}

type envelope struct {
	ctx context.Context
	Delivery
}

// Outbox sends replies asynchronously through per-chat lanes.
type Outbox struct {
	opts     Options
	lanes    []chan envelope
	mu       sync.RWMutex
	closed   bool
	wg       sync.WaitGroup
	failures atomic.Uint64
}

// New starts the lane workers.
func New(opts Options) *Outbox {
	opts.applyDefaults()
	o := &Outbox{
		opts:  opts,
		lanes: make([]chan envelope, opts.Lanes),
	}
	for i := range o.lanes {
		o.lanes[i] = make(chan envelope, opts.LaneDepth)
		o.wg.Add(1)
		go o.drain(o.lanes[i])
	}
	return o
}

// Enqueue queues d on the lane owned by d.ChatID.
func (o *Outbox) Enqueue(ctx context.Context, d Delivery) error {
	if d.Send == nil {
		return errors.New("telegram sender: nil send function")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return ErrClosed
	}
	select {
	case o.lanes[o.laneFor(d.ChatID)] <- envelope{ctx: ctx, Delivery: d}:
		return nil
	default:
		return ErrLaneFull
	}
}

func (o *Outbox) laneFor(chatID int64) int {
	return int(uint64(chatID) % uint64(len(o.lanes)))
}

// Failures returns the number of deliveries that gave up.
func (o *Outbox) Failures() uint64 {
	return o.failures.Load()
}

// Close stops accepting deliveries and waits for queued ones to finish.
func (o *Outbox) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	for _, lane := range o.lanes {
		close(lane)
	}
	o.mu.Unlock()
	o.wg.Wait()
}

func (o *Outbox) drain(lane <-chan envelope) {
	defer o.wg.Done()
	for env := range lane {
		o.deliver(env)
	}
}

func (o *Outbox) deliver(env envelope) {
	ctx, cancel := context.WithTimeout(env.ctx, o.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts := o.opts.MaxRetries + 1
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = env.Send(); err == nil {
			attrs := deliveryAttrs(env)
			if attempt > 1 {
				attrs = append(attrs, slog.Int("attempt", attempt))
			}
			logger.Debug(env.ctx, "tg.sender", "send.ok",
				append(attrs, slog.Int("took_ms", elapsedMS(start)))...)
			return
		}
		if attempt == attempts || !netutil.Transient(err) {
			break
		}
		delay := o.backoff(err, attempt)
		logger.Debug(env.ctx, "tg.sender", "send.retry",
			append(deliveryAttrs(env),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				slog.String("error_kind", ErrorKind(err)),
			)...)
		if !sleep(ctx, delay) {
			err = ctx.Err()
			break
		}
	}

	o.failures.Add(1)
	logger.Error(env.ctx, "tg.sender", "send.fail",
		append(deliveryAttrs(env),
			slog.String("status", "fail"),
			slog.String("err", Redact(err)),
			slog.String("error_kind", ErrorKind(err)),
			slog.Int("attempts", attempts),
			slog.Int("took_ms", elapsedMS(start)),
		)...)
}

// backoff grows linearly and honours flood-control hints.
func (o *Outbox) backoff(err error, attempt int) time.Duration {
	if wait, ok := netutil.RetryAfter(err); ok {
		return wait
	}
	return o.opts.RetryBackoff * time.Duration(attempt)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func deliveryAttrs(env envelope) []slog.Attr {
	attrs := []slog.Attr{slog.String("method", env.Method)}
	if env.ChatID != 0 {
		attrs = append(attrs, slog.Int64("chat_id", env.ChatID))
	}
	if rid := logger.RIDFrom(env.ctx); rid != "" {
		attrs = append(attrs, slog.String("rid", rid))
	}
	return attrs
}

func elapsedMS(start time.Time) int {
	return int(logger.RoundMS(time.Since(start)) / time.Millisecond)
}
