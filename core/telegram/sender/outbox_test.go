package sender

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"
)

func TestOutboxKeepsChatOrder(t *testing.T) {
	o := New(Options{Lanes: 3})
	var (
		mu  sync.Mutex
		got = map[int64][]int{}
	)
	for i := 0; i < 30; i++ {
		chat := int64(100 + i%4)
		seq := i
		err := o.Enqueue(context.Background(), Delivery{ChatID: chat, Method: "sendMessage", Send: func() error {
			mu.Lock()
			got[chat] = append(got[chat], seq)
			mu.Unlock()
			return nil
		}})
		if err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	o.Close()

	total := 0
	for chat, seqs := range got {
		total += len(seqs)
		for i := 1; i < len(seqs); i++ {
			if seqs[i] < seqs[i-1] {
				t.Fatalf("chat %d out of order: %v", chat, seqs)
			}
		}
	}
	if total != 30 {
		t.Fatalf("delivered %d, want 30", total)
	}
}

func TestOutboxRetriesTransientErrors(t *testing.T) {
	o := New(Options{MaxRetries: 2, RetryBackoff: time.Millisecond})
	attempts := 0
	err := o.Enqueue(context.Background(), Delivery{ChatID: 1, Send: func() error {
		attempts++
		if attempts < 3 {
			return &net.OpError{Op: "dial", Err: errors.New("refused")}
		}
		return nil
	}})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	o.Close()

	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
	if o.Failures() != 0 {
		t.Fatalf("failures = %d", o.Failures())
	}
}

func TestOutboxGivesUpOnPermanentError(t *testing.T) {
	o := New(Options{MaxRetries: 3, RetryBackoff: time.Millisecond})
	attempts := 0
	_ = o.Enqueue(context.Background(), Delivery{ChatID: 7, Send: func() error {
		attempts++
		return errors.New("chat not found")
	}})
	o.Close()

	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
	if o.Failures() != 1 {
		t.Fatalf("failures = %d, want 1", o.Failures())
	}
}

func TestOutboxRejectsAfterClose(t *testing.T) {
	o := New(Options{})
	o.Close()
	o.Close()
	err := o.Enqueue(context.Background(), Delivery{ChatID: 1, Send: func() error { return nil }})
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}

func TestOutboxLaneFull(t *testing.T) {
	o := New(Options{Lanes: 1, LaneDepth: 1})
	release := make(chan struct{})
	started := make(chan struct{})
	block := func() error {
		close(started)
		<-release
		return nil
	}
	if err := o.Enqueue(context.Background(), Delivery{ChatID: 1, Send: block}); err != nil {
		t.Fatalf("first: %v", err)
	}
	<-started
	if err := o.Enqueue(context.Background(), Delivery{ChatID: 1, Send: func() error { return nil }}); err != nil {
		t.Fatalf("second: %v", err)
	}
	err := o.Enqueue(context.Background(), Delivery{ChatID: 1, Send: func() error { return nil }})
	if !errors.Is(err, ErrLaneFull) {
		t.Fatalf("err = %v, want ErrLaneFull", err)
	}
	close(release)
	o.Close()
}

func TestRedactMasksToken(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123:ABC-def/sendMessage": timeout`)
	if got := Redact(err); got != `Post "https://api.telegram.org/bot<redacted>/sendMessage": timeout` {
		t.Fatalf("got %q", got)
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{context.DeadlineExceeded, "timeout"},
		{&net.OpError{Op: "dial", Err: errors.New("refused")}, "dial"},
		{&net.DNSError{Err: "no such host"}, "dns"},
		{errors.New("boom"), "unknown"},
	}
	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Errorf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
