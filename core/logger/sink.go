package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
	"time"
)

var errSinkClosed = errors.New("logger: sink closed")

// sink buffers log lines for every output and flushes them on a timer,
// on Flush and on Close. The first write error sticks and is reported by
// later calls.
type sink struct {
	mu     sync.Mutex
	buf    *bufio.Writer
	err    error
	closed bool

	stop chan struct{}
	done chan struct{}
}

func newSink(outputs []io.Writer, size int, every time.Duration) *sink {
	s := &sink{
		buf:  bufio.NewWriterSize(io.MultiWriter(outputs...), size),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go s.tick(every)
	return s
}

func (s *sink) tick(every time.Duration) {
	defer close(s.done)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			_ = s.Flush()
		}
	}
}

// Write appends one encoded line.
func (s *sink) Write(line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		return errSinkClosed
	case s.err != nil:
		return s.err
	}
	if _, err := s.buf.Write(line); err != nil {
		s.err = err
	}
	return s.err
}

// Flush pushes buffered lines to the outputs.
func (s *sink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil && !s.closed {
		s.err = s.buf.Flush()
	}
	return s.err
}

// Close flushes and stops the timer. Further writes fail.
func (s *sink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return s.err
	}
	if s.err == nil {
		s.err = s.buf.Flush()
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stop)
	<-s.done
	return s.err
}
