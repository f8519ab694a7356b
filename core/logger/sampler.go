package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// sampler lets num out of every den events through. A zero ratio
// disables sampling and lets everything through.
type sampler struct {
	num, den atomic.Int64
	seen     atomic.Uint64
}

func (s *sampler) set(num, den int) {
	if num <= 0 || den <= 0 {
		num, den = 0, 0
	} else if num > den {
		num = den
	}
	s.num.Store(int64(num))
	s.den.Store(int64(den))
	s.seen.Store(0)
}

func (s *sampler) allow() bool {
	den := s.den.Load()
	if den == 0 {
		return true
	}
	n := (s.seen.Add(1) - 1) % uint64(den)
	return int64(n) < s.num.Load()
}

// parseRatio reads "num/den" or a bare "den" meaning 1/den. Invalid or
// non-positive input yields 0/0.
func parseRatio(ratio string) (int, int) {
	num, den := "1", strings.TrimSpace(ratio)
	if a, b, ok := strings.Cut(den, "/"); ok {
		num, den = strings.TrimSpace(a), strings.TrimSpace(b)
	}
	n, err1 := strconv.Atoi(num)
	d, err2 := strconv.Atoi(den)
	if err1 != nil || err2 != nil || n <= 0 || d <= 0 {
		return 0, 0
	}
	return n, d
}
