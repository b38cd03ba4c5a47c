package simserver

import (
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// limiterSet hands out one token bucket per key.
type limiterSet struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func newLimiterSet(perSecond, burst int) *limiterSet {
	s := &limiterSet{limiters: make(map[string]*rate.Limiter)}
	s.setRate(perSecond, burst)
	return s
}

func limiterKey(kind, gameID, clientID string) string {
	return gameID + "/" + kind + "/" + clientID
}

func (s *limiterSet) allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limit == rate.Inf {
		return true
	}
	l, ok := s.limiters[key]
	if !ok {
		l = rate.NewLimiter(s.limit, s.burst)
		s.limiters[key] = l
	}
	return l.Allow()
}

// setRate applies new settings to existing buckets too. perSecond <= 0
// disables limiting.
func (s *limiterSet) setRate(perSecond, burst int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limit = rate.Inf
	if perSecond > 0 {
		s.limit = rate.Limit(perSecond)
	}
	s.burst = max(burst, 1)
	for _, l := range s.limiters {
		l.SetLimit(s.limit)
		l.SetBurst(s.burst)
	}
}

// forget drops the buckets of a game.
func (s *limiterSet) forget(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := gameID + "/"
	for key := range s.limiters {
		if strings.HasPrefix(key, prefix) {
			delete(s.limiters, key)
		}
	}
}

func (s *limiterSet) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}
