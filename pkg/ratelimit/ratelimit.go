package ratelimit

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const (
	maxKeys = 10000
	keyTTL  = 10 * time.Minute
)

// Limiter is a keyed token-bucket limiter allowing maxHits per window for each key.
// Idle keys are forgotten after a while.
type Limiter struct {
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
	rate     rate.Limit
	burst    int
}

func NewLimiter(window time.Duration, maxHits int) *Limiter {
	if maxHits < 1 {
		maxHits = 1
	}

	return &Limiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](maxKeys, nil, keyTTL),
		rate:     rate.Every(window / time.Duration(maxHits)),
		burst:    maxHits,
	}
}

func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters.Add(key, limiter)
	}
	l.mu.Unlock()

	return limiter.Allow()
}
