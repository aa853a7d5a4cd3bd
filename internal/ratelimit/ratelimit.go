// Package ratelimit provides a keyed token-bucket rate limiter. Each unique
// key (usually a client IP) gets its own independent limiter.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// maxKeys bounds the limiter map so unauthenticated traffic cannot grow it
// without limit. A full map is reset wholesale; the brief burst refill every
// client gets on reset is acceptable for abuse protection.
const maxKeys = 10000

// KeyedLimiter manages per-key rate limiting.
type KeyedLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// New creates a keyed limiter allowing rps requests per second with the given
// burst per key.
func New(rps float64, burst int) *KeyedLimiter {
	return &KeyedLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
	}
}

// Allow reports whether a request for key should proceed. Never blocks.
func (kl *KeyedLimiter) Allow(key string) bool {
	return kl.getLimiter(key).Allow()
}

func (kl *KeyedLimiter) getLimiter(key string) *rate.Limiter {
	kl.mu.RLock()
	limiter, exists := kl.limiters[key]
	kl.mu.RUnlock()
	if exists {
		return limiter
	}

	kl.mu.Lock()
	defer kl.mu.Unlock()
	if limiter, exists = kl.limiters[key]; exists {
		return limiter
	}
	if len(kl.limiters) >= maxKeys {
		kl.limiters = make(map[string]*rate.Limiter)
	}
	limiter = rate.NewLimiter(kl.limit, kl.burst)
	kl.limiters[key] = limiter
	return limiter
}
