package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginLimiter cuenta intentos fallidos de login por clave (usuario).
type LoginLimiter interface {
	// Blocked indica que la clave agoto sus intentos dentro de la ventana.
	Blocked(ctx context.Context, key string) bool
	RecordFailure(ctx context.Context, key string)
	Reset(ctx context.Context, key string)
}

type memoryLoginLimiter struct {
	mu       sync.Mutex
	every    rate.Limit
	max      int
	limiters map[string]*rate.Limiter
	now      func() time.Time
}

const limiterSweepThreshold = 1024

// NewLoginLimiter crea un limitador en memoria: max fallos por ventana, que
// se recuperan de a uno a razon de max/ventana.
func NewLoginLimiter(window time.Duration, max int) LoginLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &memoryLoginLimiter{
		every:    rate.Every(window / time.Duration(max)),
		max:      max,
		limiters: make(map[string]*rate.Limiter),
		now:      time.Now,
	}
}

func (l *memoryLoginLimiter) Blocked(_ context.Context, key string) bool {
	key = normalizeLimiterKey(key)
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[key]
	if !ok {
		return false
	}
	return lim.TokensAt(l.now()) < 1
}

func (l *memoryLoginLimiter) RecordFailure(_ context.Context, key string) {
	key = normalizeLimiterKey(key)
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= limiterSweepThreshold {
			l.sweep()
		}
		lim = rate.NewLimiter(l.every, l.max)
		l.limiters[key] = lim
	}
	lim.AllowN(l.now(), 1)
}

func (l *memoryLoginLimiter) Reset(_ context.Context, key string) {
	key = normalizeLimiterKey(key)
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.limiters, key)
}

// sweep descarta las claves que ya recuperaron todos sus intentos.
func (l *memoryLoginLimiter) sweep() {
	now := l.now()
	for key, lim := range l.limiters {
		if lim.TokensAt(now) >= float64(l.max) {
			delete(l.limiters, key)
		}
	}
}

func normalizeLimiterKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
