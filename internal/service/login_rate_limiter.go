package service

import (
	"strings"
	"sync"
	"time"
)

const (
	DefaultLoginMaxFailures   = 10
	DefaultLoginFailureWindow = 15 * time.Minute
)

// LoginRateLimiter cuenta intentos de login fallidos por clave (email).
type LoginRateLimiter interface {
	Allow(key string) bool
	Fail(key string)
	Reset(key string)
}

type loginRateLimiter struct {
	mu       sync.Mutex
	window   time.Duration
	max      int
	failures map[string][]time.Time
	now      func() time.Time
}

// NewLoginRateLimiter crea un rate limiter en memoria con ventana deslizante.
// Con max <= 0 no limita.
func NewLoginRateLimiter(window time.Duration, max int) LoginRateLimiter {
	if max <= 0 {
		return noopLoginRateLimiter{}
	}
	if window <= 0 {
		window = DefaultLoginFailureWindow
	}
	return &loginRateLimiter{
		window:   window,
		max:      max,
		failures: make(map[string][]time.Time),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (l *loginRateLimiter) Allow(key string) bool {
	key = limiterKey(key)
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prune(key)) < l.max
}

func (l *loginRateLimiter) Fail(key string) {
	key = limiterKey(key)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[key] = append(l.prune(key), l.now())
}

func (l *loginRateLimiter) Reset(key string) {
	key = limiterKey(key)
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, key)
}

// prune descarta fallos fuera de la ventana; requiere l.mu tomado.
func (l *loginRateLimiter) prune(key string) []time.Time {
	cutoff := l.now().Add(-l.window)
	entries := l.failures[key]
	kept := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(l.failures, key)
		return nil
	}
	l.failures[key] = kept
	return kept
}

func limiterKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

type noopLoginRateLimiter struct{}

func (noopLoginRateLimiter) Allow(string) bool { return true }
func (noopLoginRateLimiter) Fail(string)       {}
func (noopLoginRateLimiter) Reset(string)      {}
