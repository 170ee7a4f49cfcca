package service

import (
	"strings"
	"sync"
	"time"
)

// LoginLimiter cuenta los logins fallidos por clave.
type LoginLimiter interface {
	// Allow indica si la clave todavia puede intentar un login. No registra nada.
	Allow(key string) bool
	// Fail registra un intento fallido.
	Fail(key string)
	// Reset olvida los fallos de la clave tras un login correcto.
	Reset(key string)
}

type memoryLoginLimiter struct {
	mu        sync.Mutex
	window    time.Duration
	max       int
	failures  map[string][]time.Time
	lastSweep time.Time
	now       func() time.Time
}

// NewLoginLimiter crea un limitador en memoria de ventana deslizante.
func NewLoginLimiter(window time.Duration, max int) LoginLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &memoryLoginLimiter{
		window:   window,
		max:      max,
		failures: make(map[string][]time.Time),
		now:      time.Now,
	}
}

func (l *memoryLoginLimiter) Allow(key string) bool {
	key = strings.TrimSpace(key)
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recent(key, l.now().UTC())) < l.max
}

func (l *memoryLoginLimiter) Fail(key string) {
	key = strings.TrimSpace(key)
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now().UTC()
	l.failures[key] = append(l.recent(key, now), now)
	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(now)
	}
}

func (l *memoryLoginLimiter) Reset(key string) {
	key = strings.TrimSpace(key)
	l.mu.Lock()
	delete(l.failures, key)
	l.mu.Unlock()
}

// recent descarta los fallos fuera de la ventana. Requiere l.mu.
func (l *memoryLoginLimiter) recent(key string, now time.Time) []time.Time {
	entries, ok := l.failures[key]
	if !ok {
		return nil
	}
	cutoff := now.Add(-l.window)
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

func (l *memoryLoginLimiter) sweep(now time.Time) {
	for key := range l.failures {
		l.recent(key, now)
	}
	l.lastSweep = now
}
