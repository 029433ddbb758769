// Package ratelimit throttles repeated failed logins.
//
// A Limiter keeps a fixed-window failure counter per key. Check rejects once
// the counter has reached the budget; Fail bumps it; Reset clears it after a
// successful login.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrRateLimited        = errors.New("rate limited")
	ErrBackendUnavailable = errors.New("rate limit backend unavailable")
)

// Limiter is implemented by the in-memory and Redis limiters.
type Limiter interface {
	Check(ctx context.Context, key string) error
	Fail(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// Memory is a process-local Limiter.
type Memory struct {
	mu        sync.Mutex
	max       int
	window    time.Duration
	now       func() time.Time
	store     map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	count   int
	resetAt time.Time
}

// NewMemory allows max failures per key within window.
func NewMemory(max int, window time.Duration) *Memory {
	return &Memory{max: max, window: window, now: time.Now, store: make(map[string]*bucket)}
}

func (m *Memory) Check(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b := m.live(key); b != nil && b.count >= m.max {
		return ErrRateLimited
	}
	return nil
}

func (m *Memory) Fail(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	b := m.live(key)
	if b == nil {
		b = &bucket{resetAt: m.now().Add(m.window)}
		m.store[key] = b
	}
	b.count++
	return nil
}

func (m *Memory) Reset(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, key)
	return nil
}

// live returns the bucket for key, dropping it if its window has passed.
// Caller holds m.mu.
func (m *Memory) live(key string) *bucket {
	b, ok := m.store[key]
	if !ok {
		return nil
	}
	if m.now().After(b.resetAt) {
		delete(m.store, key)
		return nil
	}
	return b
}

// sweep drops every expired bucket, at most once per window.
// Caller holds m.mu.
func (m *Memory) sweep() {
	now := m.now()
	if now.Sub(m.lastSweep) < m.window {
		return
	}
	m.lastSweep = now
	for k, b := range m.store {
		if now.After(b.resetAt) {
			delete(m.store, k)
		}
	}
}
