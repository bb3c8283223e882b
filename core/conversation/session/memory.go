package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/docbot/core/logger"
)

// MemoryOptions configures the in-memory repository.
type MemoryOptions struct {
	// TTL evicts records idle for longer than this; 0 keeps them for the process lifetime.
	TTL time.Duration
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

type entry struct {
	session  *Session
	lastSeen time.Time
}

// Memory is a process-local Repository for tests and single-instance deployments.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time
}

var _ Repository = (*Memory)(nil)

// NewMemory constructs an empty in-memory repository.
func NewMemory(opts MemoryOptions) *Memory {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ttl := opts.TTL
	if ttl < 0 {
		ttl = 0
	}
	return &Memory{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     now,
	}
}

func (m *Memory) expired(e *entry, now time.Time) bool {
	return m.ttl > 0 && now.Sub(e.lastSeen) > m.ttl
}

// Get returns the live record for key, creating an empty one if none exists or the old one expired.
func (m *Memory) Get(ctx context.Context, key string) (*Session, error) {
	now := m.now()

	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if ok && !m.expired(e, now) {
		return e.session, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// another caller may have created it meanwhile
	if e, ok := m.entries[key]; ok && !m.expired(e, now) {
		return e.session, nil
	}
	s := &Session{}
	m.entries[key] = &entry{session: s, lastSeen: now}
	logger.Debug(ctx, "service.sessions", "session.created",
		slog.String("session_key", key),
		slog.String("backend", "memory"),
		slog.String("cache", "miss"),
		slog.Bool("expired", ok),
	)
	return s, nil
}

// Set replaces the stored record wholesale.
func (m *Memory) Set(_ context.Context, key string, s *Session) error {
	if s == nil {
		return ErrNilSession
	}
	now := m.now()
	m.mu.Lock()
	m.entries[key] = &entry{session: s, lastSeen: now}
	m.mu.Unlock()
	return nil
}

// Clear removes the record; the next Get re-creates a fresh one.
func (m *Memory) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Touch refreshes the idle clock of an existing record.
func (m *Memory) Touch(_ context.Context, key string) error {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok {
		e.lastSeen = now
	}
	return nil
}

// Count returns the number of stored records, expired ones included until swept.
func (m *Memory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

// Sweep evicts expired records and returns how many were removed.
func (m *Memory) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key, e := range m.entries {
		if m.expired(e, now) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps expired records every interval until ctx is done.
func (m *Memory) RunJanitor(ctx context.Context, interval time.Duration) {
	if m.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			if n := m.Sweep(); n > 0 {
				logger.Info(ctx, "service.sessions", "session.sweep",
					slog.String("status", "ok"),
					slog.Int("count", n),
					slog.Duration("elapsed", time.Since(start)),
				)
			}
		}
	}
}
