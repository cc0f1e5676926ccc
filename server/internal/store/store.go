package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/strokestats/strokestats/pkg/types"
)

// Entry is a report together with the time it was last received.
type Entry struct {
	Report    *types.Report
	UpdatedAt time.Time
}

// Store is a thread-safe in-memory report store, keyed by scope. Each scope
// holds its latest report only. The number of scopes is capped; with a TTL
// set, a background goroutine (Run) evicts scopes that went quiet.
type Store struct {
	mu        sync.RWMutex
	data      map[string]*Entry
	maxScopes int
	ttl       time.Duration    // 0 keeps entries until replaced
	now       func() time.Time // injectable for deterministic tests
}

// New creates a Store holding at most maxScopes scopes (unbounded when 0).
func New(maxScopes int, ttl time.Duration) *Store {
	return &Store{
		data:      make(map[string]*Entry),
		maxScopes: maxScopes,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Put stores or replaces the report for r.Scope. When a new scope pushes
// the store past its cap, the least recently updated scope is dropped and
// returned. Callers must not modify r after calling Put.
func (s *Store) Put(r *types.Report) (evicted string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[r.Scope]; !ok && s.maxScopes > 0 && len(s.data) >= s.maxScopes {
		evicted = s.oldest()
		delete(s.data, evicted)
	}
	s.data[r.Scope] = &Entry{
		Report:    r,
		UpdatedAt: s.now(),
	}
	return evicted
}

// oldest returns the least recently updated scope. Ties go to the smaller
// scope name. s.mu must be held.
func (s *Store) oldest() string {
	var out string
	var at time.Time
	for scope, e := range s.data {
		if out == "" || e.UpdatedAt.Before(at) || (e.UpdatedAt.Equal(at) && scope < out) {
			out, at = scope, e.UpdatedAt
		}
	}
	return out
}

// Get returns the Entry for the given scope and a boolean indicating whether
// a live entry was found.
func (s *Store) Get(scope string) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[scope]
	if !ok || s.stale(e, s.now()) {
		return nil, false
	}
	return e, true
}

// List returns the live entries sorted by scope.
func (s *Store) List() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	out := make([]*Entry, 0, len(s.data))
	for _, e := range s.data {
		if !s.stale(e, now) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Report.Scope < out[j].Report.Scope })
	return out
}

// Count returns the total number of entries currently held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *Store) stale(e *Entry, now time.Time) bool {
	return s.ttl > 0 && !e.UpdatedAt.After(now.Add(-s.ttl))
}

// Evict removes entries whose UpdatedAt is older than now minus TTL.
// It returns the number of entries removed. Without a TTL it does nothing.
func (s *Store) Evict(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for scope, e := range s.data {
		if s.stale(e, now) {
			delete(s.data, scope)
			removed++
		}
	}
	return removed
}

// Run starts the background TTL eviction loop. It ticks at half the TTL
// (minimum 1 second, at most 1 hour). Run blocks until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	if s.ttl <= 0 {
		<-ctx.Done()
		return
	}
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	if interval > time.Hour {
		interval = time.Hour
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Info("store: evicted idle scopes", "count", n)
			}
		}
	}
}
