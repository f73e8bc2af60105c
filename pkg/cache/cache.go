package cache

import (
	"sync"
	"time"
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Snapshot is a read-mostly TTL cache. Writers replace values under the
// lock; readers always see a consistent snapshot. Invalidate exists so tree
// mutations do not have to wait for the TTL.
type Snapshot struct {
	entries map[string]entry
	mu      sync.RWMutex
}

func New() *Snapshot {
	return &Snapshot{entries: make(map[string]entry)}
}

func (s *Snapshot) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (s *Snapshot) Set(key string, value interface{}, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
}

func (s *Snapshot) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}
