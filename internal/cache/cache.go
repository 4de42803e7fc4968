package cache

import (
	"sync"
	"time"
)

type entry struct {
	records   any
	expiresAt time.Time
}

// Store is the process-wide expiring cache. Each key holds the complete
// current extent of one entity collection; there are no partial pages and
// no merge updates. A read past the expiry time is a miss, exactly like an
// absent key. The store performs no I/O.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry

	// now is swapped in tests to drive expiry.
	now func() time.Time
}

// New builds an empty store. One instance is constructed at startup and
// injected into every repository.
func New() *Store {
	return &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the records cached under key, or ok=false on absence or
// expiry. Callers must treat both causes identically.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	expired := ok && s.now().After(e.expiresAt)
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if expired {
		s.Delete(key)
		return nil, false
	}
	return e.records, true
}

// Put replaces the full record set for key with a fresh TTL.
func (s *Store) Put(key string, records any, ttl time.Duration) {
	s.mu.Lock()
	s.entries[key] = entry{
		records:   records,
		expiresAt: s.now().Add(ttl),
	}
	s.mu.Unlock()
}

// Delete evicts a key. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}
