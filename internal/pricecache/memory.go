package pricecache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/solescan/solescan/internal/schema"
)

const sweepInterval = 30 * time.Second

// MemoryStore is an in-memory implementation of Store. Entries are immutable
// once published: Put builds a fresh entry and swaps the map slot under the
// write lock, so concurrent readers never observe a record mid-update.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  map[string]*memoryEntry
	clock    func() time.Time
	shutdown chan struct{}
	once     sync.Once
}

type memoryEntry struct {
	record    schema.PriceRecord
	expiresAt time.Time
}

// NewMemoryStore creates an empty memory cache with a background sweeper.
func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		mu:       sync.RWMutex{},
		entries:  make(map[string]*memoryEntry),
		clock:    time.Now,
		shutdown: make(chan struct{}),
		once:     sync.Once{},
	}
	go store.sweepExpired()
	return store
}

// WithClock overrides the store clock, primarily for tests.
func (s *MemoryStore) WithClock(clock func() time.Time) *MemoryStore {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// Get returns a clone of the fresh record for the identity or a miss.
func (s *MemoryStore) Get(ctx context.Context, identity schema.SneakerIdentity) (schema.PriceRecord, error) {
	if err := ctx.Err(); err != nil {
		return schema.PriceRecord{}, fmt.Errorf("memory cache get: %w", err)
	}
	s.mu.RLock()
	entry, ok := s.entries[identity.CacheKey()]
	s.mu.RUnlock()
	if !ok || !entry.expiresAt.After(s.clock()) {
		return schema.PriceRecord{}, Miss(identity)
	}
	return entry.record.Clone(), nil
}

// Put replaces the identity's entry wholesale with the given freshness window.
func (s *MemoryStore) Put(ctx context.Context, record schema.PriceRecord, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("memory cache put: %w", err)
	}
	if err := record.Identity.Validate(); err != nil {
		return err
	}
	entry := &memoryEntry{
		record:    record.Clone(),
		expiresAt: s.clock().Add(ttl),
	}
	s.mu.Lock()
	s.entries[record.Identity.CacheKey()] = entry
	s.mu.Unlock()
	return nil
}

// Invalidate drops the identity's entry, forcing the next lookup to refresh.
func (s *MemoryStore) Invalidate(ctx context.Context, identity schema.SneakerIdentity) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("memory cache invalidate: %w", err)
	}
	s.mu.Lock()
	delete(s.entries, identity.CacheKey())
	s.mu.Unlock()
	return nil
}

// Len reports the number of live entries, expired ones included until swept.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close stops the background sweeper.
func (s *MemoryStore) Close() {
	s.once.Do(func() {
		close(s.shutdown)
	})
}

func (s *MemoryStore) sweepExpired() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			s.pruneExpired()
		}
	}
}

func (s *MemoryStore) pruneExpired() {
	now := s.clock()
	s.mu.Lock()
	for key, entry := range s.entries {
		if !entry.expiresAt.After(now) {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()
}
