package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/syncbridge/internal/domain/bridge"
)

// entry represents a stored order ID with expiration
type entry struct {
	expiresAt time.Time
}

// InMemoryProcessedStore implements ProcessedOrderStore using an in-memory
// map. This is the default for single-instance deployments and testing;
// state does not survive a restart, which is acceptable because delivery
// is at-least-once and the downstream keys idempotency by order id.
type InMemoryProcessedStore struct {
	mu        sync.RWMutex
	entries   map[string]entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryProcessedStore creates a new in-memory processed-order store.
// It starts a background goroutine to clean up expired entries.
func NewInMemoryProcessedStore() *InMemoryProcessedStore {
	store := &InMemoryProcessedStore{
		entries:  make(map[string]entry),
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// MarkProcessed records a terminal order id with a TTL.
// Returns true if the id was newly recorded, false if it was already present.
func (s *InMemoryProcessedStore) MarkProcessed(ctx context.Context, orderID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, exists := s.entries[orderID]; exists {
		if time.Now().Before(e.expiresAt) {
			return false, nil // Already recorded
		}
		// Entry exists but expired, will be overwritten
	}

	s.entries[orderID] = entry{
		expiresAt: time.Now().Add(ttl),
	}

	return true, nil
}

// IsProcessed returns true if the order id was already recorded
func (s *InMemoryProcessedStore) IsProcessed(ctx context.Context, orderID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[orderID]
	if !exists {
		return false, nil
	}

	if time.Now().After(e.expiresAt) {
		return false, nil // Expired, treat as not recorded
	}

	return true, nil
}

// Close stops the cleanup goroutine and releases resources.
// Safe to call multiple times.
func (s *InMemoryProcessedStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired entries
func (s *InMemoryProcessedStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup removes expired entries from the store
func (s *InMemoryProcessedStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for orderID, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, orderID)
		}
	}
}

// Size returns the number of entries in the store (for testing/monitoring)
func (s *InMemoryProcessedStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ensure InMemoryProcessedStore implements ProcessedOrderStore
var _ bridge.ProcessedOrderStore = (*InMemoryProcessedStore)(nil)
