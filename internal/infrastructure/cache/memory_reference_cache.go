package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/erp/vatchallan/internal/application/masterdata"
)

// MemoryReferenceCache is an in-process ReferenceCache for single-instance
// deployments and tests.
type MemoryReferenceCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryReferenceCache creates a new in-memory reference cache
func NewMemoryReferenceCache() *MemoryReferenceCache {
	return &MemoryReferenceCache{entries: make(map[string]memoryEntry)}
}

// GetList loads a cached listing into out. Returns false on a miss.
func (c *MemoryReferenceCache) GetList(ctx context.Context, key string, out any) (bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return false, nil
	}
	if err := json.Unmarshal(entry.data, out); err != nil {
		return false, nil
	}
	return true, nil
}

// SetList stores a listing with a TTL.
func (c *MemoryReferenceCache) SetList(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.entries[key] = memoryEntry{data: data, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

// Invalidate drops cached listings.
func (c *MemoryReferenceCache) Invalidate(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	c.mu.Unlock()
	return nil
}

// Ensure MemoryReferenceCache implements ReferenceCache
var _ masterdata.ReferenceCache = (*MemoryReferenceCache)(nil)
