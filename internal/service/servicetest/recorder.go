package servicetest

import (
	"context"
	"slices"
	"sync"
)

// Cache records invalidations instead of touching Valkey.
type Cache struct {
	mu       sync.Mutex
	Keys     []string
	Prefixes []string
}

// Invalidate records keys.
func (c *Cache) Invalidate(_ context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Keys = append(c.Keys, keys...)
}

// InvalidatePrefix records prefix.
func (c *Cache) InvalidatePrefix(_ context.Context, prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Prefixes = append(c.Prefixes, prefix)
}

// Dropped reports whether key was invalidated directly.
func (c *Cache) Dropped(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Contains(c.Keys, key)
}

// Entry is one recorded activity.
type Entry struct {
	EntityType string
	EntityID   int64
	Action     string
}

// Activity records activity log writes.
type Activity struct {
	mu      sync.Mutex
	Entries []Entry
}

// Log records one entry.
func (a *Activity) Log(_ context.Context, entityType string, entityID int64, action string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Entries = append(a.Entries, Entry{EntityType: entityType, EntityID: entityID, Action: action})
}

// Last returns the most recent entry, or the zero Entry.
func (a *Activity) Last() Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.Entries) == 0 {
		return Entry{}
	}
	return a.Entries[len(a.Entries)-1]
}
