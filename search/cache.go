// Package search implements the paginated transcription search backing the
// /search command: a bounded cache of per-message query state, the paginator
// that reconciles the Discord page size with the larger Blossom fetch page
// size, and the occurrence-highlighting result formatter.
package search

import (
	"sync"
	"time"

	"github.com/grafeasgroup/buttercup/blossom"
)

// Entry is the cached pagination state for one search result message.
type Entry struct {
	// Query is the text the user searched for (matched case-insensitively).
	Query string
	// CurrentPage is the zero-based Discord display page.
	CurrentPage int
	// RequesterID is the Discord user who executed the query. Only this
	// user may paginate the message; the field never changes once set.
	RequesterID string
	// Response is the last fetched Blossom page, or nil before the first
	// fetch completes.
	Response *blossom.SearchResponse
	// RequestPage is the zero-based Blossom fetch page that Response
	// corresponds to. Meaningless while Response is nil.
	RequestPage int
}

type cacheSlot struct {
	entry        Entry
	lastModified time.Time
	seq          uint64
}

// Cache maps search result message IDs to their pagination state. It holds at
// most capacity entries; inserting beyond that evicts the least recently
// modified entry. Entries for deleted or forgotten messages simply age out.
type Cache struct {
	mu       sync.Mutex
	capacity int
	slots    map[string]cacheSlot
	nextSeq  uint64
}

// NewCache returns an empty cache holding at most capacity entries.
func NewCache(capacity int) *Cache {
	return &Cache{
		capacity: capacity,
		slots:    make(map[string]cacheSlot, capacity),
	}
}

// Set inserts or overwrites the entry for the given message, stamping it with
// now. Callers must pass a freshly computed time; tests may pass fixed times
// for deterministic eviction order. If the insert pushes the cache over
// capacity, the oldest entries are evicted until the bound holds again.
func (c *Cache) Set(messageID string, entry Entry, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextSeq++
	c.slots[messageID] = cacheSlot{entry: entry, lastModified: now, seq: c.nextSeq}
	for len(c.slots) > c.capacity {
		c.evictOldest()
	}
}

// evictOldest removes the entry with the smallest lastModified. Ties are
// broken by write order (lowest sequence number first) so eviction is
// deterministic. Caller holds c.mu.
func (c *Cache) evictOldest() {
	var (
		oldestKey string
		oldest    cacheSlot
		found     bool
	)
	for key, slot := range c.slots {
		if !found || slot.lastModified.Before(oldest.lastModified) ||
			(slot.lastModified.Equal(oldest.lastModified) && slot.seq < oldest.seq) {
			oldestKey, oldest, found = key, slot, true
		}
	}
	if found {
		delete(c.slots, oldestKey)
	}
}

// Get returns the entry for the given message. A miss is a normal outcome:
// the entry may have been evicted, or the message was never a search result.
func (c *Cache) Get(messageID string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot, ok := c.slots[messageID]
	return slot.entry, ok
}

// Len reports the current number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slots)
}
