package resolver

import (
	"time"

	"github.com/bluele/gcache"

	"github.com/gimpo-goldline/congestion/internal/history"
)

// Entry is a resolved database and where it came from
type Entry struct {
	DB       *history.Database
	Source   string
	LoadedAt time.Time
}

// Cache holds the resolved database for the serving process
type Cache interface {
	Get() (Entry, bool)
	Set(Entry)
	Purge()
}

const entryKey = "history"

// GCache is a Cache backed by gcache. With a zero TTL entries never expire.
type GCache struct {
	c gcache.Cache
}

// NewCache creates a single-entry cache with an optional TTL
func NewCache(ttl time.Duration) *GCache {
	b := gcache.New(1).LRU()
	if ttl > 0 {
		b = b.Expiration(ttl)
	}
	return &GCache{c: b.Build()}
}

// Get returns the cached entry, if any
func (g *GCache) Get() (Entry, bool) {
	v, err := g.c.Get(entryKey)
	if err != nil {
		return Entry{}, false
	}
	e, ok := v.(Entry)
	return e, ok
}

// Set stores e, replacing any previous entry
func (g *GCache) Set(e Entry) {
	_ = g.c.Set(entryKey, e)
}

// Purge drops the cached entry
func (g *GCache) Purge() {
	g.c.Purge()
}
