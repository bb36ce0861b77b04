package quotes

import (
	"sort"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Snapshot caches the latest fetched quotes per category so the API can
// serve them without touching the upstream. Entries expire after the
// configured TTL.
type Snapshot struct {
	cache *ttlcache.Cache[string, CategoryQuotes]
}

// NewSnapshot creates a snapshot cache with the given TTL.
func NewSnapshot(ttl time.Duration) *Snapshot {
	cache := ttlcache.New(ttlcache.WithTTL[string, CategoryQuotes](ttl), ttlcache.WithDisableTouchOnHit[string, CategoryQuotes]())
	go cache.Start()

	return &Snapshot{cache: cache}
}

// Store replaces the cached quotes for the category.
func (s *Snapshot) Store(cq CategoryQuotes) {
	s.cache.Set(cq.Category, cq, ttlcache.DefaultTTL)
}

// Get returns the cached quotes for one category.
func (s *Snapshot) Get(category string) (CategoryQuotes, bool) {
	item := s.cache.Get(category)
	if item == nil {
		return CategoryQuotes{}, false
	}
	return item.Value(), true
}

// All returns every cached category sorted by name.
func (s *Snapshot) All() []CategoryQuotes {
	items := s.cache.Items()
	out := make([]CategoryQuotes, 0, len(items))
	for _, item := range items {
		out = append(out, item.Value())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// Stop shuts down the cache janitor.
func (s *Snapshot) Stop() {
	s.cache.Stop()
}
