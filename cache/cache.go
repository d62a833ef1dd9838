package cache

import (
	"time"

	"linksnap/config"
	"linksnap/model"

	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog/log"
)

// Estimated in-memory cost of one cached link record.
const linkCost = 1024

// Cache keeps resolved link records in process memory so the redirect hot
// path can skip the store lookup. Entries are keyed by short code.
type Cache struct {
	client *ristretto.Cache
	ttl    time.Duration
}

// New creates a cache instance with the given configuration.
func New(cfg config.CacheConfig) (*Cache, error) {
	maxCost := int64(cfg.MaxSizeMB) * 1024 * 1024

	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: int64(cfg.CounterSize),
		MaxCost:     maxCost,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("max_size_mb", cfg.MaxSizeMB).
		Int("ttl_seconds", cfg.TTLSeconds).
		Msg("Link cache initialized")

	return &Cache{
		client: client,
		ttl:    time.Duration(cfg.TTLSeconds) * time.Second,
	}, nil
}

// Get retrieves a cached link by short code.
func (c *Cache) Get(shortCode string) (model.Link, bool) {
	if c == nil || c.client == nil {
		return model.Link{}, false
	}
	value, found := c.client.Get(shortCode)
	if !found {
		return model.Link{}, false
	}
	link, ok := value.(model.Link)
	return link, ok
}

// Set stores a link under its short code with the configured TTL.
func (c *Cache) Set(shortCode string, link model.Link) bool {
	if c == nil || c.client == nil {
		return false
	}
	return c.client.SetWithTTL(shortCode, link, linkCost, c.ttl)
}

// Delete drops a short code from the cache. Called whenever the backing
// record is updated or removed so stale destinations are never served.
func (c *Cache) Delete(shortCode string) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(shortCode)
}

// Close cleanly shuts down the cache.
func (c *Cache) Close() {
	if c != nil && c.client != nil {
		c.client.Close()
		log.Info().Msg("Link cache closed")
	}
}

// MetricsSnapshot is a point-in-time view of cache performance.
type MetricsSnapshot struct {
	Hits        uint64  `json:"hits"`
	Misses      uint64  `json:"misses"`
	KeysAdded   uint64  `json:"keys_added"`
	KeysEvicted uint64  `json:"keys_evicted"`
	HitRatio    float64 `json:"hit_ratio"`
	TTLSeconds  int     `json:"ttl_seconds"`
}

// GetMetricsSnapshot returns current cache metrics.
func (c *Cache) GetMetricsSnapshot() MetricsSnapshot {
	if c == nil || c.client == nil || c.client.Metrics == nil {
		return MetricsSnapshot{}
	}

	m := c.client.Metrics
	hits := m.Hits()
	misses := m.Misses()

	hitRatio := 0.0
	if total := hits + misses; total > 0 {
		hitRatio = float64(hits) / float64(total)
	}

	return MetricsSnapshot{
		Hits:        hits,
		Misses:      misses,
		KeysAdded:   m.KeysAdded(),
		KeysEvicted: m.KeysEvicted(),
		HitRatio:    hitRatio,
		TTLSeconds:  int(c.ttl.Seconds()),
	}
}
