package dashboard

import (
	"sync"

	"github.com/ganot/logitrack/internal/domain/order"
)

// Cache keys that don't name a channel.
const (
	KeyInitial = "initial"
	KeyAll     = order.AllChannels
)

// Cache holds the last order list fetched per channel key. Entries live for the
// dashboard session; a forced reload bypasses Get and overwrites the entry.
type Cache interface {
	Get(key string) ([]order.Order, bool)
	Put(key string, orders []order.Order)
}

// CacheKey maps a requested channel to its cache key. No channel is the initial
// load, which the server resolves to the user's default channel.
func CacheKey(channel string) string {
	if channel == "" {
		return KeyInitial
	}
	return channel
}

// MemoryCache is a Cache kept in process memory. Orders are copied on the way
// in and out so callers never share the stored slice.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string][]order.Order
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[string][]order.Order{}}
}

func (c *MemoryCache) Get(key string) ([]order.Order, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	orders, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return cloneOrders(orders), true
}

func (c *MemoryCache) Put(key string, orders []order.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cloneOrders(orders)
}

func cloneOrders(orders []order.Order) []order.Order {
	out := make([]order.Order, len(orders))
	for i, o := range orders {
		out[i] = o.Clone()
	}
	return out
}
