package agent

import (
	"container/list"
	"log/slog"
	"sync"
	"time"
)

// Cache holds live agents keyed by "kind_id". It is bounded two ways:
// least-recently-used agents are evicted past capacity, and a background
// sweep drops agents idle longer than the TTL. Evicted agents are Closed.
type Cache struct {
	mu    sync.Mutex
	cap   int
	ttl   time.Duration
	ll    *list.List
	items map[string]*list.Element
	done  chan struct{}
}

type cacheEntry struct {
	key      string
	agent    *Agent
	lastUsed time.Time
}

// NewCache creates a cache and starts its TTL sweeper. Close stops it.
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 256
	}
	c := &Cache{
		cap:   capacity,
		ttl:   ttl,
		ll:    list.New(),
		items: make(map[string]*list.Element),
		done:  make(chan struct{}),
	}
	if ttl > 0 {
		go c.sweep()
	}
	return c
}

// GetOrCreate returns the cached agent for key, building and inserting it
// on a miss. Concurrent callers for the same key may race the build; the
// first insert wins and later builds are discarded.
func (c *Cache) GetOrCreate(key string, build func() (*Agent, error)) (*Agent, error) {
	c.mu.Lock()
	if el, ok := c.items[key]; ok {
		entry := el.Value.(*cacheEntry)
		entry.lastUsed = time.Now()
		c.ll.MoveToFront(el)
		c.mu.Unlock()
		return entry.agent, nil
	}
	c.mu.Unlock()

	agent, err := build()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		// Lost the race; keep the incumbent
		entry := el.Value.(*cacheEntry)
		entry.lastUsed = time.Now()
		c.ll.MoveToFront(el)
		return entry.agent, nil
	}

	el := c.ll.PushFront(&cacheEntry{key: key, agent: agent, lastUsed: time.Now()})
	c.items[key] = el

	for c.ll.Len() > c.cap {
		c.evictLocked(c.ll.Back())
	}
	return agent, nil
}

// Len reports the number of cached agents.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Close stops the sweeper and closes every cached agent.
func (c *Cache) Close() {
	close(c.done)
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.ll.Len() > 0 {
		c.evictLocked(c.ll.Back())
	}
}

func (c *Cache) evictLocked(el *list.Element) {
	if el == nil {
		return
	}
	entry := el.Value.(*cacheEntry)
	c.ll.Remove(el)
	delete(c.items, entry.key)
	if err := entry.agent.Close(); err != nil {
		slog.Warn("Failed to close evicted agent", "key", entry.key, "error", err)
	}
	slog.Debug("Agent evicted from cache", "key", entry.key)
}

func (c *Cache) sweep() {
	interval := c.ttl / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-c.ttl)
			c.mu.Lock()
			for {
				el := c.ll.Back()
				if el == nil {
					break
				}
				if el.Value.(*cacheEntry).lastUsed.After(cutoff) {
					break
				}
				c.evictLocked(el)
			}
			c.mu.Unlock()
		}
	}
}
