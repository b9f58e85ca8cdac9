package cache

import (
	"sync"
	"time"
)

// MemoryItem stores a cached value with its write time and ttl.
type MemoryItem struct {
	Value     interface{}
	WrittenAt time.Time
	TTL       time.Duration
}

// IsExpired reports whether the item is no longer served.
func (m *MemoryItem) IsExpired(now time.Time) bool {
	return now.Sub(m.WrittenAt) >= m.TTL
}

// isStale reports whether the sweep may drop the item.
func (m *MemoryItem) isStale(now time.Time) bool {
	return now.Sub(m.WrittenAt) > 2*m.TTL
}

// MemoryCache is a TTL key-value store with lazy expiry on read and a
// background sweep of entries older than twice their ttl.
type MemoryCache struct {
	data     map[string]*MemoryItem
	mutex    sync.RWMutex
	now      func() time.Time
	remote   Remote
	onLookup func(hit bool)

	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryCache creates an in-memory cache and starts its janitor.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		CleanupInterval: 5 * time.Minute,
		Clock:           time.Now,
	}

	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	mc := &MemoryCache{
		data:     make(map[string]*MemoryItem),
		now:      cfg.Clock,
		remote:   cfg.Remote,
		onLookup: cfg.OnLookup,
		interval: cfg.CleanupInterval,
		stop:     make(chan struct{}),
	}

	if mc.interval > 0 {
		go mc.janitor()
	}
	return mc
}

// Set writes or overwrites key.
func (mc *MemoryCache) Set(key string, value interface{}, ttl time.Duration) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	mc.data[key] = &MemoryItem{
		Value:     value,
		WrittenAt: mc.now(),
		TTL:       ttl,
	}
}

// Get returns the live value for key. Expired entries are dropped on read.
func (mc *MemoryCache) Get(key string) (interface{}, bool) {
	now := mc.now()

	mc.mutex.RLock()
	item, exists := mc.data[key]
	mc.mutex.RUnlock()
	if !exists {
		return nil, false
	}

	if item.IsExpired(now) {
		mc.mutex.Lock()
		// a concurrent Set may have replaced the item
		if cur, ok := mc.data[key]; ok && cur == item {
			delete(mc.data, key)
		}
		mc.mutex.Unlock()
		return nil, false
	}
	return item.Value, true
}

// Delete removes keys.
func (mc *MemoryCache) Delete(keys ...string) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	for _, key := range keys {
		delete(mc.data, key)
	}
}

// Len returns the number of stored entries, live or not.
func (mc *MemoryCache) Len() int {
	mc.mutex.RLock()
	defer mc.mutex.RUnlock()
	return len(mc.data)
}

// Sweep removes entries older than twice their ttl and returns how many were dropped.
func (mc *MemoryCache) Sweep() int {
	now := mc.now()

	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	removed := 0
	for key, item := range mc.data {
		if item.isStale(now) {
			delete(mc.data, key)
			removed++
		}
	}
	return removed
}

func (mc *MemoryCache) janitor() {
	ticker := time.NewTicker(mc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mc.Sweep()
		case <-mc.stop:
			return
		}
	}
}

func (mc *MemoryCache) observe(hit bool) {
	if mc.onLookup != nil {
		mc.onLookup(hit)
	}
}

// Close stops the janitor. Safe to call more than once.
func (mc *MemoryCache) Close() error {
	mc.stopOnce.Do(func() { close(mc.stop) })
	return nil
}
