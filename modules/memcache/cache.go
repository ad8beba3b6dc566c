package memcache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Input defines the manifest arguments for a memcache component.
type Input struct {
	DefaultTTL      string `hcl:"default_ttl,optional"`
	JanitorInterval string `hcl:"janitor_interval,optional"`
	MaxEntries      int    `hcl:"max_entries,optional"`
}

const defaultJanitorInterval = time.Minute

type entry struct {
	value     any
	expiresAt time.Time // zero means no expiry
}

// Cache is a TTL key/value store. The janitor goroutine that evicts expired
// entries runs only while the component is started.
type Cache struct {
	defaultTTL      time.Duration
	janitorInterval time.Duration
	maxEntries      int

	mu      sync.RWMutex
	entries map[string]entry

	runMu  sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
}

func newCache(input *Input) (*Cache, error) {
	var ttl time.Duration
	if input.DefaultTTL != "" {
		d, err := time.ParseDuration(input.DefaultTTL)
		if err != nil {
			return nil, fmt.Errorf("memcache: invalid default_ttl: %w", err)
		}
		ttl = d
	}

	interval := defaultJanitorInterval
	if input.JanitorInterval != "" {
		d, err := time.ParseDuration(input.JanitorInterval)
		if err != nil {
			return nil, fmt.Errorf("memcache: invalid janitor_interval: %w", err)
		}
		interval = d
	}

	return &Cache{
		defaultTTL:      ttl,
		janitorInterval: interval,
		maxEntries:      input.MaxEntries,
		entries:         make(map[string]entry),
	}, nil
}

// Set stores a value under key with the cache's default TTL.
func (c *Cache) Set(key string, value any) error {
	return c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value with an explicit TTL; zero means no expiry.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		return fmt.Errorf("memcache: capacity %d reached", c.maxEntries)
	}
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	c.entries[key] = e
	return nil
}

// Get returns the live value under key, if any.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Delete removes key from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len reports the number of entries, expired ones included until the janitor
// or a Get evicts them.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Start launches the janitor goroutine.
func (c *Cache) Start(ctx context.Context) error {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	if c.stopCh != nil {
		return nil // already running
	}
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	go c.janitor(c.stopCh, c.doneCh)
	return nil
}

// Stop halts the janitor goroutine. Entries survive a stop/start cycle.
func (c *Cache) Stop(ctx context.Context) error {
	c.runMu.Lock()
	stopCh, doneCh := c.stopCh, c.doneCh
	c.stopCh, c.doneCh = nil, nil
	c.runMu.Unlock()

	if stopCh == nil {
		return nil
	}
	close(stopCh)
	select {
	case <-doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drops all entries.
func (c *Cache) Close() error {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
	return nil
}

func (c *Cache) janitor(stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	ticker := time.NewTicker(c.janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			c.evictExpired(time.Now())
		}
	}
}

func (c *Cache) evictExpired(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, e := range c.entries {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}
