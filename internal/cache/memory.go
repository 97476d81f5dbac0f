package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is the in-process layer; entries expire on their TTL and are
// swept periodically
type Memory struct {
	c *gocache.Cache
}

// NewMemory returns a memory cache with the given default TTL
func NewMemory(defaultTTL, cleanupInterval time.Duration) *Memory {
	return &Memory{c: gocache.New(defaultTTL, cleanupInterval)}
}

func (m *Memory) Get(key string) ([]byte, bool) {
	if v, ok := m.c.Get(key); ok {
		return v.([]byte), true
	}
	return nil, false
}

func (m *Memory) Set(key string, value []byte, ttl time.Duration) error {
	m.c.Set(key, value, ttl)
	return nil
}

func (m *Memory) Delete(key string) error {
	m.c.Delete(key)
	return nil
}

func (m *Memory) Clear() error {
	m.c.Flush()
	return nil
}
