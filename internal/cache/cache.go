// Package cache stores fetched linked-data documents between runs so
// repeated dereferences of the same reference URL stay off the network.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is a byte-oriented cache keyed by document URL hash
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives the cache key for a document URL
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "credpub:v1:" + hex.EncodeToString(sum[:])
}
