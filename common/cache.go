package common

import (
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	DefaultExpiration = 10 * time.Minute
	cleanupInterval   = 15 * time.Minute
)

// CacheRepository defines a minimal interface for a key/value cache.
// The values are stored as raw []byte.
type CacheRepository interface {
	Get(key string) (value []byte, found bool)
	Set(key string, value []byte, expiration time.Duration)
	Delete(key string)
	// SetIfAbsent stores value only when key is not present and reports whether it did.
	SetIfAbsent(key string, value []byte, expiration time.Duration) bool
}

var _ CacheRepository = (*cacheStore)(nil)

type cacheStore struct {
	cache *cache.Cache
}

// NewCacheStore returns an in-process CacheRepository backed by go-cache.
func NewCacheStore() CacheRepository {
	return &cacheStore{
		cache: cache.New(DefaultExpiration, cleanupInterval),
	}
}

func (c *cacheStore) Get(key string) ([]byte, bool) {
	value, found := c.cache.Get(key)
	if found {
		return value.([]byte), true
	}
	return nil, false
}

func (c *cacheStore) Delete(key string) {
	c.cache.Delete(key)
}

func (c *cacheStore) Set(key string, value []byte, expiration time.Duration) {
	c.cache.Set(key, value, expiration)
}

func (c *cacheStore) SetIfAbsent(key string, value []byte, expiration time.Duration) bool {
	return c.cache.Add(key, value, expiration) == nil
}
