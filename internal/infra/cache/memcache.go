package cache

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"go.uber.org/zap"
)

// maxRelativeExpiration is the longest expiration memcached reads as a
// relative number of seconds; larger values are taken as a unix timestamp.
const maxRelativeExpiration = 30 * 24 * 60 * 60

// Memcache is a JSON-encoding cache backed by memcached. Backend errors are
// logged and treated as misses so a cache outage never fails a request.
type Memcache[T any] struct {
	client *memcache.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewMemcache connects to the given hosts and pings them.
func NewMemcache[T any](hosts []string, prefix string, ttl time.Duration, logger *zap.Logger) (*Memcache[T], error) {
	logger.Info("memcached hosts", zap.Strings("hosts", hosts))
	mc := memcache.New(hosts...)
	return &Memcache[T]{client: mc, prefix: prefix, ttl: ttl, logger: logger}, mc.Ping()
}

func (m *Memcache[T]) key(k string) string {
	return m.prefix + k
}

// Get implements port.Cache.
func (m *Memcache[T]) Get(key string) (T, bool) {
	var zero T
	item, err := m.client.Get(m.key(key))
	if err != nil {
		if !errors.Is(err, memcache.ErrCacheMiss) {
			m.logger.Warn("memcache get failed", zap.String("key", key), zap.Error(err))
		}
		return zero, false
	}
	var v T
	if err := json.Unmarshal(item.Value, &v); err != nil {
		m.logger.Warn("memcache value undecodable", zap.String("key", key), zap.Error(err))
		return zero, false
	}
	return v, true
}

// Set implements port.Cache.
func (m *Memcache[T]) Set(key string, value T) {
	if m.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		m.logger.Warn("memcache value unencodable", zap.String("key", key), zap.Error(err))
		return
	}
	err = m.client.Set(&memcache.Item{
		Key:        m.key(key),
		Value:      raw,
		Expiration: expiration(m.ttl),
	})
	if err != nil {
		m.logger.Warn("memcache set failed", zap.String("key", key), zap.Error(err))
	}
}

// expiration converts ttl to memcached seconds. Sub-second TTLs round up
// to one second so they never become 0, which memcached reads as "never
// expires", and long TTLs are capped at 30 days.
func expiration(ttl time.Duration) int32 {
	secs := int64((ttl + time.Second - 1) / time.Second)
	switch {
	case secs < 1:
		return 1
	case secs > maxRelativeExpiration:
		return maxRelativeExpiration
	}
	return int32(secs)
}

// Delete implements port.Cache.
func (m *Memcache[T]) Delete(key string) {
	err := m.client.Delete(m.key(key))
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		m.logger.Warn("memcache delete failed", zap.String("key", key), zap.Error(err))
	}
}
