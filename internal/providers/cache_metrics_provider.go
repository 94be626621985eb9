package providers

import "habitd/internal/structures"

// instrumentedCache layers hit/miss accounting over the response cache the
// list and history handlers read through.
type instrumentedCache struct {
	cache   CacheProviderInterface
	metrics MetricsProviderInterface
}

func (c *instrumentedCache) Get(key string) ([]byte, bool) {
	val, ok := c.cache.Get(key)
	if ok {
		c.metrics.IncCacheHits()
		return val, true
	}
	c.metrics.IncCacheMisses()
	return nil, false
}

func (c *instrumentedCache) Set(key string, value []byte) {
	c.cache.Set(key, value)
}

// NewInstrumentedCacheProvider builds the response cache with hit/miss
// accounting on top. A disabled cache stays the bare noop: every read
// through the accounting layer would land as a miss and poison the ratio.
func NewInstrumentedCacheProvider(conf *structures.Config, logger Logger, metrics MetricsProviderInterface) CacheProviderInterface {
	cache := NewCacheProvider(conf, logger)
	if !conf.Cache.Enabled {
		return cache
	}
	return &instrumentedCache{cache: cache, metrics: metrics}
}
