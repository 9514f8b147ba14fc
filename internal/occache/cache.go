package occache

import (
	"context"

	"go.uber.org/zap"
)

// Cache wires an Index to a backing Store, a Config, a logger and an
// optional telemetry Sink — the injected dependencies that replace
// OmniCache's process-wide OmniCacheEnv/pDBImpl singletons (db/omnicache.cc).
type Cache struct {
	idx    *Index
	store  Store
	cfg    Config
	logger *zap.Logger
	sink   Sink

	lastEvictErr error
}

// New builds a Cache. Stats are registered on sink only when
// cfg.PerfEnabled is set; otherwise, or when sink is nil, NopSink{} is
// used. logger may be nil, in which case a no-op logger is used.
func New(cfg Config, store Store, cmp Comparator, logger *zap.Logger, sink Sink) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil || !cfg.PerfEnabled {
		sink = NopSink{}
	}
	idx := NewIndex(cmp)
	idx.st.register(sink)
	return &Cache{idx: idx, store: store, cfg: cfg, logger: logger, sink: sink}
}

// Enabled reports whether the cache is turned on (OC_ENABLED). Disabled
// caches pass every read straight through to the backing store and
// silently drop writes, matching OmniCache::Enabled()'s gate in
// include/rocksdb/omnicache.h.
func (c *Cache) Enabled() bool {
	return c.cfg.Enabled
}

// Seek looks up key, consulting the backing store directly on a cache
// miss or when the cache is disabled, and populates the cache with
// whatever the store returns so the next lookup for the same key is a
// hit.
func (c *Cache) Seek(ctx context.Context, key []byte) ([]byte, bool, error) {
	if c.Enabled() {
		if n := c.idx.Seek(key); n != nil && !n.sentinel && c.idx.cmp.Compare(n.key, key) == 0 {
			n.mu.Lock()
			value := append([]byte(nil), n.value...)
			n.mu.Unlock()
			return value, true, nil
		}
	}
	if c.store == nil {
		return nil, false, nil
	}
	value, found, err := c.store.Get(ctx, key)
	if err != nil || !found {
		return nil, found, err
	}
	if c.Enabled() {
		if err := c.idx.Insert(key, value); err != nil {
			c.logger.Warn("failed to populate cache after store read",
				zap.ByteString("key", key), zap.Error(err))
		}
	}
	return value, true, nil
}

// Insert records key/value as a known entry. A no-op when the cache is
// disabled.
func (c *Cache) Insert(key, value []byte) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.idx.Insert(key, value); err != nil {
		return err
	}
	c.maybeEvict(context.Background())
	return nil
}

// Append extends a known-contiguous run onto an adjacent key. A no-op
// when the cache is disabled.
func (c *Cache) Append(key, value []byte) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.idx.Append(key, value); err != nil {
		return err
	}
	c.maybeEvict(context.Background())
	return nil
}

// InsertRange bulk-populates a known-contiguous range, fusing any
// gap sentinel the batch fully covers.
func (c *Cache) InsertRange(pairs []KV) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.idx.InsertRange(pairs); err != nil {
		return err
	}
	c.maybeEvict(context.Background())
	return nil
}

// NewIterator returns a fresh Iterator over the cache's known entries.
func (c *Cache) NewIterator() *Iterator {
	return c.idx.NewIterator()
}

// Len reports the number of known entries currently cached.
func (c *Cache) Len() int {
	return int(c.idx.st.length.Load())
}

func (c *Cache) maybeEvict(ctx context.Context) {
	if !c.idx.ShouldEvict(c.cfg.MaxSize) {
		return
	}
	if err := c.idx.evictCycle(ctx, c.store, c.logger); err != nil {
		c.logger.Error("eviction cycle failed", zap.Error(err))
		c.lastEvictErr = err
	}
}

// LastEvictionError returns the error from the most recent eviction
// cycle, or nil. Only meaningful when Config.StrictWriteBack is set —
// callers that opt into strict write-back are expected to poll this
// after Insert/Append rather than have eviction (which runs inline but
// logically belongs to the write that tripped it) silently swallow a
// backing-store outage.
func (c *Cache) LastEvictionError() error {
	if !c.cfg.StrictWriteBack {
		return nil
	}
	return c.lastEvictErr
}
