// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package lrucache provides a thread-safe, fixed-capacity least-recently-used (LRU) cache
of byte slices keyed by string. The store keeps the raw contents of catalog files in
it so that a reload can tell which files changed.

When created with compression enabled via [New], values are stored zstd-compressed
whenever that saves space and are transparently decompressed by [Cache.Get] and
[Cache.Peek].
*/
package lrucache

import (
	"container/list"
	"errors"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var ErrInvalidSize = errors.New("must provide a positive size")

// Cache is a fixed-capacity, least-recently-used cache that is safe for concurrent use.
// Instances must be constructed with [New]; the zero value is not ready for use.
type Cache struct {
	size      int                      // Maximum number of entries
	evictList *list.List               // Front is the most recently used entry
	items     map[string]*list.Element // Maps keys to their list elements
	stored    int                      // Sum of stored (possibly compressed) value sizes
	lock      sync.RWMutex
	zstdEnc   *zstd.Encoder // nil when compression is disabled
	zstdDec   *zstd.Decoder
}

type cacheEntry struct {
	key        string
	value      []byte
	compressed bool
}

// New creates a cache holding at most size entries.
//
// It returns an error if size is not a positive integer.
func New(size int, compress bool) (*Cache, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	c := &Cache{
		size:      size,
		evictList: list.New(),
		items:     make(map[string]*list.Element),
	}

	if compress {
		// A nil writer/reader lets us use EncodeAll/DecodeAll without streams.
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}

		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, err
		}

		c.zstdEnc = enc
		c.zstdDec = dec
	}

	return c, nil
}

// Add adds or updates the value for key and marks it as most recently used.
// Add reports whether an eviction occurred.
func (c *Cache) Add(key string, value []byte) bool {
	// Compress before taking the lock; EncodeAll is safe for concurrent use.
	stored, compressed := c.prepare(value)

	c.lock.Lock()
	defer c.lock.Unlock()

	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)

		cacheEnt := ent.Value.(*cacheEntry) //nolint:forcetypeassert // only *cacheEntry is stored
		c.stored += len(stored) - len(cacheEnt.value)
		cacheEnt.value = stored
		cacheEnt.compressed = compressed

		return false
	}

	c.items[key] = c.evictList.PushFront(&cacheEntry{key: key, value: stored, compressed: compressed})
	c.stored += len(stored)

	evicted := c.evictList.Len() > c.size
	if evicted {
		c.removeElement(c.evictList.Back())
	}

	return evicted
}

// Get returns a copy of the value for key and marks it as most recently used.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.lock.Lock()

	ent, ok := c.items[key]
	if !ok {
		c.lock.Unlock()

		return nil, false
	}

	c.evictList.MoveToFront(ent)
	cacheEnt := *ent.Value.(*cacheEntry) //nolint:forcetypeassert // only *cacheEntry is stored

	c.lock.Unlock()

	return c.realize(cacheEnt)
}

// Peek returns a copy of the value for key without changing the LRU order.
func (c *Cache) Peek(key string) ([]byte, bool) {
	c.lock.RLock()

	ent, ok := c.items[key]
	if !ok {
		c.lock.RUnlock()

		return nil, false
	}

	cacheEnt := *ent.Value.(*cacheEntry) //nolint:forcetypeassert // only *cacheEntry is stored

	c.lock.RUnlock()

	return c.realize(cacheEnt)
}

// Remove deletes key and reports whether it was present.
func (c *Cache) Remove(key string) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	if ent, ok := c.items[key]; ok {
		c.removeElement(ent)

		return true
	}

	return false
}

// Keys returns all keys, from the oldest to the newest.
func (c *Cache) Keys() []string {
	c.lock.RLock()
	defer c.lock.RUnlock()

	keys := make([]string, 0, len(c.items))
	for ent := c.evictList.Back(); ent != nil; ent = ent.Prev() {
		keys = append(keys, ent.Value.(*cacheEntry).key) //nolint:forcetypeassert // only *cacheEntry is stored
	}

	return keys
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.evictList.Len()
}

// StoredBytes returns the memory held by values, after compression.
func (c *Cache) StoredBytes() int {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.stored
}

func (c *Cache) removeElement(e *list.Element) {
	c.evictList.Remove(e)

	kv := e.Value.(*cacheEntry) //nolint:forcetypeassert // only *cacheEntry is stored
	delete(c.items, kv.key)
	c.stored -= len(kv.value)
}

// prepare compresses value when enabled and worthwhile. Uncompressed values are
// copied so callers cannot mutate the cache.
func (c *Cache) prepare(value []byte) ([]byte, bool) {
	if len(value) == 0 {
		return nil, false
	}

	if c.zstdEnc != nil {
		compressed := c.zstdEnc.EncodeAll(value, nil)
		if len(compressed) < len(value) {
			return compressed, true
		}
	}

	copied := make([]byte, len(value))
	copy(copied, value)

	return copied, false
}

// realize returns a private copy of the entry's value, decompressing if needed.
// A value that fails to decompress is treated as missing.
func (c *Cache) realize(ent cacheEntry) ([]byte, bool) {
	if !ent.compressed {
		if ent.value == nil {
			return nil, true
		}

		copied := make([]byte, len(ent.value))
		copy(copied, ent.value)

		return copied, true
	}

	if c.zstdDec == nil {
		return nil, false
	}

	decoded, err := c.zstdDec.DecodeAll(ent.value, nil)
	if err != nil {
		return nil, false
	}

	return decoded, true
}
