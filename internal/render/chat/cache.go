package chat

import (
	"container/list"
	"sync"

	"github.com/samsaffron/mdstream/internal/markdown"
)

// RenderedBlock is the terminal output of one block at one width.
type RenderedBlock struct {
	Rendered string
	Height   int // lines, not counting soft wraps
}

// CacheKey identifies a rendering: the block's fingerprint, the width it
// was laid out for and the renderer options that shaped it.
type CacheKey struct {
	Fingerprint uint64
	Width       int
	Variant     string // renderer options; empty when there are none
}

// KeyFor builds the cache key of block rendered at width.
func KeyFor(block markdown.Block, width int) CacheKey {
	return CacheKey{Fingerprint: block.Fingerprint(), Width: width}
}

// BlockCache is an LRU cache for rendered blocks.
// Streaming destroys and recreates the tail of the document constantly;
// the cache lets identical blocks skip layout and highlighting.
type BlockCache struct {
	mu      sync.RWMutex
	maxSize int
	cache   map[CacheKey]*list.Element
	lruList *list.List

	hits, misses int
}

// cacheEntry holds a cache key-value pair for the LRU list.
type cacheEntry struct {
	key    CacheKey
	source *markdown.Block // nil when stored by Put
	block  *RenderedBlock
}

// NewBlockCache creates a new block cache with the given maximum size.
func NewBlockCache(maxSize int) *BlockCache {
	if maxSize <= 0 {
		maxSize = 256
	}
	return &BlockCache{
		maxSize: maxSize,
		cache:   make(map[CacheKey]*list.Element),
		lruList: list.New(),
	}
}

// Get retrieves a block from the cache, returning nil if not found.
// Accessing a block moves it to the front of the LRU list.
func (c *BlockCache) Get(key CacheKey) *RenderedBlock {
	return c.lookup(key, nil)
}

// lookup finds key. With a non-nil source the entry must also have been
// rendered from an equal block.
func (c *BlockCache) lookup(key CacheKey, source *markdown.Block) *RenderedBlock {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		entry := elem.Value.(*cacheEntry)
		if source == nil || (entry.source != nil && entry.source.Equal(*source)) {
			c.lruList.MoveToFront(elem)
			c.hits++
			return entry.block
		}
	}
	c.misses++
	return nil
}

// Put adds a block to the cache, evicting the least recently used
// block if the cache is at capacity.
func (c *BlockCache) Put(key CacheKey, block *RenderedBlock) {
	c.put(key, nil, block)
}

func (c *BlockCache) put(key CacheKey, source *markdown.Block, block *RenderedBlock) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lruList.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry)
		entry.source, entry.block = source, block
		return
	}

	if c.lruList.Len() >= c.maxSize {
		c.evictOldest()
	}

	entry := &cacheEntry{key: key, source: source, block: block}
	elem := c.lruList.PushFront(entry)
	c.cache[key] = elem
}

// GetOrRender returns the cached rendering of source under key, calling
// render and caching its result on a miss. A hit also needs the cached
// source to equal source, so a fingerprint collision renders again.
func (c *BlockCache) GetOrRender(key CacheKey, source markdown.Block, render func() *RenderedBlock) *RenderedBlock {
	if block := c.lookup(key, &source); block != nil {
		return block
	}
	block := render()
	c.put(key, &source, block)
	return block
}

// evictOldest removes the least recently used entry.
// Must be called with lock held.
func (c *BlockCache) evictOldest() {
	oldest := c.lruList.Back()
	if oldest != nil {
		entry := oldest.Value.(*cacheEntry)
		delete(c.cache, entry.key)
		c.lruList.Remove(oldest)
	}
}

// Remove removes a specific key from the cache.
func (c *BlockCache) Remove(key CacheKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		delete(c.cache, key)
		c.lruList.Remove(elem)
	}
}

// InvalidateAll clears the entire cache.
// Call this when a registry is restyled in place; width and renderer
// options are part of the key already.
func (c *BlockCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache = make(map[CacheKey]*list.Element)
	c.lruList.Init()
}

// Size returns the current number of cached blocks.
func (c *BlockCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// HitRate returns hits and misses since the cache was created.
func (c *BlockCache) HitRate() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
