package term

import (
	"container/list"
	"sync"
)

// RenderCache is an LRU cache for expensive leaf renders (widget
// frames, highlighted code, completed reasoning boxes). Keys are
// derived from content, so while unrelated text streams in, unchanged
// blocks are not re-derived. It lives in the host painter; the
// pipeline itself stays pure per cycle.
type RenderCache struct {
	mu      sync.Mutex
	maxSize int
	cache   map[string]*list.Element
	lruList *list.List
}

type cacheEntry struct {
	key      string
	rendered string
}

// NewRenderCache creates a cache holding at most maxSize entries.
func NewRenderCache(maxSize int) *RenderCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &RenderCache{
		maxSize: maxSize,
		cache:   make(map[string]*list.Element),
		lruList: list.New(),
	}
}

// Get retrieves a rendered string, moving the entry to the front of
// the LRU list on hit.
func (c *RenderCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lruList.MoveToFront(elem)
		return elem.Value.(*cacheEntry).rendered, true
	}
	return "", false
}

// Put stores a rendered string, evicting the least recently used
// entry at capacity.
func (c *RenderCache) Put(key, rendered string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lruList.MoveToFront(elem)
		elem.Value.(*cacheEntry).rendered = rendered
		return
	}

	if c.lruList.Len() >= c.maxSize {
		oldest := c.lruList.Back()
		if oldest != nil {
			entry := oldest.Value.(*cacheEntry)
			delete(c.cache, entry.key)
			c.lruList.Remove(oldest)
		}
	}

	elem := c.lruList.PushFront(&cacheEntry{key: key, rendered: rendered})
	c.cache[key] = elem
}

// Len returns the number of cached entries.
func (c *RenderCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lruList.Len()
}
