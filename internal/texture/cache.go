package texture

import (
	"image"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Resolver resolves a texture reference to a decoded image.
type Resolver interface {
	Resolve(ref string) *image.NRGBA
}

// Cache is a concurrency-safe texture cache for files next to a model.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*cacheEntry
	dir   string
	index *Index
}

type cacheEntry struct {
	img    *image.NRGBA
	loaded bool // true if we've attempted to load (img may still be nil)
}

// NewCache resolves references relative to dir, falling back to index
// lookups by base name.
func NewCache(dir string, index *Index) *Cache {
	return &Cache{
		items: make(map[string]*cacheEntry),
		dir:   dir,
		index: index,
	}
}

func (c *Cache) path(ref string) (string, bool) {
	p := ref
	if !filepath.IsAbs(p) {
		p = filepath.Join(c.dir, filepath.FromSlash(ref))
	}
	if _, err := os.Stat(p); err == nil {
		return p, true
	}
	return c.index.ResolvePath(ref)
}

// Resolve loads and caches a texture by reference. Returns nil if not found
// or undecodable; the failure is logged once.
func (c *Cache) Resolve(ref string) *image.NRGBA {
	path, ok := c.path(ref)
	if !ok {
		return nil
	}

	// Fast path: read lock
	c.mu.RLock()
	if entry, exists := c.items[path]; exists {
		c.mu.RUnlock()
		return entry.img
	}
	c.mu.RUnlock()

	// Slow path: load from disk
	img, err := LoadTexture(path)
	if err != nil {
		log.Printf("%v", err)
	}

	// Write lock with double-check
	c.mu.Lock()
	if entry, exists := c.items[path]; exists {
		c.mu.Unlock()
		return entry.img
	}
	c.items[path] = &cacheEntry{img: img, loaded: true}
	c.mu.Unlock()

	return img
}

// Len returns the number of paths attempted.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
