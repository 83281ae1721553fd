package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/ironsheep/imgblend/internal/composite"
)

// Cache provides thread-safe caching of loaded images keyed by file path.
//
// Once a path has been loaded, subsequent Load calls return the same *Image
// without disk I/O. Images handed out by the cache are shared: callers that
// want to composite onto one should Merge into a new image instead of
// overlaying in place.
//
// Cached images remain in memory until explicitly removed via Evict or Clear.
type Cache struct {
	opts []Option

	mu     sync.RWMutex
	images map[string]*Image
}

// NewCache creates an empty cache. opts are applied to every image it loads.
func NewCache(opts ...Option) *Cache {
	return &Cache{
		opts:   opts,
		images: make(map[string]*Image),
	}
}

// Load returns the cached image for path, reading and decoding the file on
// first use. It waits for decoding to finish; a file that fails to decode is
// not cached.
func (c *Cache) Load(ctx context.Context, path string) (*Image, error) {
	c.mu.RLock()
	img, ok := c.images[path]
	c.mu.RUnlock()
	if ok {
		return img, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	img = FromBuffer(data, c.opts...)
	if err := img.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	c.mu.Lock()
	if existing, ok := c.images[path]; ok {
		img = existing
	} else {
		c.images[path] = img
	}
	c.mu.Unlock()
	return img, nil
}

// Clear removes all images from the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*Image)
	c.mu.Unlock()
}

// Evict removes the image loaded from path. Unknown paths are ignored.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len reports the number of cached images.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Info contains metadata about an image file.
type Info struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	State  string `json:"state"`

	// Format is the container format detected from the file contents,
	// e.g. "png" or "jpeg".
	Format string `json:"format"`

	// HasAlpha is true when at least one decoded pixel is not fully opaque.
	HasAlpha bool `json:"has_alpha"`

	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadInfo loads path through the cache and describes it.
func LoadInfo(ctx context.Context, c *Cache, path string) (*Info, error) {
	img, err := c.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	format := "unknown"
	if _, name, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		format = name
	}

	pix, err := img.snapshot()
	if err != nil {
		return nil, err
	}

	return &Info{
		Width:         img.Width(),
		Height:        img.Height(),
		State:         img.State().String(),
		Format:        format,
		HasAlpha:      !composite.Opaque(pix),
		FileSizeBytes: int64(len(data)),
	}, nil
}
