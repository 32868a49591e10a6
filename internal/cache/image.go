package cache

import (
	"image"
	"sync"

	"github.com/velofit/engine/pkg/core"
)

// ImageCache holds the decoded session photo so the export path never
// re-reads or re-decodes the file. Redraws happen per pointer move, so
// access latency matters here.
type ImageCache struct {
	m       sync.Mutex
	img     image.Image
	info    core.ImageInfo
	path    string
	loading bool
}

func NewImageCache() *ImageCache {
	return &ImageCache{}
}

// Store replaces the cached photo and clears the loading flag.
func (c *ImageCache) Store(img image.Image, info core.ImageInfo, path string) {
	c.m.Lock()
	defer c.m.Unlock()
	c.img = img
	c.info = info
	c.path = path
	c.loading = false
}

// Get returns the decoded photo and its dimensions. ok is false when
// no image has been loaded yet.
func (c *ImageCache) Get() (image.Image, core.ImageInfo, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	return c.img, c.info, c.img != nil
}

// Path returns the file the cached photo was decoded from.
func (c *ImageCache) Path() string {
	c.m.Lock()
	defer c.m.Unlock()
	return c.path
}

// SetLoading marks an asset load in flight. A failed load must call
// SetLoading(false) so the next attempt is not treated as a duplicate.
func (c *ImageCache) SetLoading(loading bool) {
	c.m.Lock()
	defer c.m.Unlock()
	c.loading = loading
}

func (c *ImageCache) IsLoading() bool {
	c.m.Lock()
	defer c.m.Unlock()
	return c.loading
}

// Reset drops the cached photo and all associated state.
func (c *ImageCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.img = nil
	c.info = core.ImageInfo{}
	c.path = ""
	c.loading = false
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
