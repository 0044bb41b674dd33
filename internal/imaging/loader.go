package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/anthonynsimon/bild/imgio"
)

// DefaultCacheLimit is the number of decoded photos an ImageCache keeps when
// no limit is given.
const DefaultCacheLimit = 32

// ImageCache keeps decoded vehicle photos keyed by path so repeated tool
// calls on the same file skip decoding.
//
// A bounded cache holds at most limit images; inserting past the limit
// evicts the oldest entry. ImageCache is safe for concurrent use.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
	order  []string
	limit  int
}

// NewImageCache returns a cache bounded to DefaultCacheLimit images.
func NewImageCache() *ImageCache {
	return NewImageCacheWithLimit(DefaultCacheLimit)
}

// NewImageCacheWithLimit returns a cache bounded to limit images. A limit of
// zero or less leaves the cache unbounded.
func NewImageCacheWithLimit(limit int) *ImageCache {
	if limit < 0 {
		limit = 0
	}
	return &ImageCache{
		images: make(map[string]image.Image),
		limit:  limit,
	}
}

// Load returns the cached image for path, decoding it from disk on a miss.
// PNG, JPEG and GIF files are supported.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	img, ok := c.images[path]
	c.mu.RUnlock()
	if ok {
		return img, nil
	}

	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", path, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("image %s has no pixels", path)
	}

	c.Put(path, img)
	return img, nil
}

// Put stores img under key, evicting the oldest entries past the limit.
func (c *ImageCache) Put(key string, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.images[key]; !ok {
		c.order = append(c.order, key)
	}
	c.images[key] = img

	for c.limit > 0 && len(c.order) > c.limit {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.images, oldest)
	}
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear empties the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.order = nil
	c.mu.Unlock()
}

// Evict removes path from the cache if present.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.images[path]; !ok {
		return
	}
	delete(c.images, path)
	for i, k := range c.order {
		if k == path {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// PhotoInfo describes a vehicle photo and the frame the localizer will work
// in.
type PhotoInfo struct {
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Format        string `json:"format"`
	FileSizeBytes int64  `json:"file_size_bytes"`

	// WorkingWidth and WorkingHeight are the dimensions after the photo is
	// resized to the localizer width and its top two fifths are dropped.
	WorkingWidth  int `json:"working_width"`
	WorkingHeight int `json:"working_height"`
}

// LoadPhotoInfo loads path through cache and describes it. workingWidth is
// the width the localizer resizes photos to.
func LoadPhotoInfo(cache *ImageCache, path string, workingWidth int) (*PhotoInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	b := img.Bounds()
	resized := b.Dy() * workingWidth / b.Dx()
	return &PhotoInfo{
		Width:         b.Dx(),
		Height:        b.Dy(),
		Format:        formatOf(path),
		FileSizeBytes: stat.Size(),
		WorkingWidth:  workingWidth,
		WorkingHeight: resized - resized*2/5,
	}, nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	default:
		return "unknown"
	}
}

// DimensionsResult holds an image's width and height.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions loads path through cache and returns its size.
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	return &DimensionsResult{Width: b.Dx(), Height: b.Dy()}, nil
}
