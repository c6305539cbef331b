package photo

import (
	"fmt"
	"image"
	"os"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

// Cache keeps decoded photos in memory, keyed by path.
//
// Photos are decoded with their EXIF orientation applied. A cached photo is
// shared between callers and must be treated as read-only; the pipeline
// always works on its own copy.
//
// Entries stay until Evict or Clear is called. A long-running server that
// touches many files should evict what it no longer needs.
type Cache struct {
	mu     sync.RWMutex
	photos map[string]image.Image
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		photos: make(map[string]image.Image),
	}
}

// Load returns the photo at path, decoding it on first use.
//
// The cache key is the path string as given, so a relative and an absolute
// path to the same file are separate entries.
func (c *Cache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.photos[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load photo: %w", err)
	}

	c.mu.Lock()
	c.photos[path] = img
	c.mu.Unlock()

	return img, nil
}

// Evict drops one path from the cache. Unknown paths are ignored.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	delete(c.photos, path)
	c.mu.Unlock()
}

// Clear drops every cached photo.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.photos = make(map[string]image.Image)
	c.mu.Unlock()
}

// Len reports how many photos are cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.photos)
}

// Info describes a photo file.
type Info struct {
	// Width and Height are the displayed size, after EXIF orientation.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Megapixels is Width*Height in millions, rounded to two decimals.
	Megapixels float64 `json:"megapixels"`

	// Format comes from the file extension: "jpeg", "png", "gif", "tiff",
	// "bmp" or "unknown".
	Format string `json:"format"`

	// HasAlpha is true when the decoded image type carries an alpha channel.
	HasAlpha bool `json:"has_alpha"`

	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadInfo loads the photo through the cache and describes it.
func LoadInfo(cache *Cache, path string) (*Info, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	if f, err := imaging.FormatFromFilename(path); err == nil {
		format = strings.ToLower(f.String())
	}

	hasAlpha := false
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
	}

	b := img.Bounds()
	mp := float64(b.Dx()*b.Dy()) / 1e6
	return &Info{
		Width:         b.Dx(),
		Height:        b.Dy(),
		Megapixels:    float64(int(mp*100+0.5)) / 100,
		Format:        format,
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
	}, nil
}
