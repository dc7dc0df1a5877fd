package epaper

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/BeatGlow/epaper/dither"
	"github.com/BeatGlow/epaper/pixel"
)

// Compositor owns the screen sized raster that tiles are dithered into.
//
// Tile writes, dither mode changes and snapshots are serialised. The dirty
// flag can be read without taking the lock.
type Compositor struct {
	mu     sync.Mutex
	fb     *pixel.MonoImage
	engine *dither.Engine
	gen    uint64 // bumped on every write, guarded by mu
	dirty  atomic.Bool
}

// NewCompositor returns a compositor with an all paper w by h raster.
func NewCompositor(w, h int, engine *dither.Engine) *Compositor {
	if engine == nil {
		engine = dither.New(dither.None)
	}
	return &Compositor{
		fb:     pixel.NewMonoImage(w, h),
		engine: engine,
	}
}

// Bounds of the raster.
func (c *Compositor) Bounds() image.Rectangle {
	return c.fb.Bounds()
}

// Write dithers tile t into the raster and marks it dirty.
func (c *Compositor) Write(t dither.Tile) error {
	size := c.fb.Bounds().Size()
	if !t.InBounds(size.X, size.Y) {
		return fmt.Errorf("%w: tile %dx%d at (%d,%d) on %dx%d raster", ErrBounds, t.Width, t.Height, t.X, t.Y, size.X, size.Y)
	}
	if !t.HasPix() {
		return fmt.Errorf("%w: %dx%d %s tile with %d bytes", ErrFormat, t.Width, t.Height, t.Format, len(t.Pix))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine.Convert(c.fb, t)
	c.gen++
	c.dirty.Store(true)
	return nil
}

// Clear resets the raster to paper and marks it dirty.
func (c *Compositor) Clear() {
	c.mu.Lock()
	c.fb.Clear()
	c.gen++
	c.dirty.Store(true)
	c.mu.Unlock()
}

// Dirty reports whether the raster changed since the last completed refresh.
func (c *Compositor) Dirty() bool {
	return c.dirty.Load()
}

// MarkDirty forces the next poll to refresh the panel.
func (c *Compositor) MarkDirty() {
	c.mu.Lock()
	c.gen++
	c.dirty.Store(true)
	c.mu.Unlock()
}

// ClearDirty clears the dirty flag unconditionally.
func (c *Compositor) ClearDirty() {
	c.dirty.Store(false)
}

// Snapshot copies the raster into dst and returns the write generation it reflects.
func (c *Compositor) Snapshot(dst *pixel.MonoImage) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	copy(dst.Pix, c.fb.Pix)
	return c.gen
}

// settle clears the dirty flag if nothing was written since generation gen.
// It reports whether the flag was cleared.
func (c *Compositor) settle(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.dirty.Store(false)
	return true
}

// Framebuffer returns a copy of the raster.
func (c *Compositor) Framebuffer() *pixel.MonoImage {
	size := c.fb.Bounds().Size()
	img := pixel.NewMonoImage(size.X, size.Y)
	c.Snapshot(img)
	return img
}

// SetDitherMode changes the dither mode between two tile writes.
func (c *Compositor) SetDitherMode(m dither.Mode) {
	c.mu.Lock()
	c.engine.SetMode(m)
	c.mu.Unlock()
}

// DitherMode returns the active dither mode.
func (c *Compositor) DitherMode() dither.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Mode()
}

// SetDitherEnabled turns dithering off, or on again in the last used mode.
func (c *Compositor) SetDitherEnabled(enable bool) {
	c.mu.Lock()
	c.engine.SetEnabled(enable)
	c.mu.Unlock()
}

// DitherEnabled reports whether a dither mode other than dither.None is active.
func (c *Compositor) DitherEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Enabled()
}
