package epaper

import (
	"context"
	"errors"
	"image"
	"io"
	"log"
	"sync"

	"github.com/BeatGlow/epaper/dither"
	"github.com/BeatGlow/epaper/pixel"
)

// Display connects a renderer to a panel.
//
// Rendered tiles are dithered into the raster by Flush, a background
// scheduler started with Start pushes the raster to the panel.
type Display struct {
	comp  *Compositor
	sched *Scheduler
	panel Panel
	log   *log.Logger
	rot   Rotation

	mu     sync.Mutex
	closed bool
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns a display for panel. A nil config uses DefaultConfig.
func New(panel Panel, config *Config) *Display {
	var c Config
	if config == nil {
		c = DefaultConfig
	} else {
		c = *config
	}
	c.defaults()

	engine := dither.New(c.DitherMode)
	engine.Logger = c.Logger
	engine.BufferLimit = c.ErrorBufferLimit

	comp := NewCompositor(c.Width, c.Height, engine)
	return &Display{
		comp:  comp,
		sched: NewScheduler(comp, panel, &c),
		panel: panel,
		log:   c.Logger,
		rot:   c.Rotation,
	}
}

// Start runs the refresh scheduler in the background until ctx is done or the display is closed.
func (d *Display) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	if d.cancel != nil {
		return nil
	}

	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})
	go func() {
		defer close(d.done)
		if err := d.sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.log.Printf("epaper: scheduler stopped: %v", err)
		}
	}()
	return nil
}

// Flush dithers a rendered tile into the raster.
//
// done is called once the tile's pixels are no longer needed, also when the
// tile is rejected, so the renderer can reuse its buffer.
func (d *Display) Flush(t dither.Tile, done func()) error {
	if done != nil {
		defer done()
	}

	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return ErrClosed
	}

	if err := d.comp.Write(t); err != nil {
		d.log.Printf("epaper: dropped tile: %v", err)
		return err
	}
	return nil
}

// Bounds is the raster bounding box.
func (d *Display) Bounds() image.Rectangle {
	return d.comp.Bounds()
}

// Rotation renderers should apply to their content.
func (d *Display) Rotation() Rotation {
	return d.rot
}

// Framebuffer returns a copy of the raster.
func (d *Display) Framebuffer() *pixel.MonoImage {
	return d.comp.Framebuffer()
}

// Clear resets the raster to paper. The panel is updated on the next cycle.
func (d *Display) Clear() {
	d.comp.Clear()
}

// NeedsRefresh reports whether the raster changed since the last refresh.
func (d *Display) NeedsRefresh() bool {
	return d.comp.Dirty()
}

// ClearRefresh drops a pending refresh.
func (d *Display) ClearRefresh() {
	d.comp.ClearDirty()
}

// SetDitherMode changes the dither mode. It never runs concurrently with a tile conversion.
func (d *Display) SetDitherMode(m dither.Mode) {
	d.comp.SetDitherMode(m)
}

// DitherMode returns the active dither mode.
func (d *Display) DitherMode() dither.Mode {
	return d.comp.DitherMode()
}

// SetDitherEnabled turns dithering off, or back on in the last used mode.
func (d *Display) SetDitherEnabled(enable bool) {
	d.comp.SetDitherEnabled(enable)
}

// DitherEnabled reports whether dithering is enabled.
func (d *Display) DitherEnabled() bool {
	return d.comp.DitherEnabled()
}

// Scheduler returns the refresh scheduler.
func (d *Display) Scheduler() *Scheduler {
	return d.sched
}

// Close stops the scheduler and puts the panel to sleep. Panels implementing
// io.Closer are closed as well.
func (d *Display) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.closed = true
	cancel, done := d.cancel, d.done
	d.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	err := d.panel.PowerOff()
	if c, ok := d.panel.(io.Closer); ok {
		err = errors.Join(err, c.Close())
	}
	return err
}
