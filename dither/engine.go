// Package dither quantises rendered pixel tiles to a 1-bit e-paper raster.
package dither

import (
	"fmt"
	"log"

	"github.com/BeatGlow/epaper/pixel"
)

// Tile is a rectangle of freshly rendered pixels.
//
// Pix holds Width*Height pixels in Format, rows packed without padding.
// X and Y are the absolute raster coordinates of the top left pixel.
type Tile struct {
	X, Y          int
	Width, Height int
	Format        pixel.Format
	Pix           []byte
}

// InBounds reports whether the tile lies within a raster of size w by h.
func (t Tile) InBounds(w, h int) bool {
	if t.X < 0 || t.Y < 0 || t.Width < 0 || t.Height < 0 {
		return false
	}
	// Subtract instead of adding so huge sizes can't wrap around.
	return t.Width <= w-t.X && t.Height <= h-t.Y
}

// HasPix reports whether Pix holds Width*Height pixels. Negative sizes never do.
func (t Tile) HasPix() bool {
	if t.Width < 0 || t.Height < 0 {
		return false
	}
	if t.Width == 0 || t.Height == 0 {
		return true
	}
	return t.Width <= len(t.Pix)/t.Format.BytesPerPixel()/t.Height
}

// Validate checks that the tile carries enough pixel data and lies within a raster of size w by h.
func (t Tile) Validate(w, h int) error {
	if t.Width < 0 || t.Height < 0 {
		return fmt.Errorf("dither: invalid tile size %dx%d", t.Width, t.Height)
	}
	if !t.InBounds(w, h) {
		return fmt.Errorf("dither: tile %dx%d+%d+%d outside %dx%d raster", t.Width, t.Height, t.X, t.Y, w, h)
	}
	if !t.HasPix() {
		return fmt.Errorf("dither: tile %dx%d %s has only %d bytes", t.Width, t.Height, t.Format, len(t.Pix))
	}
	return nil
}

// Engine converts tiles to ink/paper decisions using the active Mode.
//
// The error diffusion modes keep their accumulator rows between calls and
// only ever grow them. An Engine is not safe for concurrent use; callers
// serialise Convert and SetMode.
type Engine struct {
	// Logger receives mode changes and allocation warnings, nil means log.Default().
	Logger *log.Logger

	// BufferLimit caps the size in bytes of the error accumulator. Tiles that
	// would need more are thresholded instead. Zero means no limit.
	BufferLimit int

	mode Mode
	last Mode // last mode other than None

	rows  [][]int16 // ring of error rows, rows[head] is the current row
	head  int
	width int // allocated row width
}

// New returns an Engine in mode m.
func New(m Mode) *Engine {
	e := &Engine{
		mode: m,
		last: Stucki,
	}
	if m != None {
		e.last = m
	}
	return e
}

// Mode returns the active mode.
func (e *Engine) Mode() Mode {
	return e.mode
}

// SetMode switches to mode m. A different mode discards the error buffers.
func (e *Engine) SetMode(m Mode) {
	if m == e.mode {
		return
	}
	e.Free()
	e.mode = m
	if m != None {
		e.last = m
	}
	e.logger().Printf("dither: mode set to %s", m)
}

// Enabled reports whether any dithering other than plain thresholding is active.
func (e *Engine) Enabled() bool {
	return e.mode != None
}

// SetEnabled turns dithering off, or back on in the mode that was last active.
func (e *Engine) SetEnabled(enable bool) {
	if enable {
		e.SetMode(e.last)
	} else {
		e.SetMode(None)
	}
}

// Free releases the error buffers. They are allocated again on the next tile that needs them.
func (e *Engine) Free() {
	e.rows = nil
	e.head = 0
	e.width = 0
}

// Convert dithers t into dst at (t.X, t.Y).
//
// Every pixel of the tile rectangle in dst is overwritten, pixels outside it
// are left alone. Convert panics if the tile does not fit dst or carries too
// few bytes.
func (e *Engine) Convert(dst *pixel.MonoImage, t Tile) {
	size := dst.Bounds().Size()
	if err := t.Validate(size.X, size.Y); err != nil {
		panic(err)
	}
	if t.Width == 0 || t.Height == 0 {
		return
	}

	switch e.mode {
	case Ordered:
		e.ordered(dst, t)
	case FloydSteinberg, Stucki:
		if !e.alloc(t.Width) {
			e.threshold(dst, t)
			return
		}
		if e.mode == Stucki {
			e.diffuse(dst, t, stucki)
		} else {
			e.diffuse(dst, t, floydSteinberg)
		}
	default:
		e.threshold(dst, t)
	}
}

func (e *Engine) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.Default()
}

// threshold maps luma below 128 to ink.
func (e *Engine) threshold(dst *pixel.MonoImage, t Tile) {
	bpp := t.Format.BytesPerPixel()
	for y := 0; y < t.Height; y++ {
		src := t.Pix[y*t.Width*bpp:]
		for x := 0; x < t.Width; x++ {
			put(dst, t.X+x, t.Y+y, t.Format.Luma(src[x*bpp:]) < 128)
		}
	}
}

// put writes one already bounds-checked pixel.
func put(dst *pixel.MonoImage, x, y int, ink bool) {
	var (
		pos = y*dst.Stride + x>>3
		bit = byte(0x80) >> uint(x&7)
	)
	if ink {
		dst.Pix[pos] |= bit
	} else {
		dst.Pix[pos] &^= bit
	}
}
