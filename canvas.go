package epaper

import (
	"image"
	"image/color"

	"tinygo.org/x/drivers"

	"github.com/BeatGlow/epaper/dither"
	"github.com/BeatGlow/epaper/pixel"
)

// Canvas is a renderer side image in one of the tile pixel formats.
//
// Drawing into the canvas grows a dirty rectangle; Display hands that
// rectangle to the Display as a single tile. Canvas implements
// drivers.Displayer so TinyGo drawing code can target it.
type Canvas struct {
	pixel.Image
	format pixel.Format
	out    *Display
	dirty  image.Rectangle
}

// NewCanvas returns a canvas covering the whole of d.
func NewCanvas(d *Display, format pixel.Format) *Canvas {
	size := d.Bounds().Size()
	return &Canvas{
		Image:  pixel.NewImage(format, size.X, size.Y),
		format: format,
		out:    d,
	}
}

// Format of the canvas pixels.
func (c *Canvas) Format() pixel.Format {
	return c.format
}

// Dirty returns the area changed since the last Display.
func (c *Canvas) Dirty() image.Rectangle {
	return c.dirty
}

func (c *Canvas) mark(r image.Rectangle) {
	c.dirty = c.dirty.Union(r.Intersect(c.Bounds()))
}

func (c *Canvas) Set(x, y int, v color.Color) {
	c.Image.Set(x, y, v)
	c.mark(image.Rect(x, y, x+1, y+1))
}

func (c *Canvas) Fill(v color.Color) {
	c.Image.Fill(v)
	c.mark(c.Bounds())
}

func (c *Canvas) Clear() {
	c.Image.Clear()
	c.mark(c.Bounds())
}

// Size implements drivers.Displayer.
func (c *Canvas) Size() (x, y int16) {
	size := c.Bounds().Size()
	return int16(size.X), int16(size.Y)
}

// SetPixel implements drivers.Displayer.
func (c *Canvas) SetPixel(x, y int16, v color.RGBA) {
	c.Set(int(x), int(y), v)
}

// Display flushes the dirty rectangle as one tile.
func (c *Canvas) Display() error {
	if c.dirty.Empty() {
		return nil
	}
	r := c.dirty
	err := c.out.Flush(dither.Tile{
		X:      r.Min.X,
		Y:      r.Min.Y,
		Width:  r.Dx(),
		Height: r.Dy(),
		Format: c.format,
		Pix:    pixel.Crop(c.Image, r),
	}, nil)
	if err != nil {
		// Keep the area pending so the next Display retries it.
		return err
	}
	c.dirty = image.Rectangle{}
	return nil
}

var _ drivers.Displayer = (*Canvas)(nil)
