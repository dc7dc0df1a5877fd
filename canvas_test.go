package epaper

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/BeatGlow/epaper/pixel"
)

func TestCanvasDirtyRect(t *testing.T) {
	d, _ := newTestDisplay(Config{Width: 32, Height: 16})
	c := NewCanvas(d, pixel.RGB565)
	c.Fill(color.White)
	if err := c.Display(); err != nil {
		t.Fatal(err)
	}
	d.ClearRefresh()

	if err := c.Display(); err != nil {
		t.Fatal(err)
	}
	if d.NeedsRefresh() {
		t.Fatal("a clean canvas must not flush")
	}

	c.SetPixel(3, 2, color.RGBA{A: 0xff})
	c.SetPixel(10, 5, color.RGBA{A: 0xff})
	c.Set(40, 40, color.Black) // outside, ignored
	if v, want := c.Dirty(), image.Rect(3, 2, 11, 6); v != want {
		t.Fatalf("expected dirty %s, got %s", want, v)
	}

	if err := c.Display(); err != nil {
		t.Fatal(err)
	}
	if !c.Dirty().Empty() {
		t.Error("expected the dirty rectangle to be reset")
	}

	fb := d.Framebuffer()
	for y := 0; y < 16; y++ {
		for x := 0; x < 32; x++ {
			want := (x == 3 && y == 2) || (x == 10 && y == 5)
			if fb.Bit(x, y) != want {
				t.Errorf("pixel (%d,%d): expected ink=%t", x, y, want)
			}
		}
	}
}

func TestCanvasKeepsDirtyOnError(t *testing.T) {
	d, _ := newTestDisplay(Config{Width: 16, Height: 16})
	c := NewCanvas(d, pixel.L8)
	c.Set(4, 4, color.Black)
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}

	if err := c.Display(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected %v, got %v", ErrClosed, err)
	}
	if v, want := c.Dirty(), image.Rect(4, 4, 5, 5); v != want {
		t.Errorf("expected dirty %s to be kept, got %s", want, v)
	}
}

func TestCanvasFormats(t *testing.T) {
	for _, format := range []pixel.Format{pixel.L8, pixel.RGB332, pixel.RGB565} {
		t.Run(format.String(), func(t *testing.T) {
			d, _ := newTestDisplay(Config{Width: 8, Height: 8})
			c := NewCanvas(d, format)
			if x, y := c.Size(); x != 8 || y != 8 {
				t.Fatalf("expected size 8x8, got %dx%d", x, y)
			}
			c.Fill(color.White)
			c.Set(7, 7, color.Black)
			if err := c.Display(); err != nil {
				t.Fatal(err)
			}
			fb := d.Framebuffer()
			if !fb.Bit(7, 7) || fb.Bit(0, 0) {
				t.Errorf("unexpected raster %x", fb.Pix)
			}
		})
	}
}
