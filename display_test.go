package epaper

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BeatGlow/epaper/dither"
	"github.com/BeatGlow/epaper/pixel"
)

func newTestDisplay(config Config) (*Display, *fakePanel) {
	panel := new(fakePanel)
	config.Logger = discard
	return New(panel, &config), panel
}

func TestDisplayDefaults(t *testing.T) {
	d, _ := newTestDisplay(Config{})
	if v := d.Bounds().Size(); v.X != 200 || v.Y != 200 {
		t.Errorf("expected 200x200, got %s", v)
	}
	if v := d.DitherMode(); v != dither.None {
		t.Errorf("expected %s, got %s", dither.None, v)
	}
	if d.DitherEnabled() {
		t.Error("expected dithering to be disabled")
	}
	if v := d.Rotation(); v != NoRotation {
		t.Errorf("expected %s, got %s", NoRotation, v)
	}

	d, _ = newTestDisplay(Config{Rotation: Rotate270})
	if v := d.Rotation(); v != Rotate270 {
		t.Errorf("expected %s, got %s", Rotate270, v)
	}
}

func TestDisplayFlushAcknowledges(t *testing.T) {
	d, _ := newTestDisplay(Config{Width: 16, Height: 16})

	tests := []struct {
		name string
		tile dither.Tile
		err  error
	}{
		{"valid", dither.Tile{Width: 2, Height: 2, Pix: make([]byte, 4)}, nil},
		{"out of bounds", dither.Tile{X: 15, Width: 2, Height: 1, Pix: make([]byte, 2)}, ErrBounds},
		{"short", dither.Tile{Width: 2, Height: 2, Pix: make([]byte, 3)}, ErrFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var acked int
			err := d.Flush(tt.tile, func() { acked++ })
			if !errors.Is(err, tt.err) {
				t.Errorf("expected %v, got %v", tt.err, err)
			}
			if acked != 1 {
				t.Errorf("expected one acknowledgement, got %d", acked)
			}
		})
	}
}

func TestDisplayStuckiScenario(t *testing.T) {
	d, _ := newTestDisplay(Config{DitherMode: dither.Stucki})
	tile := dither.Tile{Width: 16, Height: 16, Format: pixel.L8, Pix: bytes.Repeat([]byte{128}, 256)}
	if err := d.Flush(tile, nil); err != nil {
		t.Fatal(err)
	}
	if !d.NeedsRefresh() {
		t.Fatal("expected the display to need a refresh")
	}

	var (
		fb  = d.Framebuffer()
		ink int
	)
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			if fb.Bit(x, y) {
				if x >= 16 || y >= 16 {
					t.Fatalf("ink outside the tile at (%d,%d)", x, y)
				}
				ink++
			}
		}
	}
	if ink < 124 || ink > 132 {
		t.Errorf("expected 124..132 ink pixels, got %d", ink)
	}

	d.ClearRefresh()
	if d.NeedsRefresh() {
		t.Error("expected ClearRefresh to drop the pending refresh")
	}
}

func TestDisplaySetDitherMode(t *testing.T) {
	d, _ := newTestDisplay(Config{Width: 8, Height: 8})
	tile := dither.Tile{Width: 8, Height: 8, Pix: bytes.Repeat([]byte{128}, 64)}

	_ = d.Flush(tile, nil)
	if v := d.Framebuffer().Pix; !bytes.Equal(v, make([]byte, 8)) {
		t.Fatalf("expected threshold to leave mid gray as paper, got %x", v)
	}

	d.SetDitherMode(dither.Ordered)
	_ = d.Flush(tile, nil)
	want := pixel.NewMonoImage(8, 8)
	dither.New(dither.Ordered).Convert(want, tile)
	if v := d.Framebuffer().Pix; !bytes.Equal(v, want.Pix) {
		t.Errorf("expected ordered pattern %x, got %x", want.Pix, v)
	}

	d.SetDitherEnabled(false)
	if d.DitherMode() != dither.None {
		t.Error("expected dithering to be off")
	}
	d.SetDitherEnabled(true)
	if d.DitherMode() != dither.Ordered {
		t.Error("expected dithering to resume in ordered mode")
	}
}

func TestDisplayStartAndClose(t *testing.T) {
	d, panel := newTestDisplay(Config{Width: 8, Height: 8, PollInterval: time.Millisecond})
	if err := d.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	_ = d.Flush(dither.Tile{Width: 1, Height: 1, Pix: []byte{0}}, nil)

	deadline := time.Now().Add(5 * time.Second)
	for d.NeedsRefresh() {
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for refresh")
		}
		time.Sleep(time.Millisecond)
	}

	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if !panel.closed {
		t.Error("expected the panel to be closed")
	}
	if err := d.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected %v on second close, got %v", ErrClosed, err)
	}

	var acked bool
	if err := d.Flush(dither.Tile{}, func() { acked = true }); !errors.Is(err, ErrClosed) {
		t.Errorf("expected %v, got %v", ErrClosed, err)
	}
	if !acked {
		t.Error("expected the tile to be acknowledged after close")
	}
	if err := d.Start(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected %v, got %v", ErrClosed, err)
	}
}

func TestDisplayClear(t *testing.T) {
	d, _ := newTestDisplay(Config{Width: 8, Height: 1})
	_ = d.Flush(dither.Tile{Width: 8, Height: 1, Pix: make([]byte, 8)}, nil)
	d.ClearRefresh()

	d.Clear()
	if d.Framebuffer().Pix[0] != 0 || !d.NeedsRefresh() {
		t.Error("expected a cleared, dirty raster")
	}
}
