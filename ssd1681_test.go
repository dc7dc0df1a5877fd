package epaper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/BeatGlow/epaper/pixel"
)

// fakeConn records controller traffic as "cmd:args" strings.
type fakeConn struct {
	ops     []string
	last    []byte // arguments of the last command
	busyErr error
	resets  int
	closed  bool
}

func (c *fakeConn) String() string { return "fake" }
func (c *fakeConn) Close() error   { c.closed = true; return nil }
func (c *fakeConn) Reset() error   { c.resets++; return nil }

func (c *fakeConn) Command(cmd byte, args ...byte) error {
	c.last = append([]byte(nil), args...)
	if len(args) > 8 {
		c.ops = append(c.ops, fmt.Sprintf("%02x:[%d]", cmd, len(args)))
	} else {
		c.ops = append(c.ops, fmt.Sprintf("%02x:%x", cmd, args))
	}
	return nil
}

func (c *fakeConn) Data(data ...byte) error {
	c.ops = append(c.ops, fmt.Sprintf("data:[%d]", len(data)))
	return nil
}

func (c *fakeConn) WaitBusy(time.Duration) error {
	c.ops = append(c.ops, "busy")
	return c.busyErr
}

func (c *fakeConn) trace() string {
	s := strings.Join(c.ops, " ")
	c.ops = nil
	return s
}

func TestSSD1681Init(t *testing.T) {
	c := new(fakeConn)
	d, err := NewSSD1681(c, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := "busy 12: busy 01:c70000 11:03 44:0018 45:0000c700 3c:01 18:80 22:b1 20: busy"
	if v := c.trace(); v != want {
		t.Errorf("expected init\n%s\ngot\n%s", want, v)
	}
	if c.resets != 1 {
		t.Errorf("expected one hardware reset, got %d", c.resets)
	}
	if v := d.Bounds().Size(); v.X != 200 || v.Y != 200 {
		t.Errorf("expected 200x200, got %s", v)
	}
}

func TestSSD1681Sizes(t *testing.T) {
	for _, test := range []struct {
		w, h int
		ok   bool
	}{
		{200, 200, true},
		{152, 152, true},
		{122, 200, true},
		{201, 200, false},
		{200, 296, false},
	} {
		_, err := NewSSD1681(new(fakeConn), &SSD1681Config{Width: test.w, Height: test.h})
		if (err == nil) != test.ok {
			t.Errorf("%dx%d: unexpected error %v", test.w, test.h, err)
		}
	}
}

func TestSSD1681Draw(t *testing.T) {
	c := new(fakeConn)
	d, err := NewSSD1681(c, &SSD1681Config{Width: 16, Height: 2})
	if err != nil {
		t.Fatal(err)
	}
	c.trace()

	img := pixel.NewMonoImage(16, 2)
	img.SetBit(0, 0, true)
	img.SetBit(15, 1, true)

	if err = d.Draw(PlaneBlack, img); err != nil {
		t.Fatal(err)
	}
	if v, want := c.trace(), "4e:00 4f:0000 24:7ffffffe"; v != want {
		t.Errorf("expected %q, got %q", want, v)
	}

	if err = d.Draw(PlaneRed, img); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(c.last, []byte{0x80, 0x00, 0x00, 0x01}) {
		t.Errorf("expected red plane as is, got %x", c.last)
	}
	if err = d.Draw(PlaneBlack, pixel.NewMonoImage(8, 2)); !errors.Is(err, ErrBounds) {
		t.Errorf("expected %v for a mismatched raster, got %v", ErrBounds, err)
	}
	if err = d.Draw(Plane(7), img); err == nil {
		t.Error("expected an error for an unknown plane")
	}
}

func TestSSD1681Refresh(t *testing.T) {
	tests := []struct {
		name string
		lut  []byte
		mode RefreshMode
		want string
	}{
		{"full", nil, FullRefresh, "22:f7 20: busy"},
		{"partial", nil, PartialRefresh, "22:ff 20: busy"},
		{"partial with LUT", make([]byte, 153), PartialRefresh, "32:[153] busy 3c:80 22:c7 20: busy"},
		{"partial with LUT and voltages", make([]byte, 159), PartialRefresh, "32:[153] busy 3f:00 03:00 04:000000 2c:00 3c:80 22:c7 20: busy"},
		{"full ignores LUT", make([]byte, 159), FullRefresh, "22:f7 20: busy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := new(fakeConn)
			d, err := NewSSD1681(c, &SSD1681Config{PartialLUT: tt.lut})
			if err != nil {
				t.Fatal(err)
			}
			c.trace()
			if err = d.SetRefreshMode(tt.mode); err != nil {
				t.Fatal(err)
			}
			if err = d.Refresh(); err != nil {
				t.Fatal(err)
			}
			if v := c.trace(); v != tt.want {
				t.Errorf("expected %q, got %q", tt.want, v)
			}
		})
	}
}

func TestSSD1681BadLUT(t *testing.T) {
	if _, err := NewSSD1681(new(fakeConn), &SSD1681Config{PartialLUT: make([]byte, 100)}); err == nil {
		t.Error("expected an error for a short LUT")
	}
}

func TestSSD1681Sleep(t *testing.T) {
	c := new(fakeConn)
	d, err := NewSSD1681(c, nil)
	if err != nil {
		t.Fatal(err)
	}
	c.trace()

	if err = d.PowerOn(); err != nil {
		t.Fatal(err)
	}
	if v := c.trace(); v != "" {
		t.Errorf("expected an awake panel to ignore PowerOn, got %q", v)
	}

	_ = d.PowerOff()
	_ = d.PowerOff()
	if v := c.trace(); v != "10:01" {
		t.Errorf("expected a single deep sleep command, got %q", v)
	}

	if err = d.PowerOn(); err != nil {
		t.Fatal(err)
	}
	if c.resets != 2 || !strings.HasPrefix(c.trace(), "busy 12:") {
		t.Error("expected PowerOn to reset and initialise the controller")
	}

	if err = d.Close(); err != nil {
		t.Fatal(err)
	}
	if !c.closed {
		t.Error("expected Close to close the connection")
	}
}

func TestSSD1681BusyTimeout(t *testing.T) {
	c := &fakeConn{busyErr: ErrBusyTimeout}
	if _, err := NewSSD1681(c, nil); !errors.Is(err, ErrBusyTimeout) {
		t.Errorf("expected %v, got %v", ErrBusyTimeout, err)
	}
}

func TestSSD1681WithScheduler(t *testing.T) {
	c := new(fakeConn)
	d, err := NewSSD1681(c, &SSD1681Config{Width: 8, Height: 8})
	if err != nil {
		t.Fatal(err)
	}
	comp := NewCompositor(8, 8, nil)
	s := NewScheduler(comp, d, &Config{Logger: discard})
	comp.MarkDirty()
	c.trace()

	if err = s.RefreshNow(context.Background()); err != nil {
		t.Fatal(err)
	}
	if v, want := c.trace(), "22:ff 20: busy 10:01"; !strings.HasSuffix(v, want) {
		t.Errorf("expected cycle to end with %q, got %q", want, v)
	}
}
