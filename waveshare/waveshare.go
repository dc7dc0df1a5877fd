// Package waveshare adapts the periph.io Waveshare 2.13" e-paper HAT driver to epaper.Panel.
package waveshare

import (
	"fmt"
	"image"

	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/waveshare2in13v2"

	"github.com/BeatGlow/epaper"
	"github.com/BeatGlow/epaper/pixel"
)

// Device is the part of the periph driver the panel uses.
type Device interface {
	Init() error
	SetUpdateMode(mode waveshare2in13v2.PartialUpdate) error
	Draw(dstRect image.Rectangle, src image.Image, srcPts image.Point) error
	Sleep() error
	Halt() error
	Bounds() image.Rectangle
}

// Panel drives a Waveshare 2.13" V2 HAT.
//
// The periph driver transfers and refreshes in a single Draw call, so Draw
// only keeps a reference to the raster and Refresh does the transfer.
type Panel struct {
	dev    Device
	mode   waveshare2in13v2.PartialUpdate
	frame  *pixel.MonoImage
	asleep bool
}

// Open connects to the HAT on port and initialises it.
func Open(port spi.Port, opts *waveshare2in13v2.Opts) (*Panel, error) {
	if opts == nil {
		opts = &waveshare2in13v2.EPD2in13v2
	}
	dev, err := waveshare2in13v2.NewHat(port, opts)
	if err != nil {
		return nil, fmt.Errorf("waveshare: %w", err)
	}
	return New(dev)
}

// New initialises dev.
func New(dev Device) (*Panel, error) {
	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("waveshare: init: %w", err)
	}
	return &Panel{
		dev:  dev,
		mode: waveshare2in13v2.Full,
	}, nil
}

func (p *Panel) String() string {
	size := p.Bounds().Size()
	return fmt.Sprintf("Waveshare 2.13\" V2 e-paper %dx%d", size.X, size.Y)
}

// Bounds is the panel bounding box.
func (p *Panel) Bounds() image.Rectangle {
	return p.dev.Bounds()
}

// PowerOn wakes the panel if it was put to sleep.
func (p *Panel) PowerOn() error {
	if !p.asleep {
		return nil
	}
	if err := p.dev.Init(); err != nil {
		return err
	}
	p.asleep = false
	return nil
}

// PowerOff puts the panel in deep sleep.
func (p *Panel) PowerOff() error {
	if p.asleep {
		return nil
	}
	if err := p.dev.Sleep(); err != nil {
		return err
	}
	p.asleep = true
	return nil
}

// SetRefreshMode switches between the full and partial waveforms. The
// driver reinitialises the panel on a switch, so repeated modes are skipped.
func (p *Panel) SetRefreshMode(mode epaper.RefreshMode) error {
	want := waveshare2in13v2.Full
	if mode == epaper.PartialRefresh {
		want = waveshare2in13v2.Partial
	}
	if want == p.mode {
		return nil
	}
	if err := p.dev.SetUpdateMode(want); err != nil {
		return err
	}
	p.mode = want
	return nil
}

// Draw stages the raster for the next Refresh.
func (p *Panel) Draw(plane epaper.Plane, img *pixel.MonoImage) error {
	if plane != epaper.PlaneBlack {
		return fmt.Errorf("waveshare: no %s plane", plane)
	}
	if !img.Bounds().Size().Eq(p.Bounds().Size()) {
		return fmt.Errorf("%w: %s raster on %s panel", epaper.ErrBounds, img.Bounds().Size(), p.Bounds().Size())
	}
	p.frame = img
	return nil
}

// Refresh transfers the staged raster and updates the panel.
func (p *Panel) Refresh() error {
	if p.frame == nil {
		return nil
	}
	err := p.dev.Draw(p.dev.Bounds(), p.frame, p.frame.Bounds().Min)
	p.frame = nil
	return err
}

// Close halts the driver.
func (p *Panel) Close() error {
	return p.dev.Halt()
}

var _ epaper.Panel = (*Panel)(nil)
