// Package term previews an e-paper panel in a terminal.
//
// Every terminal cell shows two raster rows using the upper half block, a
// full refresh flashes the screen inverted first the way a real panel does.
package term

import (
	"fmt"
	"image"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/BeatGlow/epaper"
	"github.com/BeatGlow/epaper/pixel"
)

const upperHalfBlock = '▀'

// Cell colors.
var (
	InkColor   = tcell.ColorBlack
	PaperColor = tcell.ColorWhite
	RedColor   = tcell.ColorRed
)

// Panel renders rasters to a tcell screen.
type Panel struct {
	// Flash is how long the inverted frame of a full refresh stays up.
	Flash time.Duration

	screen  tcell.Screen
	rect    image.Rectangle
	mode    epaper.RefreshMode
	planes  [2]*pixel.MonoImage
	powered bool
	owned   bool
}

// Open initialises the controlling terminal and returns a w by h pixel
// preview. A zero size fills the terminal.
func Open(w, h int) (*Panel, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("term: %w", err)
	}
	if err = screen.Init(); err != nil {
		return nil, fmt.Errorf("term: %w", err)
	}
	if w <= 0 || h <= 0 {
		cols, rows := screen.Size()
		w, h = cols, rows*2
	}
	p := New(screen, w, h)
	p.owned = true
	p.Flash = 150 * time.Millisecond
	return p, nil
}

// New returns a w by h pixel preview on an initialised screen.
func New(screen tcell.Screen, w, h int) *Panel {
	screen.SetStyle(tcell.StyleDefault.Background(PaperColor))
	screen.HideCursor()
	return &Panel{
		screen: screen,
		rect:   image.Rect(0, 0, w, h),
		mode:   epaper.FullRefresh,
	}
}

func (p *Panel) String() string {
	return fmt.Sprintf("terminal preview %dx%d", p.rect.Dx(), p.rect.Dy())
}

// Bounds is the preview size in pixels.
func (p *Panel) Bounds() image.Rectangle {
	return p.rect
}

func (p *Panel) PowerOn() error {
	p.powered = true
	return nil
}

func (p *Panel) PowerOff() error {
	p.powered = false
	return nil
}

func (p *Panel) SetRefreshMode(mode epaper.RefreshMode) error {
	p.mode = mode
	return nil
}

// Draw stages a plane for the next Refresh.
func (p *Panel) Draw(plane epaper.Plane, img *pixel.MonoImage) error {
	if int(plane) >= len(p.planes) {
		return fmt.Errorf("term: no %s plane", plane)
	}
	if !img.Bounds().Eq(p.rect) {
		return fmt.Errorf("%w: %s raster on %s preview", epaper.ErrBounds, img.Bounds().Size(), p.rect.Size())
	}
	if p.planes[plane] == nil {
		p.planes[plane] = pixel.NewMonoImage(p.rect.Dx(), p.rect.Dy())
	}
	copy(p.planes[plane].Pix, img.Pix)
	return nil
}

// Refresh shows the staged planes.
func (p *Panel) Refresh() error {
	if !p.powered {
		return fmt.Errorf("term: refresh while powered off")
	}
	if p.mode == epaper.FullRefresh {
		p.flash()
	}
	p.render()
	p.screen.Show()
	return nil
}

func (p *Panel) flash() {
	style := tcell.StyleDefault.Background(InkColor)
	for y := 0; y < (p.rect.Dy()+1)/2; y++ {
		for x := 0; x < p.rect.Dx(); x++ {
			p.screen.SetContent(x, y, ' ', nil, style)
		}
	}
	p.screen.Sync()
	if p.Flash > 0 {
		time.Sleep(p.Flash)
	}
}

func (p *Panel) render() {
	for y := 0; y < p.rect.Dy(); y += 2 {
		for x := 0; x < p.rect.Dx(); x++ {
			style := tcell.StyleDefault.
				Foreground(p.colorAt(x, y)).
				Background(p.colorAt(x, y+1))
			p.screen.SetContent(x, y/2, upperHalfBlock, nil, style)
		}
	}
}

// colorAt resolves a pixel, red wins over black where both planes have ink.
func (p *Panel) colorAt(x, y int) tcell.Color {
	if y >= p.rect.Max.Y {
		return PaperColor
	}
	if red := p.planes[epaper.PlaneRed]; red != nil && red.Bit(x, y) {
		return RedColor
	}
	if black := p.planes[epaper.PlaneBlack]; black != nil && black.Bit(x, y) {
		return InkColor
	}
	return PaperColor
}

// Close restores the terminal if Open initialised it.
func (p *Panel) Close() error {
	if p.owned {
		p.screen.Fini()
	}
	return nil
}

var _ epaper.Panel = (*Panel)(nil)
