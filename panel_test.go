package epaper

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/BeatGlow/epaper/pixel"
)

var discard = log.New(io.Discard, "", 0)

// fakePanel records the calls made to it.
type fakePanel struct {
	mu     sync.Mutex
	calls  []string
	modes  []RefreshMode
	frames []*pixel.MonoImage
	failAt string // call name that fails
	onDraw func()
	closed bool
}

func (p *fakePanel) call(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, name)
	if p.failAt == name {
		return fmt.Errorf("fake %s failure", name)
	}
	return nil
}

func (p *fakePanel) PowerOn() error  { return p.call("on") }
func (p *fakePanel) PowerOff() error { return p.call("off") }
func (p *fakePanel) Refresh() error  { return p.call("refresh") }

func (p *fakePanel) SetRefreshMode(m RefreshMode) error {
	if err := p.call("mode"); err != nil {
		return err
	}
	p.mu.Lock()
	p.modes = append(p.modes, m)
	p.mu.Unlock()
	return nil
}

func (p *fakePanel) Draw(plane Plane, img *pixel.MonoImage) error {
	if err := p.call("draw " + plane.String()); err != nil {
		return err
	}
	frame := pixel.NewMonoImage(img.Bounds().Dx(), img.Bounds().Dy())
	copy(frame.Pix, img.Pix)
	p.mu.Lock()
	p.frames = append(p.frames, frame)
	p.mu.Unlock()
	if p.onDraw != nil {
		p.onDraw()
	}
	return nil
}

func (p *fakePanel) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

func (p *fakePanel) trace() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return strings.Join(p.calls, ",")
}

func (p *fakePanel) reset() {
	p.mu.Lock()
	p.calls, p.modes, p.frames = nil, nil, nil
	p.mu.Unlock()
}
