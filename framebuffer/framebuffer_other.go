//go:build !linux

package framebuffer

import (
	"image"

	"github.com/BeatGlow/epaper"
	"github.com/BeatGlow/epaper/pixel"
)

// Panel is unavailable on this platform.
type Panel struct{}

// Open always fails with ErrNotSupported.
func Open(_ string, _ *Config) (*Panel, error) {
	return nil, ErrNotSupported
}

func (*Panel) Bounds() image.Rectangle                   { return image.Rectangle{} }
func (*Panel) PowerOn() error                            { return ErrNotSupported }
func (*Panel) PowerOff() error                           { return ErrNotSupported }
func (*Panel) SetRefreshMode(epaper.RefreshMode) error   { return ErrNotSupported }
func (*Panel) Draw(epaper.Plane, *pixel.MonoImage) error { return ErrNotSupported }
func (*Panel) Refresh() error                            { return ErrNotSupported }
func (*Panel) Close() error                              { return ErrNotSupported }
