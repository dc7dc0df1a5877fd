// Package framebuffer drives e-ink panels exposed as a Linux framebuffer device.
//
// The device is typically an i.MX EPDC (Kobo, reMarkable 1, Kindle). The
// raster is copied into the mapped framebuffer memory and pushed to the
// panel with the MXCFB send update ioctl. Devices without that ioctl, such
// as plain fbdev displays, work with Config.NoUpdate.
package framebuffer

import (
	"errors"
	"fmt"

	"github.com/BeatGlow/epaper/pixel"
)

// Errors
var (
	ErrNotSupported = errors.New("framebuffer: not supported")
	ErrFormat       = errors.New("framebuffer: unsupported pixel format")
)

// Waveform is an EPDC waveform mode. The zero value picks the Config default.
type Waveform uint8

// Waveform modes.
const (
	WaveformDefault Waveform = iota
	WaveformInit             // clears the panel to white
	WaveformDU               // direct update, black and white only
	WaveformGC16             // 16 gray levels, flashing
	WaveformGC4
	WaveformA2 // fastest, black and white only
	WaveformAuto
)

// mode is the mxcfb waveform number.
func (w Waveform) mode() uint32 {
	switch w {
	case WaveformAuto:
		return 257
	case WaveformDefault, WaveformInit:
		return 0
	default:
		return uint32(w) - 1
	}
}

// Update modes.
const (
	updateModePartial = 0
	updateModeFull    = 1
)

// Config is the framebuffer panel configuration.
type Config struct {
	// PartialWaveform is used for partial refreshes, WaveformDU by default.
	PartialWaveform Waveform

	// FullWaveform is used for full refreshes, WaveformGC16 by default.
	FullWaveform Waveform

	// NoUpdate skips the EPDC update ioctl, for framebuffers that scan out continuously.
	NoUpdate bool

	// NoWait returns from Refresh without waiting for the update to complete.
	NoWait bool
}

// DefaultConfig are the default configuration values.
var DefaultConfig = Config{
	PartialWaveform: WaveformDU,
	FullWaveform:    WaveformGC16,
}

// withDefaults returns a copy of c with unset waveforms filled in.
func (c *Config) withDefaults() Config {
	if c == nil {
		return DefaultConfig
	}
	out := *c
	if out.PartialWaveform == WaveformDefault {
		out.PartialWaveform = DefaultConfig.PartialWaveform
	}
	if out.FullWaveform == WaveformDefault {
		out.FullWaveform = DefaultConfig.FullWaveform
	}
	return out
}

// layout describes framebuffer memory.
type layout struct {
	width, height int
	bpp           int // bits per pixel
	stride        int // bytes per line
}

func (l layout) validate() error {
	switch l.bpp {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("%w: %d bits per pixel", ErrFormat, l.bpp)
	}
	if l.stride < l.width*l.bpp/8 {
		return fmt.Errorf("%w: line length %d too short for %d pixels", ErrFormat, l.stride, l.width)
	}
	return nil
}

// blit copies src into framebuffer memory dst. Ink is written as all zero
// bits, paper as all one bits, which is black and white in gray and in
// every RGB layout. Pixels outside the overlap of src and the screen are
// left untouched.
func blit(dst []byte, l layout, src *pixel.MonoImage) {
	var (
		size = src.Bounds().Size()
		w    = min(size.X, l.width)
		h    = min(size.Y, l.height)
		bpp  = l.bpp / 8
	)
	for y := 0; y < h; y++ {
		var (
			row  = dst[y*l.stride:]
			bits = src.Pix[y*src.Stride:]
		)
		for x := 0; x < w; x++ {
			v := byte(0xff)
			if bits[x>>3]&(0x80>>uint(x&7)) != 0 {
				v = 0x00
			}
			px := row[x*bpp : x*bpp+bpp]
			for i := range px {
				px[i] = v
			}
		}
	}
}
