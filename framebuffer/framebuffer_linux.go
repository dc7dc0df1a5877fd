package framebuffer

import (
	"errors"
	"fmt"
	"image"
	"os"
	"syscall"

	"github.com/BeatGlow/epaper"
	"github.com/BeatGlow/epaper/internal/ioctl"
	"github.com/BeatGlow/epaper/pixel"
)

const (
	// From <linux/fb.h>
	fbioGetVScreenInfo ioctl.Command = 0x4600
	fbioGetFScreenInfo ioctl.Command = 0x4602
	fbioBlank          ioctl.Command = 0x4611

	fbBlankUnblank   = 0
	fbBlankPowerdown = 4
)

// From <linux/mxcfb.h>
var (
	mxcfbSendUpdate         = ioctl.Pointer(ioctl.ReadWrite, (*mxcfbUpdateData)(nil), 'F', 0x2E)
	mxcfbWaitUpdateComplete = ioctl.Pointer(ioctl.ReadWrite, (*mxcfbUpdateMarker)(nil), 'F', 0x2F)
)

// Panel is an e-ink panel behind a Linux framebuffer device.
type Panel struct {
	f          *os.File
	fd         uintptr
	mem        []byte
	layout     layout
	info       linuxFrameBufferInfo
	screenInfo linuxVarScreenInfo
	config     Config
	mode       epaper.RefreshMode
	marker     uint32
}

// Open a Linux framebuffer device (fbdev) by name, typically /dev/fb0.
func Open(name string, config *Config) (*Panel, error) {
	c := config.withDefaults()

	f, err := os.OpenFile(name, os.O_RDWR, os.ModeDevice)
	if err != nil {
		return nil, err
	}

	fb := &Panel{
		f:      f,
		fd:     f.Fd(),
		config: c,
		mode:   epaper.FullRefresh,
	}
	if err = ioctl.Do(fb.fd, fbioGetFScreenInfo, &fb.info); err != nil {
		_ = f.Close()
		return nil, err
	}

	// Request virtual screen info.
	if err = ioctl.Do(fb.fd, fbioGetVScreenInfo, &fb.screenInfo); err != nil {
		_ = f.Close()
		return nil, err
	}

	fb.layout = layout{
		width:  int(fb.screenInfo.Xres),
		height: int(fb.screenInfo.Yres),
		bpp:    int(fb.screenInfo.BitsPerPixel),
		stride: int(fb.info.LineLength),
	}
	if err = fb.layout.validate(); err != nil {
		_ = f.Close()
		return nil, err
	}

	// Map pixel buffer.
	if fb.mem, err = syscall.Mmap(int(fb.fd), 0, int(fb.info.SmemLen), syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED); err != nil {
		_ = f.Close()
		return nil, err
	}
	if need := fb.layout.stride * fb.layout.height; len(fb.mem) < need {
		_ = fb.Close()
		return nil, fmt.Errorf("%w: %d bytes mapped, need %d", ErrFormat, len(fb.mem), need)
	}
	return fb, nil
}

func (fb *Panel) String() string {
	return fmt.Sprintf("framebuffer %s %dx%d %dbpp", fb.f.Name(), fb.layout.width, fb.layout.height, fb.layout.bpp)
}

// Bounds is the visible screen area.
func (fb *Panel) Bounds() image.Rectangle {
	return image.Rect(0, 0, fb.layout.width, fb.layout.height)
}

// PowerOn unblanks the framebuffer.
func (fb *Panel) PowerOn() error {
	return ioctl.Call(fb.fd, uintptr(fbioBlank), fbBlankUnblank)
}

// PowerOff powers the framebuffer down. Drivers that power the panel per
// update reject this, which is not an error.
func (fb *Panel) PowerOff() error {
	if err := ioctl.Call(fb.fd, uintptr(fbioBlank), fbBlankPowerdown); err != nil && !isNotSupported(err) {
		return err
	}
	return nil
}

func (fb *Panel) SetRefreshMode(mode epaper.RefreshMode) error {
	fb.mode = mode
	return nil
}

// Draw copies the raster into framebuffer memory. Only the black plane exists.
func (fb *Panel) Draw(plane epaper.Plane, img *pixel.MonoImage) error {
	if plane != epaper.PlaneBlack {
		return fmt.Errorf("framebuffer: no %s plane", plane)
	}
	blit(fb.mem, fb.layout, img)
	return nil
}

// Refresh sends an EPDC update covering the whole screen.
func (fb *Panel) Refresh() error {
	if fb.config.NoUpdate {
		return nil
	}

	fb.marker++
	data := mxcfbUpdateData{
		UpdateRegion: mxcfbRect{
			Width:  uint32(fb.layout.width),
			Height: uint32(fb.layout.height),
		},
		WaveformMode: fb.config.PartialWaveform.mode(),
		UpdateMode:   updateModePartial,
		UpdateMarker: fb.marker,
		Temp:         -1, // ambient
	}
	if fb.mode == epaper.FullRefresh {
		data.WaveformMode = fb.config.FullWaveform.mode()
		data.UpdateMode = updateModeFull
	}
	if err := ioctl.Do(fb.fd, mxcfbSendUpdate, &data); err != nil {
		return err
	}

	if fb.config.NoWait {
		return nil
	}
	marker := mxcfbUpdateMarker{Marker: fb.marker}
	return ioctl.Do(fb.fd, mxcfbWaitUpdateComplete, &marker)
}

// Close the framebuffer device.
func (fb *Panel) Close() error {
	if fb.mem != nil {
		if err := syscall.Munmap(fb.mem); err != nil {
			return err
		}
		fb.mem = nil
	}
	return fb.f.Close()
}

func isNotSupported(err error) bool {
	return errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EINVAL)
}

type mxcfbRect struct {
	Top    uint32
	Left   uint32
	Width  uint32
	Height uint32
}

type mxcfbUpdateData struct {
	UpdateRegion mxcfbRect
	WaveformMode uint32
	UpdateMode   uint32
	UpdateMarker uint32
	Temp         int32
	Flags        uint32
	AltBuffer    uint32
	AltStride    uint32
}

type mxcfbUpdateMarker struct {
	Marker        uint32
	CollisionTest uint32
}

type linuxFrameBufferInfo struct {
	ID         [16]byte  // Identification string eg "mxc_epdc_fb"
	SmemStart  uintptr   // Start of frame buffer mem
	SmemLen    uint32    // Length of frame buffer mem
	Type       uint32    // FB_TYPE_
	TypeAux    uint32    // Interleave for interleaved Planes
	Visual     uint32    // FB_VISUAL_
	Xpanstep   uint16    // Zero if no hardware panning
	Ypanstep   uint16    // Zero if no hardware panning
	Ywrapstep  uint16    // Zero if no hardware ywrap
	LineLength uint32    // Length of a line in bytes
	MmioStart  uintptr   // Start of Memory Mapped I/O (physical address)
	MmioLen    uint32    // Length of Memory Mapped I/O
	Accel      uint32    // Type of acceleration available
	Reserved   [3]uint16 // Reserved for future compatibility
}

// linuxBitField for the color
type linuxBitField struct {
	Offset   uint32 // Beginning of bitfield
	Length   uint32 // Length of bitfield
	MsbRight uint32 // != 0 : Most significant bit is right
}

// linuxVarScreenInfo contains device independent changeable information about a frame buffer device and a specific video mode.
type linuxVarScreenInfo struct {
	Xres                    uint32
	Yres                    uint32
	XresVirtual             uint32
	YresVirtual             uint32
	Xoffset                 uint32
	Yoffset                 uint32
	BitsPerPixel            uint32
	Grayscale               uint32
	Red, Green, Blue, Alpha linuxBitField
	Nonstd                  uint32
	Activate                uint32
	Height                  uint32
	Width                   uint32
	AccelFlags              uint32
	Pixclock                uint32
	LeftMargin              uint32
	RightMargin             uint32
	UpperMargin             uint32
	LowerMargin             uint32
	HsyncLen                uint32
	VsyncLen                uint32
	Sync                    uint32
	Vmode                   uint32
	Rotate                  uint32
	Colorspace              uint32
	Reserved                [4]uint32
}

var _ epaper.Panel = (*Panel)(nil)
