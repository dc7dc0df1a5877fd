package epaper

import (
	"fmt"
	"image"
	"time"

	"github.com/BeatGlow/epaper/pixel"
)

const (
	ssd1681DefaultWidth  = 200
	ssd1681DefaultHeight = 200
	ssd1681BusyTimeout   = 10 * time.Second
)

const (
	ssd1681DriverOutputControl   = 0x01
	ssd1681DeepSleepMode         = 0x10
	ssd1681DataEntryMode         = 0x11
	ssd1681SoftwareReset         = 0x12
	ssd1681TemperatureSensor     = 0x18
	ssd1681MasterActivation      = 0x20
	ssd1681DisplayUpdateControl2 = 0x22
	ssd1681WriteRAMBlack         = 0x24
	ssd1681WriteRAMRed           = 0x26
	ssd1681WriteLUT              = 0x32
	ssd1681BorderWaveform        = 0x3C
	ssd1681EndOption             = 0x3F
	ssd1681GateVoltage           = 0x03
	ssd1681SourceVoltage         = 0x04
	ssd1681WriteVCOM             = 0x2C
	ssd1681SetRAMXRange          = 0x44
	ssd1681SetRAMYRange          = 0x45
	ssd1681SetRAMXCounter        = 0x4E
	ssd1681SetRAMYCounter        = 0x4F
)

// Display update sequences for ssd1681DisplayUpdateControl2.
const (
	ssd1681SequenceLoadWaveform = 0xB1
	ssd1681SequenceFull         = 0xF7 // clock, analog, temperature, LUT, display mode 1
	ssd1681SequencePartial      = 0xFF // same as full in display mode 2
	ssd1681SequenceCustomLUT    = 0xC7 // clock, analog, display mode 1, using the written LUT
)

// ssd1681LUTSize is a waveform table followed by the end option, gate,
// source and VCOM voltage bytes, the layout vendors ship fast LUTs in.
const ssd1681LUTSize = 159

// SSD1681Config is the SSD1681 panel configuration.
type SSD1681Config struct {
	// Width and Height of the panel, at most 200x200.
	Width  int
	Height int

	// PartialLUT replaces the built in partial refresh waveform. It is either
	// a raw 153 byte table or a 159 byte table with trailing voltages.
	PartialLUT []byte

	// BusyTimeout bounds every wait for the controller.
	BusyTimeout time.Duration
}

// SSD1681 drives a monochrome or black/white/red SSD1681 e-paper controller.
//
// The black RAM stores 1 for white, so the raster is inverted on its way in.
// The red RAM is written as is.
type SSD1681 struct {
	c       Conn
	width   int
	height  int
	stride  int
	lut     []byte
	timeout time.Duration
	mode    RefreshMode
	asleep  bool
	buf     []byte
}

// NewSSD1681 resets and initialises the controller on c.
func NewSSD1681(c Conn, config *SSD1681Config) (*SSD1681, error) {
	if config == nil {
		config = new(SSD1681Config)
	}
	if config.Width == 0 {
		config.Width = ssd1681DefaultWidth
	}
	if config.Height == 0 {
		config.Height = ssd1681DefaultHeight
	}
	if config.Width < 0 || config.Width > ssd1681DefaultWidth || config.Height < 0 || config.Height > ssd1681DefaultHeight {
		return nil, fmt.Errorf("epaper: SSD1681 unsupported size %dx%d", config.Width, config.Height)
	}
	if n := len(config.PartialLUT); n != 0 && n != 153 && n != ssd1681LUTSize {
		return nil, fmt.Errorf("epaper: SSD1681 LUT must be 153 or %d bytes, got %d", ssd1681LUTSize, n)
	}
	if config.BusyTimeout <= 0 {
		config.BusyTimeout = ssd1681BusyTimeout
	}

	d := &SSD1681{
		c:       c,
		width:   config.Width,
		height:  config.Height,
		stride:  (config.Width + 7) / 8,
		lut:     config.PartialLUT,
		timeout: config.BusyTimeout,
		mode:    FullRefresh,
	}
	d.buf = make([]byte, d.stride*d.height)
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *SSD1681) String() string {
	return fmt.Sprintf("SSD1681 e-paper %dx%d on %s", d.width, d.height, d.c)
}

// Bounds is the panel bounding box.
func (d *SSD1681) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.width, d.height)
}

func (d *SSD1681) wait(step string) error {
	if err := d.c.WaitBusy(d.timeout); err != nil {
		return fmt.Errorf("epaper: SSD1681 %s: %w", step, err)
	}
	return nil
}

func (d *SSD1681) init() (err error) {
	if err = d.c.Reset(); err != nil {
		return
	}
	if err = d.wait("reset"); err != nil {
		return
	}
	if err = d.c.Command(ssd1681SoftwareReset); err != nil {
		return
	}
	if err = d.wait("software reset"); err != nil {
		return
	}

	var (
		lastX = byte(d.stride - 1)
		lastY = d.height - 1
	)
	for _, cmd := range [][]byte{
		{ssd1681DriverOutputControl, byte(lastY), byte(lastY >> 8), 0x00},
		{ssd1681DataEntryMode, 0x03}, // x and y increment
		{ssd1681SetRAMXRange, 0x00, lastX},
		{ssd1681SetRAMYRange, 0x00, 0x00, byte(lastY), byte(lastY >> 8)},
		{ssd1681BorderWaveform, 0x01},
		{ssd1681TemperatureSensor, 0x80}, // internal sensor
		{ssd1681DisplayUpdateControl2, ssd1681SequenceLoadWaveform},
		{ssd1681MasterActivation},
	} {
		if err = d.c.Command(cmd[0], cmd[1:]...); err != nil {
			return
		}
	}
	if err = d.wait("load waveform"); err != nil {
		return
	}

	d.asleep = false
	d.mode = FullRefresh
	return nil
}

// PowerOn wakes the controller from deep sleep, which takes a hardware reset.
func (d *SSD1681) PowerOn() error {
	if !d.asleep {
		return nil
	}
	return d.init()
}

// PowerOff enters deep sleep. RAM content is lost.
func (d *SSD1681) PowerOff() error {
	if d.asleep {
		return nil
	}
	if err := d.c.Command(ssd1681DeepSleepMode, 0x01); err != nil {
		return err
	}
	d.asleep = true
	return nil
}

// SetRefreshMode selects the waveform for the next refresh.
func (d *SSD1681) SetRefreshMode(mode RefreshMode) error {
	if mode == PartialRefresh && d.lut != nil {
		if err := d.writeLUT(d.lut); err != nil {
			return err
		}
		if err := d.c.Command(ssd1681BorderWaveform, 0x80); err != nil {
			return err
		}
	}
	d.mode = mode
	return nil
}

func (d *SSD1681) writeLUT(lut []byte) (err error) {
	if err = d.c.Command(ssd1681WriteLUT, lut[:153]...); err != nil {
		return
	}
	if err = d.wait("write LUT"); err != nil {
		return
	}
	if len(lut) < ssd1681LUTSize {
		return
	}
	for _, cmd := range [][]byte{
		{ssd1681EndOption, lut[153]},
		{ssd1681GateVoltage, lut[154]},
		{ssd1681SourceVoltage, lut[155], lut[156], lut[157]},
		{ssd1681WriteVCOM, lut[158]},
	} {
		if err = d.c.Command(cmd[0], cmd[1:]...); err != nil {
			return
		}
	}
	return
}

// Draw writes a full screen raster into the controller RAM of plane.
func (d *SSD1681) Draw(plane Plane, img *pixel.MonoImage) error {
	size := img.Bounds().Size()
	if size.X != d.width || size.Y != d.height {
		return fmt.Errorf("%w: %dx%d raster on %dx%d panel", ErrBounds, size.X, size.Y, d.width, d.height)
	}

	var cmd byte
	switch plane {
	case PlaneBlack:
		cmd = ssd1681WriteRAMBlack
		for i, v := range img.Pix {
			d.buf[i] = ^v
		}
	case PlaneRed:
		cmd = ssd1681WriteRAMRed
		copy(d.buf, img.Pix)
	default:
		return fmt.Errorf("epaper: SSD1681 has no %s plane", plane)
	}

	if err := d.c.Command(ssd1681SetRAMXCounter, 0x00); err != nil {
		return err
	}
	if err := d.c.Command(ssd1681SetRAMYCounter, 0x00, 0x00); err != nil {
		return err
	}
	return d.c.Command(cmd, d.buf...)
}

// Refresh runs the display update sequence for the selected refresh mode.
func (d *SSD1681) Refresh() error {
	seq := byte(ssd1681SequenceFull)
	if d.mode == PartialRefresh {
		seq = ssd1681SequencePartial
		if d.lut != nil {
			seq = ssd1681SequenceCustomLUT
		}
	}
	if err := d.c.Command(ssd1681DisplayUpdateControl2, seq); err != nil {
		return err
	}
	if err := d.c.Command(ssd1681MasterActivation); err != nil {
		return err
	}
	return d.wait(d.mode.String() + " refresh")
}

// Close puts the controller to sleep and closes the connection.
func (d *SSD1681) Close() error {
	if err := d.PowerOff(); err != nil {
		_ = d.c.Close()
		return err
	}
	return d.c.Close()
}

var _ Panel = (*SSD1681)(nil)
