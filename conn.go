package epaper

import (
	"errors"
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// Conn errors.
var (
	ErrResetPin = errors.New("epaper: reset GPIO pin is invalid")
	ErrDCPin    = errors.New("epaper: data/command (DC) GPIO pin is invalid")
	ErrBusyPin  = errors.New("epaper: busy GPIO pin is invalid")
)

// Conn is the connection interface for communicating with a panel controller.
type Conn interface {
	String() string

	// Close the connection.
	Close() error

	// Reset pulses the reset pin.
	Reset() error

	// Command sends a command byte with optional arguments.
	Command(byte, ...byte) error

	// Data sends data bytes.
	Data(...byte) error

	// WaitBusy blocks until the controller releases its busy signal.
	WaitBusy(timeout time.Duration) error
}

// SPIConfig describes the SPI bus and control pin configuration.
type SPIConfig struct {
	// Bus is the periph SPI port name, empty for the first available port.
	Bus string

	// Speed of the SPI clock.
	Speed physic.Frequency

	// Mode is the SPI mode.
	Mode spi.Mode

	// BatchSize is the largest single SPI transfer.
	BatchSize int

	// Reset, data/command and optional chip enable pins.
	Reset gpio.PinOut
	DC    gpio.PinOut
	CE    gpio.PinOut

	// Busy is driven by the controller while it is working.
	Busy gpio.PinIn

	// BusyLevel is the Busy level that means busy.
	BusyLevel gpio.Level

	// BusyPoll is the Busy pin polling interval.
	BusyPoll time.Duration
}

// Default control pins, wired like the Waveshare e-paper HAT on a Raspberry Pi.
// They are looked up when a connection is made, after host initialisation.
const (
	DefaultResetPin = "GPIO17"
	DefaultDCPin    = "GPIO25"
	DefaultBusyPin  = "GPIO24"
)

// DefaultSPIConfig are the default configuration values.
var DefaultSPIConfig = SPIConfig{
	Speed:     20 * physic.MegaHertz,
	Mode:      spi.Mode0,
	BatchSize: 4096,
	BusyLevel: gpio.High,
	BusyPoll:  10 * time.Millisecond,
}

type spiConn struct {
	port      spi.PortCloser
	bus       spi.Conn
	reset     gpio.PinOut
	dc        gpio.PinOut
	dcLevel   gpio.Level
	dcValid   bool
	cs        gpio.PinOut
	busy      gpio.PinIn
	busyLevel gpio.Level
	busyPoll  time.Duration
	batchSize int
}

// OpenSPI opens the periph SPI port named in config.
func OpenSPI(config *SPIConfig) (Conn, error) {
	if config == nil {
		config = new(SPIConfig)
		*config = DefaultSPIConfig
	}

	port, err := spireg.Open(config.Bus)
	if err != nil {
		return nil, fmt.Errorf("epaper: open SPI port %q: %w", config.Bus, err)
	}

	c, err := NewSPI(port, config)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return c, nil
}

// NewSPI connects to the controller on port. The port is closed with the
// connection if it implements spi.PortCloser.
func NewSPI(port spi.Port, config *SPIConfig) (Conn, error) {
	if config == nil {
		config = new(SPIConfig)
		*config = DefaultSPIConfig
	}

	if config.Reset == nil {
		config.Reset = gpioreg.ByName(DefaultResetPin)
	}
	if config.DC == nil {
		config.DC = gpioreg.ByName(DefaultDCPin)
	}
	if config.Busy == nil {
		config.Busy = gpioreg.ByName(DefaultBusyPin)
	}
	if config.Reset == nil || config.Reset == gpio.INVALID {
		return nil, ErrResetPin
	}
	if config.DC == nil || config.DC == gpio.INVALID {
		return nil, ErrDCPin
	}
	if config.Busy == nil || config.Busy == gpio.INVALID {
		return nil, ErrBusyPin
	}

	if config.Speed == 0 {
		config.Speed = DefaultSPIConfig.Speed
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultSPIConfig.BatchSize
	}
	if config.BusyPoll <= 0 {
		config.BusyPoll = DefaultSPIConfig.BusyPoll
	}

	bus, err := port.Connect(config.Speed, config.Mode, 8)
	if err != nil {
		return nil, fmt.Errorf("epaper: connect SPI at %s: %w", config.Speed, err)
	}

	c := &spiConn{
		bus:       bus,
		reset:     config.Reset,
		dc:        config.DC,
		cs:        config.CE,
		busy:      config.Busy,
		busyLevel: config.BusyLevel,
		busyPoll:  config.BusyPoll,
		batchSize: config.BatchSize,
	}
	if pc, ok := port.(spi.PortCloser); ok {
		c.port = pc
	}
	if err = c.busy.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("epaper: configure busy pin: %w", err)
	}
	return c, nil
}

func (c *spiConn) String() string {
	return fmt.Sprintf("SPI bus %s", c.bus)
}

func (c *spiConn) Close() error {
	if c.port == nil {
		return nil
	}
	return c.port.Close()
}

func (c *spiConn) Reset() (err error) {
	if err = c.reset.Out(gpio.Low); err != nil {
		return
	}
	time.Sleep(10 * time.Millisecond)
	if err = c.reset.Out(gpio.High); err != nil {
		return
	}
	time.Sleep(10 * time.Millisecond)
	return
}

func (c *spiConn) WaitBusy(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for c.busy.Read() == c.busyLevel {
		if time.Now().After(deadline) {
			return ErrBusyTimeout
		}
		time.Sleep(c.busyPoll)
	}
	return nil
}

func (c *spiConn) updateDC(level gpio.Level) error {
	if !c.dcValid || c.dcLevel != level {
		if err := c.dc.Out(level); err != nil {
			return err
		}
		c.dcLevel, c.dcValid = level, true
	}
	return nil
}

func (c *spiConn) updateCS(level gpio.Level) error {
	if c.cs == nil {
		return nil
	}
	return c.cs.Out(level)
}

func (c *spiConn) Command(cmnd byte, data ...byte) (err error) {
	if err = c.updateCS(gpio.Low); err != nil {
		return
	}
	if err = c.updateDC(gpio.Low); err != nil {
		return
	}
	if err = c.bus.Tx([]byte{cmnd}, nil); err != nil {
		return
	}
	if len(data) > 0 {
		if err = c.updateDC(gpio.High); err != nil {
			return
		}
		if err = c.writeChunked(data); err != nil {
			return
		}
	}
	return c.updateCS(gpio.High)
}

func (c *spiConn) Data(data ...byte) (err error) {
	if len(data) == 0 {
		return
	}
	if err = c.updateDC(gpio.High); err != nil {
		return
	}
	if err = c.updateCS(gpio.Low); err != nil {
		return
	}
	if err = c.writeChunked(data); err != nil {
		return
	}
	return c.updateCS(gpio.High)
}

func (c *spiConn) writeChunked(data []byte) error {
	if debug && len(data) > c.batchSize {
		log.Printf("epaper: write %d bytes of data in %d chunks", len(data), (len(data)+c.batchSize-1)/c.batchSize)
	}
	for len(data) > 0 {
		n := min(len(data), c.batchSize)
		if err := c.bus.Tx(data[:n], nil); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}
