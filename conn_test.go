package epaper

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi/spitest"
)

// dcPin records the SPI operation index at which the data/command level changes.
type dcPin struct {
	gpiotest.Pin
	rec     *spitest.Record
	changes []string
}

func (p *dcPin) Out(l gpio.Level) error {
	p.rec.Lock()
	n := len(p.rec.Ops)
	p.rec.Unlock()
	p.changes = append(p.changes, fmt.Sprintf("%d:%s", n, l))
	return p.Pin.Out(l)
}

func newTestSPI(t *testing.T, batchSize int) (Conn, *spitest.Record, *dcPin, *gpiotest.Pin) {
	t.Helper()
	var (
		rec  = new(spitest.Record)
		dc   = &dcPin{Pin: gpiotest.Pin{N: "DC"}, rec: rec}
		busy = &gpiotest.Pin{N: "BUSY", L: gpio.Low}
	)
	c, err := NewSPI(rec, &SPIConfig{
		BatchSize: batchSize,
		Reset:     &gpiotest.Pin{N: "RST"},
		DC:        dc,
		Busy:      busy,
		BusyLevel: gpio.High,
		BusyPoll:  time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	return c, rec, dc, busy
}

func TestSPICommandAndData(t *testing.T) {
	c, rec, dc, _ := newTestSPI(t, 2)

	if err := c.Command(0x24, 1, 2, 3); err != nil {
		t.Fatal(err)
	}
	if err := c.Data(4); err != nil {
		t.Fatal(err)
	}
	if err := c.Command(0x20); err != nil {
		t.Fatal(err)
	}

	want := []conntest.IO{
		{W: []byte{0x24}},
		{W: []byte{1, 2}},
		{W: []byte{3}},
		{W: []byte{4}},
		{W: []byte{0x20}},
	}
	if len(rec.Ops) != len(want) {
		t.Fatalf("expected %d writes, got %d: %v", len(want), len(rec.Ops), rec.Ops)
	}
	for i := range want {
		if !bytes.Equal(rec.Ops[i].W, want[i].W) {
			t.Errorf("write %d: expected %x, got %x", i, want[i].W, rec.Ops[i].W)
		}
	}

	if v, want := strings.Join(dc.changes, " "), "0:Low 1:High 4:Low"; v != want {
		t.Errorf("expected DC changes %q, got %q", want, v)
	}
}

func TestSPIEmptyData(t *testing.T) {
	c, rec, _, _ := newTestSPI(t, 16)
	if err := c.Data(); err != nil {
		t.Fatal(err)
	}
	if len(rec.Ops) != 0 {
		t.Errorf("expected no writes, got %v", rec.Ops)
	}
}

func TestSPIWaitBusy(t *testing.T) {
	c, _, _, busy := newTestSPI(t, 16)
	if err := c.WaitBusy(time.Second); err != nil {
		t.Fatalf("idle panel: %v", err)
	}

	_ = busy.Out(gpio.High)
	if err := c.WaitBusy(5 * time.Millisecond); !errors.Is(err, ErrBusyTimeout) {
		t.Fatalf("expected %v, got %v", ErrBusyTimeout, err)
	}

	go func() {
		time.Sleep(5 * time.Millisecond)
		_ = busy.Out(gpio.Low)
	}()
	if err := c.WaitBusy(5 * time.Second); err != nil {
		t.Fatalf("expected busy to be released, got %v", err)
	}
}

func TestNewSPIPins(t *testing.T) {
	pin := func(name string) *gpiotest.Pin { return &gpiotest.Pin{N: name} }
	tests := []struct {
		name   string
		config SPIConfig
		err    error
	}{
		{"no reset", SPIConfig{DC: pin("DC"), Busy: pin("BUSY")}, ErrResetPin},
		{"invalid reset", SPIConfig{Reset: gpio.INVALID, DC: pin("DC"), Busy: pin("BUSY")}, ErrResetPin},
		{"no dc", SPIConfig{Reset: pin("RST"), Busy: pin("BUSY")}, ErrDCPin},
		{"no busy", SPIConfig{Reset: pin("RST"), DC: pin("DC")}, ErrBusyPin},
		{"complete", SPIConfig{Reset: pin("RST"), DC: pin("DC"), Busy: pin("BUSY")}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := tt.config
			_, err := NewSPI(new(spitest.Record), &config)
			if !errors.Is(err, tt.err) {
				t.Errorf("expected %v, got %v", tt.err, err)
			}
		})
	}
}
