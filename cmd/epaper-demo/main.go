package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/draw"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/BeatGlow/epaper"
	"github.com/BeatGlow/epaper/framebuffer"
	"github.com/BeatGlow/epaper/pixel"
	"github.com/BeatGlow/epaper/term"
	"github.com/BeatGlow/epaper/waveshare"
)

// panel is a backend that knows its own size.
type panel interface {
	epaper.Panel
	Bounds() image.Rectangle
}

func main() {
	ditherMode := epaper.DefaultConfig.DitherMode
	flag.Var(&ditherMode, "dither", "Dither mode (none, ordered, floyd-steinberg, stucki)")
	widthFlag := flag.Int("width", 0, "Panel width (default: backend size)")
	heightFlag := flag.Int("height", 0, "Panel height (default: backend size)")
	spiBusFlag := flag.String("spi", "", "SPI port name (default: first available)")
	resetPinFlag := flag.String("reset", epaper.DefaultResetPin, "Reset GPIO pin")
	dcPinFlag := flag.String("dc", epaper.DefaultDCPin, "Data/Command GPIO pin (DC)")
	busyPinFlag := flag.String("busy", epaper.DefaultBusyPin, "Busy GPIO pin")
	fbFlag := flag.String("fb", "/dev/fb0", "Framebuffer device")
	fastFlag := flag.Int("fast-refresh", epaper.DefaultConfig.FastRefreshCount, "Partial refreshes between full refreshes (-1 for always full)")
	pollFlag := flag.Duration("poll", epaper.DefaultConfig.PollInterval, "Refresh poll interval")
	intervalFlag := flag.Duration("interval", 5*time.Second, "Scene redraw interval")
	rotateFlag := flag.String("rotate", "", "Display rotation")
	formatFlag := flag.String("format", "rgb565", "Canvas pixel format (l8, rgb332, rgb565)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <ssd1681|waveshare|fbdev|term>\n", os.Args[0])
		os.Exit(1)
	}

	var rotation epaper.Rotation
	switch *rotateFlag {
	case "", "no", "0":
		rotation = epaper.NoRotation
	case "90", "right", "cw":
		rotation = epaper.Rotate90
	case "180", "flip":
		rotation = epaper.Rotate180
	case "270", "left", "ccw":
		rotation = epaper.Rotate270
	default:
		fatal(fmt.Errorf("invalid rotation %q specified", *rotateFlag))
	}

	var format pixel.Format
	switch strings.ToLower(*formatFlag) {
	case "l8", "gray":
		format = pixel.L8
	case "rgb332":
		format = pixel.RGB332
	case "rgb565":
		format = pixel.RGB565
	default:
		fatal(fmt.Errorf("invalid pixel format %q specified", *formatFlag))
	}

	if _, err := host.Init(); err != nil {
		fatal(err)
	}

	var (
		output panel
		logger = log.Default()
		err    error
	)
	switch backend := strings.ToLower(flag.Arg(0)); backend {
	case "ssd1681":
		config := epaper.DefaultSPIConfig
		config.Bus = *spiBusFlag
		config.Reset = gpioreg.ByName(*resetPinFlag)
		config.DC = gpioreg.ByName(*dcPinFlag)
		config.Busy = gpioreg.ByName(*busyPinFlag)

		var c epaper.Conn
		if c, err = epaper.OpenSPI(&config); err != nil {
			fatal(err)
		}
		fmt.Printf("using connection: %s\n", c)
		output, err = epaper.NewSSD1681(c, &epaper.SSD1681Config{
			Width:  *widthFlag,
			Height: *heightFlag,
		})
	case "waveshare":
		port, err := spireg.Open(*spiBusFlag)
		if err != nil {
			fatal(err)
		}
		defer port.Close()
		output, err = waveshare.Open(port, nil)
		if err != nil {
			fatal(err)
		}
	case "fbdev":
		output, err = framebuffer.Open(*fbFlag, nil)
	case "term":
		output, err = term.Open(*widthFlag, *heightFlag)
		// The log would scribble over the preview.
		logger = log.New(io.Discard, "", 0)
	default:
		err = fmt.Errorf("unsupported backend %q", backend)
	}
	if err != nil {
		fatal(err)
	}
	size := output.Bounds().Size()
	logger.Printf("using panel: %s", output)

	d := epaper.New(output, &epaper.Config{
		Width:            size.X,
		Height:           size.Y,
		Rotation:         rotation,
		DitherMode:       ditherMode,
		FastRefreshCount: *fastFlag,
		PollInterval:     *pollFlag,
		Logger:           logger,
	})
	defer d.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err = d.Start(ctx); err != nil {
		fatal(err)
	}

	s, err := newScene(size, d.Rotation())
	if err != nil {
		fatal(err)
	}
	var (
		canvas = epaper.NewCanvas(d, format)
		ticker = time.NewTicker(*intervalFlag)
	)
	defer ticker.Stop()

	logger.Printf("rendering %s canvas with %s dithering, hit control-c to stop...", format, ditherMode)
	for frame := 0; ; frame++ {
		img, err := s.render(time.Now(), frame)
		if err != nil {
			logger.Printf("render failed: %v", err)
			return
		}
		draw.Draw(canvas, canvas.Bounds(), img, image.Point{}, draw.Src)
		if err = canvas.Display(); err != nil {
			logger.Printf("flush failed: %v", err)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "fatal: "+err.Error())
	os.Exit(1)
}
