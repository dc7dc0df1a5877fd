package epaper

import (
	"log"
	"time"

	"github.com/BeatGlow/epaper/dither"
)

// Config is the display configuration.
//
// Zero values are replaced by the matching DefaultConfig value.
type Config struct {
	// Width of the panel in pixels.
	Width int

	// Height of the panel in pixels.
	Height int

	// Rotation of the rendered content relative to the panel.
	Rotation Rotation

	// DitherMode is the initial dither mode.
	DitherMode dither.Mode

	// FastRefreshCount is the number of partial refreshes between two full
	// refreshes. Use a negative value to always do a full refresh.
	FastRefreshCount int

	// PollInterval is how often the scheduler checks for a dirty raster.
	PollInterval time.Duration

	// Planes the raster is drawn into on every refresh.
	Planes []Plane

	// ErrorBufferLimit caps the dither error buffers in bytes, 0 for no limit.
	ErrorBufferLimit int

	// Logger for refresh and dither events, nil means log.Default().
	Logger *log.Logger
}

// DefaultConfig matches a 1.54" 200x200 SSD1681 panel.
var DefaultConfig = Config{
	Width:            200,
	Height:           200,
	DitherMode:       dither.None,
	FastRefreshCount: 30,
	PollInterval:     500 * time.Millisecond,
	Planes:           []Plane{PlaneBlack},
}

func (c *Config) defaults() {
	if c.Width <= 0 {
		c.Width = DefaultConfig.Width
	}
	if c.Height <= 0 {
		c.Height = DefaultConfig.Height
	}
	if c.FastRefreshCount == 0 {
		c.FastRefreshCount = DefaultConfig.FastRefreshCount
	} else if c.FastRefreshCount < 0 {
		c.FastRefreshCount = 0
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultConfig.PollInterval
	}
	if len(c.Planes) == 0 {
		c.Planes = DefaultConfig.Planes
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
}
