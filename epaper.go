// Package epaper composites rendered pixel tiles into a 1-bit raster and
// refreshes e-paper panels from it.
package epaper

import (
	"errors"
	"os"
)

var debug bool

func init() {
	debug = os.Getenv("EPAPER_DEBUG") != ""
}

// Errors
var (
	ErrBounds      = errors.New("epaper: out of display bounds")
	ErrFormat      = errors.New("epaper: invalid pixel buffer")
	ErrClosed      = errors.New("epaper: display closed")
	ErrBusyTimeout = errors.New("epaper: timeout waiting for panel busy signal")
)

// Rotation defines pixel rotation.
type Rotation uint8

// Supported rotations.
const (
	NoRotation Rotation = iota
	Rotate90            // Rotate 90° clock wise
	Rotate180           // Rotate 180°
	Rotate270           // Rotate 270° clock wise
)

func (r Rotation) String() string {
	switch r % 4 {
	case Rotate90:
		return "90°"
	case Rotate180:
		return "180°"
	case Rotate270:
		return "270°"
	default:
		return "0°"
	}
}

// Degrees returns the clock wise rotation angle.
func (r Rotation) Degrees() int {
	return int(r%4) * 90
}
