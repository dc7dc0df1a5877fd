package dither

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned by ParseMode for names it does not recognise.
var ErrUnknownMode = errors.New("dither: unknown mode")

// Mode selects the quantisation policy used by the Engine.
type Mode uint8

// Modes.
const (
	None           Mode = iota // luma threshold at 128
	Ordered                    // Bayer 8x8 ordered dithering
	FloydSteinberg             // two row error diffusion
	Stucki                     // three row error diffusion
)

var modeNames = [...]string{
	None:           "none",
	Ordered:        "ordered",
	FloydSteinberg: "floyd-steinberg",
	Stucki:         "stucki",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", m)
}

// ParseMode parses a mode name as returned by Mode.String. A few common
// aliases are accepted as well.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "off", "disabled", "threshold":
		return None, nil
	case "ordered", "bayer":
		return Ordered, nil
	case "floyd-steinberg", "floydsteinberg", "fs":
		return FloydSteinberg, nil
	case "stucki":
		return Stucki, nil
	default:
		return None, fmt.Errorf("%w %q", ErrUnknownMode, s)
	}
}

// Set implements flag.Value.
func (m *Mode) Set(s string) error {
	v, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// rows is the number of error accumulator rows the mode needs.
func (m Mode) rows() int {
	switch m {
	case FloydSteinberg:
		return 2
	case Stucki:
		return 3
	default:
		return 0
	}
}

// pad is the extra row width needed to absorb the kernel's horizontal reach.
func (m Mode) pad() int {
	switch m {
	case FloydSteinberg:
		return 2
	case Stucki:
		return 4
	default:
		return 0
	}
}
