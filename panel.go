package epaper

import (
	"fmt"

	"github.com/BeatGlow/epaper/pixel"
)

// RefreshMode selects the panel drive waveform.
type RefreshMode uint8

// Refresh modes.
const (
	// PartialRefresh is the fast waveform. It flickers less but leaves ghosting behind.
	PartialRefresh RefreshMode = iota

	// FullRefresh drives every pixel through the full waveform and clears ghosting.
	FullRefresh
)

func (m RefreshMode) String() string {
	switch m {
	case PartialRefresh:
		return "partial"
	case FullRefresh:
		return "full"
	default:
		return fmt.Sprintf("RefreshMode(%d)", m)
	}
}

// Plane is a panel color plane.
type Plane uint8

// Planes.
const (
	PlaneBlack Plane = iota
	PlaneRed
)

func (p Plane) String() string {
	switch p {
	case PlaneBlack:
		return "black"
	case PlaneRed:
		return "red"
	default:
		return fmt.Sprintf("Plane(%d)", p)
	}
}

// Panel is an e-paper panel driver.
//
// All calls may block for as long as the panel needs.
type Panel interface {
	// PowerOn wakes the panel up.
	PowerOn() error

	// PowerOff puts the panel to sleep.
	PowerOff() error

	// SetRefreshMode selects the waveform for the next Refresh.
	SetRefreshMode(RefreshMode) error

	// Draw transfers a full screen raster into a color plane.
	Draw(Plane, *pixel.MonoImage) error

	// Refresh updates the physical display from the transferred planes.
	Refresh() error
}
