package pixel

import "fmt"

// Format is a native pixel encoding delivered by a renderer.
type Format uint8

// Supported formats.
const (
	L8     Format = iota // 8-bit luminance
	RGB332               // 8-bit packed RRRGGGBB
	RGB565               // 16-bit packed RRRRRGGGGGGBBBBB, little-endian
)

func (f Format) String() string {
	switch f {
	case L8:
		return "L8"
	case RGB332:
		return "RGB332"
	case RGB565:
		return "RGB565"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// BytesPerPixel is the number of bytes one pixel occupies in a tile.
func (f Format) BytesPerPixel() int {
	if f == RGB565 {
		return 2
	}
	return 1
}

// Luma converts the pixel at the start of px to an 8-bit luma value.
//
// Unknown formats treat the first byte as luma.
func (f Format) Luma(px []byte) uint8 {
	switch f {
	case RGB332:
		return RGB332Luma(px[0])
	case RGB565:
		return RGB565Luma(uint16(px[0]) | uint16(px[1])<<8)
	default:
		return px[0]
	}
}

// Integer luma weights, 77/256 ≈ 0.301, 150/256 ≈ 0.586, 29/256 ≈ 0.113.
const (
	lumaR = 77
	lumaG = 150
	lumaB = 29
)

func luma(r, g, b uint32) uint8 {
	return uint8((lumaR*r + lumaG*g + lumaB*b) >> 8)
}

// expand scales a channel in [0, max] to [0, 255] with rounding.
func expand(v, max uint32) uint32 {
	return (v*255 + max/2) / max
}

// RGB332Luma returns the luma of a packed 3-3-2 RGB value.
func RGB332Luma(v uint8) uint8 {
	var (
		r = expand(uint32(v>>5)&0x07, 7)
		g = expand(uint32(v>>2)&0x07, 7)
		b = expand(uint32(v)&0x03, 3)
	)
	return luma(r, g, b)
}

// RGB565Luma returns the luma of a packed 5-6-5 RGB value.
func RGB565Luma(v uint16) uint8 {
	var (
		r = expand(uint32(v>>11)&0x1f, 31)
		g = expand(uint32(v>>5)&0x3f, 63)
		b = expand(uint32(v)&0x1f, 31)
	)
	return luma(r, g, b)
}
