package dither

import "github.com/BeatGlow/epaper/pixel"

// bayer is the 8x8 ordered dither index matrix, values 0..63.
var bayer = [8][8]uint8{
	{0, 32, 8, 40, 2, 34, 10, 42},
	{48, 16, 56, 24, 50, 18, 58, 26},
	{12, 44, 4, 36, 14, 46, 6, 38},
	{60, 28, 52, 20, 62, 30, 54, 22},
	{3, 35, 11, 43, 1, 33, 9, 41},
	{51, 19, 59, 27, 49, 17, 57, 25},
	{15, 47, 7, 39, 13, 45, 5, 37},
	{63, 31, 55, 23, 61, 29, 53, 21},
}

// bayerThreshold is the luma threshold at absolute raster position (x, y).
func bayerThreshold(x, y int) uint8 {
	return bayer[y&7][x&7]*4 + 2
}

// ordered thresholds against the Bayer matrix. The matrix phase follows the
// raster, not the tile, so adjacent tiles line up.
func (e *Engine) ordered(dst *pixel.MonoImage, t Tile) {
	bpp := t.Format.BytesPerPixel()
	for y := 0; y < t.Height; y++ {
		var (
			src = t.Pix[y*t.Width*bpp:]
			ry  = t.Y + y
		)
		for x := 0; x < t.Width; x++ {
			rx := t.X + x
			put(dst, rx, ry, t.Format.Luma(src[x*bpp:]) < bayerThreshold(rx, ry))
		}
	}
}
