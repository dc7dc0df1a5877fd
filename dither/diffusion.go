package dither

import "github.com/BeatGlow/epaper/pixel"

// tap distributes (err*weight)>>shift to the pixel dy rows down and dx columns across.
type tap struct {
	dy, dx, weight int
}

// kernel is a fixed point error diffusion kernel.
type kernel struct {
	reach int // columns reached on either side
	shift uint
	taps  []tap
}

var (
	floydSteinberg = kernel{
		reach: 1,
		shift: 4,
		taps: []tap{
			{0, 1, 7},
			{1, -1, 3}, {1, 0, 5}, {1, 1, 1},
		},
	}

	// stucki approximates the 8/42, 4/42, 2/42 and 1/42 weights in 64ths.
	stucki = kernel{
		reach: 2,
		shift: 6,
		taps: []tap{
			{0, 1, 12}, {0, 2, 6},
			{1, -2, 3}, {1, -1, 6}, {1, 0, 12}, {1, 1, 6}, {1, 2, 3},
			{2, -2, 2}, {2, -1, 3}, {2, 0, 6}, {2, 1, 3}, {2, 2, 2},
		},
	}
)

const errorCellSize = 2 // bytes per int16 accumulator cell

// alloc makes sure the error rows fit a tile w pixels wide in the active mode.
// It reports false if the rows would exceed BufferLimit.
func (e *Engine) alloc(w int) bool {
	var (
		n     = e.mode.rows()
		width = w + e.mode.pad()
	)
	if len(e.rows) == n && e.width >= width {
		return true
	}
	if e.width > width {
		width = e.width
	}
	if size := n * width * errorCellSize; e.BufferLimit > 0 && size > e.BufferLimit {
		e.logger().Printf("dither: warning: %d byte error buffer exceeds limit of %d, thresholding %d pixel wide tile",
			size, e.BufferLimit, w)
		return false
	}

	rows := make([][]int16, n)
	for i := range rows {
		rows[i] = make([]int16, width)
	}
	e.rows, e.width, e.head = rows, width, 0
	return true
}

// row returns the accumulator dy rows below the current one.
func (e *Engine) row(dy int) []int16 {
	return e.rows[(e.head+dy)%len(e.rows)]
}

// diffuse runs error diffusion with kernel k. Error state does not cross tile boundaries.
func (e *Engine) diffuse(dst *pixel.MonoImage, t Tile, k kernel) {
	var (
		n     = len(e.rows)
		width = t.Width + 2*k.reach
		bpp   = t.Format.BytesPerPixel()
	)
	for _, row := range e.rows {
		clear(row[:width])
	}
	e.head = 0

	for y := 0; y < t.Height; y++ {
		// The farthest row was the current row of the previous line.
		clear(e.row(n - 1)[:width])

		var (
			src = t.Pix[y*t.Width*bpp:]
			cur = e.row(0)
		)
		for x := 0; x < t.Width; x++ {
			i := x + k.reach
			v := int(t.Format.Luma(src[x*bpp:])) + int(cur[i])
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}

			var (
				ink = v < 128
				err = v
			)
			if !ink {
				err -= 255
			}
			if err != 0 {
				for _, p := range k.taps {
					e.row(p.dy)[i+p.dx] += int16((err * p.weight) >> k.shift)
				}
			}
			put(dst, t.X+x, t.Y+y, ink)
		}
		e.head = (e.head + 1) % n
	}
}
