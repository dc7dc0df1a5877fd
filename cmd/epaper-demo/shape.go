package main

import (
	"image"
	"image/color"
	"image/draw"
)

func horizontalLine(dst draw.Image, x, y, w int, c color.Color) {
	for i := 0; i < w; i++ {
		dst.Set(x+i, y, c)
	}
}

func verticalLine(dst draw.Image, x, y, h int, c color.Color) {
	for i := 0; i < h; i++ {
		dst.Set(x, y+i, c)
	}
}

// frame draws a rectangle outline width pixels thick, inside r.
func frame(dst draw.Image, r image.Rectangle, width int, c color.Color) {
	for i := 0; i < width; i++ {
		rect := r.Inset(i)
		if rect.Empty() {
			return
		}
		horizontalLine(dst, rect.Min.X, rect.Min.Y, rect.Dx(), c)
		horizontalLine(dst, rect.Min.X, rect.Max.Y-1, rect.Dx(), c)
		verticalLine(dst, rect.Min.X, rect.Min.Y, rect.Dy(), c)
		verticalLine(dst, rect.Max.X-1, rect.Min.Y, rect.Dy(), c)
	}
}

// roundedFrame draws a rectangle outline with radius pixels rounded corners.
func roundedFrame(dst draw.Image, r image.Rectangle, radius int, c color.Color) {
	var (
		x = r.Min.X
		y = r.Min.Y
		w = r.Dx()
		h = r.Dy()
	)
	radius = min(radius, w/2, h/2)
	horizontalLine(dst, x+radius, y, w-2*radius, c)
	horizontalLine(dst, x+radius, y+h-1, w-2*radius, c)
	verticalLine(dst, x, y+radius, h-2*radius, c)
	verticalLine(dst, x+w-1, y+radius, h-2*radius, c)
	corner(dst, x+radius, y+radius, radius, topLeft, c)
	corner(dst, x+w-radius-1, y+radius, radius, topRight, c)
	corner(dst, x+w-radius-1, y+h-radius-1, radius, bottomRight, c)
	corner(dst, x+radius, y+h-radius-1, radius, bottomLeft, c)
}

// Quadrants for corner.
const (
	topLeft = 1 << iota
	topRight
	bottomRight
	bottomLeft
)

// corner draws one quadrant of a midpoint circle around (x0, y0).
func corner(dst draw.Image, x0, y0, radius, quadrant int, c color.Color) {
	var (
		f    = 1 - radius
		ddFx = 1
		ddFy = -2 * radius
		x    = 0
		y    = radius
	)
	for x < y {
		if f >= 0 {
			y--
			ddFy += 2
			f += ddFy
		}

		x++
		ddFx += 2
		f += ddFx

		switch quadrant {
		case bottomRight:
			dst.Set(x0+x, y0+y, c)
			dst.Set(x0+y, y0+x, c)
		case topRight:
			dst.Set(x0+x, y0-y, c)
			dst.Set(x0+y, y0-x, c)
		case bottomLeft:
			dst.Set(x0-y, y0+x, c)
			dst.Set(x0-x, y0+y, c)
		case topLeft:
			dst.Set(x0-y, y0-x, c)
			dst.Set(x0-x, y0-y, c)
		}
	}
}
