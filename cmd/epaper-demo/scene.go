package main

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/disintegration/imaging"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"

	"github.com/BeatGlow/epaper"
)

// scene renders the demo frame: a gradient backdrop, a border, the time and a frame counter.
type scene struct {
	size     image.Point // before rotation
	rotation epaper.Rotation
	font     *truetype.Font
	from, to colorful.Color
}

func newScene(panel image.Point, rotation epaper.Rotation) (*scene, error) {
	f, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	size := panel
	if rotation == epaper.Rotate90 || rotation == epaper.Rotate270 {
		size = image.Pt(panel.Y, panel.X)
	}
	return &scene{
		size:     size,
		rotation: rotation,
		font:     f,
		from:     colorful.Hcl(40, 0.3, 0.95),
		to:       colorful.Hcl(260, 0.5, 0.35),
	}, nil
}

// render draws frame n at time now, rotated to the panel orientation.
func (s *scene) render(now time.Time, n int) (image.Image, error) {
	img := image.NewNRGBA(image.Rectangle{Max: s.size})
	s.gradient(img)
	frame(img, img.Rect, 2, color.Black)

	var (
		h     = s.size.Y
		large = float64(h) / 4
		small = float64(h) / 12
	)
	roundedFrame(img, image.Rect(6, h/2-int(large), s.size.X-6, h/2+int(large)/3), int(large)/4, color.Black)
	if err := s.text(img, now.Format("15:04"), large, h/2); err != nil {
		return nil, err
	}
	if err := s.text(img, fmt.Sprintf("frame %d", n), small, h/2+int(large)); err != nil {
		return nil, err
	}
	return rotate(img, s.rotation), nil
}

func (s *scene) gradient(img *image.NRGBA) {
	w := img.Rect.Dx()
	for x := 0; x < w; x++ {
		t := float64(x) / float64(max(w-1, 1))
		c := s.from.BlendHcl(s.to, t).Clamped()
		for y := 0; y < img.Rect.Dy(); y++ {
			img.Set(x, y, c)
		}
	}
}

// text draws s centered horizontally with its baseline at y.
func (s *scene) text(img *image.NRGBA, str string, size float64, y int) error {
	face := truetype.NewFace(s.font, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	defer face.Close()
	x := (fixed.I(img.Rect.Dx()) - font.MeasureString(face, str)) / 2

	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(s.font)
	c.SetFontSize(size)
	c.SetClip(img.Rect)
	c.SetDst(img)
	c.SetSrc(image.Black)
	c.SetHinting(font.HintingFull)
	_, err := c.DrawString(str, fixed.Point26_6{X: x, Y: fixed.I(y)})
	return err
}

// rotate turns img clock wise; imaging rotates counter clock wise.
func rotate(img image.Image, r epaper.Rotation) image.Image {
	switch r {
	case epaper.Rotate90:
		return imaging.Rotate270(img)
	case epaper.Rotate180:
		return imaging.Rotate180(img)
	case epaper.Rotate270:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
