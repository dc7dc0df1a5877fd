package pixel

import (
	"encoding/binary"
	"image"
	"image/color"
	"image/draw"
)

type Image interface {
	draw.Image

	// Clear the image.
	Clear()

	// Fill the image with a single color.
	Fill(color.Color)
}

// Buffer holds the pixel values and is a container that is used by most image formats in this package.
type Buffer struct {
	// Rect is the image bounding box.
	Rect image.Rectangle

	// Pix are the image pixels.
	Pix []byte

	// Stride is the Pix stride (in bytes) between vertically adjacent pixels.
	Stride int
}

func (p *Buffer) Bounds() image.Rectangle {
	return p.Rect
}

func (p *Buffer) Clear() {
	clear(p.Pix)
}

func makeBuffer(w, h, stride, size int) Buffer {
	return Buffer{
		Rect:   image.Rect(0, 0, w, h),
		Pix:    make([]byte, size),
		Stride: stride,
	}
}

// MonoImage is a 1-bit per pixel e-paper raster.
//
// Rows are packed most significant bit first, a set bit is ink (dark) and a
// cleared bit is paper (light). A cleared image is all paper.
type MonoImage struct {
	Buffer
}

func NewMonoImage(w, h int) *MonoImage {
	stride := (w + 7) / 8 // round up to whole bytes
	return &MonoImage{
		Buffer: makeBuffer(w, h, stride, stride*h),
	}
}

func (p *MonoImage) ColorModel() color.Model {
	return MonoModel
}

// PixOffset is the index of the byte holding pixel (x, y).
func (p *MonoImage) PixOffset(x, y int) int {
	return y*p.Stride + x/8
}

// Bit reports whether pixel (x, y) is ink. Out of bounds pixels are paper.
func (p *MonoImage) Bit(x, y int) bool {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return false
	}
	return p.Pix[p.PixOffset(x, y)]&(0x80>>uint(x&7)) != 0
}

// SetBit sets pixel (x, y) to ink or paper.
func (p *MonoImage) SetBit(x, y int, ink bool) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}
	var (
		pos = p.PixOffset(x, y)
		bit = byte(0x80) >> uint(x&7)
	)
	if ink {
		p.Pix[pos] |= bit
	} else {
		p.Pix[pos] &^= bit
	}
}

func (p *MonoImage) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.Transparent
	}
	return Mono{Ink: p.Bit(x, y)}
}

func (p *MonoImage) Set(x, y int, c color.Color) {
	p.SetBit(x, y, monoModel(c).(Mono).Ink)
}

func (p *MonoImage) Fill(c color.Color) {
	var value byte
	if monoModel(c).(Mono).Ink {
		value = 0xff
	}
	for i := range p.Pix {
		p.Pix[i] = value
	}
}

// RGB332Image is an 8-bits per pixel 3-3-2-bit RGB image.
type RGB332Image struct {
	Buffer
}

func NewRGB332Image(w, h int) *RGB332Image {
	return &RGB332Image{
		Buffer: makeBuffer(w, h, w, w*h),
	}
}

func (p *RGB332Image) ColorModel() color.Model {
	return CRGB8Model
}

func (p *RGB332Image) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.Transparent
	}
	return CRGB8{p.Pix[y*p.Stride+x]}
}

func (p *RGB332Image) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}
	p.Pix[y*p.Stride+x] = crgb8Model(c).(CRGB8).V
}

func (p *RGB332Image) Fill(c color.Color) {
	value := crgb8Model(c).(CRGB8).V
	for i := range p.Pix {
		p.Pix[i] = value
	}
}

// CRGB16Image is a 16-bits per pixel 5-6-5-bit RGB image.
//
// The default byte order is little-endian, which is what [RGB565] tiles use.
type CRGB16Image struct {
	Buffer
	Order binary.ByteOrder
}

func NewCRGB16Image(w, h int) *CRGB16Image {
	return &CRGB16Image{
		Buffer: makeBuffer(w, h, w*2, w*2*h),
		Order:  binary.LittleEndian,
	}
}

func (p *CRGB16Image) ColorModel() color.Model {
	return CRGB16Model
}

func (p *CRGB16Image) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.Transparent
	}

	v := p.Order.Uint16(p.Pix[x*2+y*p.Stride:])
	return CRGB16{v}
}

func (p *CRGB16Image) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}

	v := crgb16Model(c).(CRGB16).V
	p.Order.PutUint16(p.Pix[x*2+y*p.Stride:], v)
}

func (p *CRGB16Image) Fill(c color.Color) {
	value := crgb16Model(c).(CRGB16).V
	bytes := make([]byte, 2)
	p.Order.PutUint16(bytes, value)
	for i, l := 0, len(p.Pix); i < l; i += 2 {
		copy(p.Pix[i:], bytes)
	}
}

// NewImage returns an empty image that stores pixels in format f.
func NewImage(f Format, w, h int) Image {
	switch f {
	case RGB332:
		return NewRGB332Image(w, h)
	case RGB565:
		return NewCRGB16Image(w, h)
	default:
		return &grayImage{image.NewGray(image.Rect(0, 0, w, h))}
	}
}

// grayImage backs L8 tiles.
type grayImage struct {
	*image.Gray
}

func (p *grayImage) Clear() {
	clear(p.Pix)
}

func (p *grayImage) Fill(c color.Color) {
	value := color.GrayModel.Convert(c).(color.Gray).Y
	for i := range p.Pix {
		p.Pix[i] = value
	}
}

// Crop copies the pixels of r out of img, rows packed without padding.
//
// The result is in the layout a renderer hands over as a tile; r must lie within img.
func Crop(img Image, r image.Rectangle) []byte {
	var (
		pix    []byte
		stride int
		bpp    = 1
	)
	switch i := img.(type) {
	case *RGB332Image:
		pix, stride = i.Pix, i.Stride
	case *CRGB16Image:
		pix, stride, bpp = i.Pix, i.Stride, 2
	case *grayImage:
		pix, stride = i.Pix, i.Stride
	default:
		return nil
	}

	var (
		rowSize = r.Dx() * bpp
		out     = make([]byte, 0, rowSize*r.Dy())
	)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := y*stride + r.Min.X*bpp
		out = append(out, pix[off:off+rowSize]...)
	}
	return out
}

// Interface checks.
var (
	_ Image = (*MonoImage)(nil)
	_ Image = (*RGB332Image)(nil)
	_ Image = (*CRGB16Image)(nil)
	_ Image = (*grayImage)(nil)
)
