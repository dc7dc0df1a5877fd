// Package pixel implements the color formats and packed images used by e-paper displays.
//
// Renderers hand over tiles in one of the native [Format] encodings; [Format.Luma] reduces a
// single pixel to an 8-bit brightness that the dither stage quantizes into a [MonoImage].
//
// All image types are compatible with Go's native [color.Color] and [image.Image] /
// [draw.Image] interfaces.
package pixel
