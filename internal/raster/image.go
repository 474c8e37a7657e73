package raster

import (
	"image"
	"image/color"
)

// BGRImage is a 3-channel image stored in B, G, R byte order, matching the
// channel order the source tile format uses natively. It implements
// image.Image so it can be passed directly to stdlib encoders.
type BGRImage struct {
	Pix    []byte
	Stride int
	Rect   image.Rectangle
}

var _ image.Image = (*BGRImage)(nil)

// NewBGRImage allocates a zeroed BGRImage of the given dimensions.
func NewBGRImage(w, h int) *BGRImage {
	return &BGRImage{
		Pix:    make([]byte, w*h*3),
		Stride: w * 3,
		Rect:   image.Rect(0, 0, w, h),
	}
}

func (p *BGRImage) ColorModel() color.Model { return color.RGBAModel }

func (p *BGRImage) Bounds() image.Rectangle { return p.Rect }

func (p *BGRImage) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*3
}

func (p *BGRImage) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return color.RGBA{}
	}
	i := p.PixOffset(x, y)
	b, g, r := p.Pix[i], p.Pix[i+1], p.Pix[i+2]
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// BGRAImage is the 4-channel convenience image formed by appending a true
// alpha plane to a BGRImage's channels. It is not decoded directly from the
// tile format; see Combine.
type BGRAImage struct {
	Pix    []byte
	Stride int
	Rect   image.Rectangle
}

var _ image.Image = (*BGRAImage)(nil)

func (p *BGRAImage) ColorModel() color.Model { return color.RGBAModel }

func (p *BGRAImage) Bounds() image.Rectangle { return p.Rect }

func (p *BGRAImage) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*4
}

func (p *BGRAImage) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return color.RGBA{}
	}
	i := p.PixOffset(x, y)
	b, g, r, a := p.Pix[i], p.Pix[i+1], p.Pix[i+2], p.Pix[i+3]
	return color.RGBA{R: r, G: g, B: b, A: a}
}

// Combine builds a BGRAImage by appending alpha's per-pixel value as the
// fourth channel of bgr. This is the "bgr plus true alpha" convenience
// output; it does not use the embedded alpha channel the BGRA tile layout
// itself carries, since that channel's semantics differ from the standalone
// alpha plane.
func Combine(bgr *BGRImage, alpha *image.Gray) *BGRAImage {
	bounds := bgr.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	out := &BGRAImage{
		Pix:    make([]byte, w*h*4),
		Stride: w * 4,
		Rect:   image.Rect(0, 0, w, h),
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			srcBGR := bgr.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			destOff := out.PixOffset(x, y)
			out.Pix[destOff] = bgr.Pix[srcBGR]
			out.Pix[destOff+1] = bgr.Pix[srcBGR+1]
			out.Pix[destOff+2] = bgr.Pix[srcBGR+2]
			out.Pix[destOff+3] = alpha.GrayAt(alpha.Rect.Min.X+x, alpha.Rect.Min.Y+y).Y
		}
	}

	return out
}
