package codecs

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// isOpaque reports whether every pixel of img is fully opaque.
func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return false
			}
		}
	}
	return true
}

// flattenAlpha composites img over a white background.
// Opaque images are returned as they are.
func flattenAlpha(img image.Image) image.Image {
	if isOpaque(img) {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, b, img, b.Min, draw.Over)
	return dst
}

// isGrayPalette reports whether every palette entry is an opaque gray.
func isGrayPalette(p color.Palette) bool {
	for _, c := range p {
		r, g, b, a := c.RGBA()
		if r != g || g != b || a != 0xffff {
			return false
		}
	}
	return true
}

// toGray converts img to 8-bit grayscale.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	dst := image.NewGray(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}

// toPaletted returns a paletted copy of img when it has at most 256 distinct colors.
// Gray, already paletted and 16-bit images are never paletted.
func toPaletted(img image.Image) (*image.Paletted, bool) {
	switch img.(type) {
	case *image.Paletted, *image.Gray, *image.Gray16, *image.RGBA64, *image.NRGBA64:
		return nil, false
	}

	b := img.Bounds()
	palette := make(color.Palette, 0, 256)
	index := make(map[color.NRGBA]uint8, 256)
	dst := image.NewPaletted(b, nil)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			i, ok := index[c]
			if !ok {
				if len(palette) == 256 {
					return nil, false
				}
				i = uint8(len(palette))
				index[c] = i
				palette = append(palette, c)
			}
			dst.Pix[dst.PixOffset(x, y)] = i
		}
	}

	dst.Palette = palette
	return dst, true
}
