package dds

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
)

// Compress packs an image into a single surface of format f. Block formats use
// a bounding-box endpoint fit, which is fast and good enough for synthetic
// content; alpha is only kept by BC2, BC3 and RGBA.
func Compress(src image.Image, f Format) ([]byte, error) {
	img := toNRGBA(src)
	w, h := img.Rect.Dx(), img.Rect.Dy()

	switch f {
	case FormatBC1, FormatBC2, FormatBC3:
		return compressBlocks(img, f), nil
	case FormatLuminance, FormatRGB, FormatRGBA:
		bpp := f.BytesPerPixel()
		out := make([]byte, 0, w*h*bpp)
		for y := range h {
			for x := range w {
				c := img.NRGBAAt(img.Rect.Min.X+x, img.Rect.Min.Y+y)
				switch f {
				case FormatLuminance:
					out = append(out, uint8((299*uint32(c.R)+587*uint32(c.G)+114*uint32(c.B))/1000))
				case FormatRGB:
					out = append(out, c.R, c.G, c.B)
				default:
					out = append(out, c.R, c.G, c.B, c.A)
				}
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot compress to %s", f)
	}
}

func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x-b.Min.X, y-b.Min.Y, src.At(x, y))
		}
	}
	return out
}

func compressBlocks(img *image.NRGBA, f Format) []byte {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	bw, bh := (w+3)/4, (h+3)/4
	bs := f.BlockSize()
	out := make([]byte, bw*bh*bs)

	var block [16]color.NRGBA
	for by := range bh {
		for bx := range bw {
			for i := range block {
				// Edge blocks repeat the last valid row/column.
				x := min(bx*4+i%4, w-1)
				y := min(by*4+i/4, h-1)
				block[i] = img.NRGBAAt(img.Rect.Min.X+x, img.Rect.Min.Y+y)
			}

			dst := out[(by*bw+bx)*bs:][:bs]
			switch f {
			case FormatBC1:
				encodeColorBlock(dst, &block)
			case FormatBC2:
				var alpha uint64
				for i := range block {
					alpha |= uint64(block[i].A>>4) << (4 * i)
				}
				binary.LittleEndian.PutUint64(dst[:8], alpha)
				encodeColorBlock(dst[8:], &block)
			case FormatBC3:
				encodeAlphaBlock(dst[:8], &block)
				encodeColorBlock(dst[8:], &block)
			}
		}
	}
	return out
}

func encodeColorBlock(dst []byte, block *[16]color.NRGBA) {
	lo := color.NRGBA{R: 255, G: 255, B: 255}
	var hi color.NRGBA
	for _, c := range block {
		lo.R, lo.G, lo.B = min(lo.R, c.R), min(lo.G, c.G), min(lo.B, c.B)
		hi.R, hi.G, hi.B = max(hi.R, c.R), max(hi.G, c.G), max(hi.B, c.B)
	}

	c0, c1 := to565(hi), to565(lo)
	if c0 < c1 {
		c0, c1 = c1, c0
	}
	binary.LittleEndian.PutUint16(dst[0:2], c0)
	binary.LittleEndian.PutUint16(dst[2:4], c1)

	if c0 == c1 {
		binary.LittleEndian.PutUint32(dst[4:8], 0)
		return
	}

	var palette [4]color.NRGBA
	palette[0], palette[1] = rgb565(c0), rgb565(c1)
	palette[2] = lerp(palette[0], palette[1], 2, 1, 3)
	palette[3] = lerp(palette[0], palette[1], 1, 2, 3)

	var idx uint32
	for i, c := range block {
		idx |= uint32(nearest(palette[:], c)) << (2 * i)
	}
	binary.LittleEndian.PutUint32(dst[4:8], idx)
}

func encodeAlphaBlock(dst []byte, block *[16]color.NRGBA) {
	a0, a1 := uint8(0), uint8(255)
	for _, c := range block {
		a0, a1 = max(a0, c.A), min(a1, c.A)
	}
	dst[0], dst[1] = a0, a1

	var packed uint64
	if a0 != a1 {
		var alphas [8]int
		alphas[0], alphas[1] = int(a0), int(a1)
		for i := 1; i < 7; i++ {
			alphas[i+1] = ((7-i)*int(a0) + i*int(a1)) / 7
		}
		for i, c := range block {
			best, bestDist := 0, 1<<30
			for k, a := range alphas {
				if d := abs(a - int(c.A)); d < bestDist {
					best, bestDist = k, d
				}
			}
			packed |= uint64(best) << (3 * i)
		}
	}
	for i := 2; i < 8; i++ {
		dst[i] = uint8(packed >> (8 * (i - 2)))
	}
}

func to565(c color.NRGBA) uint16 {
	return uint16(c.R>>3)<<11 | uint16(c.G>>2)<<5 | uint16(c.B>>3)
}

func nearest(palette []color.NRGBA, c color.NRGBA) int {
	best, bestDist := 0, 1<<30
	for i, p := range palette {
		dr, dg, db := int(p.R)-int(c.R), int(p.G)-int(c.G), int(p.B)-int(c.B)
		if d := dr*dr + dg*dg + db*db; d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
