package dds

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math/bits"
)

// DecodeSurface expands one surface of img into 8-bit non-premultiplied RGBA.
func DecodeSurface(img *Image, s Surface) (*image.NRGBA, error) {
	if len(s.Data) < s.Length || s.Length != SurfaceSize(img.Format, s.Width, s.Height) {
		return nil, fmt.Errorf("surface level %d layer %d: %w", s.Level, s.Layer, ErrTruncated)
	}

	out := image.NewNRGBA(image.Rect(0, 0, int(s.Width), int(s.Height)))
	switch img.Format {
	case FormatBC1, FormatBC2, FormatBC3:
		decodeBlocks(out, img.Format, s.Data)
	case FormatLuminance, FormatRGB, FormatRGBA:
		decodeUncompressed(out, img.Format, img.Header.PixelFormat, s.Data)
	default:
		return nil, fmt.Errorf("cannot decompress %s", img.Format)
	}
	return out, nil
}

func decodeBlocks(out *image.NRGBA, f Format, data []byte) {
	w, h := out.Rect.Dx(), out.Rect.Dy()
	bw := (w + 3) / 4
	bs := f.BlockSize()

	var block [16]color.NRGBA
	for by := 0; by < (h+3)/4; by++ {
		for bx := 0; bx < bw; bx++ {
			b := data[(by*bw+bx)*bs:][:bs]
			switch f {
			case FormatBC1:
				decodeColorBlock(&block, b, true)
			case FormatBC2:
				decodeColorBlock(&block, b[8:], false)
				alpha := binary.LittleEndian.Uint64(b[:8])
				for i := range block {
					block[i].A = uint8((alpha>>(4*i))&0xf) * 17
				}
			case FormatBC3:
				decodeColorBlock(&block, b[8:], false)
				decodeAlphaBlock(&block, b[:8])
			}

			for py := range 4 {
				for px := range 4 {
					x, y := bx*4+px, by*4+py
					if x < w && y < h {
						out.SetNRGBA(x, y, block[py*4+px])
					}
				}
			}
		}
	}
}

// decodeColorBlock expands an 8-byte BC1 color block. Three-color mode with
// transparent black is only honoured for BC1 proper.
func decodeColorBlock(dst *[16]color.NRGBA, b []byte, allowAlpha bool) {
	c0 := binary.LittleEndian.Uint16(b[0:2])
	c1 := binary.LittleEndian.Uint16(b[2:4])
	idx := binary.LittleEndian.Uint32(b[4:8])

	var palette [4]color.NRGBA
	palette[0] = rgb565(c0)
	palette[1] = rgb565(c1)
	if c0 > c1 || !allowAlpha {
		palette[2] = lerp(palette[0], palette[1], 2, 1, 3)
		palette[3] = lerp(palette[0], palette[1], 1, 2, 3)
	} else {
		palette[2] = lerp(palette[0], palette[1], 1, 1, 2)
		palette[3] = color.NRGBA{}
	}

	for i := range dst {
		dst[i] = palette[(idx>>(2*i))&0x3]
	}
}

func decodeAlphaBlock(dst *[16]color.NRGBA, b []byte) {
	a0, a1 := uint32(b[0]), uint32(b[1])
	var alphas [8]uint8
	alphas[0], alphas[1] = uint8(a0), uint8(a1)
	if a0 > a1 {
		for i := uint32(1); i < 7; i++ {
			alphas[i+1] = uint8(((7-i)*a0 + i*a1) / 7)
		}
	} else {
		for i := uint32(1); i < 5; i++ {
			alphas[i+1] = uint8(((5-i)*a0 + i*a1) / 5)
		}
		alphas[6], alphas[7] = 0, 255
	}

	var packed uint64
	for i := 7; i >= 2; i-- {
		packed = packed<<8 | uint64(b[i])
	}
	for i := range dst {
		dst[i].A = alphas[(packed>>(3*i))&0x7]
	}
}

func rgb565(c uint16) color.NRGBA {
	r := uint8(c >> 11 & 0x1f)
	g := uint8(c >> 5 & 0x3f)
	b := uint8(c & 0x1f)
	return color.NRGBA{R: r<<3 | r>>2, G: g<<2 | g>>4, B: b<<3 | b>>2, A: 255}
}

func lerp(a, b color.NRGBA, wa, wb, div uint32) color.NRGBA {
	mix := func(x, y uint8) uint8 { return uint8((wa*uint32(x) + wb*uint32(y)) / div) }
	return color.NRGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}

func decodeUncompressed(out *image.NRGBA, f Format, pf PixelFormat, data []byte) {
	bpp := f.BytesPerPixel()
	rm, gm, bm, am := pf.RBitMask, pf.GBitMask, pf.BBitMask, pf.ABitMask
	if rm == 0 && gm == 0 && bm == 0 {
		// Masks absent: bytes are in R, G, B, A order.
		rm, gm, bm = 0xff, 0xff00, 0xff0000
		if f == FormatRGBA {
			am = 0xff000000
		}
	}

	w := out.Rect.Dx()
	for i := 0; i < len(data)/bpp && i < w*out.Rect.Dy(); i++ {
		var v uint32
		for k := bpp - 1; k >= 0; k-- {
			v = v<<8 | uint32(data[i*bpp+k])
		}

		var c color.NRGBA
		if f == FormatLuminance {
			l := channel(v, rm)
			c = color.NRGBA{R: l, G: l, B: l, A: 255}
		} else {
			c = color.NRGBA{R: channel(v, rm), G: channel(v, gm), B: channel(v, bm), A: 255}
			if am != 0 {
				c.A = channel(v, am)
			}
		}
		out.SetNRGBA(i%w, i/w, c)
	}
}

// channel extracts a masked field and rescales it to 8 bits.
func channel(v, mask uint32) uint8 {
	if mask == 0 {
		return 0
	}
	shift := bits.TrailingZeros32(mask)
	width := bits.OnesCount32(mask)
	x := (v & mask) >> shift
	if width >= 8 {
		return uint8(x >> (width - 8))
	}
	maxVal := uint32(1)<<width - 1
	return uint8(x * 255 / maxVal)
}
