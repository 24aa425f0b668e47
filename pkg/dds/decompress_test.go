package dds

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func roundTripSurface(t *testing.T, src image.Image, f Format) *image.NRGBA {
	t.Helper()
	b := src.Bounds()
	payload, err := Compress(src, f)
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, EncodeSpec{Width: uint32(b.Dx()), Height: uint32(b.Dy()), Format: f}, payload); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	img, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	out, err := DecodeSurface(img, img.Surfaces[0])
	if err != nil {
		t.Fatalf("DecodeSurface() error = %v", err)
	}
	return out
}

func TestSolidBlocksRoundTrip(t *testing.T) {
	// Colors exactly representable in RGB565.
	c := color.NRGBA{R: 255, G: 0, B: 255, A: 255}

	for _, f := range []Format{FormatBC1, FormatBC2, FormatBC3, FormatRGB, FormatRGBA} {
		t.Run(f.String(), func(t *testing.T) {
			out := roundTripSurface(t, solidImage(6, 5, c), f)
			if out.Rect.Dx() != 6 || out.Rect.Dy() != 5 {
				t.Fatalf("size = %v", out.Rect)
			}
			for y := range 5 {
				for x := range 6 {
					if got := out.NRGBAAt(x, y); got != c {
						t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, c)
					}
				}
			}
		})
	}
}

func TestTwoColorBC1Block(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	black := color.NRGBA{A: 255}
	for y := range 4 {
		for x := range 4 {
			if x < 2 {
				src.SetNRGBA(x, y, white)
			} else {
				src.SetNRGBA(x, y, black)
			}
		}
	}

	out := roundTripSurface(t, src, FormatBC1)
	if got := out.NRGBAAt(0, 0); got != white {
		t.Errorf("left pixel = %v, want white", got)
	}
	if got := out.NRGBAAt(3, 3); got != black {
		t.Errorf("right pixel = %v, want black", got)
	}
}

func TestBC3AlphaEndpoints(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range 16 {
		a := uint8(0)
		if i%2 == 1 {
			a = 255
		}
		src.SetNRGBA(i%4, i/4, color.NRGBA{R: 255, A: a})
	}

	out := roundTripSurface(t, src, FormatBC3)
	if got := out.NRGBAAt(0, 0).A; got != 0 {
		t.Errorf("alpha at 0 = %d, want 0", got)
	}
	if got := out.NRGBAAt(1, 0).A; got != 255 {
		t.Errorf("alpha at 1 = %d, want 255", got)
	}
}

func TestLuminanceUsesMask(t *testing.T) {
	out := roundTripSurface(t, solidImage(2, 2, color.NRGBA{R: 100, G: 100, B: 100, A: 255}), FormatLuminance)
	if got := out.NRGBAAt(1, 1); got.R != 100 || got.G != 100 || got.B != 100 || got.A != 255 {
		t.Errorf("pixel = %v, want gray 100", got)
	}
}

func TestChannel(t *testing.T) {
	tests := []struct {
		v, mask uint32
		want    uint8
	}{
		{0x0000ff00, 0x0000ff00, 255},
		{0x00000010, 0x0000001f, 0x10 * 255 / 31},
		{0xffffffff, 0, 0},
		{0x0000f800, 0x0000f800, 255},
	}
	for _, tt := range tests {
		if got := channel(tt.v, tt.mask); got != tt.want {
			t.Errorf("channel(%#x, %#x) = %d, want %d", tt.v, tt.mask, got, tt.want)
		}
	}
}
