package dds

import (
	"fmt"
	"io"
)

// EncodeSpec describes a container to write.
type EncodeSpec struct {
	Width    uint32
	Height   uint32
	Format   Format
	MipCount int
	Cubemap  bool
}

func (s EncodeSpec) levels() int {
	if s.MipCount <= 0 {
		return 1
	}
	return s.MipCount
}

// PayloadSize returns the number of payload bytes the spec requires.
func (s EncodeSpec) PayloadSize() int {
	layers := 1
	if s.Cubemap {
		layers = CubeFaces
	}
	total := 0
	for level := range s.levels() {
		w, h := LevelSize(s.Width, s.Height, level)
		total += SurfaceSize(s.Format, w, h) * layers
	}
	return total
}

// Header builds the container header for the spec.
func (s EncodeSpec) Header() (Header, error) {
	if s.Width == 0 || s.Height == 0 || s.Width > MaxDimension || s.Height > MaxDimension {
		return Header{}, fmt.Errorf("unsupported dimensions %dx%d", s.Width, s.Height)
	}
	if limit := MaxLevels(s.Width, s.Height); s.MipCount > limit {
		return Header{}, fmt.Errorf("mip count %d exceeds %d for %dx%d", s.MipCount, limit, s.Width, s.Height)
	}

	h := Header{
		Size:   HeaderSize,
		Flags:  flagCaps | flagHeight | flagWidth | flagPixelFormat,
		Height: s.Height,
		Width:  s.Width,
		Caps1:  caps1Texture,
		PixelFormat: PixelFormat{
			Size: 32,
		},
	}

	if s.MipCount > 1 {
		h.Flags |= flagMipMapCount
		h.MipMapCount = uint32(s.MipCount)
		h.Caps1 |= caps1Complex | caps1Mipmap
	}
	if s.Cubemap {
		h.Caps1 |= caps1Complex
		h.Caps2 = CapsCubemap | caps2AllFaces
	}

	pf := &h.PixelFormat
	switch s.Format {
	case FormatBC1, FormatBC2, FormatBC3:
		pf.Flags = pfFourCC
		pf.FourCC = map[Format]uint32{FormatBC1: FourCCDXT1, FormatBC2: FourCCDXT3, FormatBC3: FourCCDXT5}[s.Format]
		h.Flags |= flagLinearSize
		h.PitchOrLinearSize = uint32(SurfaceSize(s.Format, s.Width, s.Height))
	case FormatLuminance:
		pf.Flags = pfLuminance
		pf.RGBBitCount = 8
		pf.RBitMask = 0xff
	case FormatRGB:
		pf.Flags = pfRGB
		pf.RGBBitCount = 24
		pf.RBitMask, pf.GBitMask, pf.BBitMask = 0xff, 0xff00, 0xff0000
	case FormatRGBA:
		pf.Flags = pfRGB | pfAlphaPixels
		pf.RGBBitCount = 32
		pf.RBitMask, pf.GBitMask, pf.BBitMask, pf.ABitMask = 0xff, 0xff00, 0xff0000, 0xff000000
	default:
		return Header{}, fmt.Errorf("cannot encode format %s", s.Format)
	}
	if !s.Format.Compressed() {
		h.Flags |= flagPitch
		h.PitchOrLinearSize = s.Width * uint32(s.Format.BytesPerPixel())
	}

	return h, nil
}

// Encode writes magic, header and payload. The payload must be laid out
// mip-major, face-minor and match spec.PayloadSize exactly.
func Encode(w io.Writer, spec EncodeSpec, payload []byte) error {
	h, err := spec.Header()
	if err != nil {
		return err
	}
	if want := spec.PayloadSize(); len(payload) != want {
		return fmt.Errorf("payload is %d bytes, %dx%d %s with %d levels needs %d",
			len(payload), spec.Width, spec.Height, spec.Format, spec.levels(), want)
	}

	if _, err := w.Write(h.marshal()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	return nil
}
