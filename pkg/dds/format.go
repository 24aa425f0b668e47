package dds

import (
	"fmt"
	"math/bits"
)

// Format identifies the pixel layout of a decoded image.
type Format int

// Pixel formats.
const (
	FormatUnknown Format = iota
	FormatBC1            // DXT1
	FormatBC2            // DXT3
	FormatBC3            // DXT5
	FormatLuminance
	FormatRGB
	FormatRGBA
)

var formatNames = map[Format]string{
	FormatUnknown:   "unknown",
	FormatBC1:       "bc1",
	FormatBC2:       "bc2",
	FormatBC3:       "bc3",
	FormatLuminance: "luminance",
	FormatRGB:       "rgb",
	FormatRGBA:      "rgba",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// ParseFormat converts a format name as printed by String back to a Format.
func ParseFormat(name string) (Format, error) {
	for f, n := range formatNames {
		if n == name && f != FormatUnknown {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("unknown pixel format %q", name)
}

// Compressed reports whether f is a block-compressed format.
func (f Format) Compressed() bool {
	return f == FormatBC1 || f == FormatBC2 || f == FormatBC3
}

// BlockSize returns the size in bytes of one 4x4 block, or 0 for uncompressed formats.
func (f Format) BlockSize() int {
	switch f {
	case FormatBC1:
		return 8
	case FormatBC2, FormatBC3:
		return 16
	default:
		return 0
	}
}

// BytesPerPixel returns the pixel stride of uncompressed formats, or 0 for compressed ones.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatLuminance:
		return 1
	case FormatRGB:
		return 3
	case FormatRGBA:
		return 4
	default:
		return 0
	}
}

// FourCC codes recognised as block-compressed.
const (
	FourCCDXT1 uint32 = 0x31545844
	FourCCDXT3 uint32 = 0x33545844
	FourCCDXT5 uint32 = 0x35545844
)

// formatFromPixelFormat picks the layout from the header's pixel format block.
// Any FourCC other than the three DXT codes is treated as uncompressed and the
// RGB bit count decides.
func formatFromPixelFormat(pf PixelFormat) (Format, error) {
	switch pf.FourCC {
	case FourCCDXT1:
		return FormatBC1, nil
	case FourCCDXT3:
		return FormatBC2, nil
	case FourCCDXT5:
		return FormatBC3, nil
	}

	switch pf.RGBBitCount {
	case 8:
		return FormatLuminance, nil
	case 24:
		return FormatRGB, nil
	case 32:
		return FormatRGBA, nil
	default:
		return FormatUnknown, newDecodeError(CodeUnknownPixelFormat,
			fmt.Sprintf("could not determine pixel format (fourcc=%#08x, bits=%d)", pf.FourCC, pf.RGBBitCount),
			ErrUnknownPixelFormat)
	}
}

// CubeFace names a cubemap layer.
type CubeFace int

// Cubemap faces in payload order.
const (
	FacePositiveX CubeFace = iota
	FaceNegativeX
	FacePositiveY
	FaceNegativeY
	FacePositiveZ
	FaceNegativeZ
)

func (c CubeFace) String() string {
	switch c {
	case FacePositiveX:
		return "+x"
	case FaceNegativeX:
		return "-x"
	case FacePositiveY:
		return "+y"
	case FaceNegativeY:
		return "-y"
	case FacePositiveZ:
		return "+z"
	case FaceNegativeZ:
		return "-z"
	default:
		return fmt.Sprintf("face(%d)", int(c))
	}
}

// LevelSize returns the dimensions of mip level i: the base dimensions shifted
// right i times, floored at 1 on each axis.
func LevelSize(width, height uint32, level int) (uint32, uint32) {
	switch {
	case level <= 0:
		return max(1, width), max(1, height)
	case level >= 32:
		return 1, 1
	}
	return max(1, width>>level), max(1, height>>level)
}

// MaxLevels returns the length of a full mip chain down to 1x1.
func MaxLevels(width, height uint32) int {
	return max(1, bits.Len32(max(width, height)))
}

// SurfaceSize returns the byte size of one surface of the given dimensions.
func SurfaceSize(f Format, width, height uint32) int {
	w, h := uint64(width), uint64(height)
	if f.Compressed() {
		return int((w+3)/4*((h+3)/4)) * f.BlockSize()
	}
	return int(w*h) * f.BytesPerPixel()
}
