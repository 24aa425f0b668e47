package dds

import (
	"encoding/binary"
	"fmt"
)

// Container layout constants.
const (
	Magic      = "DDS "
	MagicSize  = 4
	HeaderSize = 124
	// DataOffset is where the payload starts in a container.
	DataOffset = MagicSize + HeaderSize

	// CapsCubemap is the caps2 bit marking a six-face cubemap.
	CapsCubemap uint32 = 0x200

	CubeFaces = 6
)

// Header flag bits written by Encode.
const (
	flagCaps        uint32 = 0x1
	flagHeight      uint32 = 0x2
	flagWidth       uint32 = 0x4
	flagPitch       uint32 = 0x8
	flagPixelFormat uint32 = 0x1000
	flagMipMapCount uint32 = 0x20000
	flagLinearSize  uint32 = 0x80000

	pfAlphaPixels uint32 = 0x1
	pfFourCC      uint32 = 0x4
	pfRGB         uint32 = 0x40
	pfLuminance   uint32 = 0x20000

	caps1Complex uint32 = 0x8
	caps1Texture uint32 = 0x1000
	caps1Mipmap  uint32 = 0x400000

	caps2AllFaces uint32 = 0xFC00
)

// PixelFormat is the 32-byte pixel format block embedded in the header.
type PixelFormat struct {
	Size        uint32
	Flags       uint32
	FourCC      uint32
	RGBBitCount uint32
	RBitMask    uint32
	GBitMask    uint32
	BBitMask    uint32
	ABitMask    uint32
}

// FourCCString renders the compression code as text, or "" when unset.
func (p PixelFormat) FourCCString() string {
	if p.FourCC == 0 {
		return ""
	}
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], p.FourCC)
	return string(b[:])
}

// Header is the fixed 124-byte structure following the magic tag.
type Header struct {
	Size              uint32
	Flags             uint32
	Height            uint32
	Width             uint32
	PitchOrLinearSize uint32
	Depth             uint32
	MipMapCount       uint32
	PixelFormat       PixelFormat
	Caps1             uint32
	Caps2             uint32
}

// Cubemap reports whether the capability bits mark a six-face cubemap.
func (h Header) Cubemap() bool {
	return h.Caps2&CapsCubemap != 0
}

// Levels returns the mip count, treating 0 as a single level.
func (h Header) Levels() int {
	if h.MipMapCount == 0 {
		return 1
	}
	return int(h.MipMapCount)
}

// ParseHeader validates the magic tag and reads the fixed header.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < MagicSize || string(data[:MagicSize]) != Magic {
		got := data
		if len(got) > MagicSize {
			got = got[:MagicSize]
		}
		return Header{}, newDecodeError(CodeBadMagic,
			fmt.Sprintf("file does not appear to be a DDS texture: %q", got), ErrBadMagic)
	}
	if len(data) < DataOffset {
		return Header{}, newDecodeError(CodeShortHeader,
			fmt.Sprintf("need %d header bytes, have %d", DataOffset, len(data)), ErrShortHeader)
	}

	b := data[MagicSize:DataOffset]
	u32 := func(off int) uint32 { return binary.LittleEndian.Uint32(b[off : off+4]) }

	return Header{
		Size:              u32(0),
		Flags:             u32(4),
		Height:            u32(8),
		Width:             u32(12),
		PitchOrLinearSize: u32(16),
		Depth:             u32(20),
		MipMapCount:       u32(24),
		PixelFormat: PixelFormat{
			Size:        u32(72),
			Flags:       u32(76),
			FourCC:      u32(80),
			RGBBitCount: u32(84),
			RBitMask:    u32(88),
			GBitMask:    u32(92),
			BBitMask:    u32(96),
			ABitMask:    u32(100),
		},
		Caps1: u32(104),
		Caps2: u32(108),
	}, nil
}

// marshal writes magic and header into a DataOffset-sized slice.
func (h Header) marshal() []byte {
	out := make([]byte, DataOffset)
	copy(out, Magic)
	b := out[MagicSize:]
	put := func(off int, v uint32) { binary.LittleEndian.PutUint32(b[off:off+4], v) }

	put(0, h.Size)
	put(4, h.Flags)
	put(8, h.Height)
	put(12, h.Width)
	put(16, h.PitchOrLinearSize)
	put(20, h.Depth)
	put(24, h.MipMapCount)
	put(72, h.PixelFormat.Size)
	put(76, h.PixelFormat.Flags)
	put(80, h.PixelFormat.FourCC)
	put(84, h.PixelFormat.RGBBitCount)
	put(88, h.PixelFormat.RBitMask)
	put(92, h.PixelFormat.GBitMask)
	put(96, h.PixelFormat.BBitMask)
	put(100, h.PixelFormat.ABitMask)
	put(104, h.Caps1)
	put(108, h.Caps2)
	return out
}
