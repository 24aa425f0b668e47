package dds

import "fmt"

// MaxDimension bounds width and height so size arithmetic cannot overflow.
const MaxDimension = 1 << 16

// Surface describes one mip level of one layer inside the container.
type Surface struct {
	Level  int
	Layer  int
	Width  uint32
	Height uint32
	// Offset is the position of the surface in the decoded buffer.
	Offset int
	Length int
	// Data aliases the decoded buffer; callers must not modify it.
	Data []byte
}

// Image is the decoded container: format, geometry and every surface in payload order.
type Image struct {
	Width    uint32
	Height   uint32
	Format   Format
	MipCount int
	Cubemap  bool
	Header   Header
	Surfaces []Surface
}

// Layers returns the number of layers per mip level.
func (img *Image) Layers() int {
	if img.Cubemap {
		return CubeFaces
	}
	return 1
}

// Surface returns the surface for a level and layer.
func (img *Image) Surface(level, layer int) (Surface, bool) {
	idx := level*img.Layers() + layer
	if level < 0 || layer < 0 || layer >= img.Layers() || idx >= len(img.Surfaces) {
		return Surface{}, false
	}
	return img.Surfaces[idx], true
}

// PayloadSize returns the total bytes used by all surfaces.
func (img *Image) PayloadSize() int {
	total := 0
	for _, s := range img.Surfaces {
		total += s.Length
	}
	return total
}

// Decode parses a complete container held in data.
// The returned surfaces alias data.
func Decode(data []byte) (*Image, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if h.Width == 0 || h.Height == 0 || h.Width > MaxDimension || h.Height > MaxDimension {
		return nil, newDecodeError(CodeInvalidDimensions,
			fmt.Sprintf("unsupported dimensions %dx%d", h.Width, h.Height), ErrInvalidDimensions)
	}

	format, err := formatFromPixelFormat(h.PixelFormat)
	if err != nil {
		return nil, err
	}

	levels := h.Levels()
	if limit := MaxLevels(h.Width, h.Height); levels > limit {
		return nil, newDecodeError(CodeInvalidMipCount,
			fmt.Sprintf("%d mip levels exceed the %d of a %dx%d chain", levels, limit, h.Width, h.Height), ErrInvalidMipCount)
	}
	layers := 1
	if h.Cubemap() {
		layers = CubeFaces
	}

	// Sum before slicing so a lying header cannot walk past the buffer.
	payload := 0
	for level := range levels {
		w, hh := LevelSize(h.Width, h.Height, level)
		payload += SurfaceSize(format, w, hh) * layers
		if payload > len(data)-DataOffset {
			return nil, newDecodeError(CodeTruncated,
				fmt.Sprintf("payload needs more than %d bytes at level %d", len(data)-DataOffset, level), ErrTruncated)
		}
	}

	img := &Image{
		Width:    h.Width,
		Height:   h.Height,
		Format:   format,
		MipCount: levels,
		Cubemap:  h.Cubemap(),
		Header:   h,
		Surfaces: make([]Surface, 0, levels*layers),
	}

	offset := DataOffset
	for level := range levels {
		w, hh := LevelSize(h.Width, h.Height, level)
		size := SurfaceSize(format, w, hh)
		for layer := range layers {
			img.Surfaces = append(img.Surfaces, Surface{
				Level:  level,
				Layer:  layer,
				Width:  w,
				Height: hh,
				Offset: offset,
				Length: size,
				Data:   data[offset : offset+size : offset+size],
			})
			offset += size
		}
	}

	return img, nil
}
