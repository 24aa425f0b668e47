// Package dds decodes DirectDraw Surface texture containers into upload-ready
// surface descriptors.
//
// Decoding is a pure function over an in-memory buffer. It never touches a
// graphics API: the result lists every mip level and cubemap face together with
// its byte range so a backend can upload level by level.
//
//	img, err := dds.Decode(data)
//	if err != nil {
//		var derr *dds.DecodeError
//		if errors.As(err, &derr) && errors.Is(err, dds.ErrBadMagic) {
//			// not a DDS file
//		}
//		return err
//	}
//	for _, s := range img.Surfaces {
//		upload(img.Format, s.Level, s.Layer, s.Width, s.Height, s.Data)
//	}
//
// # Supported layouts
//
//	FourCC DXT1  BC1, 8-byte 4x4 blocks
//	FourCC DXT3  BC2, 16-byte 4x4 blocks
//	FourCC DXT5  BC3, 16-byte 4x4 blocks
//	8-bit        luminance
//	24-bit       RGB
//	32-bit       RGBA
//
// Payload is laid out mip-major, face-minor. Cubemaps (caps2 bit 0x200) carry
// six faces per level in the order +X, -X, +Y, -Y, +Z, -Z.
//
// The package also contains an encoder for synthesising containers and a
// software decompressor producing image.NRGBA for headless backends.
package dds
