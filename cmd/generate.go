package cmd

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/image/draw"

	"github.com/smazurov/ddsmovie/pkg/dds"
)

// GenerateOptions describes a synthetic test movie.
type GenerateOptions struct {
	Frames    int
	Width     int
	Height    int
	Format    string
	Mips      bool
	Cubemap   bool
	Prefix    string
	Extension string
}

// CreateGenerateCmd creates the generate command.
func CreateGenerateCmd() *cobra.Command {
	opts := GenerateOptions{}

	cmd := &cobra.Command{
		Use:   "generate [directory]",
		Short: "Write a synthetic DDS movie",
		Long: `Writes a numbered sequence of DDS frames: a color gradient with a white bar sweeping ` +
			`from left to right, so playback direction and dropped frames are easy to see.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := Generate(args[0], opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d frames to %s\n", len(paths), args[0])
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.Frames, "frames", "n", 60, "Number of frames")
	cmd.Flags().IntVar(&opts.Width, "width", 256, "Frame width in pixels")
	cmd.Flags().IntVar(&opts.Height, "height", 256, "Frame height in pixels")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "bc1", "Pixel format (bc1, bc2, bc3, luminance, rgb, rgba)")
	cmd.Flags().BoolVar(&opts.Mips, "mips", false, "Write a full mip chain")
	cmd.Flags().BoolVar(&opts.Cubemap, "cubemap", false, "Write six cube faces per frame")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "frame", "File name prefix")
	cmd.Flags().StringVar(&opts.Extension, "ext", ".DDS", "File extension")

	return cmd
}

// Generate writes opts.Frames files into dir, creating it if needed, and
// returns their paths in playback order.
func Generate(dir string, opts GenerateOptions) ([]string, error) {
	format, err := dds.ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	if opts.Frames <= 0 {
		return nil, fmt.Errorf("frame count must be positive, got %d", opts.Frames)
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", opts.Width, opts.Height)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	spec := dds.EncodeSpec{
		Width:   uint32(opts.Width),
		Height:  uint32(opts.Height),
		Format:  format,
		Cubemap: opts.Cubemap,
	}
	if opts.Mips {
		spec.MipCount = dds.MaxLevels(spec.Width, spec.Height)
	}

	paths := make([]string, 0, opts.Frames)
	for i := range opts.Frames {
		payload, err := framePayload(spec, i, opts.Frames)
		if err != nil {
			return paths, fmt.Errorf("frame %d: %w", i, err)
		}

		var buf bytes.Buffer
		if err := dds.Encode(&buf, spec, payload); err != nil {
			return paths, fmt.Errorf("frame %d: %w", i, err)
		}

		path := filepath.Join(dir, fmt.Sprintf("%s%05d%s", opts.Prefix, i, opts.Extension))
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// framePayload builds every surface of one frame, mip-major.
func framePayload(spec dds.EncodeSpec, frame, total int) ([]byte, error) {
	levels := max(spec.MipCount, 1)
	faces := 1
	if spec.Cubemap {
		faces = dds.CubeFaces
	}

	base := make([]image.Image, faces)
	for face := range faces {
		base[face] = drawFrame(int(spec.Width), int(spec.Height), frame, total, face)
	}

	payload := make([]byte, 0, spec.PayloadSize())
	for level := range levels {
		w, h := dds.LevelSize(spec.Width, spec.Height, level)
		for face := range faces {
			src := base[face]
			if level > 0 {
				scaled := image.NewNRGBA(image.Rect(0, 0, int(w), int(h)))
				draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), src, src.Bounds(), draw.Src, nil)
				src = scaled
			}
			surface, err := dds.Compress(src, spec.Format)
			if err != nil {
				return nil, err
			}
			payload = append(payload, surface...)
		}
	}
	return payload, nil
}

// drawFrame paints a gradient tinted per face with a bar at the frame position.
func drawFrame(w, h, frame, total, face int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	blue := uint8(face * 255 / dds.CubeFaces)
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(w-1, 1)),
				G: uint8(y * 255 / max(h-1, 1)),
				B: blue,
				A: 255,
			})
		}
	}

	barWidth := max(w/16, 1)
	barX := frame * w / total
	bar := image.Rect(barX, 0, min(barX+barWidth, w), h)
	draw.Draw(img, bar, image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: 255}), image.Point{}, draw.Src)
	return img
}

