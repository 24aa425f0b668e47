package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/smazurov/ddsmovie/pkg/dds"
)

// ProbeResult describes one DDS file.
type ProbeResult struct {
	Path     string        `json:"path"`
	Size     int           `json:"size"`
	Width    uint32        `json:"width,omitempty"`
	Height   uint32        `json:"height,omitempty"`
	Format   string        `json:"format,omitempty"`
	FourCC   string        `json:"fourcc,omitempty"`
	BitCount uint32        `json:"bit_count,omitempty"`
	MipCount int           `json:"mip_count,omitempty"`
	Cubemap  bool          `json:"cubemap,omitempty"`
	Surfaces []dds.Surface `json:"-"`
	Error    string        `json:"error,omitempty"`
	Code     string        `json:"code,omitempty"`
}

// Probe reads and decodes path. Decoder failures are reported in the result,
// only I/O failures are returned as errors.
func Probe(path string) (ProbeResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("read %s: %w", path, err)
	}

	res := ProbeResult{Path: path, Size: len(data)}
	img, err := dds.Decode(data)
	if err != nil {
		res.Error = err.Error()
		var de *dds.DecodeError
		if errors.As(err, &de) {
			res.Code = de.Code
		}
		return res, nil
	}

	res.Width = img.Width
	res.Height = img.Height
	res.Format = img.Format.String()
	res.FourCC = img.Header.PixelFormat.FourCCString()
	res.BitCount = img.Header.PixelFormat.RGBBitCount
	res.MipCount = img.MipCount
	res.Cubemap = img.Cubemap
	res.Surfaces = img.Surfaces
	return res, nil
}

// CreateProbeCmd creates the probe command.
func CreateProbeCmd() *cobra.Command {
	var asJSON bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "probe [file...]",
		Short: "Print DDS header information",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]ProbeResult, 0, len(args))
			failed := 0
			for _, path := range args {
				res, err := Probe(path)
				if err != nil {
					return err
				}
				if res.Error != "" {
					failed++
				}
				results = append(results, res)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				printProbe(out, results, verbose)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files could not be decoded", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List every surface")

	return cmd
}

func printProbe(out io.Writer, results []ProbeResult, verbose bool) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(tw, "%s\terror\t%s\n", r.Path, r.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%dx%d\t%s\tmips=%d\tcubemap=%t\t%d bytes\n",
			r.Path, r.Width, r.Height, r.Format, r.MipCount, r.Cubemap, r.Size)
		if !verbose {
			continue
		}
		for _, s := range r.Surfaces {
			layer := fmt.Sprint(s.Layer)
			if r.Cubemap {
				layer = dds.CubeFace(s.Layer).String()
			}
			fmt.Fprintf(tw, "\tlevel=%d\tlayer=%s\t%dx%d\toffset=%d\tlength=%d\n",
				s.Level, layer, s.Width, s.Height, s.Offset, s.Length)
		}
	}
	_ = tw.Flush()
}
