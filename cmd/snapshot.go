package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smazurov/ddsmovie/internal/render"
	"github.com/smazurov/ddsmovie/pkg/dds"
)

// CreateSnapshotCmd creates the snapshot command.
func CreateSnapshotCmd() *cobra.Command {
	var output string
	var maxWidth int
	var quality int

	cmd := &cobra.Command{
		Use:   "snapshot [file]",
		Short: "Convert the first surface of a DDS file to PNG or JPEG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = strings.TrimSuffix(args[0], ".DDS") + ".png"
			}
			format := snapshotFormat(output)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			img, err := dds.Decode(data)
			if err != nil {
				return err
			}

			backend := render.NewSoftware()
			if err := backend.Upload(img); err != nil {
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := backend.Snapshot(f, format, maxWidth, quality); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s, %dx%d %s)\n", output, format, img.Width, img.Height, img.Format)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file; .jpg or .jpeg selects JPEG")
	cmd.Flags().IntVar(&maxWidth, "max-width", 0, "Scale down to this width")
	cmd.Flags().IntVar(&quality, "quality", 85, "JPEG quality")

	return cmd
}

func snapshotFormat(path string) render.SnapshotFormat {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg") {
		return render.SnapshotJPEG
	}
	return render.SnapshotPNG
}
