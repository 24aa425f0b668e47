package cmd

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/smazurov/ddsmovie/internal/frameindex"
)

// CreateIndexCmd creates the index command.
func CreateIndexCmd() *cobra.Command {
	var ext string
	var probe bool
	var frameRate float64

	cmd := &cobra.Command{
		Use:   "index [directory]",
		Short: "List the frames of a movie in playback order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := frameindex.Scan(args[0], ext)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for i, path := range paths {
				line := fmt.Sprintf("%d\t%s", i, filepath.Base(path))
				if probe {
					res, err := Probe(path)
					switch {
					case err != nil:
						line += "\t" + err.Error()
					case res.Error != "":
						line += "\t" + res.Code
					default:
						line += fmt.Sprintf("\t%dx%d\t%s", res.Width, res.Height, res.Format)
					}
				}
				fmt.Fprintln(tw, line)
			}
			_ = tw.Flush()

			duration := 0.0
			if frameRate > 0 {
				duration = float64(len(paths)) / frameRate
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d frames, %.3fs at %.3f fps\n", len(paths), duration, frameRate)
			return nil
		},
	}

	cmd.Flags().StringVarP(&ext, "ext", "e", ".DDS", "Frame file extension (case-sensitive)")
	cmd.Flags().BoolVar(&probe, "probe", false, "Decode each frame header")
	cmd.Flags().Float64Var(&frameRate, "frame-rate", 29.97, "Frame rate used for the duration")

	return cmd
}
