package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ironsheep/imgblend/internal/raster"
)

func newBlendCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "blend BASE [LAYER...]",
		Short: "Blend image files bottom to top into a PNG",
		Long: "Blend decodes every file, composites them bottom to top at the origin of\n" +
			"BASE and writes the result as PNG. Use -o - to write to stdout.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()

			buffers := make([][]byte, len(args))
			for i, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read layer %d: %w", i, err)
				}
				buffers[i] = data
			}

			opts, err := ctx.rasterOptions()
			if err != nil {
				return err
			}
			data, err := raster.Blend(cmd.Context(), buffers, opts...)
			if err != nil {
				return err
			}

			if output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%s, %d layers)\n", output, humanize.Bytes(uint64(len(data))), len(buffers))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "blend.png", "Output file, or - for stdout")
	return cmd
}
