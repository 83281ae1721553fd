package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/imgblend/internal/bench"
	"github.com/ironsheep/imgblend/internal/config"
	"github.com/ironsheep/imgblend/internal/fixture"
)

func newBenchCommand(ctx *commandContext) *cobra.Command {
	var (
		iterations  int
		concurrency int
		mode        string
		layers      int
		fixtures    string
		size        int
		seed        int64
		output      string
		format      string
		quality     int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure load/composite/encode throughput",
		Long: "Bench runs N independent pipelines through a bounded queue. Each pipeline\n" +
			"loads every layer, composites them bottom to top and encodes the result.\n" +
			"Wall time is measured from queue start until it drains.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			// copy so flag overrides do not leak into the shared config
			run := *cfg
			flags := cmd.Flags()
			if flags.Changed("iterations") {
				run.Bench.Iterations = iterations
			}
			if flags.Changed("concurrency") {
				run.Bench.Concurrency = concurrency
			}
			if flags.Changed("mode") {
				run.Bench.Mode = mode
			}
			if flags.Changed("layers") {
				run.Bench.Layers = layers
			}
			if flags.Changed("fixtures") {
				run.Bench.FixturesDir = fixtures
			}
			if flags.Changed("size") {
				run.Bench.FixtureSize = size
			}
			if flags.Changed("seed") {
				run.Bench.Seed = seed
			}
			if flags.Changed("output") {
				run.Bench.Output = output
			}
			if flags.Changed("format") {
				run.Encoding.Format = format
			}
			if flags.Changed("quality") {
				run.Encoding.JPEGQuality = quality
			}
			if err := run.Validate(); err != nil {
				return err
			}

			stack, err := loadLayers(run.Bench)
			if err != nil {
				return err
			}

			logger, err := ctx.loggerValue()
			if err != nil {
				return err
			}
			pool, err := ctx.poolValue()
			if err != nil {
				return err
			}

			res, runErr := bench.Run(cmd.Context(), bench.Options{
				Iterations:  run.Bench.Iterations,
				Concurrency: run.Bench.Concurrency,
				Mode:        run.Bench.Mode,
				Encoding:    run.Encoding.CodecOptions(),
				Pool:        pool,
				Logger:      logger,
			}, stack)
			if res != nil {
				if err := res.Render(cmd.OutOrStdout()); err != nil {
					return err
				}
				if run.Bench.Output != "" && res.FirstOutput != nil {
					if err := bench.WriteOutput(run.Bench.Output, res.FirstOutput); err != nil {
						return err
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "wrote first output to %s\n", run.Bench.Output)
				}
			}
			return runErr
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&iterations, "iterations", "n", 0, "Number of pipelines to run")
	flags.IntVar(&concurrency, "concurrency", 0, "Pipelines in flight at once")
	flags.StringVar(&mode, "mode", "", "Pipeline style: chain or blend")
	flags.IntVar(&layers, "layers", 0, "Layers per pipeline, including the base")
	flags.StringVar(&fixtures, "fixtures", "", "Directory of layer images (default: synthetic layers)")
	flags.IntVar(&size, "size", 0, "Edge length of synthetic layers in pixels")
	flags.Int64Var(&seed, "seed", 0, "Seed for synthetic layers")
	flags.StringVarP(&output, "output", "o", "", "Write the first pipeline's output to this file")
	flags.StringVar(&format, "format", "", "Output format for chain mode: png or jpeg")
	flags.IntVar(&quality, "quality", 0, "JPEG quality (1-100)")
	return cmd
}

func loadLayers(b config.Bench) ([][]byte, error) {
	if b.FixturesDir != "" {
		return fixture.FromDir(b.FixturesDir, b.Layers)
	}
	return fixture.Synthetic(fixture.Options{
		Width:  b.FixtureSize,
		Height: b.FixtureSize,
		Count:  b.Layers,
		Seed:   b.Seed,
	})
}
