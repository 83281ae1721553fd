package main

import (
	"github.com/spf13/cobra"

	"github.com/ironsheep/imgblend/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the compositing tools over MCP on stdin/stdout",
		Long: "Serve the compositing tools as an MCP server. Requests are read from stdin\n" +
			"and responses written to stdout, so logs always go to stderr.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()

			logger, err := ctx.loggerValue()
			if err != nil {
				return err
			}
			pool, err := ctx.poolValue()
			if err != nil {
				return err
			}

			server.Version = Version
			srv := server.New(
				server.WithLogger(logger),
				server.WithPool(pool),
				server.WithEncoding(ctx.config.Encoding.CodecOptions()),
			)
			logger.Info("mcp server starting", "version", Version, "codec_workers", pool.Workers())
			return srv.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
