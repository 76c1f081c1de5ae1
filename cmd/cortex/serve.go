package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ritu11x/cortex-ai/internal/di"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API until interrupted.

Examples:
  cortex serve
  PORT=8080 STORE_DRIVER=sqlite cortex serve --env development`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(func(ctx context.Context, c *di.Container) error {
			watcher, err := di.WatchConfig(c, newLoader())
			if err != nil {
				c.Logger.Warn("config watcher disabled", zap.Error(err))
			} else {
				defer watcher.Stop()
			}
			return di.Serve(ctx, c)
		})
	},
}
