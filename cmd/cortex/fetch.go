package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ritu11x/cortex-ai/internal/di"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Print the link preview of a page",
	Long: `Fetch a page and print its title, description, image and detected
platform as JSON, exactly as POST /api/fetch-url returns them.

Examples:
  cortex fetch https://www.youtube.com/watch?v=dQw4w9WgXcQ`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(func(ctx context.Context, c *di.Container) error {
			meta, err := c.Fetcher.FetchOrFallback(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), meta)
		})
	},
}
