package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ritu11x/cortex-ai/internal/di"
)

var (
	exportUser   string
	exportName   string
	exportOutDir string
)

func init() {
	exportCmd.Flags().StringVarP(&exportUser, "user", "u", "", "user id whose items are exported")
	exportCmd.Flags().StringVar(&exportName, "name", "", "name printed in each page header")
	exportCmd.Flags().StringVarP(&exportOutDir, "out", "o", ".", "output directory")
	_ = exportCmd.MarkFlagRequired("user")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a user's collection to a PDF report",
	Long: `Write a user's collection to a PDF report named
cortex-export-<date>.pdf in the output directory.

Examples:
  cortex export --user 6f1c... --name "Ada" --out ./reports`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(func(ctx context.Context, c *di.Container) error {
			tmp, err := os.CreateTemp(exportOutDir, "cortex-export-*.pdf.tmp")
			if err != nil {
				return fmt.Errorf("failed to create output: %w", err)
			}
			defer os.Remove(tmp.Name())

			filename, err := c.Items.Export(ctx, exportUser, exportName, tmp)
			if cerr := tmp.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}

			target := filepath.Join(exportOutDir, filename)
			if err := os.Rename(tmp.Name(), target); err != nil {
				return fmt.Errorf("failed to write %s: %w", target, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), target)
			return nil
		})
	},
}
