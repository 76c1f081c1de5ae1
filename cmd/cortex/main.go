// Command cortex runs the Cortex API and offers offline access to the
// collection: PDF export, graph dumps, classification, questions and link
// previews.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ritu11x/cortex-ai/internal/config"
	"github.com/ritu11x/cortex-ai/internal/di"
)

var (
	configDir   string
	environment string
	version     = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cortex",
	Short: "Cortex knowledge base server and tools",
	Long: `cortex serves the Cortex HTTP API and exposes its building blocks
on the command line.

Configuration is read from the config directory (base.yaml, <env>.yaml,
local.yaml) and then from environment variables.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", config.Dir(), "configuration directory")
	rootCmd.PersistentFlags().StringVar(&environment, "env", string(config.EnvironmentFromEnv()), "environment (development, staging, production, test)")
	rootCmd.AddCommand(serveCmd, exportCmd, graphCmd, classifyCmd, fetchCmd, askCmd)
}

func newLoader() *config.Loader {
	return config.NewLoader(configDir, config.Environment(environment))
}

// withContainer loads configuration, wires the application and runs fn
// with a context cancelled on SIGINT or SIGTERM.
func withContainer(fn func(ctx context.Context, c *di.Container) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := newLoader().Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	c, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer cleanup()
	return fn(ctx, c)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
