package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ritu11x/cortex-ai/internal/di"
	"github.com/ritu11x/cortex-ai/pkg/api"
)

var (
	graphUser   string
	graphLayout bool
)

func init() {
	graphCmd.Flags().StringVarP(&graphUser, "user", "u", "", "user id")
	graphCmd.Flags().BoolVar(&graphLayout, "layout", false, "compute node positions")
	_ = graphCmd.MarkFlagRequired("user")
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print a user's knowledge graph as JSON",
	Long: `Print a user's knowledge graph in the same shape as
GET /api/graph/{user_id}.

Examples:
  cortex graph --user 6f1c... --layout | jq '.stats'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(func(ctx context.Context, c *di.Container) error {
			res, err := c.Items.Graph(ctx, graphUser, graphLayout)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), api.GraphResponse{
				Nodes: res.Graph.Nodes,
				Edges: res.Graph.Edges,
				Force: res.Force,
				Stats: res.Stats,
			})
		})
	},
}
