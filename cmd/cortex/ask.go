package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ritu11x/cortex-ai/internal/di"
)

var askUser string

func init() {
	askCmd.Flags().StringVarP(&askUser, "user", "u", "", "user id")
	_ = askCmd.MarkFlagRequired("user")
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the assistant about a user's stored collection",
	Long: `Ask the assistant a question. Unlike POST /api/chat, the context is
read from the store: the user's items in display order. The question is
read from the argument, or from stdin when the argument is "-" or missing.

Examples:
  cortex ask --user 6f1c... "what did I save about sleep?"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question, err := readContent(cmd, args)
		if err != nil {
			return err
		}
		return withContainer(func(ctx context.Context, c *di.Container) error {
			reply, err := c.Items.Chat(ctx, askUser, question)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), reply)
			return err
		})
	},
}
