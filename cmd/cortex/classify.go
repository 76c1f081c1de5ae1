package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ritu11x/cortex-ai/internal/di"
	"github.com/ritu11x/cortex-ai/internal/llm"
)

var (
	classifyTitle string
	classifyURL   string
)

func init() {
	classifyCmd.Flags().StringVar(&classifyTitle, "title", "", "title of the content")
	classifyCmd.Flags().StringVar(&classifyURL, "url", "", "source URL of the content")
}

var classifyCmd = &cobra.Command{
	Use:   "classify [content]",
	Short: "Summarise, tag and categorise content",
	Long: `Run the content classifier and print its result as JSON. Content
is read from the argument, or from stdin when the argument is "-" or
missing. Provider failures print the fallback classification.

Examples:
  cortex classify "Notes on Go generics"
  cat article.txt | cortex classify --url https://example.com/post`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := readContent(cmd, args)
		if err != nil {
			return err
		}
		return withContainer(func(ctx context.Context, c *di.Container) error {
			in := llm.Input{Title: classifyTitle, Content: content, URL: classifyURL}
			res, err := c.Classifier.Classify(ctx, in)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "classification failed, using fallback: %v\n", err)
				res = c.Classifier.Fallback(in)
			}
			return printJSON(cmd.OutOrStdout(), res)
		})
	},
}

func readContent(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read from stdin: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
