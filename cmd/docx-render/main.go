// Package main provides the entry point of the docx-render service and CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deppfellow/docx-render/internal/server"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// newRootCmd creates the root command. Without a subcommand it serves HTTP.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docx-render",
		Short: "Merge JSON data into DOCX templates",
		Long: `docx-render merges JSON data into Word (.docx) templates.

Placeholders use Handlebars syntax: {{name}}, {{#items}}...{{/items}},
{{^empty}}...{{/empty}}. Run without a command to start the HTTP service.`,
		Version:       server.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newRenderCmd())

	return cmd
}
