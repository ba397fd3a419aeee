// Package cmd implements the chatmark CLI.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chatmark",
	Short: "Render chat/agent markdown streams as node trees",
	Long: `chatmark turns raw, possibly incomplete chat markdown into a tree of
render nodes - prose, math, reasoning blocks, code widgets, citations -
and paints it to the terminal.

Examples:
  chatmark render reply.md               # one-shot render
  cat reply.md | chatmark render         # from stdin
  chatmark render reply.md --sources s.yaml --cited
  chatmark watch reply.md                # live re-render as the file grows`,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

var flagWidth int

func init() {
	rootCmd.PersistentFlags().IntVar(&flagWidth, "width", 0, "Output width (0 = config default)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
