package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/draftmark/draftmark/internal/engine/node"
	"github.com/draftmark/draftmark/internal/sanitize"
)

var sanitizeMarkdown bool

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize",
	Short: "Sanitize pasted markup into a node array",
	Long: `Read untrusted HTML (or Markdown with --markdown) on stdin and write
the sanitized node array to stdout as JSON. Disallowed elements are
dropped; citation tokens produced by draftmark's own copy operation
are restored as marker nodes.`,
	RunE: runSanitize,
}

func init() {
	sanitizeCmd.Flags().BoolVar(&sanitizeMarkdown, "markdown", false, "treat input as Markdown")
	rootCmd.AddCommand(sanitizeCmd)
}

func runSanitize(cmd *cobra.Command, _ []string) error {
	src, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	var res sanitize.Result
	if sanitizeMarkdown {
		res = sanitize.SanitizeMarkdown(string(src))
	} else {
		res = sanitize.Sanitize(string(src))
	}

	if res.Degraded {
		fmt.Fprintln(os.Stderr, "warning: input was unparseable, degraded to plain text")
	}
	if res.Dropped > 0 {
		fmt.Fprintf(os.Stderr, "warning: dropped %d disallowed element(s)\n", res.Dropped)
	}

	out, err := node.MarshalNodes(res.Nodes)
	if err != nil {
		return err
	}
	cmd.Println(string(out))
	return nil
}
