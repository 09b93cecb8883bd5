package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/draftmark/draftmark/internal/engine/node"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Summarize a serialized draft",
	Long: `Read a serialized draft (a JSON node array) from the given file, or
stdin when no file is given, and print a summary: node counts, the
flattened text, and the citation table.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 && args[0] != "-" {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("read draft: %w", err)
	}

	nodes, err := node.UnmarshalNodes(data)
	if err != nil {
		return err
	}
	nodes = node.Normalize(nodes)

	var (
		runs    int
		markers []node.CitationMarker
		text    string
	)
	for _, n := range nodes {
		text += n.Flatten()
		switch v := n.(type) {
		case node.TextRun:
			runs++
		case node.CitationMarker:
			markers = append(markers, v)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "nodes: %d (%d text runs, %d citation markers)\n", len(nodes), runs, len(markers))
	fmt.Fprintf(out, "length: %d bytes\n\n", len(text))
	fmt.Fprintf(out, "%s\n", text)

	if len(markers) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNUM\tDOCUMENT\tPAGE\tSNIPPET")
	for _, m := range markers {
		page := "-"
		if m.Page != nil {
			page = fmt.Sprintf("%d", *m.Page)
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", m.ID, m.CitationNumber, m.DocumentID, page, truncate(m.Snippet, 48))
	}
	return w.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
