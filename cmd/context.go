// context.go implements "studio context <node-id>": inspect the assembled
// design context for a node from the command line.
//
// Terminal output gets glamour markdown rendering; pipe/redirect gets the
// raw text so output can feed other tools.

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/blueprintlab/studio/internal/tree"
)

func newContextCmd() *cobra.Command {
	var raw bool
	c := &cobra.Command{
		Use:   "context <node-id>",
		Short: "Show the assembled design context for a node",
		Long: `Assemble and print the design context for a node: the ancestor chain as
background, then the node and its descendants with their design documents
rendered as readable text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContext(cmd, args[0], raw)
		},
	}
	c.Flags().BoolVar(&raw, "raw", false, "Output raw text without rendering")
	return c
}

func runContext(cmd *cobra.Command, nodeID string, raw bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg, nil)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Init(); err != nil {
		return err
	}

	ctx := context.Background()
	trees, err := tree.New(ctx, st, nil)
	if err != nil {
		return err
	}
	detail, err := trees.Detail(ctx, nodeID)
	if err != nil {
		return err
	}

	var b strings.Builder
	writeEntries(&b, "Background", detail.Context)
	writeEntries(&b, "Content to develop", detail.ContentToDevelop)

	if !raw && term.IsTerminal(int(os.Stdout.Fd())) {
		if rendered, renderErr := glamour.Render(b.String(), "dark"); renderErr == nil {
			fmt.Fprint(cmd.OutOrStdout(), rendered)
			return nil
		}
	}
	fmt.Fprint(cmd.OutOrStdout(), b.String())
	return nil
}

func writeEntries(b *strings.Builder, title string, entries []tree.ContextEntry) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(b, "# %s\n\n", title)
	for _, e := range entries {
		fmt.Fprintf(b, "## %s (%s)\n\n", e.Node.Name, e.Node.NodeType)
		if e.Node.Description != "" {
			fmt.Fprintf(b, "%s\n\n", e.Node.Description)
		}
		if e.DocumentText != nil && *e.DocumentText != "" {
			fmt.Fprintf(b, "%s\n\n", *e.DocumentText)
		}
	}
}
