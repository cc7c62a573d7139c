package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Eman-Sallam/ai-pipeline-editor/dag"
	"github.com/Eman-Sallam/ai-pipeline-editor/document"
)

func newOrderCmd(opts *rootOptions) *cobra.Command {
	var doc documentFlags
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Print the order stages would run in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pl, err := document.LoadFile(doc.file, document.BuildOptions{Raw: doc.raw})
			if err != nil {
				return err
			}
			byID := make(map[string]dag.Node, len(pl.Nodes))
			for _, n := range pl.Nodes {
				byID[n.ID] = n
			}
			order := dag.TopologicalSort(pl.Nodes, pl.Edges)
			rows := make([][]string, len(order))
			for i, id := range order {
				n := byID[id]
				rows[i] = []string{strconv.Itoa(i + 1), id, n.Label, n.Type}
			}
			opts.printer().table([]string{"#", "ID", "LABEL", "TYPE"}, rows)
			return nil
		},
	}
	doc.register(cmd)
	return cmd
}
