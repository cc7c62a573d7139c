package main

import (
	"github.com/spf13/cobra"

	"github.com/Eman-Sallam/ai-pipeline-editor/dag"
	"github.com/Eman-Sallam/ai-pipeline-editor/document"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var doc documentFlags
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that a pipeline document can be executed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := opts.printer()
			pl, err := document.LoadFile(doc.file, document.BuildOptions{Raw: doc.raw})
			if err != nil {
				p.fail("%v", err)
				return err
			}
			verdict := dag.ValidateGraph(pl.Nodes, pl.Edges)
			if !verdict.Valid {
				p.fail("%s", verdict.Error)
				return verdict.PipelineErr()
			}
			p.ok("Pipeline %q is valid: %d node(s), %d connection(s)", pl.Name, len(pl.Nodes), len(pl.Edges))
			return nil
		},
	}
	doc.register(cmd)
	return cmd
}
