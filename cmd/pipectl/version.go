package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Eman-Sallam/ai-pipeline-editor/version"
)

func newVersionCmd(opts *rootOptions) *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info := version.Get()
			if short {
				fmt.Fprintln(opts.out, info.Short())
				return
			}
			fmt.Fprintf(opts.out, "pipectl %s\n", info)
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print only the version")
	return cmd
}
