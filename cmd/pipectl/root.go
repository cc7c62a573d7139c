package main

import (
	"io"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
	envFile    string
	logLevel   string
	noColor    bool
	out        io.Writer
}

func (o *rootOptions) printer() *printer {
	return newPrinter(o.out, o.noColor)
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{out: out}

	cmd := &cobra.Command{
		Use:   "pipectl",
		Short: "Build, check and run linear data pipelines",
		Long: `pipectl works with pipeline documents: YAML files listing stages and the
connections between them. Every stage has at most one input and one output,
so a valid pipeline is a single chain.

Examples:
  # Check a pipeline
  pipectl validate -f churn.yaml

  # Run it, streaming events to http://localhost:8001/api/events
  pipectl run -f churn.yaml --events-addr :8001

  # Serve the stage catalog
  pipectl catalog serve --addr :8000`,
		SilenceUsage: true,
	}
	cmd.SetOut(out)

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default: search ./config.yml and friends)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", ".env file to load")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(
		newValidateCmd(opts),
		newOrderCmd(opts),
		newRunCmd(opts),
		newCatalogCmd(opts),
		newVersionCmd(opts),
	)
	return cmd
}

// documentFlags are shared by commands that read a pipeline document.
type documentFlags struct {
	file string
	raw  bool
}

func (f *documentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "pipeline document (YAML)")
	cmd.Flags().BoolVar(&f.raw, "raw", false, "keep edges that break the connection rules")
	_ = cmd.MarkFlagRequired("file")
}
