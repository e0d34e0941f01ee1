package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	a := &app{}
	root := newRootCmd(a)
	err := root.Execute()
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "prosaic",
		Short: "Compose poems from phrases of prose",
		Long: `prosaic segments prose into annotated phrases and assembles poems by
picking, for each line of a template, a phrase that satisfies the line's
rules: syllable count, keyword, fuzzy keyword, alliteration and rhyme.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $PROSAIC_HOME/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newCorpusCmd(a),
		newIngestCmd(a),
		newGenerateCmd(a),
		newTemplatesCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
		newCallCmd(a),
		newVersionCmd(),
	)
	return root
}
