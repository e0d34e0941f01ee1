package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newTemplatesCmd(a *app) *cobra.Command {
	var show string

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List poem templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := a.library()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if show != "" {
				tmpl, err := lib.Resolve(show)
				if err != nil {
					return err
				}
				data, err := json.MarshalIndent(tmpl, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			for _, name := range lib.Names() {
				tmpl, err := lib.Get(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-12s %2d lines\n", name, len(tmpl))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&show, "show", "", "print one template as JSON")
	return cmd
}
