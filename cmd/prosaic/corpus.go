package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alucardeht/prosaic/internal/render"
)

func newCorpusCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Manage phrase corpora",
	}

	var description string
	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Create an empty corpus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			c, err := s.CreateCorpus(cmd.Context(), args[0], description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created corpus %s (%s)\n", c.Name, c.ID)
			return nil
		},
	}
	create.Flags().StringVarP(&description, "description", "d", "", "corpus description")

	list := &cobra.Command{
		Use:   "list",
		Short: "List corpora",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			corpora, err := s.ListCorpora(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), render.Corpora(corpora, render.DefaultStyles()))
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a corpus and the sources only it uses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			if err := s.DeleteCorpus(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted corpus %s\n", args[0])
			return nil
		},
	}

	stats := &cobra.Command{
		Use:   "stats NAME",
		Short: "Show phrase counts of a corpus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			st, err := s.CorpusStats(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), render.Stats(st, render.DefaultStyles()))
			return nil
		},
	}

	cmd.AddCommand(create, list, del, stats)
	return cmd
}
