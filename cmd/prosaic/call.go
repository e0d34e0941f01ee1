package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alucardeht/prosaic/internal/daemon"
)

func newCallCmd(a *app) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "call [TOOL [JSON]]",
		Short: "Call a tool on the running daemon",
		Long:  `Call a tool on the running daemon. Without a tool name, list the daemon's tools.`,
		Example: `  prosaic call
  prosaic call generate_poem '{"corpus": "dickens", "template": "haiku", "seed": 3}'`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			client, err := daemon.Dial(ctx, a.cfg.SocketPath)
			if err != nil {
				return fmt.Errorf("%w (is \"prosaic serve\" running?)", err)
			}
			defer client.Close()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				tools, err := client.ListTools(ctx)
				if err != nil {
					return err
				}
				for _, t := range tools {
					fmt.Fprintf(out, "%-16s %s\n", t.Name, t.Title)
				}
				return nil
			}

			var input json.RawMessage
			if len(args) == 2 {
				if !json.Valid([]byte(args[1])) {
					return fmt.Errorf("arguments are not valid JSON")
				}
				input = json.RawMessage(args[1])
			}

			text, err := client.CallTool(ctx, args[0], input)
			if err != nil {
				return err
			}

			var pretty bytes.Buffer
			if err := json.Indent(&pretty, []byte(text), "", "  "); err != nil {
				fmt.Fprintln(out, text)
				return nil
			}
			fmt.Fprintln(out, pretty.String())
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "call timeout")
	return cmd
}
