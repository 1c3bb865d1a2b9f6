package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-relay/internal/history"
)

func newHistoryCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "history <name> <name>",
		Short: "Print the conversation between two participants",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, closeLogs, err := openHistory(ctx, cfg, newLogger("warn"))
			if err != nil {
				return err
			}
			defer closeLogs()

			out := cmd.OutOrStdout()
			for line, err := range store.Transcript(ctx, history.CanonicalKey(args[0], args[1])) {
				if err != nil {
					return err
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}
