package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newUsageCmd(b backend) *cobra.Command {
	usageCmd := &cobra.Command{
		Use:   "usage",
		Short: "Inspect or reset a user's demo usage counters",
	}

	var asJSON bool
	getCmd := &cobra.Command{
		Use:   "get <user-id>",
		Short: "Print used, limit and remaining per resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			usage, closeFn, err := b.openUsage(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			summary, err := usage.Summary(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("reading usage for %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}

			fmt.Fprintf(out, "user %s (demo mode: %t)\n", args[0], summary.DemoMode)
			for _, r := range summary.Resources {
				fmt.Fprintf(out, "  %-10s used %d of %d, %d remaining\n", r.Resource, r.Used, r.Limit, r.Remaining)
			}
			return nil
		},
	}
	getCmd.Flags().BoolVarP(&asJSON, "json", "j", false, "print the summary as JSON")

	resetCmd := &cobra.Command{
		Use:   "reset <user-id>",
		Short: "Set all demo usage counters to zero",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			usage, closeFn, err := b.openUsage(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if err := usage.ResetUsage(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("resetting usage for %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "usage reset for %s\n", args[0])
			return nil
		},
	}

	usageCmd.AddCommand(getCmd, resetCmd)
	return usageCmd
}
