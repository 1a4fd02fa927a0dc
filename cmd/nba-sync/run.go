package main

import (
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var rawDate string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one sync pass up to --date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			currentDate, err := parseRunDate(rawDate, time.Now())
			if err != nil {
				return fmt.Errorf("%w: %w", errUsage, err)
			}

			rt, cleanup, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			report, syncErr := rt.Orchestrator.Sync(cmd.Context(), currentDate)
			if opts.jsonOut {
				out, err := sonic.ConfigDefault.MarshalIndent(report, "", "  ")
				if err != nil {
					return fmt.Errorf("encode report: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), report.Summary())
				if report.Reason != "" && report.Succeeded() {
					fmt.Fprintln(cmd.OutOrStdout(), report.Reason)
				}
			}
			return syncErr
		},
	}
	cmd.Flags().StringVar(&rawDate, "date", "", `target date: YYYY-MM-DD or natural language such as "yesterday" (default today)`)
	return cmd
}
