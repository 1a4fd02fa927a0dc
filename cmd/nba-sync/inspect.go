package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/nba-fantasy-sync/internal/usecase"
	"github.com/spf13/cobra"
)

func newStateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the last committed sync state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, cleanup, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			state, err := rt.Queries.SyncState(cmd.Context())
			if errors.Is(err, usecase.ErrNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "no sync pass has committed yet")
				return nil
			}
			if err != nil {
				return err
			}

			if opts.jsonOut {
				return writeJSON(cmd, map[string]any{
					"last_synced_date": state.LastSyncedDate.Format(time.DateOnly),
					"last_game_id":     state.LastGameID,
					"updated_at":       state.UpdatedAt,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced through %s (last game %s, updated %s)\n",
				state.LastSyncedDate.Format(time.DateOnly),
				emptyDash(state.LastGameID),
				state.UpdatedAt.UTC().Format(time.RFC3339),
			)
			return nil
		},
	}
}

func newRunsCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent sync runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return fmt.Errorf("%w: --limit must be >= 0", errUsage)
			}

			rt, cleanup, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			runs, err := rt.Queries.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if opts.jsonOut {
				rows := make([]map[string]any, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, map[string]any{
						"run_id":         run.RunID,
						"status":         run.Status,
						"current_date":   run.CurrentDate.Format(time.DateOnly),
						"synced_through": run.SyncedThrough,
						"error":          run.ErrorMessage,
						"started_at":     run.StartedAt,
						"finished_at":    run.FinishedAt,
					})
				}
				return writeJSON(cmd, rows)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tSTATUS\tDATE\tSYNCED THROUGH\tDURATION\tERROR")
			for _, run := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					run.RunID,
					run.Status,
					run.CurrentDate.Format(time.DateOnly),
					emptyDash(run.SyncedThrough),
					run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond),
					emptyDash(run.ErrorMessage),
				)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	out, err := sonic.ConfigDefault.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func emptyDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
