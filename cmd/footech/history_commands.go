package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"footech/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect previous runs",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))

	return historyCmd
}

func (c *commandContext) withHistory(fn func(store *history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg.GetHistoryDBPath())
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, runs)
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						run.ID,
						run.CreatedAt.Local().Format(time.DateTime),
						strconv.Itoa(run.CorrelatedEvents),
						strconv.Itoa(len(run.Windows)),
						yesNo(run.Degraded),
						run.Source,
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Created", "Goals", "Clips", "Degraded", "Source"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print runs as JSON")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				run, err := store.Get(cmd.Context(), args[0])
				if errors.Is(err, history.ErrNotFound) {
					return fmt.Errorf("run %s not found", args[0])
				}
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, run)
				}

				duration := "unknown"
				if run.DurationKnown {
					duration = formatSeconds(run.MediaDuration) + "s"
				}
				rows := [][]string{
					{"ID", run.ID},
					{"Source", run.Source},
					{"Created", run.CreatedAt.Local().Format(time.DateTime)},
					{"Media duration", duration},
					{"Acoustic events", strconv.Itoa(run.AcousticEvents)},
					{"Semantic events", strconv.Itoa(run.SemanticEvents)},
					{"Correlated events", strconv.Itoa(run.CorrelatedEvents)},
					{"Suggested threshold", strconv.FormatFloat(run.SuggestedThreshold, 'f', 3, 64)},
					{"Degraded", yesNo(run.Degraded)},
					{"Output", run.OutputPath},
					{"Artifacts", run.ArtifactsDir},
				}
				if len(run.Warnings) > 0 {
					rows = append(rows, []string{"Warnings", strings.Join(run.Warnings, "; ")})
				}
				out := cmd.OutOrStdout()
				fmt.Fprint(out, renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
				if len(run.Windows) > 0 {
					fmt.Fprint(out, renderTable([]string{"#", "Start", "End", "Clip"}, windowRows(run.Windows),
						[]columnAlignment{alignRight, alignRight, alignRight, alignLeft}))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run as JSON")
	return cmd
}
