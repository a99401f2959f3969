package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"footech/internal/app"
	"footech/internal/artifact"
	"footech/internal/buffer"
	"footech/internal/transcriber"
)

func newScoreCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var writePath string

	cmd := &cobra.Command{
		Use:   "score <transcript>",
		Short: "Score a transcript file against the goal vocabulary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log := ctx.logger()

			segments, err := transcriber.LoadTranscript(args[0], log)
			if err != nil {
				return err
			}
			if cfg.GetMergeSentences() {
				segments = buffer.MergeSentences(segments, cfg.GetMaxSentenceSeconds())
			}

			scorer, err := app.NewScorer(cfg, log)
			if err != nil {
				return err
			}
			result, err := scorer.Score(cmd.Context(), segments)
			if err != nil {
				return err
			}
			if writePath != "" {
				if err := artifact.WriteJSON(writePath, result.Events); err != nil {
					return err
				}
			}

			if jsonOutput {
				return writeJSON(cmd, result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Mean similarity %.3f, suggested threshold %.3f\n",
				result.MeanSimilarity, result.SuggestedThreshold)
			if len(result.Events) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No semantic events")
				return nil
			}
			rows := make([][]string, 0, len(result.Events))
			for _, e := range result.Events {
				rows = append(rows, []string{
					formatSeconds(e.Start),
					formatSeconds(e.End),
					strconv.FormatFloat(e.Score, 'f', 3, 64),
					e.Text,
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Start", "End", "Score", "Text"}, rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignLeft}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the scoring result as JSON")
	cmd.Flags().StringVarP(&writePath, "write", "w", "", "Also write the events to this file, e.g. "+artifact.SemanticEventsFile)
	return cmd
}
