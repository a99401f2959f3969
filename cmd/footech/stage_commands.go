package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"footech/internal/acoustic"
	"footech/internal/app"
	"footech/internal/artifact"
	"footech/internal/clips"
	"footech/internal/correlator"
	"footech/internal/gpu"
	"footech/internal/semantic"
)

func newCorrelateCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var writePath string

	cmd := &cobra.Command{
		Use:   "correlate <acoustic_events.json> <semantic_events.json>",
		Short: "Pair acoustic events with semantic events",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			acousticEvents, err := artifact.ReadJSON[[]acoustic.Event](args[0])
			if err != nil {
				return err
			}
			semanticEvents, err := artifact.ReadJSON[[]semantic.Event](args[1])
			if err != nil {
				return err
			}

			correlated := app.NewCorrelator(cfg, ctx.logger()).Correlate(acousticEvents, semanticEvents)
			if writePath != "" {
				if err := artifact.WriteJSON(writePath, correlated); err != nil {
					return err
				}
			}
			if jsonOutput {
				return writeJSON(cmd, correlated)
			}
			if len(correlated) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No correlated events")
				return nil
			}
			rows := make([][]string, 0, len(correlated))
			for _, e := range correlated {
				rows = append(rows, []string{formatSeconds(e.Center)})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Center"}, rows, []columnAlignment{alignRight}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print correlated events as JSON")
	cmd.Flags().StringVarP(&writePath, "write", "w", "", "Also write the events to this file, e.g. "+artifact.CorrelatedFile)
	return cmd
}

func newSelectCommand(ctx *commandContext) *cobra.Command {
	var mediaPath string
	var mediaDuration float64
	var jsonOutput bool
	var writePath string

	cmd := &cobra.Command{
		Use:   "select <correlated_events.json>",
		Short: "Turn correlated events into non-overlapping clip windows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log := ctx.logger()

			events, err := artifact.ReadJSON[[]correlator.Event](args[0])
			if err != nil {
				return err
			}

			bounds := clips.UnknownDuration()
			switch {
			case mediaDuration > 0:
				bounds = clips.KnownDuration(mediaDuration)
			case mediaPath != "":
				bounds = app.ProbeBounds(cmd.Context(), app.NewExecutor(cfg, log), mediaPath, log)
			}

			result := app.NewSelector(cfg, log).Select(events, bounds)
			if writePath != "" {
				if err := artifact.WriteJSON(writePath, result.Windows); err != nil {
					return err
				}
			}
			if jsonOutput {
				return writeJSON(cmd, result)
			}
			if len(result.Windows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No clip windows")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"#", "Start", "End", "Clip"}, windowRows(result.Windows),
				[]columnAlignment{alignRight, alignRight, alignRight, alignLeft}))
			if result.Degraded {
				fmt.Fprintln(cmd.OutOrStdout(), "warning: media duration unknown, windows are not clamped to the end of the media")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mediaPath, "media", "", "Probe this file for the media duration")
	cmd.Flags().Float64Var(&mediaDuration, "media-duration", 0, "Media duration in seconds")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the selection as JSON")
	cmd.Flags().StringVarP(&writePath, "write", "w", "", "Also write the windows to this file, e.g. "+artifact.ClipWindowsFile)
	return cmd
}

func newAssembleCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "assemble <source> <clip_windows.json>",
		Short: "Cut clip windows out of a source and join them",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log := ctx.logger()

			windows, err := artifact.ReadJSON[[]clips.Window](args[1])
			if err != nil {
				return err
			}
			if output == "" {
				output = cfg.GetFinalName()
			}

			executor := app.NewExecutor(cfg, log)
			assembler := app.NewAssembler(cfg, executor, gpu.NewDetectorWithLogger(log), log)
			result, err := assembler.Assemble(cmd.Context(), args[0], windows, output)
			if err != nil {
				return err
			}
			if result.Output == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No clip windows to assemble")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s from %d clip(s)\n", result.Output, len(windows)-len(result.Failed))
			for _, w := range result.Failed {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: clip %s-%s failed to extract\n", formatSeconds(w.Start), formatSeconds(w.End))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Path of the highlight file")
	return cmd
}
