package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"footech/internal/app"
	"footech/internal/clips"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var output string
	var skipAssembly bool
	var transcriptPath string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "run <source>",
		Short: "Run the whole pipeline on a local file or http(s) URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if transcriptPath != "" {
				cfg.Set("transcriber.provider", "file")
				cfg.Set("transcriber.transcript_path", transcriptPath)
			}

			application, err := app.NewApplication(cmd.Context(), cfg, ctx.logger())
			if err != nil {
				return fmt.Errorf("failed to create application: %w", err)
			}
			defer application.Close()

			report, err := application.Run(cmd.Context(), args[0], app.RunOptions{
				Output:       output,
				SkipAssembly: skipAssembly,
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, report)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderReport(report))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Path of the highlight file (defaults to the run directory)")
	cmd.Flags().StringVar(&transcriptPath, "transcript", "", "Use an existing transcript file instead of transcribing")
	cmd.Flags().BoolVar(&skipAssembly, "skip-assembly", false, "Stop after clip selection")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run report as JSON")
	return cmd
}

func renderReport(report app.Report) string {
	var b strings.Builder

	duration := "unknown"
	if report.DurationKnown {
		duration = formatSeconds(report.MediaDuration) + "s"
	}
	summary := [][]string{
		{"Run", report.RunID},
		{"Source", report.Source},
		{"Media duration", duration},
		{"Acoustic threshold", strconv.FormatFloat(report.AcousticThreshold, 'f', 2, 64)},
		{"Acoustic events", strconv.Itoa(report.AcousticEvents)},
		{"Semantic events", strconv.Itoa(report.SemanticEvents)},
		{"Correlated events", strconv.Itoa(report.CorrelatedEvents)},
		{"Dropped windows", strconv.Itoa(report.DroppedWindows)},
		{"Mean similarity", strconv.FormatFloat(report.MeanSimilarity, 'f', 3, 64)},
		{"Suggested threshold", strconv.FormatFloat(report.SuggestedThreshold, 'f', 3, 64)},
		{"Degraded", yesNo(report.Degraded)},
		{"Artifacts", report.ArtifactsDir},
	}
	if report.OutputPath != "" {
		summary = append(summary, []string{"Output", report.OutputPath})
	}
	b.WriteString(renderTable([]string{"Field", "Value"}, summary, []columnAlignment{alignLeft, alignLeft}))

	if len(report.Windows) > 0 {
		b.WriteString(renderTable([]string{"#", "Start", "End", "Clip"}, windowRows(report.Windows),
			[]columnAlignment{alignRight, alignRight, alignRight, alignLeft}))
	}

	if len(report.Timings) > 0 {
		stages := make([]string, 0, len(report.Timings))
		for stage := range report.Timings {
			stages = append(stages, stage)
		}
		sort.Strings(stages)
		rows := make([][]string, 0, len(stages))
		for _, stage := range stages {
			rows = append(rows, []string{stage, strconv.FormatFloat(report.Timings[stage], 'f', 3, 64) + "s"})
		}
		b.WriteString(renderTable([]string{"Stage", "Time"}, rows, []columnAlignment{alignLeft, alignRight}))
	}

	for _, w := range report.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", w)
	}
	return b.String()
}

func windowRows(windows []clips.Window) [][]string {
	rows := make([][]string, 0, len(windows))
	for i, w := range windows {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			formatSeconds(w.Start),
			formatSeconds(w.End),
			w.Name(i + 1),
		})
	}
	return rows
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 2, 64)
}
