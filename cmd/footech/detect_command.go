package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"footech/internal/acoustic"
	"footech/internal/app"
	"footech/internal/artifact"
)

func newDetectCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var writePath string

	cmd := &cobra.Command{
		Use:   "detect <media>",
		Short: "Find sustained loudness peaks in a media or WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log := ctx.logger()

			audioPath := args[0]
			if !strings.EqualFold(filepath.Ext(audioPath), ".wav") {
				dir, err := os.MkdirTemp("", "footech-detect-")
				if err != nil {
					return fmt.Errorf("failed to create temp directory: %w", err)
				}
				defer os.RemoveAll(dir)

				wavPath := filepath.Join(dir, "audio.wav")
				if err := app.NewExecutor(cfg, log).ExtractAudio(cmd.Context(), audioPath, wavPath, cfg.GetSampleRate()); err != nil {
					return err
				}
				audioPath = wavPath
			}

			frames, err := acoustic.NewIntensityExtractorWithLogger(cfg.GetHopSeconds(), log).Frames(cmd.Context(), audioPath)
			if err != nil {
				return err
			}
			result := acoustic.NewDetectorWithLogger(app.DetectorConfigFrom(cfg), log).Detect(frames)
			if writePath != "" {
				if err := artifact.WriteJSON(writePath, result.Events); err != nil {
					return err
				}
			}

			if jsonOutput {
				return writeJSON(cmd, result)
			}
			if result.NoSignal {
				fmt.Fprintln(cmd.OutOrStdout(), "No acoustic signal")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Threshold %.2f, %d candidate(s)\n", result.Threshold.Value, result.Candidates)
			if len(result.Events) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No acoustic events")
				return nil
			}
			rows := make([][]string, 0, len(result.Events))
			for _, e := range result.Events {
				rows = append(rows, []string{formatSeconds(e.Timestamp), strconv.FormatFloat(e.Intensity, 'f', 2, 64)})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Time", "Intensity"}, rows, []columnAlignment{alignRight, alignRight}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the detection result as JSON")
	cmd.Flags().StringVarP(&writePath, "write", "w", "", "Also write the events to this file, e.g. "+artifact.AcousticEventsFile)
	return cmd
}
