package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"footech/internal/gpu"
	"footech/internal/transcriber"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "Manage whisper models",
	}

	modelsCmd.AddCommand(newModelsListCommand(ctx))
	modelsCmd.AddCommand(newModelsDownloadCommand(ctx))

	return modelsCmd
}

func newModelsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known whisper models and whether they are present",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			downloader := transcriber.NewModelDownloader(ctx.logger(), cfg.GetModelsDir())

			models := downloader.AvailableModels()
			rows := make([][]string, 0, len(models))
			for _, name := range models {
				_, statErr := os.Stat(downloader.ModelPath(name))
				rows = append(rows, []string{name, downloader.ModelSize(name), yesNo(statErr == nil)})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Model", "Size", "Present"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft}))
			return nil
		},
	}
}

func newModelsDownloadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "download [model]",
		Short: "Download a whisper model (defaults to the configured one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			name := cfg.GetWhisperModelName()
			if len(args) == 1 {
				name = args[0]
			}

			path, err := transcriber.NewModelDownloader(ctx.logger(), cfg.GetModelsDir()).EnsureModel(cmd.Context(), name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Model %s ready at %s\n", name, path)
			return nil
		},
	}
}

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show version and hardware acceleration information",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			info := gpu.NewDetector().Detect()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "footech %s\n", version)
			if !info.Available {
				fmt.Fprintln(out, "GPU: not available, clips encode with "+gpu.CodecX264)
				return nil
			}
			fmt.Fprintf(out, "GPU: %s (%d device(s), driver %s), clips encode with %s\n",
				info.DeviceName, info.DeviceCount, info.DriverVersion, gpu.CodecNVENC)
			return nil
		},
	}
}
