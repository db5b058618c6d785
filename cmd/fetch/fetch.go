package fetch

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/warplab/gwstrain/internal/conf"
	"github.com/warplab/gwstrain/internal/pipeline"
)

// Command creates the fetch command for acquiring strain data.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch [event]",
		Short: "Download strain data for catalog events",
		Long: `Download strain data for all GWOSC catalog events, or for a single
named event. Events with valid artifacts already on disk are skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var event string
			if len(args) > 0 {
				event = args[0]
			}

			pipe, cleanup, err := pipeline.FromSettings(settings, os.Stdout)
			if err != nil {
				return err
			}
			defer cleanup()

			_, err = pipe.Run(cmd.Context(), event)
			return err
		},
	}

	setupFlags(cmd, settings)

	return cmd
}

// setupFlags configures flags specific to the fetch command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.Flags().StringVar(&settings.Strain.ScratchDir, "scratch", "", "Scratch directory for in-flight downloads")
	cmd.Flags().DurationVar(&settings.Strain.DownloadTimeout, "download-timeout", settings.Strain.DownloadTimeout, "Whole-transfer timeout per download")
}
