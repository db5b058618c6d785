package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/warplab/gwstrain/cmd/fetch"
	"github.com/warplab/gwstrain/cmd/list"
	"github.com/warplab/gwstrain/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gwstrain",
		Short: "GWOSC strain data acquisition CLI",
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		cobra.CheckErr(err)
	}

	// Add sub-commands to the root command.
	subcommands := []*cobra.Command{
		fetch.Command(settings),
		list.Command(settings),
	}

	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVarP(&settings.Strain.OutputDir, "output", "o", viper.GetString("strain.outputdir"), "Path to artifact output directory")
	rootCmd.PersistentFlags().IntVar(&settings.Strain.SampleRate, "samplerate", viper.GetInt("strain.samplerate"), "Required source sample rate in Hz")
	rootCmd.PersistentFlags().IntVar(&settings.Strain.Duration, "duration", viper.GetInt("strain.duration"), "Required source segment duration in seconds")
	rootCmd.PersistentFlags().StringVar(&settings.Catalog.IndexURL, "index-url", viper.GetString("catalog.indexurl"), "GWOSC all-events index endpoint")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
