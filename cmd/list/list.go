package list

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/warplab/gwstrain/internal/conf"
	"github.com/warplab/gwstrain/internal/pipeline"
)

// Command creates the list command for printing known catalog events.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all events known to the GWOSC catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			pipe, cleanup, err := pipeline.FromSettings(settings, os.Stdout)
			if err != nil {
				return err
			}
			defer cleanup()

			return pipe.ListEvents(cmd.Context())
		},
	}
}
