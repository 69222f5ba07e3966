package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Pull the trajectory feed into the cache",
		Long: `Fetch the OEM feed once and merge it into the cache.

With --file the feed is read from a local OEM XML document instead of
the configured URL.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts.cfg, file)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.reconciler.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "processed %d: %d inserted, %d updated, %d unchanged\n",
				report.Processed(), report.Inserted, report.Updated, report.Unchanged)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read the feed from a local OEM XML file")
	return cmd
}
