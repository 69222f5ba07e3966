package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the cache index against the stored samples",
		Long: `Check that every index entry has exactly one stored sample, every
sample is indexed, and every payload decodes to its own epoch.

Prints the report and exits non-zero when anything disagrees.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts.cfg, "")
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.store.Verify()
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			return report.Err()
		},
	}
	return cmd
}
