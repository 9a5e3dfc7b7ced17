package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskvoice/taskvoice/internal/log"
)

func newLogCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent activity, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(opts.dataDir)
			if err != nil {
				return err
			}
			defer rt.Close()

			if rt.journal == nil {
				return fmt.Errorf("the activity journal is disabled in %s", rt.dataDir)
			}
			if limit <= 0 || limit > log.Capacity {
				limit = log.Capacity
			}
			entries, err := rt.journal.Recent(limit)
			if err != nil {
				return fmt.Errorf("reading activity: %w", err)
			}
			writeEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", log.Capacity, "Number of entries to show")
	return cmd
}
