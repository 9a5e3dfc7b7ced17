// clean.go implements the "taskvoice clean" command for manual journal cleanup.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskvoice/taskvoice/internal/cleanup"
)

func newCleanCmd(opts *rootOptions) *cobra.Command {
	var (
		keep   int
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove old entries from the activity journal",
		Long: `Remove old entries from the activity journal.

By default, removes entries older than the configured journal.max_age_days (default 30).
Use --keep to keep only the N most recent entries instead.
Use --dry-run to preview what would be removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(opts.dataDir)
			if err != nil {
				return err
			}
			defer rt.Close()

			if rt.journal == nil {
				return fmt.Errorf("the activity journal is disabled in %s", rt.dataDir)
			}

			var pruned int
			if keep > 0 {
				removed, err := cleanup.PruneKeepRecent(rt.journal, keep, dryRun)
				if err != nil {
					return fmt.Errorf("cleanup failed: %w", err)
				}
				pruned = len(removed)
			} else {
				maxAge := rt.cfg.Journal.MaxAgeDays
				if maxAge <= 0 {
					maxAge = 30
				}
				removed, err := cleanup.PruneByAge(rt.journal, maxAge, time.Now(), dryRun)
				if err != nil {
					return fmt.Errorf("cleanup failed: %w", err)
				}
				pruned = len(removed)
			}

			out := cmd.OutOrStdout()
			if pruned == 0 {
				fmt.Fprintln(out, "No entries to clean up.")
				return nil
			}
			verb := "Removed"
			if dryRun {
				verb = "Would remove"
			}
			fmt.Fprintf(out, "%s %d entr%s.\n", verb, pruned, plural(pruned, "y", "ies"))
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 0, "Keep only the last N entries (0 = use age-based cleanup)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview what would be removed without deleting")
	return cmd
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
