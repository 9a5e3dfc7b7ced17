package cli

import (
	"bufio"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskvoice/taskvoice/internal/ui"
)

func newRecordCmd(opts *rootOptions) *cobra.Command {
	var maxDuration time.Duration

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record from the microphone until Enter is pressed",
		Long: `Record with the configured capture command, then submit the clip.
Recording stops when Enter is pressed or --max-duration elapses.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(opts.dataDir)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			s := rt.resolver.Activate(ctx)
			if !s.Configured {
				return fmt.Errorf("no platform is configured. %s", nextStep(s.Platform))
			}

			rec, err := rt.recorder(nil)
			if err != nil {
				return err
			}

			collected := collectEntries(rt.activity)
			progress := ui.NewProgress(cmd.ErrOrStderr(), s.Platform.DisplayName())
			rec.OnChange(func() { progress.Update(rec.State(), rec.Elapsed()) })

			if err := rec.Start(ctx); err != nil {
				return err
			}

			enter := make(chan struct{})
			go func() {
				_, _ = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				close(enter)
			}()
			var timeout <-chan time.Time
			if maxDuration > 0 {
				timeout = time.After(maxDuration)
			}
			select {
			case <-enter:
			case <-timeout:
			case <-ctx.Done():
			}

			runErr := rec.Stop(ctx)
			progress.Finish("")

			writeEntries(cmd.OutOrStdout(), collected.Entries())
			if latest := rec.LatestResponse(); latest != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "\nHeard: %s\n", latest)
			}
			return runErr
		},
	}

	cmd.Flags().DurationVar(&maxDuration, "max-duration", 2*time.Minute, "Stop recording automatically after this long (0 disables)")
	return cmd
}
