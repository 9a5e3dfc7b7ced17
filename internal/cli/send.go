package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskvoice/taskvoice/internal/audio"
	"github.com/taskvoice/taskvoice/internal/recorder"
	"github.com/taskvoice/taskvoice/internal/ui"
)

func newSendCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "send <file.wav>",
		Short: "Submit a prerecorded clip as if it had just been spoken",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			rec, err := rt.recorder(audio.FileDevice{Path: args[0]})
			if err != nil {
				return err
			}

			collected := collectEntries(rt.activity)

			progress := ui.NewProgress(cmd.ErrOrStderr(), args[0])
			rec.OnChange(func() { progress.Update(rec.State(), rec.Elapsed()) })

			if err := rec.Start(ctx); err != nil {
				if errors.Is(err, recorder.ErrNotConfigured) {
					return err
				}
				return fmt.Errorf("opening %s: %w", args[0], err)
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
}
