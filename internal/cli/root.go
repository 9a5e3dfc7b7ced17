// Package cli defines Cobra command definitions for the taskvoice CLI.
// This file contains the root command, version flag, and help output.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskvoice/taskvoice/internal/tui"
)

var version = "dev" // set via ldflags at build time

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	dataDir string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "taskvoice",
		Short: "Voice-driven task capture for Trello, Linear and Asana",
		Long: `taskvoice records a spoken request, sends it to the assistant
backend, and reports the tasks it created or changed on the
platform you have connected.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// When no subcommand is provided, launch TUI if TTY, show help otherwise
			if !tui.IsTTY() {
				return cmd.Help()
			}

			rt, err := openRuntime(opts.dataDir)
			if err != nil {
				return err
			}
			defer rt.Close()

			rt.resolver.Activate(cmd.Context())
			rec, err := rt.recorder(nil)
			if err != nil {
				return err
			}
			return tui.Run(tui.NewModel(tui.Deps{
				Resolver: rt.resolver,
				Recorder: rec,
				Activity: rt.activity,
				Boards:   rt.boards(),
			}))
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "Directory holding config and saved credentials (default $TASKVOICE_HOME or the user config dir)")

	rootCmd.AddCommand(
		newInitCmd(opts),
		newStatusCmd(opts),
		newSelectCmd(opts),
		newHandoffCmd(opts),
		newConfigureCmd(opts),
		newSwitchCmd(opts),
		newBoardsCmd(opts),
		newSelectBoardCmd(opts),
		newSendCmd(opts),
		newRecordCmd(opts),
		newLogCmd(opts),
		newCleanCmd(opts),
	)
	return rootCmd
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
