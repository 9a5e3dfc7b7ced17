// init.go implements the "taskvoice init" command.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskvoice/taskvoice/internal/config"
)

func newInitCmd(opts *rootOptions) *cobra.Command {
	var force bool
	var gatewayURL string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config.yaml to the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := config.DataDir(opts.dataDir)
			if err != nil {
				return err
			}

			path := config.Path(dir)
			if _, statErr := os.Stat(path); statErr == nil && !force {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s already exists.\n", path)
				return errors.New("refusing to overwrite; pass --force to reset it")
			}

			cfg := config.DefaultConfig()
			if gatewayURL != "" {
				cfg.Gateway.URL = gatewayURL
			}
			if err := config.WriteConfig(dir, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized taskvoice at %s\n", dir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config.yaml")
	cmd.Flags().StringVar(&gatewayURL, "gateway", "", "Assistant backend URL")
	return cmd
}
