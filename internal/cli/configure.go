package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskvoice/taskvoice/internal/credentials"
	"github.com/taskvoice/taskvoice/internal/platform"
	"github.com/taskvoice/taskvoice/internal/resolver"
)

// parseFields turns repeated name=value flags into a map.
func parseFields(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --field %q; expected name=value", pair)
		}
		values[name] = value
	}
	return values, nil
}

func parsePlatformArg(arg string) (platform.Platform, error) {
	p, err := platform.Parse(arg)
	if err != nil {
		return platform.None, err
	}
	if p == platform.None {
		return platform.None, errors.New("platform cannot be empty")
	}
	return p, nil
}

func newConfigureCmd(opts *rootOptions) *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:   "configure <platform>",
		Short: "Save credentials for a platform and make it active",
		Example: `  taskvoice configure linear --field apiKey=lin_api_x --field workspaceId=acme
  taskvoice configure asana --field personalAccessToken=1/123 --field projectId=456`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePlatformArg(args[0])
			if err != nil {
				return err
			}
			values, err := parseFields(fields)
			if err != nil {
				return err
			}
			cfg, err := platform.FromFields(p, values)
			if err != nil {
				return err
			}

			rt, err := openRuntime(opts.dataDir)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.resolver.Save(cmd.Context(), cfg); err != nil {
				if errors.Is(err, resolver.ErrIncomplete) {
					return fmt.Errorf("%s needs: %s", p.DisplayName(), strings.Join(platform.Missing(cfg), ", "))
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s configuration\n", p.DisplayName())
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&fields, "field", nil, "Credential field as name=value (repeatable)")
	return cmd
}

func newSwitchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "switch",
		Short: "Disconnect the active platform so another can be chosen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(opts.dataDir)
			if err != nil {
				return err
			}
			defer rt.Close()

			rt.resolver.Activate(cmd.Context())
			if err := rt.resolver.SwitchPlatform(cmd.Context()); err != nil {
				return fmt.Errorf("switch platform: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Platform cleared. Choose one with: taskvoice select <platform>")
			return nil
		},
	}
}

// writeHandoff leaves a navigation payload for the next activation.
func writeHandoff(cmd *cobra.Command, opts *rootOptions, p platform.Platform, cfg platform.Config) error {
	h, err := credentials.NewHandoff(p, cfg)
	if err != nil {
		return err
	}
	raw, err := h.Encode()
	if err != nil {
		return err
	}

	rt, err := openRuntime(opts.dataDir)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.store.Write(cmd.Context(), credentials.TierNavigation, credentials.HandoffKey, raw, 0); err != nil {
		return fmt.Errorf("writing handoff: %w", err)
	}
	return nil
}

func newSelectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "select <platform>",
		Short: "Preselect a platform for the next start-up",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePlatformArg(args[0])
			if err != nil {
				return err
			}
			if err := writeHandoff(cmd, opts, p, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s selected\n", p.DisplayName())
			return nil
		},
	}
}

func newHandoffCmd(opts *rootOptions) *cobra.Command {
	var fields []string

	cmd := &cobra.Command{
		Use:   "handoff <platform>",
		Short: "Hand credentials to the next start-up without saving them",
		Long: `Write a one-shot handoff, as an OAuth callback would. The next
command that resolves the session consumes it; nothing is persisted
unless that session is later saved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePlatformArg(args[0])
			if err != nil {
				return err
			}
			values, err := parseFields(fields)
			if err != nil {
				return err
			}
			var cfg platform.Config
			if len(values) > 0 {
				if cfg, err = platform.FromFields(p, values); err != nil {
					return err
				}
			}
			if err := writeHandoff(cmd, opts, p, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Handoff for %s written\n", p.DisplayName())
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&fields, "field", nil, "Credential field as name=value (repeatable)")
	return cmd
}
