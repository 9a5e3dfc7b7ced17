package cli

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/taskvoice/taskvoice/internal/boards"
	"github.com/taskvoice/taskvoice/internal/log"
	"github.com/taskvoice/taskvoice/internal/platform"
	"github.com/taskvoice/taskvoice/internal/resolver"
)

func newBoardsCmd(opts *rootOptions) *cobra.Command {
	var apiKey, token string

	cmd := &cobra.Command{
		Use:   "boards",
		Short: "List the Trello boards the active credentials can see",
		Long: `List open Trello boards. Uses the active Trello configuration, or
--api-key and --token when no board has been chosen yet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(opts.dataDir)
			if err != nil {
				return err
			}
			defer rt.Close()

			s := rt.resolver.Activate(cmd.Context())
			cfg, _ := s.Config.(platform.TrelloConfig)
			if apiKey != "" {
				cfg.APIKey = apiKey
			}
			if token != "" {
				cfg.Token = token
			}
			if cfg.APIKey == "" && cfg.Token == "" {
				return errors.New("board discovery needs Trello credentials; pass --api-key and --token or configure trello")
			}

			list, err := rt.boards().Discover(cmd.Context(), cfg)
			if err != nil {
				rt.activity.Append(log.Error("Could not load boards", err))
				var perr *boards.ProviderError
				if errors.As(err, &perr) {
					return fmt.Errorf("trello: %s", perr.Message)
				}
				return err
			}

			out := cmd.OutOrStdout()
			tw := newTable(out)
			tw.AppendHeader(table.Row{"ID", "Name", "URL", "Active"})
			for _, b := range list {
				active := ""
				if b.ID == cfg.BoardID {
					active = "*"
				}
				tw.AppendRow(table.Row{b.ID, b.Name, b.URL, active})
			}
			if len(list) == 0 {
				tw.AppendRow(table.Row{"-", "(no boards)", "-", ""})
			}
			tw.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "Trello API key (overrides the saved one)")
	cmd.Flags().StringVar(&token, "token", "", "Trello token (overrides the saved one)")
	return cmd
}

func newSelectBoardCmd(opts *rootOptions) *cobra.Command {
	var apiKey, token string

	cmd := &cobra.Command{
		Use:   "select-board <board-id>",
		Short: "Target a Trello board and save the configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(opts.dataDir)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			s := rt.resolver.Activate(ctx)

			if apiKey != "" || token != "" {
				// First-time setup: the board completes a draft config.
				draft, _ := s.Config.(platform.TrelloConfig)
				if apiKey != "" {
					draft.APIKey = apiKey
				}
				if token != "" {
					draft.Token = token
				}
				draft.BoardID = args[0]
				if err := rt.resolver.Save(ctx, draft); err != nil {
					if errors.Is(err, resolver.ErrIncomplete) {
						return fmt.Errorf("trello needs: %v", platform.Missing(draft))
					}
					return err
				}
			} else if err := rt.resolver.SelectBoard(ctx, args[0]); err != nil {
				if errors.Is(err, resolver.ErrNoBoardTarget) {
					return errors.New("no Trello configuration is active; pass --api-key and --token")
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Board %s selected\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "Trello API key for first-time setup")
	cmd.Flags().StringVar(&token, "token", "", "Trello token for first-time setup")
	return cmd
}
