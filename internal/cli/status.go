// status.go implements the "taskvoice status" command showing the resolved session.
package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/taskvoice/taskvoice/internal/platform"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active platform and credentials",
		Long: `Resolve the active platform the same way the recorder does on
start-up and print the outcome. A pending handoff is consumed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(opts.dataDir)
			if err != nil {
				return err
			}
			defer rt.Close()

			s := rt.resolver.Activate(cmd.Context())
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "taskvoice status")
			fmt.Fprintf(out, "Data dir: %s\n\n", rt.dataDir)

			tw := newTable(out)
			tw.AppendHeader(table.Row{"Setting", "Value"})
			tw.AppendRow(table.Row{"platform", s.Platform.String()})
			tw.AppendRow(table.Row{"configured", yesNo(s.Configured)})
			if s.Config != nil {
				for _, f := range s.Config.Fields() {
					v := f.Value
					if secretFields[f.Name] {
						v = mask(v)
					}
					if v == "" {
						v = "(missing)"
					}
					tw.AppendRow(table.Row{f.Name, v})
				}
			}
			tw.Render()

			for _, e := range rt.activity.Render() {
				fmt.Fprintf(out, "%s\n", e.Message)
			}
			if !s.Configured {
				fmt.Fprintln(out, nextStep(s.Platform))
			}
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// nextStep suggests the command that completes an unconfigured session.
func nextStep(p platform.Platform) string {
	if p == platform.None {
		return "Next: taskvoice configure <trello|linear|asana> --field name=value"
	}
	names, err := platform.FieldNames(p)
	if err != nil {
		return fmt.Sprintf("%s is not supported yet; run: taskvoice switch", p.DisplayName())
	}
	flags := make([]string, len(names))
	for i, n := range names {
		flags[i] = "--field " + n + "=..."
	}
	return fmt.Sprintf("Next: taskvoice configure %s %s", p, strings.Join(flags, " "))
}
