package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deevus/instructor-tui/panel"
	"github.com/deevus/instructor-tui/sections"
)

func newSectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sections [SECTION]",
		Short: "List dashboard sections and their actions",
		Long: `List every dashboard section with its actions, the endpoint each action
calls and the fields it sends. Actions marked "confirm" ask before running.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			descs := sections.All()
			if len(args) == 1 {
				d, ok := sections.Lookup(args[0])
				if !ok {
					return fmt.Errorf("unknown section %q (available: %s)", args[0], strings.Join(sections.Names(), ", "))
				}
				descs = []panel.Descriptor{d}
			}

			var rows [][]string
			for _, d := range descs {
				for _, a := range d.Actions {
					var notes []string
					if a.Preflight != nil {
						notes = append(notes, "confirm")
					}
					for _, r := range a.Required {
						notes = append(notes, "requires "+r)
					}
					rows = append(rows, []string{
						d.Name,
						a.Name,
						a.Label,
						a.Endpoint,
						strings.Join(a.Fields, ", "),
						strings.Join(notes, "; "),
					})
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Section", "Action", "Label", "Endpoint", "Fields", "Notes"}, rows))
			return nil
		},
	}
}
