package main

import (
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/raphi011/ovl/internal/output"
)

func newListCmd() *cobra.Command {
	var cloned, uncloned bool

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List known repositories",
		Aliases: []string{"ls"},
		GroupID: GroupCore,
		Args:    cobra.NoArgs,
		Long: `List repositories that have an origin record or a metadata store.

Without flags a table with state and origin is shown. --cloned and
--uncloned print bare names, one per line.`,
		Example: `  ovl list              # Table of all known repositories
  ovl list --cloned     # Names of cloned repositories
  ovl list --uncloned   # Registered but not cloned`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := appFrom(ctx)
			out := output.FromContext(ctx)

			known, err := a.known()
			if err != nil {
				return err
			}
			clonedNames, err := a.cloned()
			if err != nil {
				return err
			}

			switch {
			case cloned:
				out.Lines(clonedNames)
				return nil
			case uncloned:
				out.Lines(lo.Without(known, clonedNames...))
				return nil
			}

			rows := make([][]string, 0, len(known))
			for _, n := range known {
				state, err := a.layout.State(n, a.registry)
				if err != nil {
					return err
				}
				origin, _, err := a.registry.Origin(n)
				if err != nil {
					return err
				}
				rows = append(rows, []string{n, state.String(), origin})
			}
			out.Table([]string{"REPO", "STATE", "ORIGIN"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&cloned, "cloned", false, "Only cloned repositories")
	cmd.Flags().BoolVar(&uncloned, "uncloned", false, "Only registered repositories that are not cloned")
	cmd.MarkFlagsMutuallyExclusive("cloned", "uncloned")

	return cmd
}
