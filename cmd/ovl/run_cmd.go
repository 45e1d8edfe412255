package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphi011/ovl/internal/output"
	"github.com/raphi011/ovl/internal/registry"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run <repo[,repo...]|all> -- <git args...>",
		Short:   "Run a git command in one, several or all repositories",
		Aliases: []string{"exec"},
		GroupID: GroupCore,
		Long: `Run a git subcommand against repositories of the shared tree.

Targets are a comma-separated list of cloned repositories, or "all".
With -j > 1 repositories run in parallel and output is printed per
repository once it finishes. A failure in one repository does not stop
the others; the command fails if any did.`,
		Example: `  ovl run vim -- status --short
  ovl run vim,tmux -- log -1 --oneline
  ovl run all -j 4 -- fetch --prune`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeCloned,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := appFrom(ctx)

			dash := cmd.ArgsLenAtDash()
			if dash != 1 {
				return fmt.Errorf("%w: expected <targets> -- <git args...>", registry.ErrUsage)
			}

			d := a.dispatcher()
			stores, err := d.Targets(args[0])
			if err != nil {
				return err
			}
			return d.Run(ctx, stores, args[1:], output.FromContext(ctx).Writer())
		},
	}

	return cmd
}
