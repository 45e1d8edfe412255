package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphi011/ovl/internal/hooks"
	"github.com/raphi011/ovl/internal/log"
	"github.com/raphi011/ovl/internal/metastore"
	"github.com/raphi011/ovl/internal/overlay"
	"github.com/raphi011/ovl/internal/ui/prompt"
	"github.com/raphi011/ovl/internal/ui/styles"
)

// confirmFunc asks a yes/no question. Replaced in tests.
var confirmFunc = prompt.Confirm

func newRemoveCmd() *cobra.Command {
	var (
		force bool
		yes   bool
		hf    hookFlags
	)

	cmd := &cobra.Command{
		Use:     "remove <name>...",
		Short:   "Remove repositories and the files only they track",
		Aliases: []string{"rm"},
		GroupID: GroupCore,
		Args:    cobra.MinimumNArgs(1),
		Long: `Remove cloned repositories from the shared tree.

Files tracked only by the removed repository are deleted, along with
directories left empty. Files another repository also tracks are kept.
The metadata store and exclude file are deleted; the origin record
stays so the repository can be cloned again.

Repositories with uncommitted changes are refused unless --force is
given. When run in a terminal you are asked to confirm first.`,
		Example: `  ovl remove vim
  ovl remove vim tmux --force
  ovl rm vim -y`,
		ValidArgsFunction: completeCloned,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := appFrom(ctx)
			l := log.FromContext(ctx)

			cloned, err := a.cloned()
			if err != nil {
				return err
			}
			for _, name := range args {
				if ok, err := a.layout.Exists(name); err != nil {
					return err
				} else if !ok {
					return unknownRepo(fmt.Errorf("%w: %s", metastore.ErrNotCloned, name), name, cloned)
				}
			}

			if a.interactive && !yes {
				res, err := confirmFunc(fmt.Sprintf("Remove %s and the files only it tracks?", strings.Join(args, ", ")))
				if err != nil {
					return err
				}
				if !res.Confirmed {
					l.Println("Aborted")
					return nil
				}
			}

			hr, err := hf.runner(a, hooks.TriggerRemove)
			if err != nil {
				return err
			}

			r := a.overlay()
			var errs []error
			for _, name := range args {
				res, err := r.Remove(ctx, name, overlay.RemoveOptions{Force: force})
				if err != nil {
					l.Println(styles.Fail(fmt.Sprintf("%s: %v", name, err)))
					errs = append(errs, err)
					continue
				}
				l.Println(styles.OK(fmt.Sprintf("%s removed (%d files deleted, %d kept)", name, len(res.Removed), len(res.Kept))))
				if s, err := a.layout.Store(name); err == nil {
					hr.run(ctx, s, "")
				}
			}
			return errors.Join(errs...)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Remove even with uncommitted changes")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	hf.register(cmd)

	return cmd
}
