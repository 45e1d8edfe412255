package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/raphi011/ovl/internal/clone"
	"github.com/raphi011/ovl/internal/hooks"
	"github.com/raphi011/ovl/internal/log"
	"github.com/raphi011/ovl/internal/registry"
	"github.com/raphi011/ovl/internal/ui/progress"
	"github.com/raphi011/ovl/internal/ui/styles"
)

func newCloneCmd() *cobra.Command {
	var (
		all             bool
		refuseConflicts bool
		hf              hookFlags
	)

	cmd := &cobra.Command{
		Use:     "clone <spec>...",
		Short:   "Clone or update repositories",
		GroupID: GroupCore,
		Long: `Clone repositories into the shared tree, or bring cloned ones up to date.

A spec is one of:
  name                 registered repository, default branch
  name=version         registered repository at a tag, branch or commit
  origin/name[=ver]    origin with a base URL ('ovl baseurl set')
  URL[=version]        any git URL; the name is its last path segment

With "-" specs are read from stdin, one per line. --all clones or
updates every registered repository. Repositories are processed in
parallel (-j); one failure does not stop the others.`,
		Example: `  ovl clone vim
  ovl clone acme/zsh=v2.1.0 git@example.com:me/tmux.git
  ovl clone --all -j 8
  cat repos.txt | ovl clone -`,
		ValidArgsFunction: completeKnown,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := appFrom(ctx)

			specs, err := cloneSpecs(a, args, all)
			if err != nil {
				return err
			}
			hr, err := hf.runner(a, hooks.TriggerClone)
			if err != nil {
				return err
			}

			o := a.orchestrator(refuseConflicts)
			results, err := runClone(ctx, o, specs)
			if err != nil {
				return err
			}

			l := log.FromContext(ctx)
			for _, r := range results {
				if r.Err != nil {
					l.Println(styles.Fail(fmt.Sprintf("%s: %v", r.Spec.Name, r.Err)))
					continue
				}
				l.Println(styles.OK(fmt.Sprintf("%s %s", r.Spec.Name, r.Action)))
				if r.Action == clone.Cloned || r.Action == clone.Updated {
					s, err := a.layout.Store(r.Spec.Name)
					if err == nil {
						hr.run(ctx, s, r.Spec.Version)
					}
				}
			}
			return clone.Failures(results)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Clone or update every registered repository")
	cmd.Flags().BoolVar(&refuseConflicts, "refuse-conflicts", false, "Refuse a fresh clone whose files another repository already tracks")
	hf.register(cmd)

	return cmd
}

// cloneSpecs collects specs from args, stdin ("-") and --all.
func cloneSpecs(a *app, args []string, all bool) ([]string, error) {
	var specs []string
	for _, arg := range args {
		if arg != "-" {
			specs = append(specs, arg)
			continue
		}
		read, err := clone.ReadSpecs(a.stdin)
		if err != nil {
			return nil, fmt.Errorf("read specs: %w", err)
		}
		specs = append(specs, read...)
	}
	if all {
		known, err := a.registry.Known()
		if err != nil {
			return nil, err
		}
		specs = lo.Uniq(append(specs, known...))
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: no repositories to clone", registry.ErrUsage)
	}
	return specs, nil
}

// runClone runs a batch, animating progress when stderr is a terminal.
func runClone(ctx context.Context, o *clone.Orchestrator, specs []string) ([]clone.Result, error) {
	if len(specs) > 1 && !verbose && !quiet && isatty.IsTerminal(os.Stderr.Fd()) {
		sp := progress.NewSpinner(os.Stderr, "Cloning", len(specs))
		o.Progress = func(r clone.Result) { sp.Step(r.Spec.Name) }
		sp.Start()
		defer sp.Stop()
	}
	return o.Batch(ctx, specs)
}
