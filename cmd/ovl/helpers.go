package main

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/raphi011/ovl/internal/hooks"
	"github.com/raphi011/ovl/internal/metastore"
	"github.com/raphi011/ovl/internal/registry"
)

// known returns every registered or cloned repository, sorted.
func (a *app) known() ([]string, error) {
	registered, err := a.registry.Known()
	if err != nil {
		return nil, err
	}
	cloned, err := a.cloned()
	if err != nil {
		return nil, err
	}
	return sortedUnion(registered, cloned), nil
}

// cloned returns the cloned repositories; a missing metadata root means
// none.
func (a *app) cloned() ([]string, error) {
	names, err := a.layout.Cloned()
	if errors.Is(err, metastore.ErrNoMetaDir) {
		return nil, nil
	}
	return names, err
}

func sortedUnion(a, b []string) []string {
	all := lo.Uniq(append(slices.Clone(a), b...))
	slices.Sort(all)
	return all
}

// unknownRepo wraps err with a suggestion for name among candidates.
func unknownRepo(err error, name string, candidates []string) error {
	if s := registry.Suggest(name, candidates); s != "" && s != name {
		return fmt.Errorf("%w (did you mean %s?)", err, s)
	}
	return err
}

// hookFlags are the hook selection flags shared by mutating commands.
type hookFlags struct {
	name   string
	noHook bool
	env    []string
	dryRun bool
}

func (h *hookFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&h.name, "hook", "", "Run only this hook")
	cmd.Flags().BoolVar(&h.noHook, "no-hook", false, "Skip hooks")
	cmd.Flags().StringArrayVarP(&h.env, "arg", "a", nil, "Set hook variable KEY=VALUE")
	cmd.Flags().BoolVar(&h.dryRun, "hook-dry-run", false, "Print hook commands instead of running them")
	cmd.MarkFlagsMutuallyExclusive("hook", "no-hook")
}

// hookRunner selects hooks for one trigger and runs them per repository.
type hookRunner struct {
	matches []hooks.Match
	env     map[string]string
	dryRun  bool
	trigger hooks.Trigger
}

func (h *hookFlags) runner(a *app, trigger hooks.Trigger) (*hookRunner, error) {
	matches, err := hooks.Select(a.cfg.Hooks, h.name, h.noHook, trigger)
	if err != nil {
		return nil, err
	}
	env, err := hooks.ParseEnv(h.env)
	if err != nil {
		return nil, err
	}
	return &hookRunner{matches: matches, env: env, dryRun: h.dryRun, trigger: trigger}, nil
}

// run runs the selected hooks for s. Failures are logged, not returned.
func (r *hookRunner) run(ctx context.Context, s metastore.Store, version string) {
	if r == nil || len(r.matches) == 0 {
		return
	}
	hc := hooks.ContextFor(s, r.trigger, version, r.env)
	hc.DryRun = r.dryRun
	hooks.RunForEach(ctx, r.matches, hc)
}
