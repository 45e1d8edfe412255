// Package dispatch runs work against one, several or all cloned
// repositories with bounded concurrency and per-repository error isolation.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/raphi011/ovl/internal/log"
	"github.com/raphi011/ovl/internal/metastore"
	"github.com/raphi011/ovl/internal/registry"
	"github.com/raphi011/ovl/internal/vcs"
)

// All selects every cloned repository.
const All = "all"

// Outcome is the result of running work against one repository.
type Outcome[T any] struct {
	Repo  string
	Value T
	Err   error
}

// Each runs fn for every store with at most jobs in flight.
// Outcomes keep the order of stores; a failing store never stops the others.
func Each[T any](ctx context.Context, jobs int, stores []metastore.Store, fn func(context.Context, metastore.Store) (T, error)) []Outcome[T] {
	outcomes := make([]Outcome[T], len(stores))

	var g errgroup.Group
	g.SetLimit(max(jobs, 1))

	for i, s := range stores {
		g.Go(func() error {
			v, err := fn(ctx, s)
			outcomes[i] = Outcome[T]{Repo: s.Name, Value: v, Err: err}
			return nil // errors stay per repository
		})
	}
	_ = g.Wait()

	return outcomes
}

// Errors joins the failures of outcomes, each prefixed with its repository.
func Errors[T any](outcomes []Outcome[T]) error {
	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o.Repo, o.Err))
		}
	}
	return errors.Join(errs...)
}

// Dispatcher runs VCS commands against cloned repositories.
type Dispatcher struct {
	Layout metastore.Layout
	VCS    vcs.Runner
	Jobs   int
}

// New returns a dispatcher over layout.
func New(layout metastore.Layout, runner vcs.Runner, jobs int) *Dispatcher {
	return &Dispatcher{Layout: layout, VCS: runner, Jobs: jobs}
}

// Targets resolves "all" or a comma-separated list of repository names to
// cloned stores.
func (d *Dispatcher) Targets(arg string) ([]metastore.Store, error) {
	cloned, err := d.Layout.Cloned()
	if err != nil {
		return nil, err
	}
	if arg == All {
		return d.Layout.Stores(cloned)
	}

	names := lo.Uniq(lo.Compact(strings.Split(arg, ",")))
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no repositories given", registry.ErrUsage)
	}
	for _, n := range names {
		if err := registry.ValidName(n); err != nil {
			return nil, err
		}
		if !lo.Contains(cloned, n) {
			if s := registry.Suggest(n, cloned); s != "" {
				return nil, fmt.Errorf("%w: %s (did you mean %s?)", metastore.ErrNotCloned, n, s)
			}
			return nil, fmt.Errorf("%w: %s", metastore.ErrNotCloned, n)
		}
	}
	return d.Layout.Stores(names)
}

// Run executes a VCS subcommand against every store, writing each
// repository's output under a header to w. Sequential runs stream;
// parallel runs print each repository's output when it completes.
func (d *Dispatcher) Run(ctx context.Context, stores []metastore.Store, args []string, w io.Writer) error {
	l := log.FromContext(ctx)
	if len(args) == 0 {
		return fmt.Errorf("%w: no command specified (use -- before command)", registry.ErrUsage)
	}

	var mu sync.Mutex
	outcomes := Each(ctx, d.Jobs, stores, func(ctx context.Context, s metastore.Store) (struct{}, error) {
		req := vcs.Request{Target: s.Target(), Args: args}
		if d.Jobs <= 1 {
			fmt.Fprintf(w, "=== %s ===\n", s.Name)
			req.Stdout = w
			_, err := d.VCS.Run(ctx, req)
			return struct{}{}, err
		}

		res, err := d.VCS.Run(ctx, req)
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "=== %s ===\n", s.Name)
		w.Write(res.Stdout)
		return struct{}{}, err
	})

	for _, o := range outcomes {
		if o.Err != nil {
			l.Printf("Error in %s: %v\n", o.Repo, o.Err)
		}
	}
	return Errors(outcomes)
}
