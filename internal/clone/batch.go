package clone

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/raphi011/ovl/internal/dispatch"
	"github.com/raphi011/ovl/internal/metastore"
	"github.com/raphi011/ovl/internal/registry"
)

// Result is the outcome of one specifier.
type Result struct {
	Spec     Spec
	Phase    Phase // CheckedOut or Failed
	FailedIn Phase // phase that failed, when Phase is Failed
	Action   Action
	Err      error
}

// Run takes one specifier through resolution and checkout.
func (o *Orchestrator) Run(ctx context.Context, spec Spec) Result {
	res := Result{Spec: spec, Phase: Parsed}

	fail := func(err error) Result {
		res.FailedIn = res.Phase
		res.Phase = Failed
		res.Err = err
		return res
	}

	p, err := o.Resolve(spec)
	if err != nil {
		return fail(err)
	}
	res.Phase = Resolved

	if p.State == metastore.Cloned {
		res.Phase = Updating
	} else {
		res.Phase = Cloning
	}
	action, err := o.Checkout(ctx, p)
	res.Action = action
	if err != nil {
		return fail(err)
	}
	res.Phase = CheckedOut
	return res
}

// ParseSpecs parses every specifier and rejects duplicate names.
func ParseSpecs(raw []string) ([]Spec, error) {
	specs := make([]Spec, 0, len(raw))
	seen := make(map[string]string, len(raw))
	for _, r := range raw {
		s, err := ParseSpec(r)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("%w: %q and %q both refer to %s", registry.ErrUsage, prev, r, s.Name)
		}
		seen[s.Name] = r
		specs = append(specs, s)
	}
	return specs, nil
}

// Batch runs specifiers with at most Opts.Jobs in flight. Usage errors
// are returned before anything runs; after that every specifier
// succeeds or fails on its own and results keep the input order.
func (o *Orchestrator) Batch(ctx context.Context, raw []string) ([]Result, error) {
	specs, err := ParseSpecs(raw)
	if err != nil {
		return nil, err
	}

	stores := make([]metastore.Store, len(specs))
	byName := make(map[string]Spec, len(specs))
	for i, s := range specs {
		if stores[i], err = o.Adapter.Store(s.Name); err != nil {
			return nil, err
		}
		byName[s.Name] = s
	}

	var mu sync.Mutex
	outcomes := dispatch.Each(ctx, o.Opts.Jobs, stores, func(ctx context.Context, st metastore.Store) (Result, error) {
		res := o.Run(ctx, byName[st.Name])
		if o.Progress != nil {
			mu.Lock()
			o.Progress(res)
			mu.Unlock()
		}
		return res, nil
	})

	results := make([]Result, len(outcomes))
	for i, out := range outcomes {
		results[i] = out.Value
	}
	return results, nil
}

// Failures joins the errors of failed results.
func Failures(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Spec.Name, r.Err))
		}
	}
	return errors.Join(errs...)
}

// ReadSpecs reads one specifier per line. Blank lines and lines starting
// with # are skipped.
func ReadSpecs(r io.Reader) ([]string, error) {
	var specs []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		specs = append(specs, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read specifiers: %w", err)
	}
	return specs, nil
}
