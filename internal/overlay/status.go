package overlay

import (
	"context"
	"strings"

	"github.com/raphi011/ovl/internal/dispatch"
	"github.com/raphi011/ovl/internal/log"
	"github.com/raphi011/ovl/internal/metastore"
	"github.com/raphi011/ovl/internal/vcs"
)

// Change is a locally modified path of a repository.
type Change struct {
	Repo   string
	Status string // two-letter porcelain status, e.g. " M"
	Path   string
}

// Modified returns the uncommitted changes of every repository.
func (r *Resolver) Modified(ctx context.Context) ([]Change, error) {
	stores, err := r.stores()
	if err != nil {
		return nil, err
	}

	outcomes := dispatch.Each(ctx, r.Jobs, stores, func(ctx context.Context, s metastore.Store) ([]Change, error) {
		return status(ctx, r.VCS, s)
	})
	if err := dispatch.Errors(outcomes); err != nil {
		return nil, err
	}

	var changes []Change
	for _, o := range outcomes {
		changes = append(changes, o.Value...)
	}
	return changes, nil
}

func status(ctx context.Context, runner vcs.Runner, s metastore.Store) ([]Change, error) {
	lines, err := vcs.Lines(ctx, runner, s.Target(), "status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return nil, err
	}
	var changes []Change
	for _, line := range lines {
		if len(line) < 4 {
			continue
		}
		changes = append(changes, Change{Repo: s.Name, Status: line[:2], Path: line[3:]})
	}
	return changes, nil
}

// Unpushed returns the files changed by commits that are not on the
// upstream yet. Repositories without an upstream are skipped.
func (r *Resolver) Unpushed(ctx context.Context) ([]Owner, error) {
	l := log.FromContext(ctx)
	stores, err := r.stores()
	if err != nil {
		return nil, err
	}

	outcomes := dispatch.Each(ctx, r.Jobs, stores, func(ctx context.Context, s metastore.Store) ([]Owner, error) {
		t := s.Target()
		if _, err := vcs.Output(ctx, r.VCS, t, "rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{upstream}"); err != nil {
			l.Debug("no upstream, skipping", "repo", s.Name)
			return nil, nil
		}
		paths, err := vcs.Lines(ctx, r.VCS, t, "diff", "--name-only", "@{upstream}...HEAD")
		if err != nil {
			return nil, err
		}
		owners := make([]Owner, 0, len(paths))
		for _, p := range paths {
			owners = append(owners, Owner{Repo: s.Name, Path: strings.TrimSpace(p)})
		}
		return owners, nil
	})
	if err := dispatch.Errors(outcomes); err != nil {
		return nil, err
	}

	var owners []Owner
	for _, o := range outcomes {
		owners = append(owners, o.Value...)
	}
	return owners, nil
}
