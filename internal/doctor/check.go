package doctor

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/raphi011/ovl/internal/clone"
	"github.com/raphi011/ovl/internal/metastore"
	"github.com/raphi011/ovl/internal/vcs"
)

// checkStore verifies that s is bound to the shared tree and has an
// exclude file.
func (d *Doctor) checkStore(ctx context.Context, s metastore.Store) []Issue {
	var issues []Issue

	wt, err := vcs.Output(ctx, d.VCS, vcs.Target{Name: s.Name, GitDir: s.GitDir}, "config", "--get", "core.worktree")
	switch {
	case err != nil || wt == "":
		issues = append(issues, Issue{
			Category:    CategoryStore,
			Repo:        s.Name,
			Description: "core.worktree is not set",
			Fix:         FixRebind,
		})
	default:
		if !filepath.IsAbs(wt) {
			wt = filepath.Join(s.GitDir, wt)
		}
		if filepath.Clean(wt) != filepath.Clean(d.Layout.Root) {
			issues = append(issues, Issue{
				Category:    CategoryStore,
				Repo:        s.Name,
				Description: fmt.Sprintf("core.worktree points to %s instead of %s", wt, d.Layout.Root),
				Fix:         FixRebind,
			})
		}
	}

	if ok, _ := afero.Exists(d.Layout.Fs, s.ExcludeFile); !ok {
		issues = append(issues, Issue{
			Category:    CategoryStore,
			Repo:        s.Name,
			Description: "exclude file is missing, untracked files show up in status",
			Fix:         FixWriteExclude,
		})
	}
	return issues
}

// checkOrigins verifies that every registered origin yields a fetch URL.
func (d *Doctor) checkOrigins() (int, []Issue, error) {
	names, err := d.Registry.Known()
	if err != nil {
		return 0, nil, err
	}
	var issues []Issue
	for _, n := range names {
		origin, _, err := d.Registry.Origin(n)
		if err != nil {
			return 0, nil, err
		}
		if _, err := clone.FetchURL(d.Registry, origin, n); err != nil {
			issues = append(issues, Issue{
				Category:    CategoryRegistry,
				Repo:        n,
				Description: fmt.Sprintf("origin %q does not resolve to a URL (ovl baseurl set %s <url>/)", origin, origin),
			})
		}
	}
	return len(names), issues, nil
}

// checkOverlay reports every owner of a double-tracked file.
func (d *Doctor) checkOverlay(ctx context.Context) ([]Issue, error) {
	owners, err := d.Overlay.DoubleTracked(ctx)
	if err != nil {
		return nil, err
	}
	issues := make([]Issue, 0, len(owners))
	for _, o := range owners {
		issues = append(issues, Issue{
			Category:    CategoryOverlay,
			Repo:        o.Repo,
			Description: fmt.Sprintf("%s is tracked by more than one repository", o.Path),
		})
	}
	return issues, nil
}
