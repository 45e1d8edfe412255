package overlay

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/raphi011/ovl/internal/log"
	"github.com/raphi011/ovl/internal/metastore"
)

// ErrDirty is returned when removing a repository with uncommitted changes.
var ErrDirty = errors.New("repository has uncommitted changes")

// RemoveOptions controls Remove.
type RemoveOptions struct {
	// Force removes the repository even if it has uncommitted changes.
	Force bool
}

// RemoveResult describes what Remove deleted.
type RemoveResult struct {
	Repo    string
	Removed []string // files deleted from the working tree
	Kept    []string // files left because another repository tracks them
}

// Remove deletes the files of name from the working tree, keeping those
// another repository also tracks, prunes directories left empty and
// destroys the metadata store. The registry record survives.
func (r *Resolver) Remove(ctx context.Context, name string, opts RemoveOptions) (RemoveResult, error) {
	l := log.FromContext(ctx)

	s, err := r.Layout.ClonedStore(name)
	if err != nil {
		return RemoveResult{}, err
	}

	if !opts.Force {
		changes, err := status(ctx, r.VCS, s)
		if err != nil {
			return RemoveResult{}, fmt.Errorf("%s: %w", name, err)
		}
		if len(changes) > 0 {
			return RemoveResult{}, fmt.Errorf("%w: %s (use --force to remove anyway)", ErrDirty, name)
		}
	}

	all, err := r.stores()
	if err != nil {
		return RemoveResult{}, err
	}
	ls, err := r.listings(ctx, all)
	if err != nil {
		return RemoveResult{}, err
	}

	var own, others []string
	for _, li := range ls {
		if li.repo == name {
			own = li.files
		} else {
			others = append(others, li.files...)
		}
	}
	slices.Sort(others)

	res := RemoveResult{Repo: name}
	res.Removed = MinusSorted(own, others)
	res.Kept = MinusSorted(own, res.Removed)

	dirs := map[string]bool{}
	for _, p := range res.Removed {
		abs := filepath.Join(r.Layout.Root, filepath.FromSlash(p))
		if err := r.Layout.Fs.Remove(abs); err != nil && !os.IsNotExist(err) {
			return res, fmt.Errorf("remove %s: %w", abs, err)
		}
		dirs[filepath.Dir(abs)] = true
	}
	for _, p := range res.Kept {
		l.Warnf("%s is also tracked by another repository, keeping it", p)
	}

	r.pruneEmpty(dirs)

	if err := metastore.NewAdapter(r.Layout, r.VCS).Destroy(s); err != nil {
		return res, err
	}
	l.Debug("removed repository", "repo", name, "files", len(res.Removed))
	return res, nil
}

// pruneEmpty removes the given directories and their parents up to the
// root as long as they are empty. Deepest directories go first.
func (r *Resolver) pruneEmpty(dirs map[string]bool) {
	root := filepath.Clean(r.Layout.Root)
	list := make([]string, 0, len(dirs))
	for d := range dirs {
		list = append(list, d)
	}
	slices.SortFunc(list, func(a, b string) int {
		return strings.Count(b, string(filepath.Separator)) - strings.Count(a, string(filepath.Separator))
	})

	for _, d := range list {
		for d != root && strings.HasPrefix(d, root+string(filepath.Separator)) {
			empty, err := afero.IsEmpty(r.Layout.Fs, d)
			if err != nil || !empty {
				break
			}
			if err := r.Layout.Fs.Remove(d); err != nil {
				break
			}
			d = filepath.Dir(d)
		}
	}
}
