package overlay

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/raphi011/ovl/internal/dispatch"
	"github.com/raphi011/ovl/internal/metastore"
	"github.com/raphi011/ovl/internal/registry"
	"github.com/raphi011/ovl/internal/vcs"
)

// Owner pairs a repository with a path it tracks.
type Owner struct {
	Repo string
	Path string
}

// Resolver computes ownership over the cloned repositories of a layout.
type Resolver struct {
	Layout metastore.Layout
	VCS    vcs.Runner
	Jobs   int
}

// New returns a resolver over layout.
func New(layout metastore.Layout, runner vcs.Runner, jobs int) *Resolver {
	return &Resolver{Layout: layout, VCS: runner, Jobs: jobs}
}

type listing struct {
	repo  string
	files []string // sorted
}

// stores returns every cloned store in name order, followed by the root
// repository if there is one.
func (r *Resolver) stores() ([]metastore.Store, error) {
	names, err := r.Layout.Cloned()
	if err != nil {
		return nil, err
	}
	stores, err := r.Layout.Stores(names)
	if err != nil {
		return nil, err
	}
	if root, ok := r.Layout.RootStore(); ok {
		stores = append(stores, root)
	}
	return stores, nil
}

func (r *Resolver) listings(ctx context.Context, stores []metastore.Store) ([]listing, error) {
	outcomes := dispatch.Each(ctx, r.Jobs, stores, func(ctx context.Context, s metastore.Store) ([]string, error) {
		files, err := vcs.TrackedFiles(ctx, r.VCS, s.Target())
		if err != nil {
			return nil, fmt.Errorf("list files: %w", err)
		}
		slices.Sort(files)
		return files, nil
	})
	if err := dispatch.Errors(outcomes); err != nil {
		return nil, err
	}

	out := make([]listing, len(outcomes))
	for i, o := range outcomes {
		out[i] = listing{repo: o.Repo, files: o.Value}
	}
	return out, nil
}

func (r *Resolver) allListings(ctx context.Context) ([]listing, error) {
	stores, err := r.stores()
	if err != nil {
		return nil, err
	}
	return r.listings(ctx, stores)
}

// TrackedFiles returns the sorted union of every listing. With dedupe only
// paths listed more than once are returned, each once.
func (r *Resolver) TrackedFiles(ctx context.Context, dedupe bool) ([]string, error) {
	ls, err := r.allListings(ctx)
	if err != nil {
		return nil, err
	}
	return merge(ls, dedupe), nil
}

func merge(ls []listing, dedupe bool) []string {
	var all []string
	for _, l := range ls {
		all = append(all, l.files...)
	}
	slices.Sort(all)
	if !dedupe {
		return slices.Compact(all)
	}

	var dups []string
	for i := 1; i < len(all); i++ {
		if all[i] == all[i-1] && (len(dups) == 0 || dups[len(dups)-1] != all[i]) {
			dups = append(dups, all[i])
		}
	}
	return dups
}

// UntrackedFiles returns the files under the root no listing contains.
// The metadata root and the root repository's git dir are not walked.
func (r *Resolver) UntrackedFiles(ctx context.Context) ([]string, error) {
	tracked, err := r.TrackedFiles(ctx, false)
	if err != nil {
		return nil, err
	}
	onDisk, err := r.walk(ctx)
	if err != nil {
		return nil, err
	}
	return MinusSorted(onDisk, tracked), nil
}

func (r *Resolver) walk(ctx context.Context) ([]string, error) {
	root := filepath.Clean(r.Layout.Root)
	skip := map[string]bool{
		filepath.Clean(r.Layout.MetaDir): true,
		filepath.Join(root, ".git"):      true,
	}

	var files []string
	err := afero.Walk(r.Layout.Fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				return nil
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if info.IsDir() {
			if skip[path] {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() && info.Mode()&os.ModeSymlink == 0 {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	slices.Sort(files)
	return files, nil
}

// MinusSorted returns the elements of a not in b. Both must be sorted.
func MinusSorted(a, b []string) []string {
	var out []string
	i, j := 0, 0
	for i < len(a) {
		switch {
		case j >= len(b) || a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			j++
		default:
			i++
		}
	}
	return out
}

// DoubleTracked returns every owner of every path listed more than once,
// ordered by path and then by repository enumeration order.
func (r *Resolver) DoubleTracked(ctx context.Context) ([]Owner, error) {
	ls, err := r.allListings(ctx)
	if err != nil {
		return nil, err
	}
	dups := merge(ls, true)
	if len(dups) == 0 {
		return nil, nil
	}

	var owners []Owner
	for _, l := range ls {
		for _, p := range l.files {
			if _, ok := slices.BinarySearch(dups, p); ok {
				owners = append(owners, Owner{Repo: l.repo, Path: p})
			}
		}
	}
	slices.SortStableFunc(owners, func(a, b Owner) int {
		return strings.Compare(a.Path, b.Path)
	})
	return owners, nil
}

// candidateFunc derives a likely owning repository name from a file's
// base name. An empty result means no candidate.
type candidateFunc func(base string) string

// candidates are tried in order before falling back to a full scan.
var candidates = []candidateFunc{
	stripExtension,
	stripLastUnderscoreSegment,
}

func stripExtension(base string) string {
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func stripLastUnderscoreSegment(base string) string {
	i := strings.LastIndex(base, "_")
	if i <= 0 {
		return ""
	}
	return base[:i]
}

// RelPath turns path into a slash-separated path relative to the root.
// Relative paths are taken as relative to the root already.
func (r *Resolver) RelPath(path string) (string, error) {
	if filepath.IsAbs(path) {
		rel, err := filepath.Rel(r.Layout.Root, path)
		if err != nil {
			return "", fmt.Errorf("%w: %s is not under %s", registry.ErrUsage, path, r.Layout.Root)
		}
		path = rel
	}
	path = filepath.ToSlash(filepath.Clean(path))
	if path == "." || path == ".." || strings.HasPrefix(path, "../") {
		return "", fmt.Errorf("%w: %s is not under %s", registry.ErrUsage, path, r.Layout.Root)
	}
	return path, nil
}

// OwnerOf returns the first repository whose listing contains path.
// Repositories named after the file are checked before all others.
func (r *Resolver) OwnerOf(ctx context.Context, path string) (string, bool, error) {
	rel, err := r.RelPath(path)
	if err != nil {
		return "", false, err
	}
	all, err := r.stores()
	if err != nil {
		return "", false, err
	}

	byName := make(map[string]metastore.Store, len(all))
	for _, s := range all {
		byName[s.Name] = s
	}

	base := filepath.Base(rel)
	checked := map[string]bool{}
	for _, fn := range candidates {
		name := fn(base)
		s, ok := byName[name]
		if name == "" || !ok || checked[name] {
			continue
		}
		checked[name] = true
		if found, err := r.tracks(ctx, s, rel); err != nil || found {
			return name, found, err
		}
	}

	for _, s := range all {
		if checked[s.Name] {
			continue
		}
		if found, err := r.tracks(ctx, s, rel); err != nil || found {
			return s.Name, found, err
		}
	}
	return "", false, nil
}

func (r *Resolver) tracks(ctx context.Context, s metastore.Store, path string) (bool, error) {
	files, err := vcs.TrackedFiles(ctx, r.VCS, s.Target())
	if err != nil {
		return false, fmt.Errorf("%s: list files: %w", s.Name, err)
	}
	return slices.Contains(files, path), nil
}
