// Package release records and restores multi-repository snapshots.
//
// A release file lists (repository, version) pairs, one per line.
// Update records the versions currently checked out; Clone reconciles the
// overlay to a release by removing repositories it doesn't list and
// checking out every listed version. The repository marked with version
// "*" carries the release file and is never touched.
package release

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/afero"

	"github.com/raphi011/ovl/internal/clone"
	"github.com/raphi011/ovl/internal/dispatch"
	"github.com/raphi011/ovl/internal/log"
	"github.com/raphi011/ovl/internal/metastore"
	"github.com/raphi011/ovl/internal/overlay"
	"github.com/raphi011/ovl/internal/registry"
	"github.com/raphi011/ovl/internal/storage"
	"github.com/raphi011/ovl/internal/vcs"
)

// Suffix is the extension of release files.
const Suffix = ".release"

var (
	// ErrNotFound is returned when a release file does not exist.
	ErrNotFound = errors.New("release not found")
	// ErrReconcile is returned when a release could not be fully restored.
	ErrReconcile = errors.New("release reconciliation failed")
)

// Remover removes a cloned repository from the overlay.
type Remover interface {
	Remove(ctx context.Context, name string, opts overlay.RemoveOptions) (overlay.RemoveResult, error)
}

// Cloner clones or updates repositories from specifiers.
type Cloner interface {
	Batch(ctx context.Context, specs []string) ([]clone.Result, error)
}

// Manager reads, writes and restores release files.
type Manager struct {
	Layout  metastore.Layout
	VCS     vcs.Runner
	Jobs    int
	Remover Remover
	Cloner  Cloner

	// Lock, when set, is held for the whole of Clone.
	Lock func(ctx context.Context) (unlock func(), err error)
}

// Change is a recorded version that changed.
type Change struct {
	Repo string
	Old  string
	New  string
}

func (c Change) String() string {
	if c.Old == "" {
		return fmt.Sprintf("%s: %s", c.Repo, c.New)
	}
	return fmt.Sprintf("%s: %s -> %s", c.Repo, c.Old, c.New)
}

// UpdateOptions controls Update.
type UpdateOptions struct {
	// TagMode records the nearest tag instead of the described revision.
	TagMode bool
}

// Resolve maps a release name to its file. An existing path ending in
// the release suffix is used as is. Unless allowMissing is set the file
// must exist.
func (m *Manager) Resolve(nameOrPath string, allowMissing bool) (string, error) {
	if strings.HasSuffix(nameOrPath, Suffix) {
		if ok, _ := afero.Exists(m.Layout.Fs, nameOrPath); ok {
			return nameOrPath, nil
		}
	}

	var path string
	switch {
	case registry.ValidName(nameOrPath) == nil:
		path = filepath.Join(m.Layout.MetaDir, nameOrPath+Suffix)
	case strings.HasSuffix(nameOrPath, Suffix) && strings.ContainsRune(nameOrPath, filepath.Separator):
		path = nameOrPath
	default:
		return "", fmt.Errorf("%w: invalid release %q", registry.ErrUsage, nameOrPath)
	}

	if allowMissing {
		return path, nil
	}
	ok, err := afero.Exists(m.Layout.Fs, path)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, nameOrPath)
	}
	return path, nil
}

// Show returns the raw content of a release.
func (m *Manager) Show(nameOrPath string) ([]byte, error) {
	path, err := m.Resolve(nameOrPath, false)
	if err != nil {
		return nil, err
	}
	return afero.ReadFile(m.Layout.Fs, path)
}

// Read returns the pairs of a release.
func (m *Manager) Read(nameOrPath string) ([]Entry, error) {
	data, err := m.Show(nameOrPath)
	if err != nil {
		return nil, err
	}
	lines, err := parseLines(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", nameOrPath, err)
	}
	return entries(lines), nil
}

// List returns the names of the releases in the metadata root.
func (m *Manager) List() ([]string, error) {
	if err := m.Layout.CheckMetaDir(); err != nil {
		return nil, err
	}
	infos, err := afero.ReadDir(m.Layout.Fs, m.Layout.MetaDir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, fi := range infos {
		if name, ok := strings.CutSuffix(fi.Name(), Suffix); ok && !fi.IsDir() {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Create writes a new release. Unless empty is set it records the current
// version of every cloned repository.
func (m *Manager) Create(ctx context.Context, nameOrPath string, empty bool, opts UpdateOptions) ([]Change, error) {
	path, err := m.Resolve(nameOrPath, true)
	if err != nil {
		return nil, err
	}
	if ok, _ := afero.Exists(m.Layout.Fs, path); ok {
		return nil, fmt.Errorf("release %s already exists: %s", nameOrPath, path)
	}
	if empty {
		return nil, storage.WriteFile(m.Layout.Fs, path, nil)
	}
	return m.create(ctx, path, opts)
}

func (m *Manager) create(ctx context.Context, path string, opts UpdateOptions) ([]Change, error) {
	l := log.FromContext(ctx)

	names, err := m.Layout.Cloned()
	if err != nil {
		return nil, err
	}
	versions, err := m.versions(ctx, names, opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	var changes []Change
	es := make([]Entry, 0, len(names))
	for _, n := range names {
		es = append(es, Entry{Repo: n, Version: versions[n]})
		changes = append(changes, Change{Repo: n, New: versions[n]})
	}
	if err := Format(&buf, es); err != nil {
		return nil, err
	}
	if err := storage.WriteFile(m.Layout.Fs, path, buf.Bytes()); err != nil {
		return nil, err
	}
	l.Printf("Created %s with %d repositories\n", path, len(es))
	return changes, nil
}

// versions describes the checkout of every named repository concurrently.
func (m *Manager) versions(ctx context.Context, names []string, opts UpdateOptions) (map[string]string, error) {
	stores, err := m.Layout.Stores(names)
	if err != nil {
		return nil, err
	}
	outcomes := dispatch.Each(ctx, m.Jobs, stores, func(ctx context.Context, s metastore.Store) (string, error) {
		return vcs.Version(ctx, m.VCS, s.Target(), opts.TagMode)
	})
	if err := dispatch.Errors(outcomes); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(outcomes))
	for _, o := range outcomes {
		out[o.Repo] = o.Value
	}
	return out, nil
}

// Update records the current version of every listed repository, keeping
// line order and comments. Changes are reported to the logger. A missing
// release is created from every cloned repository. When nothing changed
// the file is left untouched.
func (m *Manager) Update(ctx context.Context, nameOrPath string, opts UpdateOptions) ([]Change, error) {
	l := log.FromContext(ctx)

	path, err := m.Resolve(nameOrPath, true)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(m.Layout.Fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return m.create(ctx, path, opts)
	}
	if err != nil {
		return nil, err
	}

	lines, err := parseLines(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var names []string
	for _, e := range entries(lines) {
		if e.Self() {
			continue
		}
		ok, err := m.Layout.Exists(e.Repo)
		if err != nil {
			return nil, err
		}
		if !ok {
			l.Warnf("%s is not cloned, keeping %s", e.Repo, e.Version)
			continue
		}
		names = append(names, e.Repo)
	}
	versions, err := m.versions(ctx, names, opts)
	if err != nil {
		return nil, err
	}

	var changes []Change
	for i, ln := range lines {
		if ln.entry == nil {
			continue
		}
		v, ok := versions[ln.entry.Repo]
		if !ok || v == ln.entry.Version {
			continue
		}
		changes = append(changes, Change{Repo: ln.entry.Repo, Old: ln.entry.Version, New: v})
		e := Entry{Repo: ln.entry.Repo, Version: v}
		lines[i] = line{raw: e.String(), entry: &e}
	}
	if len(changes) == 0 {
		l.Debug("release unchanged", "path", path)
		return nil, nil
	}

	if err := storage.WriteFile(m.Layout.Fs, path, render(lines)); err != nil {
		return nil, err
	}
	for _, c := range changes {
		l.Printf("%s\n", c)
	}
	return changes, nil
}

// Clone reconciles the overlay to a release: repositories the release
// doesn't list are removed without confirmation, then every listed
// version is checked out through the cloner. Removals are not rolled back
// when a checkout fails.
func (m *Manager) Clone(ctx context.Context, nameOrPath string) ([]clone.Result, error) {
	l := log.FromContext(ctx)

	// Taking the lock creates its file, so a missing metadata root fails first.
	if err := m.Layout.CheckMetaDir(); err != nil {
		return nil, err
	}
	if m.Lock != nil {
		unlock, err := m.Lock(ctx)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	es, err := m.Read(nameOrPath)
	if err != nil {
		return nil, err
	}
	cloned, err := m.Layout.Cloned()
	if err != nil {
		return nil, err
	}

	listed := lo.Map(es, func(e Entry, _ int) string { return e.Repo })
	for _, name := range lo.Without(cloned, listed...) {
		l.Printf("Removing %s (not in release)\n", name)
		if _, err := m.Remover.Remove(ctx, name, overlay.RemoveOptions{Force: true}); err != nil {
			return nil, fmt.Errorf("%w: remove %s: %w", ErrReconcile, name, err)
		}
	}

	specs := lo.FilterMap(es, func(e Entry, _ int) (string, bool) {
		return e.Repo + "=" + e.Version, !e.Self()
	})
	if len(specs) == 0 {
		return nil, nil
	}

	results, err := m.Cloner.Batch(ctx, specs)
	if err != nil {
		return nil, err
	}
	if err := clone.Failures(results); err != nil {
		return results, fmt.Errorf("%w: %w", ErrReconcile, err)
	}
	return results, nil
}

// Remove deletes a release file.
func (m *Manager) Remove(nameOrPath string) error {
	path, err := m.Resolve(nameOrPath, false)
	if err != nil {
		return err
	}
	if err := m.Layout.Fs.Remove(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
