package metastore

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/raphi011/ovl/internal/log"
	"github.com/raphi011/ovl/internal/storage"
	"github.com/raphi011/ovl/internal/vcs"
)

// DefaultExclude ignores everything not explicitly tracked.
const DefaultExclude = "*\n"

// Adapter creates, binds and destroys metadata stores.
type Adapter struct {
	Layout
	VCS vcs.Runner
}

// NewAdapter returns an adapter for layout using runner for VCS requests.
func NewAdapter(layout Layout, runner vcs.Runner) *Adapter {
	return &Adapter{Layout: layout, VCS: runner}
}

// InitOptions controls Init.
type InitOptions struct {
	// SkipExclude leaves the exclude file alone because one is expected
	// to be checked out as part of the repository content.
	SkipExclude bool
}

// Init creates the store of name and binds it to the shared working tree.
// It never reuses an existing store. On failure nothing is left behind.
func (a *Adapter) Init(ctx context.Context, name string, opts InitOptions) (Store, error) {
	s, err := a.Store(name)
	if err != nil {
		return Store{}, err
	}
	exists, err := afero.DirExists(a.Fs, s.GitDir)
	if err != nil {
		return Store{}, err
	}
	if exists {
		return Store{}, fmt.Errorf("%w: %s", ErrExists, s.GitDir)
	}
	hadExclude, err := afero.Exists(a.Fs, s.ExcludeFile)
	if err != nil {
		return Store{}, err
	}

	log.FromContext(ctx).Debug("init store", "repo", name, "gitdir", s.GitDir)

	if err := a.Fs.MkdirAll(s.GitDir, 0o755); err != nil {
		return Store{}, fmt.Errorf("create %s: %w", s.GitDir, err)
	}
	if err := a.init(ctx, s, opts); err != nil {
		a.Discard(s, hadExclude)
		return Store{}, err
	}
	return s, nil
}

func (a *Adapter) init(ctx context.Context, s Store, opts InitOptions) error {
	// No work tree on init: the binding is written relative by Bind.
	if err := vcs.Run(ctx, a.VCS, vcs.Target{Name: s.Name, GitDir: s.GitDir}, "init", "--quiet"); err != nil {
		return fmt.Errorf("init %s: %w", s.Name, err)
	}
	if err := a.Bind(ctx, s); err != nil {
		return err
	}
	if !opts.SkipExclude {
		if _, err := a.EnsureExclude(s); err != nil {
			return err
		}
	}
	return nil
}

// Bind points the store at the shared working tree and its exclude file.
func (a *Adapter) Bind(ctx context.Context, s Store) error {
	t := vcs.Target{Name: s.Name, GitDir: s.GitDir}
	settings := [][2]string{
		{"core.bare", "false"},
		{"core.worktree", s.WorkTreeRel()},
		{"core.excludesfile", s.ExcludeFile},
		{"status.showUntrackedFiles", "no"},
	}
	for _, kv := range settings {
		if err := vcs.Run(ctx, a.VCS, t, "config", kv[0], kv[1]); err != nil {
			return fmt.Errorf("configure %s %s: %w", s.Name, kv[0], err)
		}
	}
	return nil
}

// EnsureExclude writes the default exclude file if none exists.
// It reports whether a file was written.
func (a *Adapter) EnsureExclude(s Store) (bool, error) {
	exists, err := afero.Exists(a.Fs, s.ExcludeFile)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := storage.WriteFile(a.Fs, s.ExcludeFile, []byte(DefaultExclude)); err != nil {
		return false, fmt.Errorf("write exclude file of %s: %w", s.Name, err)
	}
	return true, nil
}

// Destroy removes the store and its exclude file.
func (a *Adapter) Destroy(s Store) error {
	if err := a.Fs.RemoveAll(s.GitDir); err != nil {
		return fmt.Errorf("remove %s: %w", s.GitDir, err)
	}
	if err := storage.Remove(a.Fs, s.ExcludeFile); err != nil {
		return fmt.Errorf("remove %s: %w", s.ExcludeFile, err)
	}
	return nil
}

// Discard removes a store that never came up. The exclude file is left
// in place when keepExclude is set, as it predates the store.
func (a *Adapter) Discard(s Store, keepExclude bool) error {
	if !keepExclude {
		return a.Destroy(s)
	}
	if err := a.Fs.RemoveAll(s.GitDir); err != nil {
		return fmt.Errorf("remove %s: %w", s.GitDir, err)
	}
	return nil
}

// Convert turns the plain repository whose git dir is src into the store
// of name, keeping its history, remotes and index.
func (a *Adapter) Convert(ctx context.Context, name, src string) (Store, error) {
	s, err := a.Store(name)
	if err != nil {
		return Store{}, err
	}
	if ok, err := afero.DirExists(a.Fs, src); err != nil || !ok {
		return Store{}, fmt.Errorf("%s is not a git directory", src)
	}
	if ok, _ := afero.DirExists(a.Fs, s.GitDir); ok {
		return Store{}, fmt.Errorf("%w: %s", ErrExists, s.GitDir)
	}

	if err := a.Fs.MkdirAll(a.MetaDir, 0o755); err != nil {
		return Store{}, fmt.Errorf("create %s: %w", a.MetaDir, err)
	}
	if err := a.Fs.Rename(src, s.GitDir); err != nil {
		return Store{}, fmt.Errorf("move %s to %s: %w", src, s.GitDir, err)
	}
	if err := a.Bind(ctx, s); err != nil {
		if rerr := a.Fs.Rename(s.GitDir, src); rerr != nil {
			log.FromContext(ctx).Warnf("could not move %s back to %s: %v", s.GitDir, src, rerr)
		}
		return Store{}, err
	}
	if _, err := a.EnsureExclude(s); err != nil {
		return Store{}, err
	}
	return s, nil
}
