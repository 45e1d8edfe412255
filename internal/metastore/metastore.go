// Package metastore maps repository names to their private metadata
// stores and binds every store to the one shared working tree.
//
// A [Store] is the explicit per-repository context passed to every VCS
// request: name, metadata store, shared working tree and exclude file.
package metastore

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/spf13/afero"

	"github.com/raphi011/ovl/internal/registry"
	"github.com/raphi011/ovl/internal/vcs"
)

var (
	// ErrNoMetaDir is returned when the metadata root does not exist.
	ErrNoMetaDir = errors.New("metadata root does not exist")
	// ErrExists is returned by Init when the store already exists.
	ErrExists = errors.New("metadata store already exists")
	// ErrNotCloned is returned when an operation needs a cloned repository.
	ErrNotCloned = errors.New("repository is not cloned")
)

const excludeSuffix = ".exclude"

// RootName identifies a plain repository living at the root itself.
const RootName = "."

// Store is the per-repository context for VCS requests.
type Store struct {
	Name        string
	GitDir      string
	WorkTree    string
	ExcludeFile string
}

// Target returns the VCS target for the store.
func (s Store) Target() vcs.Target {
	return vcs.Target{Name: s.Name, GitDir: s.GitDir, WorkTree: s.WorkTree}
}

// Layout describes where the shared tree and the metadata root live.
type Layout struct {
	Fs      afero.Fs
	Root    string
	MetaDir string
}

// Store returns the store for a validated repository name.
func (l Layout) Store(name string) (Store, error) {
	if err := registry.ValidName(name); err != nil {
		return Store{}, err
	}
	return Store{
		Name:        name,
		GitDir:      filepath.Join(l.MetaDir, name),
		WorkTree:    l.Root,
		ExcludeFile: filepath.Join(l.MetaDir, name+excludeSuffix),
	}, nil
}

// RootStore returns the plain repository at the root, if there is one.
func (l Layout) RootStore() (Store, bool) {
	gitDir := filepath.Join(l.Root, ".git")
	if ok, _ := afero.DirExists(l.Fs, gitDir); !ok {
		return Store{}, false
	}
	return Store{Name: RootName, GitDir: gitDir, WorkTree: l.Root}, true
}

// CheckMetaDir fails with ErrNoMetaDir if the metadata root is missing.
func (l Layout) CheckMetaDir() error {
	ok, err := afero.DirExists(l.Fs, l.MetaDir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", l.MetaDir, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoMetaDir, l.MetaDir)
	}
	return nil
}

// Exists reports whether the store of name exists.
func (l Layout) Exists(name string) (bool, error) {
	s, err := l.Store(name)
	if err != nil {
		return false, err
	}
	return afero.DirExists(l.Fs, s.GitDir)
}

// Cloned returns the names of all existing stores, sorted.
func (l Layout) Cloned() ([]string, error) {
	if err := l.CheckMetaDir(); err != nil {
		return nil, err
	}
	entries, err := afero.ReadDir(l.Fs, l.MetaDir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", l.MetaDir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() && registry.ValidName(e.Name()) == nil {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// Stores returns the stores for names.
func (l Layout) Stores(names []string) ([]Store, error) {
	stores := make([]Store, 0, len(names))
	for _, n := range names {
		s, err := l.Store(n)
		if err != nil {
			return nil, err
		}
		stores = append(stores, s)
	}
	return stores, nil
}

// ClonedStore returns the store of name, failing with ErrNotCloned if
// it doesn't exist.
func (l Layout) ClonedStore(name string) (Store, error) {
	s, err := l.Store(name)
	if err != nil {
		return Store{}, err
	}
	ok, err := afero.DirExists(l.Fs, s.GitDir)
	if err != nil {
		return Store{}, err
	}
	if !ok {
		return Store{}, fmt.Errorf("%w: %s", ErrNotCloned, name)
	}
	return s, nil
}

// WorkTreeRel returns the working tree as seen from the store, so the
// binding survives moving the whole tree.
func (s Store) WorkTreeRel() string {
	rel, err := filepath.Rel(s.GitDir, s.WorkTree)
	if err != nil {
		return s.WorkTree
	}
	return rel
}
