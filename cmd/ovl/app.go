package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"

	"github.com/raphi011/ovl/internal/clone"
	"github.com/raphi011/ovl/internal/config"
	"github.com/raphi011/ovl/internal/dispatch"
	"github.com/raphi011/ovl/internal/doctor"
	"github.com/raphi011/ovl/internal/lock"
	"github.com/raphi011/ovl/internal/metastore"
	"github.com/raphi011/ovl/internal/overlay"
	"github.com/raphi011/ovl/internal/registry"
	"github.com/raphi011/ovl/internal/release"
	"github.com/raphi011/ovl/internal/vcs"
)

// app holds everything a command needs, resolved once from config and
// global flags.
type app struct {
	cfg      config.Config
	layout   metastore.Layout
	vcs      vcs.Runner
	git      *vcs.Git
	registry *registry.Registry

	stdin       io.Reader
	interactive bool // stdin and stderr are terminals
}

type appKey struct{}

func withApp(ctx context.Context, a *app) context.Context {
	return context.WithValue(ctx, appKey{}, a)
}

func appFrom(ctx context.Context) *app {
	return ctx.Value(appKey{}).(*app)
}

// newApp resolves the layout from c, with --root and --jobs taking
// precedence.
func newApp(c config.Config, root string, jobs int) (*app, error) {
	if root != "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		c.Root = abs
	}
	if jobs > 0 {
		c.Jobs = jobs
	}

	rootDir, err := c.RootDir()
	if err != nil {
		return nil, err
	}
	metaDir, err := c.MetaDir()
	if err != nil {
		return nil, err
	}

	fs := afero.NewOsFs()
	git := vcs.NewGit(c.Git)
	return &app{
		cfg:         c,
		layout:      metastore.Layout{Fs: fs, Root: rootDir, MetaDir: metaDir},
		vcs:         git,
		git:         git,
		registry:    registry.New(fs, metaDir),
		stdin:       os.Stdin,
		interactive: isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stderr.Fd()),
	}, nil
}

func (a *app) jobs() int {
	return max(a.cfg.Jobs, 1)
}

func (a *app) adapter() *metastore.Adapter {
	return metastore.NewAdapter(a.layout, a.vcs)
}

func (a *app) overlay() *overlay.Resolver {
	return overlay.New(a.layout, a.vcs, a.jobs())
}

func (a *app) dispatcher() *dispatch.Dispatcher {
	return dispatch.New(a.layout, a.vcs, a.jobs())
}

func (a *app) orchestrator(refuseConflicts bool) *clone.Orchestrator {
	return clone.New(a.adapter(), a.registry, clone.Options{
		Jobs:            a.jobs(),
		DefaultBranch:   a.cfg.DefaultBranch,
		RefuseConflicts: refuseConflicts || a.cfg.Clone.RefuseConflicts,
	})
}

func (a *app) releases(cloner release.Cloner) *release.Manager {
	lockPath := filepath.Join(a.layout.MetaDir, lock.FileName)
	return &release.Manager{
		Layout:  a.layout,
		VCS:     a.vcs,
		Jobs:    a.jobs(),
		Remover: a.overlay(),
		Cloner:  cloner,
		Lock: func(ctx context.Context) (func(), error) {
			return lock.Acquire(ctx, lockPath)
		},
	}
}

func (a *app) doctor() *doctor.Doctor {
	d := doctor.New(a.layout, a.vcs, a.registry, a.jobs())
	d.CheckGit = a.git.Check
	return d
}
