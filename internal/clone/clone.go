package clone

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/raphi011/ovl/internal/log"
	"github.com/raphi011/ovl/internal/metastore"
	"github.com/raphi011/ovl/internal/overlay"
	"github.com/raphi011/ovl/internal/registry"
	"github.com/raphi011/ovl/internal/vcs"
)

var (
	// ErrNoOrigin is returned when a new repository has no origin.
	ErrNoOrigin = errors.New("no known origin")
	// ErrNoURL is returned when no fetch URL can be derived for an origin.
	ErrNoURL = errors.New("cannot resolve fetch URL")
	// ErrUnpushed is returned when updating a branch with local commits.
	ErrUnpushed = errors.New("unpushed commits")
	// ErrConflict is returned when a checkout would claim files another
	// repository already tracks.
	ErrConflict = errors.New("files already tracked by another repository")
)

// Phase is the progress of one specifier.
type Phase int

const (
	Parsed Phase = iota
	Resolved
	Cloning
	Updating
	CheckedOut
	Failed
)

func (p Phase) String() string {
	switch p {
	case Parsed:
		return "parsed"
	case Resolved:
		return "resolved"
	case Cloning:
		return "cloning"
	case Updating:
		return "updating"
	case CheckedOut:
		return "checked out"
	default:
		return "failed"
	}
}

// Action is what a successful checkout did.
type Action int

const (
	NoAction Action = iota
	Cloned
	Updated
	Satisfied // requested version already checked out
	UpToDate  // default branch already at the remote tip
)

func (a Action) String() string {
	switch a {
	case Cloned:
		return "cloned"
	case Updated:
		return "updated"
	case Satisfied:
		return "already at requested version"
	case UpToDate:
		return "up to date"
	default:
		return "none"
	}
}

// Plan is a resolved specifier.
type Plan struct {
	Spec       Spec
	Store      metastore.Store
	State      metastore.State
	Origin     string // origin to register
	PrevOrigin string // origin registered before this run
	URL        string // fetch URL; empty for updates keeping their remote
}

// Options configures an Orchestrator.
type Options struct {
	Jobs            int
	DefaultBranch   string // branch created for remotes without commits
	RefuseConflicts bool
}

// Orchestrator clones and updates repositories.
type Orchestrator struct {
	Adapter  *metastore.Adapter
	Registry *registry.Registry
	Overlay  *overlay.Resolver
	Opts     Options

	// Progress is called once per finished specifier in Batch.
	// Calls are serialised.
	Progress func(Result)
}

// New returns an orchestrator.
func New(adapter *metastore.Adapter, reg *registry.Registry, opts Options) *Orchestrator {
	if opts.DefaultBranch == "" {
		opts.DefaultBranch = "main"
	}
	return &Orchestrator{
		Adapter:  adapter,
		Registry: reg,
		Overlay:  overlay.New(adapter.Layout, adapter.VCS, opts.Jobs),
		Opts:     opts,
	}
}

// Resolve decides between clone and update and works out the origin and
// fetch URL. It never modifies the filesystem.
func (o *Orchestrator) Resolve(spec Spec) (Plan, error) {
	s, err := o.Adapter.Store(spec.Name)
	if err != nil {
		return Plan{}, err
	}
	state, err := o.Adapter.State(spec.Name, o.Registry)
	if err != nil {
		return Plan{}, err
	}
	prev, _, err := o.Registry.Origin(spec.Name)
	if err != nil {
		return Plan{}, err
	}

	p := Plan{Spec: spec, Store: s, State: state, PrevOrigin: prev, Origin: spec.Origin}
	if p.Origin == "" {
		p.Origin = prev
	}

	if state == metastore.Cloned {
		if spec.Origin != "" && spec.Origin != prev {
			if p.URL, err = o.fetchURL(spec, p.Origin); err != nil {
				return Plan{}, err
			}
		}
		return p, nil
	}

	if p.Origin == "" {
		return Plan{}, fmt.Errorf("%w: %w for %s (use <origin>/%s or a URL)", registry.ErrUsage, ErrNoOrigin, spec.Name, spec.Name)
	}
	if p.URL, err = o.fetchURL(spec, p.Origin); err != nil {
		return Plan{}, err
	}
	return p, nil
}

func (o *Orchestrator) fetchURL(spec Spec, origin string) (string, error) {
	if spec.URL != "" {
		return spec.URL, nil
	}
	return FetchURL(o.Registry, origin, spec.Name)
}

// FetchURL derives the fetch URL of name from its origin: the origin's
// base URL followed by the name, or the origin itself if it is a URL.
func FetchURL(reg *registry.Registry, origin, name string) (string, error) {
	base, ok, err := reg.BaseURL(origin)
	switch {
	case err == nil && ok:
		return base + name, nil
	case IsURL(origin):
		return origin, nil
	case err != nil:
		return "", err
	}
	return "", fmt.Errorf("%w: %w: origin %q has no base URL and is not a URL\n"+
		"register one with: ovl baseurl set %s <url>/", registry.ErrUsage, ErrNoURL, origin, origin)
}

// Checkout executes a resolved plan.
func (o *Orchestrator) Checkout(ctx context.Context, p Plan) (Action, error) {
	if p.State == metastore.Cloned {
		return o.update(ctx, p)
	}
	return o.clone(ctx, p)
}

func (o *Orchestrator) clone(ctx context.Context, p Plan) (Action, error) {
	l := log.FromContext(ctx)

	// Another repository may track the exclude file; cleanup must spare it.
	hadExclude, err := afero.Exists(o.Adapter.Fs, p.Store.ExcludeFile)
	if err != nil {
		return NoAction, err
	}
	// A checked-out exclude file takes precedence, so it is written after checkout.
	s, err := o.Adapter.Init(ctx, p.Spec.Name, metastore.InitOptions{SkipExclude: true})
	if err != nil {
		return NoAction, err
	}
	if err := o.populate(ctx, s, p); err != nil {
		if derr := o.Adapter.Discard(s, hadExclude); derr != nil {
			l.Warnf("cleanup of %s failed: %v", s.Name, derr)
		}
		return NoAction, err
	}

	if p.Origin != p.PrevOrigin {
		if err := o.Registry.SetOrigin(s.Name, p.Origin); err != nil {
			return Cloned, fmt.Errorf("register origin: %w", err)
		}
	}
	return Cloned, nil
}

func (o *Orchestrator) populate(ctx context.Context, s metastore.Store, p Plan) error {
	t := s.Target()
	runner := o.Adapter.VCS

	if err := vcs.Run(ctx, runner, t, "remote", "add", "origin", p.URL); err != nil {
		return fmt.Errorf("add remote: %w", err)
	}
	if err := vcs.Run(ctx, runner, t, "fetch", "--tags", "origin"); err != nil {
		return fmt.Errorf("fetch %s: %w", p.URL, err)
	}

	branch, ok := o.remoteHead(ctx, t)
	if !ok {
		if p.Spec.Version != "" {
			return fmt.Errorf("cannot check out %s: remote has no default branch", p.Spec.Version)
		}
		ref := "refs/heads/" + o.Opts.DefaultBranch
		if err := vcs.Run(ctx, runner, t, "symbolic-ref", "HEAD", ref); err != nil {
			return fmt.Errorf("create %s: %w", o.Opts.DefaultBranch, err)
		}
	} else {
		target := p.Spec.Version
		if target == "" {
			target = branch
		}
		if o.Opts.RefuseConflicts {
			ref := target
			if p.Spec.Version == "" {
				ref = "origin/" + branch
			}
			if err := o.checkConflicts(ctx, s, ref); err != nil {
				return err
			}
		}
		if err := vcs.Run(ctx, runner, t, "branch", "--track", branch, "origin/"+branch); err != nil {
			return fmt.Errorf("create tracking branch %s: %w", branch, err)
		}
		if err := vcs.Run(ctx, runner, t, "checkout", "-q", target); err != nil {
			return fmt.Errorf("checkout %s: %w", target, err)
		}
	}

	_, err := o.Adapter.EnsureExclude(s)
	return err
}

// remoteHead returns the default branch of origin, if it has one.
func (o *Orchestrator) remoteHead(ctx context.Context, t vcs.Target) (string, bool) {
	runner := o.Adapter.VCS
	// Fails for remotes without commits; symbolic-ref then finds nothing.
	_ = vcs.Run(ctx, runner, t, "remote", "set-head", "origin", "--auto")
	ref, err := vcs.Output(ctx, runner, t, "symbolic-ref", "--short", "refs/remotes/origin/HEAD")
	if err != nil || ref == "" {
		return "", false
	}
	return strings.TrimPrefix(ref, "origin/"), true
}

func (o *Orchestrator) checkConflicts(ctx context.Context, s metastore.Store, ref string) error {
	incoming, err := vcs.Paths(ctx, o.Adapter.VCS, s.Target(), "ls-tree", "-r", "--name-only", "-z", ref)
	if err != nil {
		return fmt.Errorf("list %s: %w", ref, err)
	}
	tracked, err := o.Overlay.TrackedFiles(ctx, false)
	if err != nil {
		return err
	}

	var clash []string
	for _, p := range incoming {
		if _, ok := slices.BinarySearch(tracked, p); ok {
			clash = append(clash, p)
		}
	}
	if len(clash) == 0 {
		return nil
	}
	shown := clash
	if len(shown) > 5 {
		shown = shown[:5]
	}
	return fmt.Errorf("%w: %s (%d files)", ErrConflict, strings.Join(shown, ", "), len(clash))
}

func (o *Orchestrator) update(ctx context.Context, p Plan) (Action, error) {
	l := log.FromContext(ctx)
	t := p.Store.Target()
	runner := o.Adapter.VCS

	if p.URL != "" {
		if p.PrevOrigin != "" {
			l.Warnf("%s: origin changed from %s to %s", p.Spec.Name, p.PrevOrigin, p.Origin)
		}
		if err := o.setRemote(ctx, t, p.URL); err != nil {
			return NoAction, err
		}
		if err := o.Registry.SetOrigin(p.Spec.Name, p.Origin); err != nil {
			return NoAction, fmt.Errorf("register origin: %w", err)
		}
	}

	if v := p.Spec.Version; v != "" {
		head, okHead := vcs.ResolveCommit(ctx, runner, t, "HEAD")
		want, okWant := vcs.ResolveCommit(ctx, runner, t, v)
		if okHead && okWant && head == want {
			l.Debug("version already checked out", "repo", p.Spec.Name, "version", v)
			return Satisfied, nil
		}
		if err := vcs.Run(ctx, runner, t, "fetch", "--tags", "origin"); err != nil {
			return NoAction, fmt.Errorf("fetch: %w", err)
		}
		if err := vcs.Run(ctx, runner, t, "checkout", "-q", "--detach", v); err != nil {
			return NoAction, fmt.Errorf("checkout %s: %w", v, err)
		}
		return Updated, nil
	}

	if err := vcs.Run(ctx, runner, t, "fetch", "--tags", "origin"); err != nil {
		return NoAction, fmt.Errorf("fetch: %w", err)
	}
	branch, ok := o.remoteHead(ctx, t)
	if !ok {
		l.Debug("remote has no default branch", "repo", p.Spec.Name)
		return UpToDate, nil
	}
	remote := "origin/" + branch

	if _, ok := vcs.ResolveCommit(ctx, runner, t, "refs/heads/"+branch); ok {
		ahead, err := vcs.Count(ctx, runner, t, remote+".."+branch)
		if err != nil {
			return NoAction, err
		}
		if ahead > 0 {
			return NoAction, fmt.Errorf("%w: %s is %d commits ahead of %s", ErrUnpushed, branch, ahead, remote)
		}
		behind, err := vcs.Count(ctx, runner, t, branch+".."+remote)
		if err != nil {
			return NoAction, err
		}
		current, _ := vcs.Output(ctx, runner, t, "symbolic-ref", "--short", "-q", "HEAD")
		if behind == 0 && current == branch {
			return UpToDate, nil
		}
	}

	if err := vcs.Run(ctx, runner, t, "checkout", "-q", "-B", branch, remote); err != nil {
		return NoAction, fmt.Errorf("checkout %s: %w", branch, err)
	}
	return Updated, nil
}

func (o *Orchestrator) setRemote(ctx context.Context, t vcs.Target, url string) error {
	runner := o.Adapter.VCS
	settings := [][2]string{
		{"remote.origin.url", url},
		{"remote.origin.fetch", "+refs/heads/*:refs/remotes/origin/*"},
	}
	for _, kv := range settings {
		if err := vcs.Run(ctx, runner, t, "config", kv[0], kv[1]); err != nil {
			return fmt.Errorf("set %s: %w", kv[0], err)
		}
	}
	return nil
}
