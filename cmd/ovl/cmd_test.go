package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/raphi011/ovl/internal/clone"
	"github.com/raphi011/ovl/internal/config"
	"github.com/raphi011/ovl/internal/log"
	"github.com/raphi011/ovl/internal/metastore"
	"github.com/raphi011/ovl/internal/output"
	"github.com/raphi011/ovl/internal/registry"
	"github.com/raphi011/ovl/internal/ui/prompt"
	"github.com/raphi011/ovl/internal/vcs"
	"github.com/raphi011/ovl/internal/vcs/vcstest"
)

const (
	testRoot    = "/home/u"
	testMetaDir = "/home/u/.local/ovl/repos"
)

type fixture struct {
	fs  afero.Fs
	vcs *vcstest.Fake
	app *app
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll(testMetaDir, 0o755); err != nil {
		t.Fatal(err)
	}
	f := vcstest.New()
	return &fixture{
		fs:  fs,
		vcs: f,
		app: &app{
			cfg:      config.Default(),
			layout:   metastore.Layout{Fs: fs, Root: testRoot, MetaDir: testMetaDir},
			vcs:      f,
			git:      vcs.NewGit("git"),
			registry: registry.New(fs, testMetaDir),
			stdin:    strings.NewReader(""),
		},
	}
}

// cloned creates the store of name, tracking files.
func (fx *fixture) cloned(t *testing.T, name string, files ...string) {
	t.Helper()
	if err := fx.fs.MkdirAll(filepath.Join(testMetaDir, name), 0o755); err != nil {
		t.Fatal(err)
	}
	afero.WriteFile(fx.fs, filepath.Join(testMetaDir, name+".exclude"), []byte("*\n"), 0o644)
	fx.vcs.On(name, "ls-files", "-z", "--full-name").ReturnPaths(files...)
	for _, p := range files {
		path := filepath.Join(testRoot, p)
		fx.fs.MkdirAll(filepath.Dir(path), 0o755)
		afero.WriteFile(fx.fs, path, []byte(p), 0o644)
	}
}

func (fx *fixture) origin(t *testing.T, name, origin string) {
	t.Helper()
	if err := fx.app.registry.SetOrigin(name, origin); err != nil {
		t.Fatal(err)
	}
}

// run executes cmd with args and returns stdout and stderr.
func (fx *fixture) run(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	ctx := log.WithLogger(context.Background(), log.New(&stderr, false, false))
	ctx = output.WithPrinter(ctx, &stdout)
	ctx = withApp(ctx, fx.app)

	cmd.SetContext(ctx)
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestListCmd(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.origin(t, "vim", "acme")
	fx.origin(t, "tmux", "acme")
	fx.cloned(t, "vim")
	fx.cloned(t, "scratch")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"cloned", []string{"--cloned"}, "scratch\nvim\n"},
		{"uncloned", []string{"--uncloned"}, "tmux\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := fx.run(t, newListCmd(), tt.args...)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, out); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}

	out, _, err := fx.run(t, newListCmd())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"REPO", "scratch", "tmux", "registered", "vim", "cloned", "acme"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestListCmd_NoMetaDir(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.fs.RemoveAll(testMetaDir)

	out, _, err := fx.run(t, newListCmd(), "--cloned")
	if err != nil {
		t.Fatalf("list without metadata root: %v", err)
	}
	if out != "" {
		t.Errorf("output = %q, want empty", out)
	}
}

func TestFilesCmd(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.cloned(t, "foo", "a.txt", "b.txt")
	fx.cloned(t, "bar", "b.txt", "c.txt")
	afero.WriteFile(fx.fs, filepath.Join(testRoot, "d.txt"), []byte("d"), 0o644)

	out, _, err := fx.run(t, newFilesCmd(), "untracked")
	if err != nil {
		t.Fatal(err)
	}
	if out != "d.txt\n" {
		t.Errorf("untracked = %q, want %q", out, "d.txt\n")
	}

	out, _, err = fx.run(t, newFilesCmd(), "tracked")
	if err != nil {
		t.Fatal(err)
	}
	if out != "a.txt\nb.txt\nc.txt\n" {
		t.Errorf("tracked = %q", out)
	}

	out, _, err = fx.run(t, newFilesCmd(), "double-tracked")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(out, "b.txt") != 2 || strings.Contains(out, "a.txt") {
		t.Errorf("double-tracked table:\n%s", out)
	}
}

func TestWhichCmd(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.cloned(t, "vim", ".vimrc")
	fx.cloned(t, "tmux", "tmux.conf")

	out, _, err := fx.run(t, newWhichCmd(), testRoot+"/.vimrc")
	if err != nil {
		t.Fatal(err)
	}
	if out != "vim\n" {
		t.Errorf("which = %q, want %q", out, "vim\n")
	}

	_, _, err = fx.run(t, newWhichCmd(), testRoot+"/notes.txt")
	if err == nil || !strings.Contains(err.Error(), "not tracked") {
		t.Errorf("which untracked: err = %v", err)
	}
}

func TestRunCmd(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.cloned(t, "vim")
	fx.cloned(t, "zsh")
	fx.vcs.On("vim", "status", "--short").Return(" M .vimrc\n")

	out, _, err := fx.run(t, newRunCmd(), "vim,zsh", "--", "status", "--short")
	if err != nil {
		t.Fatal(err)
	}
	want := "=== vim ===\n M .vimrc\n=== zsh ===\n"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestRunCmd_Usage(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.cloned(t, "vim")

	_, _, err := fx.run(t, newRunCmd(), "vim", "status")
	if !errors.Is(err, registry.ErrUsage) {
		t.Errorf("run without --: err = %v, want ErrUsage", err)
	}

	_, _, err = fx.run(t, newRunCmd(), "vm", "--", "status")
	if err == nil || !strings.Contains(err.Error(), "did you mean vim?") {
		t.Errorf("run unknown target: err = %v", err)
	}
	if len(fx.vcs.Calls()) != 0 {
		t.Errorf("git was called: %v", fx.vcs.Calls())
	}
}

func TestOriginCmd(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	if _, _, err := fx.run(t, newOriginCmd(), "set", "vim", "acme"); err != nil {
		t.Fatal(err)
	}
	out, _, err := fx.run(t, newOriginCmd(), "get", "vim")
	if err != nil {
		t.Fatal(err)
	}
	if out != "acme\n" {
		t.Errorf("origin get = %q", out)
	}

	_, _, err = fx.run(t, newOriginCmd(), "get", "vm")
	if err == nil || !strings.Contains(err.Error(), "did you mean vim?") {
		t.Errorf("origin get unknown: err = %v", err)
	}

	if _, _, err := fx.run(t, newOriginCmd(), "delete", "vim"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := fx.app.registry.Origin("vim"); ok {
		t.Error("origin still recorded after delete")
	}

	_, _, err = fx.run(t, newOriginCmd(), "set", "bad/name", "acme")
	if !errors.Is(err, registry.ErrUsage) {
		t.Errorf("origin set invalid name: err = %v, want ErrUsage", err)
	}
}

func TestBaseURLCmd(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	if _, _, err := fx.run(t, newBaseURLCmd(), "set", "acme", "git@example.com:acme/"); err != nil {
		t.Fatal(err)
	}
	out, _, err := fx.run(t, newBaseURLCmd(), "get", "acme")
	if err != nil {
		t.Fatal(err)
	}
	if out != "git@example.com:acme/\n" {
		t.Errorf("baseurl get = %q", out)
	}

	out, _, err = fx.run(t, newBaseURLCmd(), "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "acme") || !strings.Contains(out, "git@example.com:acme/") {
		t.Errorf("baseurl list:\n%s", out)
	}
}

func TestCloneCmd_NoBaseURL(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	_, stderr, err := fx.run(t, newCloneCmd(), "acme/widgets=abc123")
	if !errors.Is(err, clone.ErrNoURL) {
		t.Fatalf("err = %v, want ErrNoURL", err)
	}
	if !strings.Contains(stderr, "widgets") {
		t.Errorf("stderr does not name the repository:\n%s", stderr)
	}
	if ok, _ := afero.DirExists(fx.fs, filepath.Join(testMetaDir, "widgets")); ok {
		t.Error("store created for failed clone")
	}
	if len(fx.vcs.Calls()) != 0 {
		t.Errorf("git was called: %v", fx.vcs.Calls())
	}
}

func TestCloneCmd_NoSpecs(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	_, _, err := fx.run(t, newCloneCmd())
	if !errors.Is(err, registry.ErrUsage) {
		t.Errorf("clone without specs: err = %v, want ErrUsage", err)
	}
}

func TestCloneSpecs(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.origin(t, "vim", "acme")
	fx.origin(t, "zsh", "acme")
	fx.app.stdin = strings.NewReader("tmux=v1\n# comment\n\n")

	got, err := cloneSpecs(fx.app, []string{"vim", "-"}, true)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"vim", "tmux=v1", "zsh"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("specs mismatch (-want +got):\n%s", diff)
	}
}

// Not parallel: replaces confirmFunc.
func TestRemoveCmd_Declined(t *testing.T) {
	fx := newFixture(t)
	fx.cloned(t, "vim", ".vimrc")
	fx.app.interactive = true

	var asked string
	orig := confirmFunc
	confirmFunc = func(p string) (prompt.ConfirmResult, error) {
		asked = p
		return prompt.ConfirmResult{Confirmed: false}, nil
	}
	t.Cleanup(func() { confirmFunc = orig })

	_, stderr, err := fx.run(t, newRemoveCmd(), "vim")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(asked, "vim") {
		t.Errorf("prompt = %q, want it to name vim", asked)
	}
	if !strings.Contains(stderr, "Aborted") {
		t.Errorf("stderr = %q, want Aborted", stderr)
	}
	if ok, _ := afero.DirExists(fx.fs, filepath.Join(testMetaDir, "vim")); !ok {
		t.Error("store removed after declining")
	}
}

func TestRemoveCmd(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.cloned(t, "vim", ".vimrc", ".vim/colors/dark.vim")
	fx.cloned(t, "zsh", ".zshrc")

	_, _, err := fx.run(t, newRemoveCmd(), "vim")
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{".vimrc", ".vim", ".local/ovl/repos/vim"} {
		if ok, _ := afero.Exists(fx.fs, filepath.Join(testRoot, p)); ok {
			t.Errorf("%s still exists", p)
		}
	}
	if ok, _ := afero.Exists(fx.fs, filepath.Join(testRoot, ".zshrc")); !ok {
		t.Error(".zshrc was removed")
	}
}

func TestRemoveCmd_NotCloned(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.cloned(t, "vim")

	_, _, err := fx.run(t, newRemoveCmd(), "vm")
	if !errors.Is(err, metastore.ErrNotCloned) {
		t.Errorf("err = %v, want ErrNotCloned", err)
	}
	if err == nil || !strings.Contains(err.Error(), "did you mean vim?") {
		t.Errorf("err = %v, want suggestion", err)
	}
}

func TestReleaseCmd_ShowList(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	content := "# laptop\nvim v1.0.0\napp *\n"
	afero.WriteFile(fx.fs, filepath.Join(testMetaDir, "laptop.release"), []byte(content), 0o644)

	out, _, err := fx.run(t, newReleaseCmd(), "list")
	if err != nil {
		t.Fatal(err)
	}
	if out != "laptop\n" {
		t.Errorf("release list = %q", out)
	}

	out, _, err = fx.run(t, newReleaseCmd(), "show", "laptop")
	if err != nil {
		t.Fatal(err)
	}
	if out != content {
		t.Errorf("release show = %q, want %q", out, content)
	}

	if _, _, err := fx.run(t, newReleaseCmd(), "remove", "laptop"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := fx.run(t, newReleaseCmd(), "show", "laptop"); err == nil {
		t.Error("show after remove succeeded")
	}
}

func TestInitCmd_Invalid(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	_, _, err := fx.run(t, newInitCmd(), "../evil")
	if !errors.Is(err, registry.ErrUsage) {
		t.Errorf("err = %v, want ErrUsage", err)
	}
	if len(fx.vcs.Calls()) != 0 {
		t.Errorf("git was called: %v", fx.vcs.Calls())
	}
}

func TestSortedUnion(t *testing.T) {
	t.Parallel()

	got := sortedUnion([]string{"zsh", "vim"}, []string{"vim", "app"})
	if diff := cmp.Diff([]string{"app", "vim", "zsh"}, got); diff != "" {
		t.Errorf("sortedUnion mismatch (-want +got):\n%s", diff)
	}
}
