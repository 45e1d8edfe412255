package metastore

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/raphi011/ovl/internal/registry"
	"github.com/raphi011/ovl/internal/vcs/vcstest"
)

func testLayout() Layout {
	return Layout{Fs: afero.NewMemMapFs(), Root: "/home/u", MetaDir: "/home/u/.local/ovl/repos"}
}

func TestStore(t *testing.T) {
	t.Parallel()

	s, err := testLayout().Store("dotfiles")
	if err != nil {
		t.Fatal(err)
	}
	want := Store{
		Name:        "dotfiles",
		GitDir:      "/home/u/.local/ovl/repos/dotfiles",
		WorkTree:    "/home/u",
		ExcludeFile: "/home/u/.local/ovl/repos/dotfiles.exclude",
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("Store() mismatch (-want +got):\n%s", diff)
	}
	// Shared root is three levels above the metadata area
	if got := s.WorkTreeRel(); got != "../../../.." {
		t.Errorf("WorkTreeRel() = %q, want ../../../..", got)
	}

	if _, err := testLayout().Store(".bad"); !errors.Is(err, registry.ErrUsage) {
		t.Errorf("Store(.bad) error = %v, want ErrUsage", err)
	}
}

func TestCloned(t *testing.T) {
	t.Parallel()

	l := testLayout()
	if _, err := l.Cloned(); !errors.Is(err, ErrNoMetaDir) {
		t.Fatalf("Cloned() without meta dir = %v, want ErrNoMetaDir", err)
	}

	l.Fs.MkdirAll(l.MetaDir+"/zeta", 0o755)
	l.Fs.MkdirAll(l.MetaDir+"/alpha", 0o755)
	l.Fs.MkdirAll(l.MetaDir+"/.hidden", 0o755)
	afero.WriteFile(l.Fs, l.MetaDir+"/alpha.exclude", []byte("*\n"), 0o644)

	got, err := l.Cloned()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"alpha", "zeta"}, got); diff != "" {
		t.Errorf("Cloned() mismatch (-want +got):\n%s", diff)
	}
}

func TestState(t *testing.T) {
	t.Parallel()

	l := testLayout()
	l.Fs.MkdirAll(l.MetaDir+"/cloned", 0o755)
	reg := registry.New(l.Fs, l.MetaDir)
	reg.SetOrigin("registered", "acme")
	reg.SetOrigin("cloned", "acme")

	tests := []struct {
		name string
		want State
	}{
		{"cloned", Cloned},
		{"registered", Registered},
		{"stranger", Unknown},
	}
	for _, tt := range tests {
		got, err := l.State(tt.name, reg)
		if err != nil {
			t.Fatalf("State(%s) error = %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("State(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRootStore(t *testing.T) {
	t.Parallel()

	l := testLayout()
	if _, ok := l.RootStore(); ok {
		t.Fatal("RootStore() without .git should be absent")
	}
	l.Fs.MkdirAll("/home/u/.git", 0o755)
	s, ok := l.RootStore()
	if !ok || s.Name != RootName || s.GitDir != "/home/u/.git" {
		t.Errorf("RootStore() = %+v, %v", s, ok)
	}
}

func TestInit(t *testing.T) {
	t.Parallel()

	l := testLayout()
	f := vcstest.New()
	a := NewAdapter(l, f)
	ctx := context.Background()

	s, err := a.Init(ctx, "dotfiles", InitOptions{})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if ok, _ := afero.DirExists(l.Fs, s.GitDir); !ok {
		t.Error("store directory not created")
	}
	data, err := afero.ReadFile(l.Fs, s.ExcludeFile)
	if err != nil || string(data) != DefaultExclude {
		t.Errorf("exclude file = %q, %v, want default", data, err)
	}

	want := []string{
		"init --quiet",
		"config core.bare false",
		"config core.worktree ../../../..",
		"config core.excludesfile /home/u/.local/ovl/repos/dotfiles.exclude",
		"config status.showUntrackedFiles no",
	}
	if diff := cmp.Diff(want, f.CallsFor("dotfiles")); diff != "" {
		t.Errorf("Init() calls mismatch (-want +got):\n%s", diff)
	}

	if _, err := a.Init(ctx, "dotfiles", InitOptions{}); !errors.Is(err, ErrExists) {
		t.Errorf("second Init() error = %v, want ErrExists", err)
	}
}

func TestInit_KeepsExistingExclude(t *testing.T) {
	t.Parallel()

	l := testLayout()
	a := NewAdapter(l, vcstest.New())
	afero.WriteFile(l.Fs, l.MetaDir+"/vim.exclude", []byte("!.vimrc\n"), 0o644)

	s, err := a.Init(context.Background(), "vim", InitOptions{})
	if err != nil {
		t.Fatal(err)
	}
	data, _ := afero.ReadFile(l.Fs, s.ExcludeFile)
	if string(data) != "!.vimrc\n" {
		t.Errorf("exclude file overwritten: %q", data)
	}
}

func TestInit_SkipExclude(t *testing.T) {
	t.Parallel()

	l := testLayout()
	a := NewAdapter(l, vcstest.New())
	s, err := a.Init(context.Background(), "vim", InitOptions{SkipExclude: true})
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := afero.Exists(l.Fs, s.ExcludeFile); ok {
		t.Error("exclude file written despite SkipExclude")
	}
}

func TestInit_FailureCleansUp(t *testing.T) {
	t.Parallel()

	l := testLayout()
	f := vcstest.New()
	f.On("vim", "config", "core.bare", "false").Fail(1, "boom")
	a := NewAdapter(l, f)

	_, err := a.Init(context.Background(), "vim", InitOptions{})
	if err == nil {
		t.Fatal("Init() should fail")
	}
	if ok, _ := afero.Exists(l.Fs, l.MetaDir+"/vim"); ok {
		t.Error("store left behind after failed Init")
	}
	if ok, _ := afero.Exists(l.Fs, l.MetaDir+"/vim.exclude"); ok {
		t.Error("exclude file left behind after failed Init")
	}
}

func TestConvert(t *testing.T) {
	t.Parallel()

	l := testLayout()
	l.Fs.MkdirAll("/home/u/.git/objects", 0o755)
	a := NewAdapter(l, vcstest.New())

	s, err := a.Convert(context.Background(), "dotfiles", "/home/u/.git")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if ok, _ := afero.DirExists(l.Fs, "/home/u/.git"); ok {
		t.Error("source git dir still present")
	}
	if ok, _ := afero.DirExists(l.Fs, s.GitDir); !ok {
		t.Error("git dir not moved into store")
	}
	if ok, _ := afero.Exists(l.Fs, s.ExcludeFile); !ok {
		t.Error("exclude file not installed")
	}
}

func TestConvert_RollsBack(t *testing.T) {
	t.Parallel()

	l := testLayout()
	l.Fs.MkdirAll("/home/u/.git", 0o755)
	f := vcstest.New()
	f.On("dotfiles", "config", "core.bare", "false").Fail(1, "locked")
	a := NewAdapter(l, f)

	if _, err := a.Convert(context.Background(), "dotfiles", "/home/u/.git"); err == nil {
		t.Fatal("Convert() should fail")
	}
	if ok, _ := afero.DirExists(l.Fs, "/home/u/.git"); !ok {
		t.Error("git dir not moved back after failure")
	}
}

func TestDestroy(t *testing.T) {
	t.Parallel()

	l := testLayout()
	a := NewAdapter(l, vcstest.New())
	s, _ := a.Init(context.Background(), "vim", InitOptions{})

	if err := a.Destroy(s); err != nil {
		t.Fatal(err)
	}
	if ok, _ := afero.Exists(l.Fs, s.GitDir); ok {
		t.Error("store left behind")
	}
	if ok, _ := afero.Exists(l.Fs, s.ExcludeFile); ok {
		t.Error("exclude file left behind")
	}
}

func TestInit_FailureKeepsExistingExclude(t *testing.T) {
	t.Parallel()

	l := testLayout()
	f := vcstest.New()
	f.On("vim", "config", "core.bare", "false").Fail(1, "error: could not lock config file")
	a := NewAdapter(l, f)
	s, err := l.Store("vim")
	if err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(l.Fs, s.ExcludeFile, []byte("*\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := a.Init(context.Background(), "vim", InitOptions{}); err == nil {
		t.Fatal("Init succeeded, want config failure")
	}
	if ok, _ := afero.Exists(l.Fs, s.GitDir); ok {
		t.Error("store left behind")
	}
	if ok, _ := afero.Exists(l.Fs, s.ExcludeFile); !ok {
		t.Error("pre-existing exclude file removed")
	}
}
