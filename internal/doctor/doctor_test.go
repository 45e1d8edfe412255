package doctor

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/raphi011/ovl/internal/metastore"
	"github.com/raphi011/ovl/internal/registry"
	"github.com/raphi011/ovl/internal/vcs/vcstest"
)

const (
	testRoot    = "/home/u"
	testMetaDir = "/home/u/.local/ovl/repos"
)

func newDoctor(t *testing.T) (*Doctor, afero.Fs, *vcstest.Fake) {
	t.Helper()
	fs := afero.NewMemMapFs()
	fs.MkdirAll(testMetaDir, 0o755)
	f := vcstest.New()
	layout := metastore.Layout{Fs: fs, Root: testRoot, MetaDir: testMetaDir}
	return New(layout, f, registry.New(fs, testMetaDir), 1), fs, f
}

func addStore(t *testing.T, fs afero.Fs, f *vcstest.Fake, name, worktree string, exclude bool) {
	t.Helper()
	fs.MkdirAll(filepath.Join(testMetaDir, name), 0o755)
	if exclude {
		afero.WriteFile(fs, filepath.Join(testMetaDir, name+".exclude"), []byte("*\n"), 0o644)
	}
	f.On(name, "config", "--get", "core.worktree").Return(worktree + "\n")
}

func TestCheck(t *testing.T) {
	t.Parallel()

	d, fs, f := newDoctor(t)
	addStore(t, fs, f, "vim", "../../../..", true)
	addStore(t, fs, f, "zsh", "/elsewhere", false)
	f.On("vim", "ls-files", "-z", "--full-name").ReturnPaths(".vimrc", "shared")
	f.On("zsh", "ls-files", "-z", "--full-name").ReturnPaths(".zshrc", "shared")
	d.Registry.SetOrigin("vim", "https://example.com/vim.git")
	d.Registry.SetOrigin("zsh", "acme")

	r, err := d.Check(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if r.Stores != 2 || r.Origins != 2 {
		t.Errorf("Stores = %d, Origins = %d, want 2, 2", r.Stores, r.Origins)
	}

	type brief struct {
		Cat  Category
		Repo string
		Fix  FixAction
	}
	var got []brief
	for _, i := range r.Issues {
		got = append(got, brief{i.Category, i.Repo, i.Fix})
	}
	want := []brief{
		{CategoryStore, "zsh", FixRebind},
		{CategoryStore, "zsh", FixWriteExclude},
		{CategoryRegistry, "zsh", FixNone},
		{CategoryOverlay, "vim", FixNone},
		{CategoryOverlay, "zsh", FixNone},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("issues mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_Fix(t *testing.T) {
	t.Parallel()

	d, fs, f := newDoctor(t)
	addStore(t, fs, f, "zsh", "", false)

	var out bytes.Buffer
	if err := d.Run(context.Background(), &out, true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Fixed 2 issues.") {
		t.Errorf("output = %q", out.String())
	}
	if !f.Called("zsh", "config", "core.worktree", "../../../..") {
		t.Errorf("store not rebound: %v", f.CallsFor("zsh"))
	}
	if ok, _ := afero.Exists(fs, filepath.Join(testMetaDir, "zsh.exclude")); !ok {
		t.Error("exclude file not written")
	}
}

func TestRun_Clean(t *testing.T) {
	t.Parallel()

	d, fs, f := newDoctor(t)
	addStore(t, fs, f, "vim", "../../../..", true)

	var out bytes.Buffer
	if err := d.Run(context.Background(), &out, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No issues found") {
		t.Errorf("output = %q", out.String())
	}
}

func TestCheck_Setup(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	f := vcstest.New()
	d := New(metastore.Layout{Fs: fs, Root: testRoot, MetaDir: testMetaDir}, f, registry.New(fs, testMetaDir), 1)

	r, err := d.Check(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Issues) != 1 || r.Issues[0].Category != CategorySetup {
		t.Errorf("issues = %+v, want one setup issue", r.Issues)
	}

	d.CheckGit = func() error { return errors.New("git not found") }
	r, _ = d.Check(context.Background())
	if len(r.Issues) != 1 || r.Issues[0].Description != "git not found" {
		t.Errorf("issues = %+v, want git issue", r.Issues)
	}
}
