package clone

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/raphi011/ovl/internal/registry"
)

func TestBatch_IsolatesFailures(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, Options{Jobs: 3})
	fx.reg.SetBaseURL("acme", "https://git.example.com/acme/")
	for _, name := range []string{"one", "two", "three"} {
		scriptRemoteHead(fx.vcs, name, "main")
	}
	fx.vcs.On("two", "fetch", "--tags", "origin").Fail(128, "fatal: unable to access")

	var mu sync.Mutex
	var progressed []string
	fx.o.Progress = func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		progressed = append(progressed, r.Spec.Name)
	}

	results, err := fx.o.Batch(context.Background(), []string{"acme/one", "acme/two", "acme/three"})
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, r := range results {
		names = append(names, r.Spec.Name)
	}
	if diff := cmp.Diff([]string{"one", "two", "three"}, names); diff != "" {
		t.Errorf("result order mismatch (-want +got):\n%s", diff)
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Errorf("independent specifiers failed: %v, %v", results[0].Err, results[2].Err)
	}
	if results[1].Err == nil {
		t.Error("two should have failed")
	}
	if !fx.exists("one") || fx.exists("two") || !fx.exists("three") {
		t.Errorf("stores: one=%v two=%v three=%v, want true false true", fx.exists("one"), fx.exists("two"), fx.exists("three"))
	}
	if len(progressed) != 3 {
		t.Errorf("progress called %d times, want 3", len(progressed))
	}

	err = Failures(results)
	if err == nil || !strings.HasPrefix(err.Error(), "two: ") {
		t.Errorf("Failures() = %v, want two: ...", err)
	}
}

func TestBatch_UsageErrorsRunNothing(t *testing.T) {
	t.Parallel()

	tests := map[string][]string{
		"duplicate names": {"acme/vim", "other/vim=v1"},
		"whitespace":      {"acme/vim", "zsh v1"},
	}
	for name, specs := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			fx := newFixture(t, Options{})
			_, err := fx.o.Batch(context.Background(), specs)
			if !errors.Is(err, registry.ErrUsage) {
				t.Errorf("Batch() error = %v, want usage error", err)
			}
			if len(fx.vcs.Calls()) != 0 {
				t.Errorf("VCS was called: %v", fx.vcs.Calls())
			}
		})
	}
}

func TestReadSpecs(t *testing.T) {
	t.Parallel()

	in := "# dotfiles\nacme/vim\n\n  zsh=v1  \r\nhttps://example.com/tmux.git\n"
	got, err := ReadSpecs(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"acme/vim", "zsh=v1", "https://example.com/tmux.git"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadSpecs() mismatch (-want +got):\n%s", diff)
	}
}

func TestPhaseString(t *testing.T) {
	t.Parallel()

	if CheckedOut.String() != "checked out" || Failed.String() != "failed" {
		t.Errorf("unexpected phase names %q %q", CheckedOut, Failed)
	}
	if Satisfied.String() != "already at requested version" {
		t.Errorf("Satisfied.String() = %q", Satisfied)
	}
}
