package release

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/raphi011/ovl/internal/registry"
)

func TestParse(t *testing.T) {
	t.Parallel()

	in := "# base system\nutil=v1.2.0\n\napp *\n  vim   v9.1-3-gabc1234  \n"
	got, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	want := []Entry{
		{Repo: "util", Version: "v1.2.0"},
		{Repo: "app", Version: "*"},
		{Repo: "vim", Version: "v9.1-3-gabc1234"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
	if !got[1].Self() || got[0].Self() {
		t.Error("Self() mismatch")
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	for name, in := range map[string]string{
		"missing version": "util\n",
		"empty version":   "util=\n",
		"extra field":     "util v1 v2\n",
		"bad name":        ".util v1\n",
		"duplicate":       "util v1\nutil=v2\n",
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := Parse(strings.NewReader(in)); !errors.Is(err, registry.ErrUsage) {
				t.Errorf("Parse(%q) error = %v, want usage error", in, err)
			}
		})
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	t.Parallel()

	entries := []Entry{{Repo: "zsh", Version: "v2"}, {Repo: "dotfiles", Version: SelfVersion}, {Repo: "vim", Version: "abc1234"}}
	var buf bytes.Buffer
	if err := Format(&buf, entries); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "zsh v2\ndotfiles *\nvim abc1234\n" {
		t.Errorf("Format() = %q", buf.String())
	}
	got, err := Parse(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(entries, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderPreservesLines(t *testing.T) {
	t.Parallel()

	in := "# pinned\nutil=v1\n\napp *\n"
	lines, err := parseLines([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	if got := string(render(lines)); got != in {
		t.Errorf("render() = %q, want %q", got, in)
	}
}
