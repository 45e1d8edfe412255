package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sethvargo/go-envconfig"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	t.Parallel()
	cfg := Default()
	if cfg.Jobs != 1 {
		t.Errorf("Default().Jobs = %d, want 1", cfg.Jobs)
	}
	if cfg.DefaultBranch != DefaultBranch {
		t.Errorf("Default().DefaultBranch = %q, want %q", cfg.DefaultBranch, DefaultBranch)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nope.toml")
	cfg, err := LoadFile(context.Background(), path, envconfig.MapLookuper(nil))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Jobs != 1 || cfg.Git != "git" {
		t.Errorf("LoadFile() = %+v, want defaults", cfg)
	}
}

func TestLoadFile_Values(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
root = "/srv/overlay"
jobs = 4
default_branch = "trunk"

[clone]
refuse_conflicts = true

[release]
tag_mode = true

[hooks.bootstrap]
command = "echo {repo}"
description = "say hi"
on = ["clone"]
`)
	cfg, err := LoadFile(context.Background(), path, envconfig.MapLookuper(nil))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	want := Config{
		Root:          "/srv/overlay",
		Jobs:          4,
		Git:           "git",
		DefaultBranch: "trunk",
		Clone:         CloneConfig{RefuseConflicts: true},
		Release:       ReleaseConfig{TagMode: true},
		Hooks: HooksConfig{Hooks: map[string]Hook{
			"bootstrap": {Command: "echo {repo}", Description: "say hi", On: []string{"clone"}},
		}},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("LoadFile() mismatch (-want +got):\n%s", diff)
	}

	meta, err := cfg.MetaDir()
	if err != nil {
		t.Fatalf("MetaDir() error = %v", err)
	}
	if meta != "/srv/overlay/.local/ovl/repos" {
		t.Errorf("MetaDir() = %q, want default below root", meta)
	}
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "root = \"/from/file\"\njobs = 2\n")
	lookuper := envconfig.MapLookuper(map[string]string{
		"OVL_ROOT":         "/from/env",
		"OVL_METADATA_DIR": "/meta",
		"OVL_JOBS":         "8",
	})

	cfg, err := LoadFile(context.Background(), path, lookuper)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Root != "/from/env" {
		t.Errorf("Root = %q, want env override", cfg.Root)
	}
	if cfg.Jobs != 8 {
		t.Errorf("Jobs = %d, want 8", cfg.Jobs)
	}
	if meta, _ := cfg.MetaDir(); meta != "/meta" {
		t.Errorf("MetaDir() = %q, want /meta", meta)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"relative root", `root = "overlay"`, "root must be absolute"},
		{"relative metadata", `metadata_dir = "./meta"`, "metadata_dir must be absolute"},
		{"negative jobs", `jobs = -1`, "invalid jobs"},
		{"bad toml", `root = `, "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadFile(context.Background(), writeConfig(t, tt.content), envconfig.MapLookuper(nil))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadFile() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	t.Parallel()
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"~", home},
		{"~/overlay", filepath.Join(home, "overlay")},
		{"/abs/path", "/abs/path"},
	}
	for _, tt := range tests {
		got, err := expandPath(tt.in)
		if err != nil {
			t.Fatalf("expandPath(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseHooksConfig(t *testing.T) {
	t.Parallel()
	raw := map[string]any{
		"notify": map[string]any{
			"command": "notify-send {repo}",
			"on":      []any{"clone", "remove"},
		},
		"ignored": "not a table",
	}
	got := parseHooksConfig(raw)
	want := HooksConfig{Hooks: map[string]Hook{
		"notify": {Command: "notify-send {repo}", On: []string{"clone", "remove"}},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseHooksConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestFromContext(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Jobs = 3
	ctx := WithConfig(context.Background(), &cfg)
	if got := FromContext(ctx); got != &cfg {
		t.Error("FromContext did not return the attached config")
	}
	if got := FromContext(context.Background()); got.Jobs != 1 {
		t.Errorf("FromContext fallback Jobs = %d, want 1", got.Jobs)
	}
}
