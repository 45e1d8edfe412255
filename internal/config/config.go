package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/sethvargo/go-envconfig"
)

// Hook defines a command run after overlay operations.
type Hook struct {
	Command     string   `toml:"command"`
	Description string   `toml:"description"`
	On          []string `toml:"on"` // triggers this hook runs on (empty = only via --hook)
}

// HooksConfig holds hook-related configuration
type HooksConfig struct {
	Hooks map[string]Hook `toml:"-"` // parsed from [hooks.NAME] sections
}

// CloneConfig holds clone-related configuration
type CloneConfig struct {
	// RefuseConflicts aborts a fresh clone whose files are already
	// tracked by another repository. Off by default: double-tracking is
	// reported, not prevented.
	RefuseConflicts bool `toml:"refuse_conflicts"`
}

// ReleaseConfig holds release snapshot configuration
type ReleaseConfig struct {
	TagMode bool `toml:"tag_mode"` // record nearest tags instead of describe output
}

// Config holds the ovl configuration
type Config struct {
	Root          string        `toml:"root"`
	MetadataDir   string        `toml:"metadata_dir"`
	Jobs          int           `toml:"jobs"`
	Git           string        `toml:"git"`
	DefaultBranch string        `toml:"default_branch"`
	Clone         CloneConfig   `toml:"clone"`
	Release       ReleaseConfig `toml:"release"`
	Hooks         HooksConfig   `toml:"-"` // custom parsing needed
}

// Environment overrides, applied on top of the config file.
type envOverrides struct {
	Root        string `env:"OVL_ROOT"`
	MetadataDir string `env:"OVL_METADATA_DIR"`
	Jobs        int    `env:"OVL_JOBS"`
	Git         string `env:"OVL_GIT"`
}

const (
	// DefaultBranch is used for repositories cloned from an empty remote.
	DefaultBranch = "main"

	// metaSubdir is the metadata root relative to the shared root.
	// The root sits three levels above it.
	metaSubdir = ".local/ovl/repos"
)

// Default returns the default configuration
func Default() Config {
	return Config{
		Jobs:          1,
		Git:           "git",
		DefaultBranch: DefaultBranch,
		Hooks:         HooksConfig{Hooks: map[string]Hook{}},
	}
}

// RootDir returns the shared working tree root.
// Falls back to the home directory when not configured.
func (c *Config) RootDir() (string, error) {
	if c.Root != "" {
		return c.Root, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return home, nil
}

// MetaDir returns the metadata root holding stores and records.
func (c *Config) MetaDir() (string, error) {
	if c.MetadataDir != "" {
		return c.MetadataDir, nil
	}
	root, err := c.RootDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, filepath.FromSlash(metaSubdir)), nil
}

// ValidatePath checks that the path is absolute or starts with ~
// Returns error if path is relative (like "." or "..")
func ValidatePath(path, fieldName string) error {
	if path == "" {
		return nil // Empty is allowed (means not configured)
	}
	if path[0] == '~' {
		return nil
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%s must be absolute or start with ~, got: %q", fieldName, path)
	}
	return nil
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand ~: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	if path == "~" {
		return os.UserHomeDir()
	}
	return path, nil
}

// Path returns the path to the config file
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ovl", "config.toml"), nil
}

// rawConfig is used for initial TOML parsing before processing hooks
type rawConfig struct {
	Root          string         `toml:"root"`
	MetadataDir   string         `toml:"metadata_dir"`
	Jobs          int            `toml:"jobs"`
	Git           string         `toml:"git"`
	DefaultBranch string         `toml:"default_branch"`
	Clone         CloneConfig    `toml:"clone"`
	Release       ReleaseConfig  `toml:"release"`
	Hooks         map[string]any `toml:"hooks"`
}

// Load reads config from ~/.config/ovl/config.toml and applies OVL_*
// environment overrides. Returns Default() if the file doesn't exist.
func Load(ctx context.Context) (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	return LoadFile(ctx, path, envconfig.OsLookuper())
}

// LoadFile reads config from path, resolving environment overrides
// through lookuper. A missing file yields the defaults plus overrides.
func LoadFile(ctx context.Context, path string, lookuper envconfig.Lookuper) (Config, error) {
	var raw rawConfig

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Default(), fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := toml.Unmarshal(data, &raw); err != nil {
			return Default(), fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg := Config{
		Root:          raw.Root,
		MetadataDir:   raw.MetadataDir,
		Jobs:          raw.Jobs,
		Git:           raw.Git,
		DefaultBranch: raw.DefaultBranch,
		Clone:         raw.Clone,
		Release:       raw.Release,
		Hooks:         parseHooksConfig(raw.Hooks),
	}

	var env envOverrides
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &env,
		Lookuper: lookuper,
	}); err != nil {
		return Default(), fmt.Errorf("failed to read environment: %w", err)
	}
	if env.Root != "" {
		cfg.Root = env.Root
	}
	if env.MetadataDir != "" {
		cfg.MetadataDir = env.MetadataDir
	}
	if env.Jobs != 0 {
		cfg.Jobs = env.Jobs
	}
	if env.Git != "" {
		cfg.Git = env.Git
	}

	if err := cfg.normalize(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// normalize validates paths, expands ~ and fills defaults.
func (c *Config) normalize() error {
	if err := ValidatePath(c.Root, "root"); err != nil {
		return err
	}
	if err := ValidatePath(c.MetadataDir, "metadata_dir"); err != nil {
		return err
	}

	// Shell doesn't expand ~ in config files
	root, err := expandPath(c.Root)
	if err != nil {
		return fmt.Errorf("expand root: %w", err)
	}
	c.Root = root

	metaDir, err := expandPath(c.MetadataDir)
	if err != nil {
		return fmt.Errorf("expand metadata_dir: %w", err)
	}
	c.MetadataDir = metaDir

	if c.Jobs < 0 {
		return fmt.Errorf("invalid jobs %d: must be at least 1", c.Jobs)
	}
	if c.Jobs == 0 {
		c.Jobs = 1
	}
	if c.Git == "" {
		c.Git = "git"
	}
	if c.DefaultBranch == "" {
		c.DefaultBranch = DefaultBranch
	}
	return nil
}

// parseHooksConfig extracts HooksConfig from raw TOML map
// Handles [hooks.NAME] sections
func parseHooksConfig(raw map[string]any) HooksConfig {
	hc := HooksConfig{
		Hooks: make(map[string]Hook),
	}

	for key, value := range raw {
		hookMap, ok := value.(map[string]any)
		if !ok {
			continue
		}
		hook := Hook{}
		if cmd, ok := hookMap["command"].(string); ok {
			hook.Command = cmd
		}
		if desc, ok := hookMap["description"].(string); ok {
			hook.Description = desc
		}
		if on, ok := hookMap["on"].([]any); ok {
			for _, v := range on {
				if s, ok := v.(string); ok {
					hook.On = append(hook.On, s)
				}
			}
		}
		hc.Hooks[key] = hook
	}

	return hc
}

type ctxKey struct{}

// WithConfig attaches the loaded config to the context.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext returns the config attached to ctx, or the defaults.
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(ctxKey{}).(*Config); ok {
		return cfg
	}
	cfg := Default()
	return &cfg
}

const defaultConfig = `# ovl configuration

# Shared working tree every repository checks out into.
# Must be an absolute path or start with ~ (default: your home directory)
# root = "~"

# Where metadata stores, origin/baseurl records, exclude files and
# release snapshots live (default: <root>/.local/ovl/repos)
# metadata_dir = "~/.local/ovl/repos"

# Number of repositories cloned or updated in parallel (default: 1)
jobs = 1

# git binary to run
# git = "git"

# Branch created for repositories cloned from an empty remote
default_branch = "main"

# [clone]
# Refuse a fresh clone whose files are already tracked by another
# repository instead of only reporting the double-tracked files.
# refuse_conflicts = false

# [release]
# Record the nearest tag instead of "git describe --tags --always" output.
# tag_mode = false

# Hooks - run commands after overlay operations
# Use --hook=name to run a specific hook, --no-hook to skip all hooks
#
# [hooks.bootstrap]
# command = "test -x {root}/.bootstrap/{repo} && {root}/.bootstrap/{repo}"
# description = "Run per-repository bootstrap script"
# on = ["clone"]
#
# Available "on" values: "clone", "remove", "release", "all"
#
# Available placeholders:
#   {repo}    - repository name
#   {root}    - shared working tree
#   {gitdir}  - metadata store of the repository
#   {version} - requested version (empty when none)
#   {trigger} - operation that triggered the hook
`

// Init creates a default config file at ~/.config/ovl/config.toml
// If force is true, overwrites existing file
// Returns the path to the created file
func Init(force bool) (string, error) {
	path, err := Path()
	if err != nil {
		return "", err
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", errors.New("config file already exists: " + path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}

	if err := os.WriteFile(path, []byte(defaultConfig), 0644); err != nil {
		return "", err
	}

	return path, nil
}
