package hooks

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/raphi011/ovl/internal/cmd"
	"github.com/raphi011/ovl/internal/config"
	"github.com/raphi011/ovl/internal/log"
)

// shellQuote wraps s in single quotes, escaping embedded single quotes,
// e.g. "it's" becomes 'it'\”s'.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}

// Trigger identifies the operation a hook runs after.
type Trigger string

const (
	TriggerClone   Trigger = "clone"
	TriggerRemove  Trigger = "remove"
	TriggerRelease Trigger = "release"
)

// triggerAll matches every trigger in a hook's "on" list.
const triggerAll = "all"

// Context holds the values for placeholder substitution.
type Context struct {
	Repo    string            // repository name
	Root    string            // shared working tree
	GitDir  string            // metadata store of the repository
	Version string            // requested or recorded version, if any
	Trigger Trigger           // operation that triggered the hook
	Env     map[string]string // custom variables from --arg key=value
	DryRun  bool              // print commands instead of running them
}

// Match is a hook selected to run.
type Match struct {
	Name string
	Hook config.Hook
}

// Select returns the hooks to run for trigger. An explicit hook name runs
// that hook regardless of its "on" list. Hooks without "on" only run
// when named.
func Select(cfg config.HooksConfig, name string, noHook bool, trigger Trigger) ([]Match, error) {
	if noHook {
		return nil, nil
	}
	if name != "" {
		hook, ok := cfg.Hooks[name]
		if !ok {
			return nil, fmt.Errorf("unknown hook %q", name)
		}
		return []Match{{Name: name, Hook: hook}}, nil
	}

	var matches []Match
	for n, hook := range cfg.Hooks {
		if matchesTrigger(hook, trigger) {
			matches = append(matches, Match{Name: n, Hook: hook})
		}
	}
	// map order is random; run in name order
	slices.SortFunc(matches, func(a, b Match) int { return strings.Compare(a.Name, b.Name) })
	return matches, nil
}

func matchesTrigger(hook config.Hook, trigger Trigger) bool {
	for _, on := range hook.On {
		if on == triggerAll || on == string(trigger) {
			return true
		}
	}
	return false
}

// Run runs every match in order and stops at the first failure.
func Run(ctx context.Context, matches []Match, hc Context) error {
	for _, m := range matches {
		if err := run(ctx, m, hc); err != nil {
			return fmt.Errorf("hook %q failed: %w", m.Name, err)
		}
	}
	return nil
}

// RunForEach runs every match for one repository of a batch. Failures are
// logged as warnings and don't stop the batch.
func RunForEach(ctx context.Context, matches []Match, hc Context) {
	l := log.FromContext(ctx)
	for _, m := range matches {
		if err := run(ctx, m, hc); err != nil {
			l.Warnf("hook %q failed for %s: %v", m.Name, hc.Repo, err)
		}
	}
}

func run(ctx context.Context, m Match, hc Context) error {
	l := log.FromContext(ctx)
	command := SubstitutePlaceholders(m.Hook.Command, hc)

	if hc.DryRun {
		l.Printf("[dry-run] %s: %s\n", m.Name, command)
		return nil
	}

	l.Printf("Running hook '%s' for %s...\n", m.Name, hc.Repo)
	_, err := cmd.Exec(ctx, cmd.Command{
		Dir:    hc.Root,
		Name:   "sh",
		Args:   []string{"-c", command},
		Stdout: l.Writer(),
		Stderr: l.Writer(),
	})
	if err != nil {
		return err
	}
	if m.Hook.Description != "" {
		l.Printf("  ✓ %s\n", m.Hook.Description)
	}
	return nil
}

// ParseEnv parses "key=value" strings into a map.
func ParseEnv(args []string) (map[string]string, error) {
	env := make(map[string]string, len(args))
	for _, a := range args {
		key, value, ok := strings.Cut(a, "=")
		if !ok {
			return nil, fmt.Errorf("invalid arg %q: expected KEY=VALUE", a)
		}
		if key == "" {
			return nil, fmt.Errorf("invalid arg %q: key cannot be empty", a)
		}
		env[key] = value
	}
	return env, nil
}

// envPlaceholder matches {key}, {key:raw} and {key:-default}.
var envPlaceholder = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)(?:(:raw)|:-([^}]*))?\}`)

// SubstitutePlaceholders replaces placeholders with shell-quoted values.
//
// Static placeholders: {repo}, {root}, {gitdir}, {version}, {trigger}.
// Custom variables from Context.Env: {key} (quoted), {key:raw} (as is)
// and {key:-default}.
func SubstitutePlaceholders(command string, hc Context) string {
	static := strings.NewReplacer(
		"{repo}", shellQuote(hc.Repo),
		"{root}", shellQuote(hc.Root),
		"{gitdir}", shellQuote(hc.GitDir),
		"{version}", shellQuote(hc.Version),
		"{trigger}", shellQuote(string(hc.Trigger)),
	)
	result := static.Replace(command)

	return envPlaceholder.ReplaceAllStringFunc(result, func(match string) string {
		sub := envPlaceholder.FindStringSubmatch(match)
		key, raw, def := sub[1], sub[2] == ":raw", sub[3]

		val, ok := hc.Env[key]
		if !ok {
			val = def
		}
		if raw {
			return val
		}
		return shellQuote(val)
	})
}
