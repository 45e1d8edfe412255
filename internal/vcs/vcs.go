package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/raphi011/ovl/internal/cmd"
)

// ExitError is returned when the VCS command exits non-zero.
type ExitError = cmd.ExitError

// Target scopes a request to one repository.
type Target struct {
	Name     string // repository name, for diagnostics
	GitDir   string // metadata store
	WorkTree string // shared working tree; empty for store-only requests
}

// Request is one VCS invocation.
type Request struct {
	Target Target
	Args   []string
	Stdin  io.Reader
	Stdout io.Writer // streams output instead of capturing it when set
}

// Result carries the captured stdout of a successful request.
type Result struct {
	Stdout []byte
}

// Runner executes VCS requests.
type Runner interface {
	Run(ctx context.Context, req Request) (Result, error)
}

// Run executes args against t and discards the output.
func Run(ctx context.Context, r Runner, t Target, args ...string) error {
	_, err := r.Run(ctx, Request{Target: t, Args: args})
	return err
}

// Output executes args against t and returns trimmed stdout.
func Output(ctx context.Context, r Runner, t Target, args ...string) (string, error) {
	res, err := r.Run(ctx, Request{Target: t, Args: args})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(res.Stdout)), nil
}

// Lines executes args against t and returns the non-empty output lines.
func Lines(ctx context.Context, r Runner, t Target, args ...string) ([]string, error) {
	res, err := r.Run(ctx, Request{Target: t, Args: args})
	if err != nil {
		return nil, err
	}
	var lines []string
	for line := range strings.SplitSeq(string(res.Stdout), "\n") {
		if line = strings.TrimRight(line, "\r"); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// Paths executes args (which must request NUL-separated output, e.g.
// "ls-files -z") and returns the paths.
func Paths(ctx context.Context, r Runner, t Target, args ...string) ([]string, error) {
	res, err := r.Run(ctx, Request{Target: t, Args: args})
	if err != nil {
		return nil, err
	}
	var paths []string
	for p := range bytes.SplitSeq(res.Stdout, []byte{0}) {
		if len(p) > 0 {
			paths = append(paths, string(p))
		}
	}
	return paths, nil
}

// TrackedFiles returns the paths tracked by t, relative to the working tree.
func TrackedFiles(ctx context.Context, r Runner, t Target) ([]string, error) {
	return Paths(ctx, r, t, "ls-files", "-z", "--full-name")
}

// Version describes the current checkout of t. With tagMode it returns
// the nearest tag reachable from HEAD; otherwise a tag or an abbreviated
// revision as produced by describe --tags --always.
func Version(ctx context.Context, r Runner, t Target, tagMode bool) (string, error) {
	args := []string{"describe", "--tags", "--always"}
	if tagMode {
		args = []string{"describe", "--tags", "--abbrev=0"}
	}
	v, err := Output(ctx, r, t, args...)
	if err != nil {
		return "", fmt.Errorf("describe %s: %w", t.Name, err)
	}
	return v, nil
}

// ResolveCommit returns the commit rev points to, if it exists locally.
func ResolveCommit(ctx context.Context, r Runner, t Target, rev string) (string, bool) {
	out, err := Output(ctx, r, t, "rev-parse", "--verify", "--quiet", rev+"^{commit}")
	if err != nil || out == "" {
		return "", false
	}
	return out, true
}

// Count runs rev-list --count over rng.
func Count(ctx context.Context, r Runner, t Target, rng string) (int, error) {
	out, err := Output(ctx, r, t, "rev-list", rng, "--count")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("parse rev-list count %q: %w", out, err)
	}
	return n, nil
}

// ExitCode returns the exit code carried by err, or -1.
func ExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}
