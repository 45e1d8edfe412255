package vcs

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/raphi011/ovl/internal/cmd"
)

// Git runs requests through the git binary.
type Git struct {
	Binary string // defaults to "git"
}

// NewGit returns a runner for the given git binary.
func NewGit(binary string) *Git {
	return &Git{Binary: binary}
}

func (g *Git) binary() string {
	if g.Binary == "" {
		return "git"
	}
	return g.Binary
}

// Args returns the full git command line for req.
func (g *Git) Args(req Request) []string {
	var args []string
	if req.Target.GitDir != "" {
		args = append(args, "--git-dir="+req.Target.GitDir)
	}
	if req.Target.WorkTree != "" {
		args = append(args, "--work-tree="+req.Target.WorkTree)
	}
	return append(args, req.Args...)
}

// Run implements Runner. Commands run from the working tree so that
// paths in the output are relative to it.
func (g *Git) Run(ctx context.Context, req Request) (Result, error) {
	out, err := cmd.Exec(ctx, cmd.Command{
		Dir:    req.Target.WorkTree,
		Name:   g.binary(),
		Args:   g.Args(req),
		Stdin:  req.Stdin,
		Stdout: req.Stdout,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Stdout: out}, nil
}

// Check verifies that the git binary is available.
func (g *Git) Check() error {
	if _, err := exec.LookPath(g.binary()); err != nil {
		return fmt.Errorf("%s not found: please install git (https://git-scm.com)", g.binary())
	}
	return nil
}
