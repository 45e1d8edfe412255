package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/raphi011/ovl/internal/log"
)

// ExitError is returned when a command runs but exits non-zero.
// Error() names the command and its exit status, followed by the
// trimmed stderr when there is any.
type ExitError struct {
	Name   string
	Args   []string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s %s: exit status %d", e.Name, strings.Join(e.Args, " "), e.Code)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Command describes a single external command invocation.
type Command struct {
	Dir   string
	Name  string
	Args  []string
	Env   []string  // appended to the inherited environment
	Stdin io.Reader // optional
	// Stdout streams output instead of capturing it when set.
	Stdout io.Writer
	// Stderr also receives stderr when set; it is captured either way.
	Stderr io.Writer
}

// Exec runs c and returns its captured stdout. Non-zero exits are
// reported as *ExitError; a cancelled context is reported as ctx.Err().
func Exec(ctx context.Context, c Command) ([]byte, error) {
	l := log.FromContext(ctx)
	done := l.Command(c.Dir, c.Name, c.Args...)
	start := time.Now()
	defer func() { done(time.Since(start)) }()

	ec := exec.CommandContext(ctx, c.Name, c.Args...)
	ec.Dir = c.Dir
	if len(c.Env) > 0 {
		ec.Env = append(ec.Environ(), c.Env...)
	}
	ec.Stdin = c.Stdin

	var stdout, stderr bytes.Buffer
	ec.Stdout = &stdout
	if c.Stdout != nil {
		ec.Stdout = c.Stdout
	}
	ec.Stderr = &stderr
	if c.Stderr != nil {
		ec.Stderr = io.MultiWriter(&stderr, c.Stderr)
	}

	err := ec.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil, &ExitError{
			Name:   c.Name,
			Args:   c.Args,
			Code:   exitErr.ExitCode(),
			Stderr: strings.TrimSpace(stderr.String()),
		}
	}
	return nil, err
}

// RunContext executes a command in dir, discarding stdout.
func RunContext(ctx context.Context, dir, name string, args ...string) error {
	_, err := Exec(ctx, Command{Dir: dir, Name: name, Args: args})
	return err
}

// OutputContext executes a command in dir and returns stdout.
func OutputContext(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	return Exec(ctx, Command{Dir: dir, Name: name, Args: args})
}
