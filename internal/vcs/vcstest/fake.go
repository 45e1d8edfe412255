// Package vcstest provides a scripted VCS backend for tests.
package vcstest

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/raphi011/ovl/internal/vcs"
)

// Call records one request seen by the fake.
type Call struct {
	Repo string
	Args []string
}

// String renders the call as "repo: arg arg".
func (c Call) String() string {
	return c.Repo + ": " + strings.Join(c.Args, " ")
}

// Response is a scripted reply.
type Response struct {
	stdout string
	err    error
	do     func(vcs.Request)
}

// Fake answers requests from a script keyed by repository name and
// arguments. Unscripted requests succeed with empty output.
type Fake struct {
	mu      sync.Mutex
	script  map[string]*Response
	calls   []Call
	Default func(vcs.Request) (vcs.Result, error) // answers unscripted requests when set
}

// New returns an empty fake.
func New() *Fake {
	return &Fake{script: map[string]*Response{}}
}

func key(repo string, args []string) string {
	return repo + ": " + strings.Join(args, " ")
}

// On scripts the reply for args issued against repo.
func (f *Fake) On(repo string, args ...string) *Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := &Response{}
	f.script[key(repo, args)] = r
	return r
}

// Return sets the stdout of the reply.
func (r *Response) Return(stdout string) *Response {
	r.stdout = stdout
	return r
}

// ReturnPaths sets a NUL-separated stdout, as produced by "ls-files -z".
func (r *Response) ReturnPaths(paths ...string) *Response {
	var b strings.Builder
	for _, p := range paths {
		b.WriteString(p)
		b.WriteByte(0)
	}
	r.stdout = b.String()
	return r
}

// Fail makes the request exit with code and stderr.
func (r *Response) Fail(code int, stderr string) *Response {
	r.err = &vcs.ExitError{Name: "git", Code: code, Stderr: stderr}
	return r
}

// Do runs fn when the request is issued, before replying.
func (r *Response) Do(fn func(vcs.Request)) *Response {
	r.do = fn
	return r
}

// Run implements vcs.Runner.
func (f *Fake) Run(ctx context.Context, req vcs.Request) (vcs.Result, error) {
	if err := ctx.Err(); err != nil {
		return vcs.Result{}, err
	}

	f.mu.Lock()
	f.calls = append(f.calls, Call{Repo: req.Target.Name, Args: append([]string(nil), req.Args...)})
	r, ok := f.script[key(req.Target.Name, req.Args)]
	def := f.Default
	f.mu.Unlock()

	if !ok {
		if def != nil {
			return def(req)
		}
		return vcs.Result{}, nil
	}
	if r.do != nil {
		r.do(req)
	}
	if r.err != nil {
		var exitErr *vcs.ExitError
		if errors.As(r.err, &exitErr) {
			e := *exitErr
			e.Args = append([]string(nil), req.Args...)
			return vcs.Result{}, &e
		}
		return vcs.Result{}, r.err
	}
	if req.Stdout != nil {
		io.WriteString(req.Stdout, r.stdout)
		return vcs.Result{}, nil
	}
	return vcs.Result{Stdout: []byte(r.stdout)}, nil
}

// Calls returns every call seen so far.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsFor returns the calls issued against repo, rendered as strings
// without the repository prefix.
func (f *Fake) CallsFor(repo string) []string {
	var out []string
	for _, c := range f.Calls() {
		if c.Repo == repo {
			out = append(out, strings.Join(c.Args, " "))
		}
	}
	return out
}

// Called reports whether args were issued against repo.
func (f *Fake) Called(repo string, args ...string) bool {
	want := strings.Join(args, " ")
	for _, c := range f.CallsFor(repo) {
		if c == want {
			return true
		}
	}
	return false
}

// Reset forgets recorded calls, keeping the script.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
