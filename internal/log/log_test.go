package log

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		verbose bool
		quiet   bool
		log     func(l *Logger)
		want    string
	}{
		{
			name: "printf",
			log:  func(l *Logger) { l.Printf("Removing %s (not in release)\n", "extra") },
			want: "Removing extra (not in release)\n",
		},
		{
			name: "println",
			log:  func(l *Logger) { l.Println("vim", "cloned") },
			want: "vim cloned\n",
		},
		{
			name: "warning gets prefix and newline",
			log:  func(l *Logger) { l.Warnf("%s is not cloned, keeping its version", "ghost") },
			want: "Warning: ghost is not cloned, keeping its version\n",
		},
		{
			name: "warning keeps existing newline",
			log:  func(l *Logger) { l.Warnf("origin changed\n") },
			want: "Warning: origin changed\n",
		},
		{
			name: "debug hidden by default",
			log:  func(l *Logger) { l.Debug("init store", "repo", "vim") },
			want: "",
		},
		{
			name:    "debug with key values",
			verbose: true,
			log:     func(l *Logger) { l.Debug("init store", "repo", "vim", "gitdir", "/m/vim") },
			want:    "init store repo=vim gitdir=/m/vim\n",
		},
		{
			name:    "debug drops dangling key",
			verbose: true,
			log:     func(l *Logger) { l.Debug("removed", "repo") },
			want:    "removed\n",
		},
		{
			name:  "quiet suppresses warnings",
			quiet: true,
			log:   func(l *Logger) { l.Warnf("ignored") },
			want:  "",
		},
		{
			name:    "quiet wins over verbose",
			verbose: true,
			quiet:   true,
			log:     func(l *Logger) { l.Debug("hidden") },
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			tt.log(New(&buf, tt.verbose, tt.quiet))
			if got := buf.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommand(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(&buf, true, false)
	done := l.Command("/home/u", "git", "--git-dir", "/m/vim", "fetch", "--tags", "origin")
	if buf.Len() != 0 {
		t.Errorf("Command wrote before completion: %q", buf.String())
	}
	done(1500 * time.Microsecond)

	want := "[/home/u] $ git --git-dir /m/vim fetch --tags origin (2ms)\n"
	if got := buf.String(); got != want {
		t.Errorf("Command output = %q, want %q", got, want)
	}

	var quiet bytes.Buffer
	New(&quiet, false, false).Command("", "git", "status")(time.Second)
	if quiet.Len() != 0 {
		t.Errorf("Command wrote without verbose: %q", quiet.String())
	}
}

func TestIsVerbose(t *testing.T) {
	t.Parallel()

	tests := []struct {
		verbose, quiet, want bool
	}{
		{false, false, false},
		{true, false, true},
		{true, true, false},
	}
	for _, tt := range tests {
		if got := New(nil, tt.verbose, tt.quiet).IsVerbose(); got != tt.want {
			t.Errorf("New(verbose=%v, quiet=%v).IsVerbose() = %v, want %v", tt.verbose, tt.quiet, got, tt.want)
		}
	}
}

func TestContext(t *testing.T) {
	t.Parallel()

	// A logger is always available, even without one attached.
	FromContext(context.Background()).Warnf("dropped")

	var buf bytes.Buffer
	l := New(&buf, false, false)
	if got := FromContext(WithLogger(context.Background(), l)); got != l {
		t.Error("FromContext did not return the attached logger")
	}
	if l.Writer() != &buf {
		t.Error("Writer() did not return the output writer")
	}
}

func TestConcurrentWrites(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(&buf, false, false)
	repos := []string{"vim", "zsh", "tmux", "git", "fish", "nvim"}

	var wg sync.WaitGroup
	for _, r := range repos {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Warnf("%s is also tracked by another repository, keeping it", r)
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != len(repos) {
		t.Fatalf("got %d lines, want %d", len(lines), len(repos))
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "Warning: ") || !strings.HasSuffix(line, "keeping it") {
			t.Errorf("interleaved line %q", line)
		}
	}
}
