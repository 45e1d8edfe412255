// Package output writes ovl's primary data (names, paths, tables) to
// stdout. Diagnostics go through the log package to stderr.
package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/raphi011/ovl/internal/ui/static"
)

type ctxKey struct{}

// Printer writes primary output. Writes are serialised so parallel
// repository jobs can share one printer.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

// New returns a Printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// WithPrinter attaches a Printer for w to ctx.
func WithPrinter(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, ctxKey{}, New(w))
}

// FromContext returns the attached Printer, or one for stdout.
func FromContext(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok {
		return p
	}
	return New(os.Stdout)
}

func (p *Printer) write(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	io.WriteString(p.w, s)
}

func (p *Printer) Print(a ...any) {
	p.write(fmt.Sprint(a...))
}

func (p *Printer) Printf(format string, a ...any) {
	p.write(fmt.Sprintf(format, a...))
}

func (p *Printer) Println(a ...any) {
	p.write(fmt.Sprintln(a...))
}

// Lines prints one value per line, e.g. repository names or paths.
func (p *Printer) Lines(lines []string) {
	for _, l := range lines {
		p.write(l + "\n")
	}
}

// Table prints rows as an aligned table. Nothing is printed for no rows.
func (p *Printer) Table(headers []string, rows [][]string) {
	p.write(static.RenderTable(headers, rows))
}

// Writer returns the underlying writer. Writes through it bypass the
// printer's lock.
func (p *Printer) Writer() io.Writer {
	return p.w
}
