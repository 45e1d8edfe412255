// Package progress shows progress of long-running batch operations.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/colorprofile"
)

// stepMsg reports one finished unit of work.
type stepMsg struct {
	label string
}

// Spinner animates a "done/total" counter while a batch runs.
type Spinner struct {
	program *tea.Program
	steps   chan stepMsg
	done    chan struct{}
	out     io.Writer
	message string
	total   int

	mu      sync.Mutex
	running bool
}

type spinnerModel struct {
	spinner  spinner.Model
	message  string
	total    int
	finished int
	last     string
	steps    chan stepMsg
}

func (m spinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.wait())
}

func (m spinnerModel) wait() tea.Cmd {
	return func() tea.Msg {
		s, ok := <-m.steps
		if !ok {
			return tea.Quit()
		}
		return s
	}
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stepMsg:
		m.finished++
		m.last = msg.label
		return m, m.wait()
	case tea.KeyPressMsg:
		return m, nil
	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m spinnerModel) View() tea.View {
	return tea.NewView(m.line())
}

func (m spinnerModel) line() string {
	s := fmt.Sprintf("%s %s %d/%d", m.spinner.View(), m.message, m.finished, m.total)
	if m.last != "" {
		s += " (" + m.last + ")"
	}
	return s
}

// NewSpinner creates a spinner for total units of work rendered to out.
func NewSpinner(out io.Writer, message string, total int) *Spinner {
	return &Spinner{
		steps:   make(chan stepMsg, total+1),
		done:    make(chan struct{}),
		out:     out,
		message: message,
		total:   total,
	}
}

func (s *Spinner) model() spinnerModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return spinnerModel{spinner: sp, message: s.message, total: s.total, steps: s.steps}
}

// Start begins the animation.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	s.program = tea.NewProgram(s.model(),
		tea.WithoutSignalHandler(),
		tea.WithInput(nil),
		tea.WithOutput(s.out),
		tea.WithColorProfile(colorprofile.Detect(s.out, os.Environ())),
	)
	s.running = true

	go func() {
		_, _ = s.program.Run()
		close(s.done)
	}()
}

// Step records one finished unit labelled by label.
func (s *Spinner) Step(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	select {
	case s.steps <- stepMsg{label: label}:
	default:
	}
}

// Stop ends the animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.steps)
	s.mu.Unlock()

	s.program.Quit()
	select {
	case <-s.done:
	case <-time.After(500 * time.Millisecond):
	}
	fmt.Fprint(s.out, "\r\033[K")
}
