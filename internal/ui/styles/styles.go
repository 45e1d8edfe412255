// Package styles provides the lipgloss styles shared by ovl's output.
package styles

import (
	"charm.land/lipgloss/v2"
)

var (
	Success = lipgloss.Color("82")
	Warning = lipgloss.Color("214")
	Error   = lipgloss.Color("196")
	Muted   = lipgloss.Color("240")
)

var (
	SuccessStyle = lipgloss.NewStyle().Foreground(Success)
	WarningStyle = lipgloss.NewStyle().Foreground(Warning).Bold(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(Error).Bold(true)
	MutedStyle   = lipgloss.NewStyle().Foreground(Muted)
)

// Symbols prefixed to per-repository result lines.
const (
	SymbolOK   = "✓"
	SymbolFail = "✗"
)

// OK renders a result line for a repository that succeeded.
func OK(msg string) string {
	return SuccessStyle.Render(SymbolOK) + " " + msg
}

// Fail renders a result line for a repository that failed.
func Fail(msg string) string {
	return ErrorStyle.Render(SymbolFail) + " " + msg
}
