package prompt

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func press(code rune, mod tea.KeyMod) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code, Mod: mod}
}

func TestConfirmModel_Keys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		msg   tea.Msg
		want  ConfirmResult
		done  bool
		quits bool
	}{
		{name: "y removes", msg: press('y', 0), want: ConfirmResult{Confirmed: true}, done: true, quits: true},
		{name: "Y removes", msg: press('Y', 0), want: ConfirmResult{Confirmed: true}, done: true, quits: true},
		{name: "n keeps", msg: press('n', 0), done: true, quits: true},
		{name: "enter keeps", msg: press(tea.KeyEnter, 0), done: true, quits: true},
		{name: "esc cancels", msg: press(tea.KeyEscape, 0), want: ConfirmResult{Cancelled: true}, done: true, quits: true},
		{name: "ctrl+c cancels", msg: press('c', tea.ModCtrl), want: ConfirmResult{Cancelled: true}, done: true, quits: true},
		{name: "q cancels", msg: press('q', 0), want: ConfirmResult{Cancelled: true}, done: true, quits: true},
		{name: "other keys wait", msg: press('x', 0)},
		{name: "non-key messages wait", msg: tea.WindowSizeMsg{Width: 80, Height: 24}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := confirmModel{prompt: "Remove vim and the files only it tracks?"}
			updated, cmd := m.Update(tt.msg)
			um := updated.(confirmModel)

			got := ConfirmResult{Confirmed: um.confirmed, Cancelled: um.cancelled}
			if got != tt.want {
				t.Errorf("result = %+v, want %+v", got, tt.want)
			}
			if um.done != tt.done {
				t.Errorf("done = %v, want %v", um.done, tt.done)
			}
			if (cmd != nil) != tt.quits {
				t.Errorf("quit cmd returned = %v, want %v", cmd != nil, tt.quits)
			}
		})
	}
}

func TestConfirmModel_View(t *testing.T) {
	t.Parallel()

	m := confirmModel{prompt: "Remove vim?"}
	if m.Init() != nil {
		t.Error("Init() should not start any command")
	}
	view := m.View().Content
	if !strings.HasPrefix(view, "Remove vim? ") || !strings.Contains(view, "[y/N]") {
		t.Errorf("View() = %q", view)
	}

	m.done = true
	if got := m.View().Content; got != "" {
		t.Errorf("View() after answer = %q, want empty", got)
	}
}
