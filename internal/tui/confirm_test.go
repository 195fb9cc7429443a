// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestConfirmModel(t *testing.T) {
	t.Parallel()

	t.Run("y confirms and quits", func(t *testing.T) {
		t.Parallel()

		m := NewConfirm("Delete the environment?")
		updated, cmd := m.Update(keyPress('y'))

		got := updated.(ConfirmModel)
		if !got.Confirmed() {
			t.Error("Confirmed() = false after y")
		}
		if cmd == nil {
			t.Error("expected a quit command")
		}
	})

	t.Run("n declines", func(t *testing.T) {
		t.Parallel()

		m := NewConfirm("Delete the environment?")
		updated, _ := m.Update(keyPress('n'))
		if updated.(ConfirmModel).Confirmed() {
			t.Error("Confirmed() = true after n")
		}
	})

	t.Run("enter defaults to no", func(t *testing.T) {
		t.Parallel()

		m := NewConfirm("Delete the environment?")
		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

		got := updated.(ConfirmModel)
		if got.Confirmed() {
			t.Error("Confirmed() = true after enter")
		}
		if cmd == nil {
			t.Error("expected a quit command")
		}
	})

	t.Run("unrelated keys keep the prompt open", func(t *testing.T) {
		t.Parallel()

		m := NewConfirm("Delete the environment?")
		updated, cmd := m.Update(keyPress('x'))

		got := updated.(ConfirmModel)
		if got.Confirmed() || cmd != nil {
			t.Error("prompt should ignore unrelated keys")
		}
	})

	t.Run("view shows the question and the default", func(t *testing.T) {
		t.Parallel()

		m := NewConfirm("Delete the environment?")
		view := m.View()
		if !strings.Contains(view, "Delete the environment?") {
			t.Errorf("View() = %q", view)
		}
		if !strings.Contains(view, "y/N") {
			t.Errorf("View() = %q, default hint missing", view)
		}
	})
}
