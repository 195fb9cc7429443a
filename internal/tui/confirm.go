// SPDX-License-Identifier: MPL-2.0

// Package tui holds the small interactive pieces: confirmation prompts for
// destructive operations.
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	promptStyle = lipgloss.NewStyle().Bold(true)
	hintStyle   = lipgloss.NewStyle().Faint(true)
)

// ConfirmModel is a yes/no prompt that defaults to no. Anything other than
// an explicit y declines.
type ConfirmModel struct {
	Prompt string

	answered  bool
	confirmed bool
}

// NewConfirm creates a prompt with the given question.
func NewConfirm(prompt string) ConfirmModel {
	return ConfirmModel{Prompt: prompt}
}

// Init implements tea.Model.
func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "y", "Y":
		m.answered = true
		m.confirmed = true
		return m, tea.Quit
	case "n", "N", "enter", "esc", "ctrl+c", "q":
		m.answered = true
		m.confirmed = false
		return m, tea.Quit
	}

	return m, nil
}

// View implements tea.Model.
func (m ConfirmModel) View() string {
	if m.answered {
		answer := "no"
		if m.confirmed {
			answer = "yes"
		}
		return fmt.Sprintf("%s %s\n", promptStyle.Render(m.Prompt), answer)
	}
	return fmt.Sprintf("%s %s ", promptStyle.Render(m.Prompt), hintStyle.Render("[y/N]"))
}

// Confirmed reports the answer once the prompt finished.
func (m ConfirmModel) Confirmed() bool {
	return m.answered && m.confirmed
}

// Confirm runs the prompt on the terminal and returns the answer.
func Confirm(prompt string) (bool, error) {
	final, err := tea.NewProgram(NewConfirm(prompt)).Run()
	if err != nil {
		return false, fmt.Errorf("run confirmation prompt: %w", err)
	}

	m, ok := final.(ConfirmModel)
	if !ok {
		return false, fmt.Errorf("unexpected prompt model %T", final)
	}
	return m.Confirmed(), nil
}
