package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PickerModel lets the user browse for the file to upload. Only files with
// one of the allowed extensions can be selected.
type PickerModel struct {
	state    state
	question string
	picker   filepicker.Model
	answer   string
}

func NewPickerModel(question, dir string, allowed []string) PickerModel {
	fp := filepicker.New()
	fp.AllowedTypes = allowed
	fp.CurrentDirectory = dir
	fp.AutoHeight = false
	fp.SetHeight(10)

	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(accent)
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB84D"))
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB84D"))
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(muted)
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(accent).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(muted)

	return PickerModel{
		state:    stateEditing,
		question: question,
		picker:   fp,
	}
}

func (m PickerModel) Init() tea.Cmd {
	return m.picker.Init()
}

func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Leave room for the question and the help line.
		m.picker.SetHeight(max(msg.Height-6, 5))
		return m, nil

	case tea.KeyMsg:
		if m.state != stateEditing {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			m.state = stateAborted
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.answer = path
		m.state = stateSubmitted
		return m, tea.Quit
	}

	return m, cmd
}

func (m PickerModel) View() string {
	var s strings.Builder

	s.WriteString(PromptStyle.Render(m.question))
	s.WriteString("\n")

	switch m.state {
	case stateEditing:
		s.WriteString(m.picker.View())
		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("↑/↓: navigate • enter: select • h: up a directory • q: quit"))
	case stateSubmitted:
		s.WriteString(SubtitleStyle.Render("> " + m.answer))
	case stateAborted:
		s.WriteString(ErrorStyle.Render("aborted"))
	}
	s.WriteString("\n")

	return s.String()
}

// Answer returns the selected path and whether a file was selected.
func (m PickerModel) Answer() (string, bool) {
	return m.answer, m.state == stateSubmitted
}
