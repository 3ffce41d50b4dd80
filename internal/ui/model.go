package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrPromptAborted is returned when the user leaves a prompt or the file
// browser without answering.
// It wraps io.EOF so callers treat it like a closed input stream.
var ErrPromptAborted = fmt.Errorf("prompt aborted: %w", io.EOF)

type state int

const (
	stateEditing state = iota
	stateSubmitted
	stateAborted
)

// PromptModel asks a single question and holds the answer once submitted.
type PromptModel struct {
	state    state
	question string
	hint     string
	input    textinput.Model
	answer   string
}

func NewPromptModel(question, placeholder string) PromptModel {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	ti.PromptStyle = PromptStyle
	ti.Width = 72
	ti.Focus()

	return PromptModel{
		state:    stateEditing,
		question: question,
		hint:     "enter: submit • esc: quit",
		input:    ti,
	}
}

func (m PromptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m PromptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && m.state == stateEditing {
		switch msg.String() {
		case "ctrl+c", "esc":
			m.state = stateAborted
			return m, tea.Quit
		case "enter":
			m.answer = m.input.Value()
			m.state = stateSubmitted
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m PromptModel) View() string {
	var s strings.Builder

	s.WriteString(PromptStyle.Render(m.question))
	s.WriteString("\n")

	switch m.state {
	case stateEditing:
		s.WriteString(m.input.View())
		s.WriteString("\n")
		s.WriteString(HelpStyle.Render(m.hint))
	case stateSubmitted:
		s.WriteString(SubtitleStyle.Render("> " + m.answer))
	case stateAborted:
		s.WriteString(ErrorStyle.Render("aborted"))
	}
	s.WriteString("\n")

	return s.String()
}

// Answer returns the submitted text and whether the prompt was submitted.
func (m PromptModel) Answer() (string, bool) {
	return m.answer, m.state == stateSubmitted
}

// TUIPrompter runs one bubbletea program per question.
type TUIPrompter struct {
	In  io.Reader
	Out io.Writer

	// FileTypes limits which files PromptFile offers for selection.
	FileTypes []string
	// Dir is where PromptFile starts browsing; empty means the working directory.
	Dir string
}

func (p *TUIPrompter) Prompt(ctx context.Context, question string) (string, error) {
	final, err := p.run(ctx, NewPromptModel(question, ""))
	if err != nil {
		return "", err
	}

	answer, ok := final.(PromptModel).Answer()
	if !ok {
		return "", ErrPromptAborted
	}
	return answer, nil
}

// PromptFile asks for the file to upload with a file browser.
func (p *TUIPrompter) PromptFile(ctx context.Context, question string) (string, error) {
	dir := p.Dir
	if dir == "" {
		dir, _ = os.Getwd()
	}

	final, err := p.run(ctx, NewPickerModel(question, dir, p.FileTypes))
	if err != nil {
		return "", err
	}

	path, ok := final.(PickerModel).Answer()
	if !ok {
		return "", ErrPromptAborted
	}
	return path, nil
}

func (p *TUIPrompter) run(ctx context.Context, model tea.Model) (tea.Model, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if p.In != nil {
		opts = append(opts, tea.WithInput(p.In))
	}
	if p.Out != nil {
		opts = append(opts, tea.WithOutput(p.Out))
	}

	final, err := tea.NewProgram(model, opts...).Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
			return nil, ErrPromptAborted
		}
		return nil, fmt.Errorf("run prompt: %w", err)
	}
	return final, nil
}
