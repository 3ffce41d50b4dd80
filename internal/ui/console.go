package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

const (
	welcomeTitle = "Welcome to the Current file uploader!"
	welcomeHint  = "This uploader expects an excel or csv-formatted file, with the first row " +
		"containing column headers matching the names of the fields for your channel."
)

// Console writes the user-facing lines of a run. Styling is applied only
// when the destination is a terminal.
type Console struct {
	w      io.Writer
	styled bool
	bar    progress.Model
}

func NewConsole(w io.Writer, styled bool) *Console {
	return &Console{
		w:      w,
		styled: styled,
		bar:    progress.New(progress.WithGradient("#FF8C42", "#FF9F5A"), progress.WithWidth(40)),
	}
}

// Writer exposes the raw destination for components that print their own lines.
func (c *Console) Writer() io.Writer {
	return c.w
}

func (c *Console) Banner() {
	if !c.styled {
		fmt.Fprintln(c.w, welcomeTitle)
		fmt.Fprintln(c.w, welcomeHint)
		return
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render(welcomeTitle),
		SubtitleStyle.Width(72).Render(welcomeHint),
	)
	fmt.Fprintln(c.w, BannerStyle.Render(body))
}

func (c *Console) Println(msg string) {
	fmt.Fprintln(c.w, msg)
}

func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c.w, format, args...)
}

func (c *Console) Success(msg string) {
	fmt.Fprintln(c.w, c.render(SuccessStyle, msg))
}

func (c *Console) Error(msg string) {
	fmt.Fprintln(c.w, c.render(ErrorStyle, msg))
}

func (c *Console) Prompt(msg string) {
	fmt.Fprintln(c.w, c.render(PromptStyle, msg))
}

// Progress draws a bar for sent out of total rows. Plain output gets no bar;
// the per-row lines already report progress there.
func (c *Console) Progress(sent, total int) {
	if !c.styled || total <= 0 {
		return
	}
	fmt.Fprintf(c.w, "%s %d/%d rows\n", c.bar.ViewAs(float64(sent)/float64(total)), sent, total)
}

func (c *Console) render(style lipgloss.Style, msg string) string {
	if !c.styled {
		return msg
	}
	return style.Render(msg)
}
