package input

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/nconklindev/fileuploader/internal/ui"
)

// Prompter asks the user a question and returns the raw answer. An exhausted
// or abandoned input yields an error wrapping io.EOF; a done ctx yields
// ctx.Err().
type Prompter interface {
	Prompt(ctx context.Context, question string) (string, error)
}

// FilePrompter is implemented by prompters that can offer a file browser for
// the file question.
type FilePrompter interface {
	PromptFile(ctx context.Context, question string) (string, error)
}

type lineResult struct {
	line string
	err  error
}

// LinePrompter reads one line per question. It is used when stdin is not a
// terminal and in tests.
type LinePrompter struct {
	console *ui.Console
	reader  *bufio.Reader

	// pending holds a read that outlived the Prompt that started it.
	pending chan lineResult
}

func NewLinePrompter(in io.Reader, console *ui.Console) *LinePrompter {
	return &LinePrompter{
		console: console,
		reader:  bufio.NewReader(in),
	}
}

func (p *LinePrompter) Prompt(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.console.Prompt(question)

	if p.pending == nil {
		ch := make(chan lineResult, 1)
		go func() {
			line, err := p.reader.ReadString('\n')
			ch <- lineResult{line: line, err: err}
		}()
		p.pending = ch
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-p.pending:
		p.pending = nil
		return answerLine(res.line, res.err)
	}
}

func answerLine(line string, err error) (string, error) {
	if err != nil {
		// A final line without a newline still counts as an answer.
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}
