package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nconklindev/fileuploader/internal/config"
	"github.com/nconklindev/fileuploader/internal/extractor"
	"github.com/nconklindev/fileuploader/internal/input"
	"github.com/nconklindev/fileuploader/internal/logging"
	"github.com/nconklindev/fileuploader/internal/ui"
	"github.com/nconklindev/fileuploader/internal/uploader"

	"github.com/mattn/go-isatty"
)

const msgBadExtension = "You passed a file with an invalid file extension. The valid file types are .csv, .xls, and .xlsx"

var _ input.FilePrompter = (*ui.TUIPrompter)(nil)

// Streams are the process's standard streams.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// App runs one upload: resolve inputs, read rows, post them.
type App struct {
	Streams Streams
	Version string

	// Sleep is the pause between throttled rows; nil means uploader.Sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (a *App) Run(ctx context.Context, cfg *config.Config) error {
	logging.Setup(cfg.LogLevel, cfg.LogFormat, a.Streams.Err)

	console := ui.NewConsole(a.Streams.Out, isTerminal(a.Streams.Out))
	console.Banner()

	resolver := &input.Resolver{
		Prompter: a.prompter(cfg, console),
		Console:  console,
	}
	params, err := resolver.Resolve(ctx, input.Values{
		FilePath: cfg.Filename,
		Webhook:  cfg.Webhook,
		Pause:    cfg.Pause,
	})
	if err != nil {
		return err
	}

	console.Println("Reading rows from file...")
	rows, err := extractor.ReadRows(params.FilePath)
	if errors.Is(err, extractor.ErrUnsupportedFormat) {
		console.Error(msgBadExtension)
		slog.Info("run ended without upload", "file", params.FilePath, "error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", params.FilePath, err)
	}
	console.Printf("%d rows found in file (not including the header row)\n", len(rows))

	console.Println("Starting to upload rows to Current....")
	up := uploader.New(console.Writer(), cfg.Timeout, "fileuploader/"+a.Version)
	if a.Sleep != nil {
		up.Sleep = a.Sleep
	}
	up.Progress = console.Progress

	start := time.Now()
	if err := up.Upload(ctx, rows, params.Target); err != nil {
		return err
	}
	slog.Info("upload complete", "rows", len(rows), "batch", params.Target.Batch(),
		"duration_ms", time.Since(start).Milliseconds())

	console.Success("Finished uploading.")
	return nil
}

func (a *App) prompter(cfg *config.Config, console *ui.Console) input.Prompter {
	if !cfg.NoTUI && isTerminal(a.Streams.In) && isTerminal(a.Streams.Out) {
		return &ui.TUIPrompter{
			In:        a.Streams.In,
			Out:       a.Streams.Out,
			FileTypes: extractor.SupportedExtensions(),
		}
	}
	return input.NewLinePrompter(a.Streams.In, console)
}

func isTerminal(s any) bool {
	f, ok := s.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
