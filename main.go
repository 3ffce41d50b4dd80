package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/nconklindev/fileuploader/internal/app"
	"github.com/nconklindev/fileuploader/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		// The first signal cancels the run; a second one gets the default handling.
		<-ctx.Done()
		stop()
	}()

	streams := app.Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
	if err := newRootCmd(streams).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(streams app.Streams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fileuploader",
		Short: "Upload the rows of a CSV or Excel file to a webhook as JSON",
		Long: `fileuploader reads a .csv, .xls or .xlsx file whose first row holds the
column headers and posts every following row to a webhook as a JSON object.

With --pause 0 (the default) all rows go out in a single request as a JSON
array. A positive pause sends one request per row and waits that many seconds
between rows. Any setting left out on the command line is asked for
interactively.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(viper.New(), cmd.Flags())
			if err != nil {
				return err
			}

			a := &app.App{Streams: streams, Version: version}
			return a.Run(cmd.Context(), cfg)
		},
	}

	cmd.SetVersionTemplate(fmt.Sprintf("fileuploader %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	cmd.SetIn(streams.In)
	cmd.SetOut(streams.Out)
	cmd.SetErr(errWriter(streams.Err))
	config.BindFlags(cmd.Flags())

	return cmd
}

func errWriter(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
