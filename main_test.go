package main

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nconklindev/fileuploader/internal/app"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Version(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(app.Streams{In: strings.NewReader(""), Out: &out, Err: io.Discard})
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "fileuploader dev\ncommit: none\nbuilt: unknown\n", out.String())
}

func TestRootCmd_Upload(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var got []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = io.ReadAll(r.Body)
	}))
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "rows.csv")
	require.NoError(t, os.WriteFile(path, []byte("sku,qty\nA-1,4\n"), 0o600))

	var out bytes.Buffer
	cmd := newRootCmd(app.Streams{In: strings.NewReader(""), Out: &out, Err: io.Discard})
	cmd.SetArgs([]string{"--filename", path, "--webhook", srv.URL, "--pause", "0", "--env-file", ""})

	require.NoError(t, cmd.Execute())
	assert.JSONEq(t, `[{"sku":"A-1","qty":4}]`, string(got))
	assert.Contains(t, out.String(), "Finished uploading.")
}

func TestRootCmd_RejectsArgs(t *testing.T) {
	cmd := newRootCmd(app.Streams{In: strings.NewReader(""), Out: io.Discard, Err: io.Discard})
	cmd.SetArgs([]string{"stray"})

	assert.Error(t, cmd.Execute())
}
