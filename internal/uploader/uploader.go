package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/nconklindev/fileuploader/internal/types"

	"github.com/google/uuid"
)

// maxErrorBody caps how much of a failed response is kept for the error message.
const maxErrorBody = 512

var ErrNoTarget = errors.New("upload target has no url")

// StatusError reports a non-2xx response from the webhook.
type StatusError struct {
	Row        int // 1-based row number, 0 for a batch request
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	what := "batch upload"
	if e.Row > 0 {
		what = fmt.Sprintf("row %d", e.Row)
	}
	if e.Body == "" {
		return fmt.Sprintf("%s: webhook responded %d %s", what, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s: webhook responded %d %s: %s", what, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Uploader posts rows as JSON to a webhook, one request at a time.
type Uploader struct {
	Client    *http.Client
	Out       io.Writer
	UserAgent string

	// Progress, when set, is called after each throttled row is accepted.
	Progress func(sent, total int)

	// Sleep waits out the pause between throttled rows. It returns early with
	// ctx.Err() when ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
}

// New returns an Uploader with its own client. Zero timeout means no timeout.
func New(out io.Writer, timeout time.Duration, userAgent string) *Uploader {
	return &Uploader{
		Client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		Out:       out,
		UserAgent: userAgent,
		Sleep:     Sleep,
	}
}

// Upload sends the whole set in one request when the target has no pause,
// otherwise one request per row with the pause between requests.
func (u *Uploader) Upload(ctx context.Context, rows types.RowSet, target types.UploadTarget) error {
	if target.URL == nil {
		return ErrNoTarget
	}

	client := u.Client
	if client == nil {
		client = http.DefaultClient
	}
	defer client.CloseIdleConnections()

	endpoint := *target.URL
	endpoint.Fragment = ""
	endpoint.RawFragment = ""

	if target.Batch() {
		return u.uploadBatch(ctx, client, &endpoint, rows)
	}
	return u.uploadThrottled(ctx, client, &endpoint, rows, target.Pause)
}

func (u *Uploader) uploadBatch(ctx context.Context, client *http.Client, endpoint *url.URL, rows types.RowSet) error {
	if rows == nil {
		rows = types.RowSet{}
	}

	body, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}

	return u.post(ctx, client, endpoint, body, 0)
}

func (u *Uploader) uploadThrottled(ctx context.Context, client *http.Client, endpoint *url.URL, rows types.RowSet, pause time.Duration) error {
	sleep := u.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	for i, row := range rows {
		n := i + 1

		body, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("encode row %d: %w", n, err)
		}

		if err := u.post(ctx, client, endpoint, body, n); err != nil {
			return err
		}

		if u.Out != nil {
			fmt.Fprintf(u.Out, "Sent row %d\n", n)
		}
		if u.Progress != nil {
			u.Progress(n, len(rows))
		}

		if n < len(rows) {
			if err := sleep(ctx, pause); err != nil {
				return fmt.Errorf("pause after row %d: %w", n, err)
			}
		}
	}

	return nil
}

// Sleep blocks for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (u *Uploader) post(ctx context.Context, client *http.Client, endpoint *url.URL, body []byte, row int) error {
	start := time.Now()
	requestID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if u.UserAgent != "" {
		req.Header.Set("User-Agent", u.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		if row > 0 {
			return fmt.Errorf("send row %d: %w", row, err)
		}
		return fmt.Errorf("send batch: %w", err)
	}
	defer resp.Body.Close()

	logger := slog.With("request_id", requestID, "status", resp.StatusCode,
		"bytes", len(body), "duration_ms", time.Since(start).Milliseconds())
	if row > 0 {
		logger = logger.With("row", row)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		logger.Warn("webhook rejected upload")
		return &StatusError{Row: row, StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	logger.Debug("upload accepted")
	return nil
}
