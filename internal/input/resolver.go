package input

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nconklindev/fileuploader/internal/types"
	"github.com/nconklindev/fileuploader/internal/ui"
)

var (
	ErrInputClosed = errors.New("input closed before a valid value was entered")
	ErrInvalidURL  = errors.New("invalid webhook url")
)

const (
	askFile    = "Please enter the name of the file to upload: "
	askWebhook = "Enter the webhook url for the channel you want to upload to:"
	askPause   = "Enter the pause time in seconds between record uploads (0 or just hit enter for no pause)"

	msgMissingFile = "The file specified doesn't exist, please try again:"
	msgBadURLFlag  = "Invalid webhook url parameter."
	msgBadURL      = "Invalid webhook url. Make sure the full url is getting copied."
)

// Values are the raw settings supplied on the command line or environment.
// Empty strings mean "not supplied".
type Values struct {
	FilePath string
	Webhook  string
	Pause    string
}

// Params are the validated inputs of a run.
type Params struct {
	FilePath string
	Target   types.UploadTarget
}

// Resolver turns Values into Params, prompting for anything missing or invalid.
type Resolver struct {
	Prompter Prompter
	Console  *ui.Console

	// Stat defaults to os.Stat.
	Stat func(name string) (os.FileInfo, error)
}

// Resolve returns once every value is valid. The prompt loops end early with
// ErrInputClosed when input runs out, or with ctx.Err() when ctx is done.
func (r *Resolver) Resolve(ctx context.Context, v Values) (Params, error) {
	path, err := r.resolveFile(ctx, v.FilePath)
	if err != nil {
		return Params{}, err
	}

	u, err := r.resolveURL(ctx, v.Webhook)
	if err != nil {
		return Params{}, err
	}

	pause, err := r.resolvePause(ctx, v.Pause)
	if err != nil {
		return Params{}, err
	}

	slog.Debug("input resolved", "file", path, "webhook", u.Redacted(), "pause", pause)
	return Params{
		FilePath: path,
		Target:   types.UploadTarget{URL: u, Pause: pause},
	}, nil
}

func (r *Resolver) resolveFile(ctx context.Context, path string) (string, error) {
	prompted := false
	for !r.fileExists(path) {
		// An empty answer is a miss too; only the very first prompt goes unannounced.
		if path != "" || prompted {
			r.Console.Error(msgMissingFile)
		}

		answer, err := r.askFile(ctx)
		if err != nil {
			return "", err
		}
		path = strings.TrimSpace(answer)
		prompted = true
	}
	return path, nil
}

func (r *Resolver) resolveURL(ctx context.Context, raw string) (*url.URL, error) {
	if raw != "" {
		u, err := ParseWebhookURL(raw)
		if err == nil {
			return u, nil
		}
		r.Console.Error(msgBadURLFlag)
	}

	for {
		answer, err := r.ask(ctx, askWebhook, "webhook url")
		if err != nil {
			return nil, err
		}

		u, err := ParseWebhookURL(answer)
		if err == nil {
			return u, nil
		}
		r.Console.Error(msgBadURL)
	}
}

func (r *Resolver) resolvePause(ctx context.Context, raw string) (time.Duration, error) {
	if d, ok := ParsePause(raw); ok {
		return d, nil
	}

	answer, err := r.Prompter.Prompt(ctx, askPause)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, err
	}

	d, ok := ParsePause(answer)
	if !ok {
		return 0, nil
	}
	return d, nil
}

func (r *Resolver) askFile(ctx context.Context) (string, error) {
	if fp, ok := r.Prompter.(FilePrompter); ok {
		answer, err := fp.PromptFile(ctx, askFile)
		if err != nil {
			return "", inputError(err, "file name")
		}
		return answer, nil
	}
	return r.ask(ctx, askFile, "file name")
}

func (r *Resolver) ask(ctx context.Context, question, what string) (string, error) {
	answer, err := r.Prompter.Prompt(ctx, question)
	if err != nil {
		return "", inputError(err, what)
	}
	return answer, nil
}

// inputError reports an exhausted input as ErrInputClosed and passes any
// other error, including a cancelled context, through unchanged.
func inputError(err error, what string) error {
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s", ErrInputClosed, what)
	}
	return err
}

func (r *Resolver) fileExists(path string) bool {
	if path == "" {
		return false
	}

	stat := r.Stat
	if stat == nil {
		stat = os.Stat
	}

	info, err := stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ParseWebhookURL accepts absolute http and https URLs with a host.
func ParseWebhookURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not an absolute url", ErrInvalidURL, raw)
	}

	switch u.Scheme {
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}

	return u, nil
}

// ParsePause reads a non-negative number of seconds. A positive value below
// one nanosecond rounds up to a nanosecond so it still means a pause.
func ParsePause(raw string) (time.Duration, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	secs, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(secs) || secs < 0 {
		return 0, false
	}

	nanos := secs * float64(time.Second)
	if nanos >= math.MaxInt64 {
		return 0, false
	}
	d := time.Duration(nanos)
	if d == 0 && secs > 0 {
		d = time.Nanosecond
	}
	return d, true
}
