// Package download streams HTTP response bodies to local files, reporting
// progress, completion, or failure through an event channel.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/netstash/netstash/outcome"
)

// chunkSize is the copy buffer size for the streaming loop.
const chunkSize = 8 * 1024

// ProgressUnknown is reported when the response carries no usable
// Content-Length.
const ProgressUnknown = -1

// File describes a completed download.
type File struct {
	Path string
	Size int64
}

// EventKind discriminates the Event union.
type EventKind int

const (
	// EventProgress carries a completion percentage.
	EventProgress EventKind = iota
	// EventComplete carries the downloaded File. The file is fully flushed
	// and closed before this event is emitted.
	EventComplete
	// EventFailed carries the error that stopped the download.
	EventFailed
)

// Event is one notification from a download: zero or more EventProgress,
// then exactly one EventComplete or EventFailed.
type Event struct {
	Kind     EventKind
	Progress int
	File     File
	Err      error
}

// Coordinator streams response bodies into a destination directory. The copy
// loop runs on its own goroutine; events arrive through a buffered channel in
// emission order.
type Coordinator struct {
	dir           string
	removePartial bool
	log           zerolog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Coordinator) { c.log = log }
}

// WithRemovePartial makes the coordinator delete a partially written
// destination file when a download fails. By default the partial artifact is
// left in place.
func WithRemovePartial(remove bool) Option {
	return func(c *Coordinator) { c.removePartial = remove }
}

// New returns a Coordinator writing into dir.
func New(dir string, opts ...Option) *Coordinator {
	c := &Coordinator{dir: dir, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dir returns the destination directory.
func (c *Coordinator) Dir() string {
	return c.dir
}

// Download streams resp's body to <dir>/<name> and returns the event channel.
// An existing file under the same name is overwritten. The response body is
// closed when the download finishes. A failure mid-copy may leave a partial
// destination file behind unless WithRemovePartial was set.
func (c *Coordinator) Download(ctx context.Context, resp *http.Response, name string) <-chan Event {
	events := make(chan Event, 16)
	go c.run(ctx, resp, name, events)
	return events
}

func (c *Coordinator) run(ctx context.Context, resp *http.Response, name string, events chan<- Event) {
	defer close(events)
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		events <- Event{Kind: EventFailed, Err: outcome.Errorf(outcome.CauseNetwork,
			"download refused: unexpected status %s", resp.Status)}
		return
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		events <- Event{Kind: EventFailed, Err: fmt.Errorf("create download dir: %w", err)}
		return
	}

	dest := filepath.Join(c.dir, name)
	f, err := os.Create(dest)
	if err != nil {
		events <- Event{Kind: EventFailed, Err: fmt.Errorf("create %s: %w", dest, err)}
		return
	}

	total := resp.ContentLength
	c.log.Debug().Str("dest", dest).Int64("total", total).Msg("download started")

	written, err := c.copy(ctx, f, resp.Body, total, events)
	if err != nil {
		f.Close()
		if c.removePartial {
			if rmErr := os.Remove(dest); rmErr != nil {
				c.log.Warn().Err(rmErr).Str("dest", dest).Msg("failed to remove partial download")
			}
		} else {
			c.log.Warn().Str("dest", dest).Int64("written", written).Msg("partial download left in place")
		}
		events <- Event{Kind: EventFailed, Err: err}
		return
	}

	// Flush and close before reporting completion so consumers can open the
	// file immediately.
	if err := f.Sync(); err != nil {
		f.Close()
		events <- Event{Kind: EventFailed, Err: fmt.Errorf("flush %s: %w", dest, err)}
		return
	}
	if err := f.Close(); err != nil {
		events <- Event{Kind: EventFailed, Err: fmt.Errorf("close %s: %w", dest, err)}
		return
	}

	c.log.Debug().Str("dest", dest).Int64("size", written).Msg("download complete")
	events <- Event{Kind: EventComplete, File: File{Path: dest, Size: written}}
}

func (c *Coordinator) copy(ctx context.Context, dst io.Writer, src io.Reader, total int64, events chan<- Event) (int64, error) {
	buf := make([]byte, chunkSize)
	var written int64
	lastPct := -2 // sentinel distinct from ProgressUnknown

	for {
		if err := ctx.Err(); err != nil {
			return written, fmt.Errorf("download canceled: %w", err)
		}
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return written, fmt.Errorf("write chunk: %w", werr)
			}
			written += int64(n)
			pct := ProgressUnknown
			if total > 0 {
				pct = int(written * 100 / total)
			}
			if pct != lastPct {
				events <- Event{Kind: EventProgress, Progress: pct}
				lastPct = pct
			}
		}
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, fmt.Errorf("read chunk: %w", err)
		}
	}
}
