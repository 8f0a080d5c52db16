package download

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var all []Event
	for ev := range events {
		all = append(all, ev)
	}
	return all
}

func TestDownloadKnownLength(t *testing.T) {
	payload := bytes.Repeat([]byte("abcdefgh"), 4096) // 32 KiB, four chunks
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.Write(payload)
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)

	dir := t.TempDir()
	c := New(dir)
	events := collect(t, c.Download(context.Background(), resp, "archive.zip"))
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	require.Equal(t, EventComplete, last.Kind)
	assert.Equal(t, filepath.Join(dir, "archive.zip"), last.File.Path)
	assert.Equal(t, int64(len(payload)), last.File.Size)

	// Progress is monotonically increasing and ends at 100.
	var progress []int
	for _, ev := range events[:len(events)-1] {
		require.Equal(t, EventProgress, ev.Kind)
		progress = append(progress, ev.Progress)
	}
	require.NotEmpty(t, progress)
	for i := 1; i < len(progress); i++ {
		assert.Greater(t, progress[i], progress[i-1])
	}
	assert.Equal(t, 100, progress[len(progress)-1])

	written, err := os.ReadFile(last.File.Path)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, written), "downloaded file must be byte-identical to the source")
}

func TestDownloadUnknownLength(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 20000)
	resp := &http.Response{
		StatusCode:    http.StatusOK,
		Status:        "200 OK",
		Body:          io.NopCloser(bytes.NewReader(payload)),
		ContentLength: -1,
		Header:        http.Header{},
	}

	c := New(t.TempDir())
	events := collect(t, c.Download(context.Background(), resp, "blob"))
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	require.Equal(t, EventComplete, last.Kind)
	assert.Equal(t, int64(len(payload)), last.File.Size)

	for _, ev := range events[:len(events)-1] {
		assert.Equal(t, ProgressUnknown, ev.Progress)
	}
}

func TestDownloadNon2xxFailsWithoutWriting(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusNotFound,
		Status:     "404 Not Found",
		Body:       io.NopCloser(bytes.NewReader([]byte("missing"))),
		Header:     http.Header{},
	}

	dir := t.TempDir()
	c := New(dir)
	events := collect(t, c.Download(context.Background(), resp, "missing.zip"))

	require.Len(t, events, 1)
	assert.Equal(t, EventFailed, events[0].Kind)
	assert.Contains(t, events[0].Err.Error(), "404")

	_, err := os.Stat(filepath.Join(dir, "missing.zip"))
	assert.True(t, os.IsNotExist(err), "no bytes may be written on a refused download")
}

// brokenReader fails after yielding some bytes, like a dropped connection.
type brokenReader struct {
	data []byte
	read bool
}

func (b *brokenReader) Read(p []byte) (int, error) {
	if !b.read {
		b.read = true
		return copy(p, b.data), nil
	}
	return 0, errors.New("connection reset")
}

func TestDownloadFailureKeepsPartialByDefault(t *testing.T) {
	resp := &http.Response{
		StatusCode:    http.StatusOK,
		Status:        "200 OK",
		Body:          io.NopCloser(&brokenReader{data: []byte("partial")}),
		ContentLength: 100,
		Header:        http.Header{},
	}

	dir := t.TempDir()
	c := New(dir)
	events := collect(t, c.Download(context.Background(), resp, "broken.bin"))

	last := events[len(events)-1]
	require.Equal(t, EventFailed, last.Kind)

	// The partial artifact is left in place (documented degraded state).
	written, err := os.ReadFile(filepath.Join(dir, "broken.bin"))
	require.NoError(t, err)
	assert.Equal(t, []byte("partial"), written)
}

func TestDownloadFailureRemovesPartialWhenConfigured(t *testing.T) {
	resp := &http.Response{
		StatusCode:    http.StatusOK,
		Status:        "200 OK",
		Body:          io.NopCloser(&brokenReader{data: []byte("partial")}),
		ContentLength: 100,
		Header:        http.Header{},
	}

	dir := t.TempDir()
	c := New(dir, WithRemovePartial(true))
	events := collect(t, c.Download(context.Background(), resp, "broken.bin"))

	last := events[len(events)-1]
	require.Equal(t, EventFailed, last.Kind)

	_, err := os.Stat(filepath.Join(dir, "broken.bin"))
	assert.True(t, os.IsNotExist(err))
}

func TestDownloadOverwritesExistingFile(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "data.bin")
	require.NoError(t, os.WriteFile(dest, []byte("stale contents that are longer"), 0o644))

	payload := []byte("fresh")
	resp := &http.Response{
		StatusCode:    http.StatusOK,
		Status:        "200 OK",
		Body:          io.NopCloser(bytes.NewReader(payload)),
		ContentLength: int64(len(payload)),
		Header:        http.Header{},
	}

	c := New(dir)
	events := collect(t, c.Download(context.Background(), resp, "data.bin"))
	require.Equal(t, EventComplete, events[len(events)-1].Kind)

	written, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, written)
}

func TestDownloadCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := &http.Response{
		StatusCode:    http.StatusOK,
		Status:        "200 OK",
		Body:          io.NopCloser(bytes.NewReader([]byte("data"))),
		ContentLength: 4,
		Header:        http.Header{},
	}

	c := New(t.TempDir())
	events := collect(t, c.Download(ctx, resp, "canceled.bin"))

	last := events[len(events)-1]
	require.Equal(t, EventFailed, last.Kind)
	assert.ErrorIs(t, last.Err, context.Canceled)
}
