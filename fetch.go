package netstash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/netstash/netstash/download"
	"github.com/netstash/netstash/outcome"
	"github.com/netstash/netstash/store"
)

// Fetch performs one request attempt for key using the caller-supplied call
// and returns the outcome sequence: Loading, then exactly one terminal
// Success or Failure. Download sub-flows interleave further Loading events
// carrying progress. Every emission is mirrored to listener when non-nil.
//
// Ordinary payloads are JSON-decoded into T and written to the cache store;
// when a valid cache entry existed and offline mode is enabled, the cached
// value is returned instead of the live one (the live result still refreshes
// the cache). Responses with a downloadable content type require T to be
// download.File and are streamed to disk instead of cached.
//
// Nothing escapes the attempt as an error or panic; every fault is
// classified and emitted as a terminal Failure. There is no mid-flight
// cancellation beyond ctx being observed at I/O boundaries.
func Fetch[T any](ctx context.Context, s *Session, key string, call Call, listener outcome.Listener[T]) <-chan outcome.Outcome[T] {
	em := outcome.NewEmitter[T](eventBuffer, listener)
	go func() {
		defer em.Close()
		run(ctx, s, key, call, em)
	}()
	return em.Channel()
}

func run[T any](ctx context.Context, s *Session, key string, call Call, em *outcome.Emitter[T]) {
	log := s.log.With().
		Str("request_id", uuid.NewString()).
		Str("key", key).
		Logger()

	em.Emit(outcome.Loading[T]())

	wantsFile := isFileType[T]()

	if !s.cfg.AlwaysRefresh && !wantsFile && s.cfg.OfflineEnabled {
		if entry, found, err := s.store.Get(ctx, key); err == nil && found && store.Valid(entry, s.cfg.TTL, s.clock()) {
			log.Debug().Msg("serving fresh cache entry without network call")
			emitDecoded(s, em, entry.Payload)
			return
		}
	}

	resp, err := call(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("call failed")
		emitFailure(s, em, fmt.Errorf("request failed: %w", err))
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if Downloadable(contentType) {
		if !wantsFile {
			resp.Body.Close()
			var zero T
			emitFailure(s, em, outcome.Errorf(outcome.CauseUnknown,
				"content type %q requires a download.File result, got %T", contentType, zero))
			return
		}
		runDownload(ctx, s, key, resp, em, log)
		return
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		emitFailure(s, em, outcome.Wrap(outcome.CauseNetwork, "read response body", err))
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		emitFailure(s, em, outcome.Errorf(outcome.CauseNetwork, "%s", s.errorMessage(resp, body)))
		return
	}

	// The store is refreshed on every successful round-trip; whether the
	// caller sees the cached or the live value is decided afterwards.
	entry, found, cacheErr := s.store.Get(ctx, key)
	if cacheErr != nil {
		// Degrade to a miss.
		s.reportFailure(cacheErr.Error(), outcome.CauseCache)
		found = false
	}
	now := s.clock()
	if putErr := s.store.Put(ctx, key, body, now); putErr != nil {
		// Non-fatal: the live response was already produced.
		s.reportFailure(putErr.Error(), outcome.CauseCache)
	}

	if found && s.cfg.OfflineEnabled && store.Valid(entry, s.cfg.TTL, now) {
		log.Debug().Time("stored_at", entry.StoredAt).Msg("serving cached value")
		emitDecoded(s, em, entry.Payload)
		return
	}

	emitDecoded(s, em, body)
}

func runDownload[T any](ctx context.Context, s *Session, key string, resp *http.Response, em *outcome.Emitter[T], log zerolog.Logger) {
	name := FileName(key)
	log.Debug().Str("file", name).Msg("dispatching download")
	for ev := range s.downloads.Download(ctx, resp, name) {
		switch ev.Kind {
		case download.EventProgress:
			em.Emit(outcome.Progress[T](ev.Progress))
		case download.EventComplete:
			data, ok := any(ev.File).(T)
			if !ok {
				// Unreachable after the isFileType gate; kept as a guard
				// against silent casts.
				emitFailure(s, em, outcome.Errorf(outcome.CauseUnknown,
					"downloaded file does not match result type"))
				return
			}
			em.Emit(outcome.Success(data))
			em.NotifyDownloadComplete(ev.File.Path)
		case download.EventFailed:
			emitFailure(s, em, ev.Err)
		}
	}
}

// errorMessage builds the failure message for a non-2xx response, preferring
// the configured ErrorDecoder.
func (s *Session) errorMessage(resp *http.Response, body []byte) string {
	if s.cfg.ErrorDecoder != nil {
		if msg := s.cfg.ErrorDecoder(body); msg != "" {
			return msg
		}
	}
	return "request failed with status " + resp.Status
}

// emitDecoded decodes payload into T and emits the terminal event. An empty
// payload is a Success with the zero value.
func emitDecoded[T any](s *Session, em *outcome.Emitter[T], payload []byte) {
	var v T
	if len(bytes.TrimSpace(payload)) == 0 {
		em.Emit(outcome.Success(v))
		return
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		emitFailure(s, em, outcome.Wrap(outcome.CauseParse, "decode payload", err))
		return
	}
	em.Emit(outcome.Success(v))
}

func emitFailure[T any](s *Session, em *outcome.Emitter[T], err error) {
	o := outcome.Failure[T](err)
	s.reportFailure(o.Message, o.Cause)
	em.Emit(o)
}

// isFileType reports whether T is the download result type. This is the
// capability check behind content-type routing: a downloadable response is
// only dispatched when the caller's expected type admits a file.
func isFileType[T any]() bool {
	var zero T
	_, ok := any(zero).(download.File)
	return ok
}
