package netstash

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	str2duration "github.com/xhit/go-str2duration/v2"

	"github.com/netstash/netstash/outcome"
	"github.com/netstash/netstash/store"
)

// DefaultTTL is the freshness window for cached entries when none is
// configured.
const DefaultTTL = time.Hour

// ErrorListener is notified of every Failure a session emits, in addition to
// the per-request delivery through the outcome channel and listener.
type ErrorListener func(message string, cause outcome.Cause)

// ErrorDecoder extracts a human-readable message from a non-2xx response
// body. When it returns an empty string the HTTP status line is used.
type ErrorDecoder func(body []byte) string

// Config is a session's immutable configuration. Built once by New; there is
// no partial reconfiguration.
type Config struct {
	// TTL is the freshness window for cached entries.
	TTL time.Duration

	// OfflineEnabled controls whether a valid cached value may be returned
	// to the caller in preference to a freshly fetched one.
	OfflineEnabled bool

	// AlwaysRefresh keeps the network call on every request even when a
	// valid cache entry exists, so the cache is refreshed as a side effect
	// of traffic. When false, a valid entry short-circuits before the call.
	AlwaysRefresh bool

	// BaseURL prefixes paths given to Session.NewCall.
	BaseURL string

	ErrorListener ErrorListener
	ErrorDecoder  ErrorDecoder
}

func defaultConfig() Config {
	return Config{
		TTL:            DefaultTTL,
		OfflineEnabled: true,
		AlwaysRefresh:  true,
	}
}

// Option configures a Session.
type Option func(*Session) error

// WithTTL sets the cache freshness window. Defaults to DefaultTTL (1 hour).
func WithTTL(d time.Duration) Option {
	return func(s *Session) error {
		s.cfg.TTL = d
		return nil
	}
}

// WithTTLString sets the cache freshness window from a duration string such
// as "90m" or "1d12h".
func WithTTLString(v string) Option {
	return func(s *Session) error {
		d, err := str2duration.ParseDuration(v)
		if err != nil {
			return err
		}
		s.cfg.TTL = d
		return nil
	}
}

// WithOfflineMode enables or disables serving valid cached values. Defaults
// to enabled.
func WithOfflineMode(enabled bool) Option {
	return func(s *Session) error {
		s.cfg.OfflineEnabled = enabled
		return nil
	}
}

// WithAlwaysRefresh controls the refresh policy; see Config.AlwaysRefresh.
// Defaults to true.
func WithAlwaysRefresh(enabled bool) Option {
	return func(s *Session) error {
		s.cfg.AlwaysRefresh = enabled
		return nil
	}
}

// WithBaseURL sets the base URL for Session.NewCall.
func WithBaseURL(u string) Option {
	return func(s *Session) error {
		s.cfg.BaseURL = u
		return nil
	}
}

// WithHTTPClient overrides the transport used by Session.NewCall.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) error {
		s.http = c
		return nil
	}
}

// WithKV sets the cache storage engine. Defaults to store.NewMemory. The
// session takes ownership and closes it on Close.
func WithKV(kv store.KV) Option {
	return func(s *Session) error {
		s.kv = kv
		return nil
	}
}

// WithDownloadDir sets the destination directory for downloaded files.
func WithDownloadDir(dir string) Option {
	return func(s *Session) error {
		s.downloadDir = dir
		return nil
	}
}

// WithRemovePartialDownloads makes failed downloads delete their partial
// destination file. By default the partial artifact is kept.
func WithRemovePartialDownloads(remove bool) Option {
	return func(s *Session) error {
		s.removePartial = remove
		return nil
	}
}

// WithLogger sets the session logger. Defaults to a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Session) error {
		s.log = log
		return nil
	}
}

// WithErrorListener registers a session-wide failure callback.
func WithErrorListener(l ErrorListener) Option {
	return func(s *Session) error {
		s.cfg.ErrorListener = l
		return nil
	}
}

// WithErrorDecoder registers a decoder for non-2xx response bodies.
func WithErrorDecoder(d ErrorDecoder) Option {
	return func(s *Session) error {
		s.cfg.ErrorDecoder = d
		return nil
	}
}

// withClock overrides the session's time source in tests.
func withClock(clock func() time.Time) Option {
	return func(s *Session) error {
		s.clock = clock
		return nil
	}
}
