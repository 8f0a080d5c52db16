// Package netstash is a client-side request/response caching layer. It wraps
// caller-supplied network calls, serves previously-seen responses while they
// are still fresh, persists new responses in a TTL cache store, and routes
// responses whose content type indicates a downloadable file to a streaming
// download path.
//
// All state lives in an explicit Session handle constructed by New; there is
// no package-level configuration.
package netstash

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/netstash/netstash/download"
	"github.com/netstash/netstash/outcome"
	"github.com/netstash/netstash/store"
)

// eventBuffer sizes the per-request outcome channel. Large enough that a
// request never blocks on a consumer that drains the channel afterwards.
const eventBuffer = 16

// Session is the handle through which all requests flow. One session holds
// one active configuration; construct a new session to reconfigure.
type Session struct {
	cfg           Config
	kv            store.KV
	store         *store.Store
	downloads     *download.Coordinator
	downloadDir   string
	removePartial bool
	http          *http.Client
	log           zerolog.Logger
	clock         func() time.Time
}

// New returns a Session with the given options applied. Defaults: 1 hour
// TTL, offline mode enabled, always-refresh policy, in-memory cache engine,
// http.DefaultClient transport, downloads under the user cache directory.
func New(opts ...Option) (*Session, error) {
	s := &Session{
		cfg:   defaultConfig(),
		http:  http.DefaultClient,
		log:   zerolog.Nop(),
		clock: time.Now,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.kv == nil {
		s.kv = store.NewMemory()
	}
	if s.downloadDir == "" {
		s.downloadDir = defaultDownloadDir()
	}
	s.store = store.New(s.kv, store.WithLogger(s.log))
	s.downloads = download.New(s.downloadDir,
		download.WithLogger(s.log),
		download.WithRemovePartial(s.removePartial))
	return s, nil
}

// Config returns the session's active configuration.
func (s *Session) Config() Config {
	return s.cfg
}

// Store exposes the session's cache store.
func (s *Session) Store() *store.Store {
	return s.store
}

// Downloads exposes the session's download coordinator.
func (s *Session) Downloads() *download.Coordinator {
	return s.downloads
}

// Close releases the cache storage engine.
func (s *Session) Close() error {
	return s.store.Close()
}

// ClearCache removes the entry for key, or every entry when key is empty.
// The returned sequence emits Loading followed by one terminal event; a
// storage fault surfaces as a Failure with CauseCache.
func (s *Session) ClearCache(ctx context.Context, key string) <-chan outcome.Outcome[struct{}] {
	em := outcome.NewEmitter[struct{}](4, nil)
	go func() {
		defer em.Close()
		em.Emit(outcome.Loading[struct{}]())
		var err error
		if key == "" {
			err = s.store.DeleteAll(ctx)
		} else {
			err = s.store.Delete(ctx, key)
		}
		if err != nil {
			s.reportFailure(err.Error(), outcome.CauseCache)
			em.Emit(outcome.Failure[struct{}](err))
			return
		}
		em.Emit(outcome.Success(struct{}{}))
	}()
	return em.Channel()
}

// reportFailure notifies the session-wide error listener, when configured.
func (s *Session) reportFailure(message string, cause outcome.Cause) {
	if s.cfg.ErrorListener != nil {
		s.cfg.ErrorListener(message, cause)
	}
}

// defaultDownloadDir is the conventional per-app downloads directory: the
// user cache dir when available, the system temp dir otherwise.
func defaultDownloadDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "netstash", "downloads")
	}
	return filepath.Join(os.TempDir(), "netstash-downloads")
}
