package netstash

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Call performs one network round-trip and returns the raw response. The
// transport behind it is opaque to the orchestrator; any error is classified
// into the failure taxonomy at the Fetch boundary. A Call is attempted at
// most once per Fetch — there is no retry policy.
type Call func(ctx context.Context) (*http.Response, error)

// NewCall returns a Call for method against the session's base URL joined
// with path. Absolute URLs are used as-is. Callers needing headers, bodies,
// or a different transport can supply their own Call instead.
func (s *Session) NewCall(method, path string) Call {
	return func(ctx context.Context) (*http.Response, error) {
		target, err := s.resolve(path)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, method, target, nil)
		if err != nil {
			return nil, err
		}
		return s.http.Do(req)
	}
}

// Get returns a GET Call for path; see NewCall.
func (s *Session) Get(path string) Call {
	return s.NewCall(http.MethodGet, path)
}

func (s *Session) resolve(path string) (string, error) {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path, nil
	}
	if s.cfg.BaseURL == "" {
		return path, nil
	}
	return strings.TrimSuffix(s.cfg.BaseURL, "/") + "/" + strings.TrimPrefix(path, "/"), nil
}
