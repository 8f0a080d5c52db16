package outcome

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
)

// Cause categorizes a failure for callers that branch on failure class
// (show a retry button, fall back to cache, surface a bug).
type Cause string

const (
	// CauseNetwork covers transport and HTTP-level failures.
	CauseNetwork Cause = "network"
	// CauseParse covers payload deserialization failures.
	CauseParse Cause = "parse"
	// CauseCache covers faults in the cache storage engine.
	CauseCache Cause = "cache"
	// CauseUnknown covers everything uncategorized.
	CauseUnknown Cause = "unknown"
)

// Error is an error carrying a Cause. It wraps the underlying error for
// errors.Is / errors.As compatibility.
type Error struct {
	cause Cause
	msg   string
	err   error
}

// Wrap returns an *Error with the given cause and message wrapping err.
// err may be nil when the failure has no underlying error.
func Wrap(cause Cause, msg string, err error) *Error {
	return &Error{cause: cause, msg: msg, err: err}
}

// Errorf returns an *Error with the given cause and a formatted message and
// no underlying error.
func Errorf(cause Cause, format string, args ...any) *Error {
	return &Error{cause: cause, msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *Error) Unwrap() error {
	return e.err
}

// Cause returns the failure category.
func (e *Error) Cause() Cause {
	return e.cause
}

// Classify maps an error to its Cause by type inspection. Errors already
// carrying a Cause keep it; transport-shaped errors are network, decode
// errors are parse, everything else is unknown.
func Classify(err error) Cause {
	if err == nil {
		return CauseUnknown
	}

	var oe *Error
	if errors.As(err, &oe) {
		return oe.cause
	}

	var urlErr *url.Error
	var netErr net.Error
	switch {
	case errors.As(err, &urlErr),
		errors.As(err, &netErr),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, context.DeadlineExceeded):
		return CauseNetwork
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return CauseParse
	}

	return CauseUnknown
}
