// Package outcome defines the event lifecycle of a single request attempt:
// exactly one Loading event, followed by exactly one terminal Success or
// Failure event. Download sub-flows interleave additional Loading events
// carrying progress before their own terminal event.
package outcome

// Kind discriminates the Outcome union.
type Kind int

const (
	KindLoading Kind = iota
	KindSuccess
	KindFailure
)

func (k Kind) String() string {
	switch k {
	case KindLoading:
		return "loading"
	case KindSuccess:
		return "success"
	case KindFailure:
		return "failure"
	}
	return "unknown"
}

// ProgressUnknown marks a Loading event whose completion percentage cannot be
// computed (no progress attached, or the total size is not known).
const ProgressUnknown = -1

// Outcome is one event in the Loading/Success/Failure lifecycle of a request
// attempt. Consumers should switch exhaustively on Kind; only the fields
// belonging to the active kind are meaningful.
type Outcome[T any] struct {
	Kind Kind

	// Data carries the result for KindSuccess. It may be the zero value when
	// the response had no body.
	Data T

	// Progress carries the download completion percentage for KindLoading
	// events emitted by a download sub-flow, or ProgressUnknown.
	Progress int

	// Message and Cause describe a KindFailure event.
	Message string
	Cause   Cause

	// Err is the underlying error for KindFailure, when one exists.
	Err error
}

// Loading returns the entry event of a request attempt.
func Loading[T any]() Outcome[T] {
	return Outcome[T]{Kind: KindLoading, Progress: ProgressUnknown}
}

// Progress returns a Loading event carrying a download completion percentage
// in [0,100], or ProgressUnknown.
func Progress[T any](pct int) Outcome[T] {
	return Outcome[T]{Kind: KindLoading, Progress: pct}
}

// Success returns the terminal success event carrying data.
func Success[T any](data T) Outcome[T] {
	return Outcome[T]{Kind: KindSuccess, Data: data, Progress: ProgressUnknown}
}

// Failure returns the terminal failure event for err, classified into the
// Cause taxonomy.
func Failure[T any](err error) Outcome[T] {
	return Outcome[T]{
		Kind:     KindFailure,
		Progress: ProgressUnknown,
		Message:  err.Error(),
		Cause:    Classify(err),
		Err:      err,
	}
}
