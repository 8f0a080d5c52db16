package outcome

// Listener receives discrete callback notifications for each event of a
// request attempt. It is the callback-shaped twin of the Outcome channel;
// both are fed from the same emission point and observe identical order.
type Listener[T any] interface {
	OnLoading()
	OnSuccess(data T)
	OnFailure(message string, cause Cause)
}

// DownloadListener is an optional extension of Listener for callers that
// want file download notifications instead of raw Loading events.
type DownloadListener interface {
	OnDownloadProgress(pct int)
	OnDownloadComplete(path string)
}

// Emitter is the single emission point for a request attempt. Every event is
// pushed to the channel and mirrored to the optional listener, in that order,
// so both consumers observe the same sequence.
type Emitter[T any] struct {
	ch       chan Outcome[T]
	listener Listener[T]
}

// NewEmitter returns an Emitter with a channel buffer of the given size.
// listener may be nil.
func NewEmitter[T any](buffer int, listener Listener[T]) *Emitter[T] {
	return &Emitter[T]{
		ch:       make(chan Outcome[T], buffer),
		listener: listener,
	}
}

// Channel returns the outcome sequence. It is closed after the terminal
// event has been emitted.
func (e *Emitter[T]) Channel() <-chan Outcome[T] {
	return e.ch
}

// Emit delivers o to the channel and mirrors it to the listener. A Loading
// event carrying progress is routed to OnDownloadProgress when the listener
// implements DownloadListener, and to OnLoading otherwise.
func (e *Emitter[T]) Emit(o Outcome[T]) {
	e.ch <- o
	if e.listener == nil {
		return
	}
	switch o.Kind {
	case KindLoading:
		if o.Progress != ProgressUnknown {
			if dl, ok := e.listener.(DownloadListener); ok {
				dl.OnDownloadProgress(o.Progress)
				return
			}
		}
		e.listener.OnLoading()
	case KindSuccess:
		e.listener.OnSuccess(o.Data)
	case KindFailure:
		e.listener.OnFailure(o.Message, o.Cause)
	}
}

// NotifyDownloadComplete tells a DownloadListener where the downloaded file
// landed. No-op for other listeners; the Success event already carried the
// file through the regular path.
func (e *Emitter[T]) NotifyDownloadComplete(path string) {
	if dl, ok := e.listener.(DownloadListener); ok {
		dl.OnDownloadComplete(path)
	}
}

// Close closes the outcome channel. Emit must not be called afterwards.
func (e *Emitter[T]) Close() {
	close(e.ch)
}
