package downloader

// EventKind is the kind of a download progress event
type EventKind int

const (
	// EventStarted is emitted at most once, when the response headers arrived
	EventStarted EventKind = iota
	// EventProgress is emitted for every chunk written to the destination
	EventProgress
	// EventFinished is emitted exactly once after a successful transfer
	EventFinished
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "Started"
	case EventProgress:
		return "Progress"
	case EventFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// Event is one step of a download. ContentLength is only set on Started and is
// 0 when the server did not announce a length; ChunkLength only on Progress.
type Event struct {
	Kind          EventKind
	ContentLength int64
	ChunkLength   int64
}

// ProgressFunc receives the events of a single download in order
type ProgressFunc func(Event)

// progressWriter reports written bytes. Bytes already reported by a previous
// attempt are not reported twice, so the sum of chunks never goes backwards.
type progressWriter struct {
	onEvent  ProgressFunc
	started  bool
	written  int64
	reported int64
}

func (w *progressWriter) start(contentLength int64) {
	if w.onEvent == nil || w.started {
		return
	}
	w.started = true
	if contentLength < 0 {
		contentLength = 0
	}
	w.onEvent(Event{Kind: EventStarted, ContentLength: contentLength})
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	if w.onEvent != nil && w.written > w.reported {
		chunk := w.written - w.reported
		w.reported = w.written
		w.onEvent(Event{Kind: EventProgress, ChunkLength: chunk})
	}
	return len(p), nil
}

func (w *progressWriter) rewind() {
	w.written = 0
}

func (w *progressWriter) finish() {
	if w.onEvent == nil {
		return
	}
	w.onEvent(Event{Kind: EventFinished})
}
