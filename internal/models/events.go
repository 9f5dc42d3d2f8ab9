package models

import "time"

// ProgressEvent is one update on a run's event stream. Per-branch events
// arrive in completion order; the stream is terminated by exactly one
// run-level completed or error event.
type ProgressEvent struct {
	Agent     string    `json:"agent"`
	Status    string    `json:"status"` // consts.State*
	Message   string    `json:"message,omitempty"`
	Progress  int       `json:"progress_percent"`
	Timestamp time.Time `json:"timestamp"`
	Terminal  bool      `json:"terminal,omitempty"` // run-level terminal event
}

// EventSink receives progress events. Implementations must be safe for
// concurrent use; branches emit from their own goroutines.
type EventSink interface {
	Emit(ProgressEvent)
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) Emit(ProgressEvent) {}
