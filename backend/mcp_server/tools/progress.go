package tools

import (
	"context"
	"sync"
)

// ProgressTotal is the total every conventional progress sequence reports against.
const ProgressTotal = 100

// ProgressEvent is one notification of partial completion.
type ProgressEvent struct {
	Progress float64 `json:"progress"`
	Total    float64 `json:"total"`
	Message  string  `json:"message,omitempty"`
}

// Reporter receives progress events. Report must not block; delivery is
// best effort and never acknowledged.
type Reporter interface {
	Report(ctx context.Context, ev ProgressEvent)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, ev ProgressEvent)

// Report calls f.
func (f ReporterFunc) Report(ctx context.Context, ev ProgressEvent) {
	f(ctx, ev)
}

// Discard drops every event.
var Discard Reporter = ReporterFunc(func(context.Context, ProgressEvent) {})

// Recorder keeps every reported event, for tests and diagnostics.
type Recorder struct {
	lock   sync.Mutex
	events []ProgressEvent
}

// Report appends ev.
func (r *Recorder) Report(_ context.Context, ev ProgressEvent) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the reported events.
func (r *Recorder) Events() []ProgressEvent {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]ProgressEvent(nil), r.events...)
}

// monotonic forwards events to next, dropping any that would move
// progress backwards.
type monotonic struct {
	next Reporter
	last float64
}

func (m *monotonic) report(ctx context.Context, progress float64, message string) {
	if progress < m.last {
		return
	}
	m.last = progress
	m.next.Report(ctx, ProgressEvent{Progress: progress, Total: ProgressTotal, Message: message})
}
