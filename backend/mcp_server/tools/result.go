package tools

import (
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// Result is the outcome of a tool whose upstream answered: either the
// normalized payload, or a failure the upstream reported as data.
// The zero value is not valid; use Ok or Failed.
type Result struct {
	value   any
	failure string
	failed  bool
}

// Ok wraps a normalized payload.
func Ok(v any) Result {
	return Result{value: v}
}

// Failed wraps a logical failure reported by the upstream, such as
// "Movie not found!".
func Failed(message string) Result {
	return Result{failure: message, failed: true}
}

// IsFailed reports whether the upstream reported a failure.
func (r Result) IsFailed() bool {
	return r.failed
}

// Value returns the normalized payload, nil for a failed result.
func (r Result) Value() any {
	return r.value
}

// Failure returns the upstream message of a failed result.
func (r Result) Failure() string {
	return r.failure
}

type failurePayload struct {
	Error string `json:"error"`
}

// Text renders the result as indented JSON. A failed result renders as
// {"error": message}.
func (r Result) Text() (string, error) {
	v := r.value
	if r.failed {
		v = failurePayload{Error: r.failure}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", errors.Wrap(err, "failed to encode result")
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// Content is one item of an Envelope.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Envelope is what an invocation returns to the transport.
type Envelope struct {
	Content []Content `json:"content"`
}

// TextEnvelope wraps text in a single text content item.
func TextEnvelope(text string) *Envelope {
	return &Envelope{Content: []Content{{Type: "text", Text: text}}}
}

// Text returns the text of the first content item.
func (e *Envelope) Text() string {
	if e == nil || len(e.Content) == 0 {
		return ""
	}
	return e.Content[0].Text
}
