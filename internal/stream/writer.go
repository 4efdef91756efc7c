// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Writer frames Records as newline-delimited JSON: one JSON object plus
// one '\n' terminator per record, emitted in a single Write call so the
// consumer never observes a torn record from this side. There is no
// end-of-stream sentinel; closing the underlying transport is the
// terminator.
type Writer struct {
	w       io.Writer
	flusher http.Flusher
	written int
}

// NewWriter wraps w. If w also implements http.Flusher each record is
// flushed immediately after it is written, which is what keeps the HTTP
// response unbuffered.
func NewWriter(w io.Writer) *Writer {
	f, _ := w.(http.Flusher)
	return &Writer{w: w, flusher: f}
}

// Write serializes rec as one line and pushes it downstream.
func (w *Writer) Write(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	if _, err := w.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	if w.flusher != nil {
		w.flusher.Flush()
	}
	w.written++
	return nil
}

// Written returns the number of records written so far. The answer
// proxy uses it to tell a pre-stream failure from a mid-stream one.
func (w *Writer) Written() int {
	return w.written
}
