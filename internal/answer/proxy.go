// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package answer relays a provider answer stream to a caller as
// newline-delimited JSON, record by record, without materializing the
// full answer.
package answer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/paper-finder/internal/stream"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// ErrEmptyQuery rejects a missing or whitespace-only query before any
// upstream call is made.
var ErrEmptyQuery = errors.New("search query is required")

// UpstreamError reports a provider failure before any record was
// relayed. The handler can still answer with an error status.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("upstream answer call failed: %v", e.Err) }
func (e *UpstreamError) Unwrap() error { return e.Err }

// InterruptError reports a failure after records were already relayed.
// The response status is long gone; the only honest signal left is
// tearing the connection down uncleanly, which the handler does.
type InterruptError struct {
	Written int
	Err     error
}

func (e *InterruptError) Error() string {
	return fmt.Sprintf("answer stream interrupted after %d records: %v", e.Written, e.Err)
}
func (e *InterruptError) Unwrap() error { return e.Err }

// RecordStream is a source of answer records, normally the provider
// client's AnswerStream. Next returns io.EOF on clean end.
type RecordStream interface {
	Next() (stream.Record, error)
	Close() error
}

// Streamer opens an answer stream for a query.
type Streamer interface {
	StreamAnswer(ctx context.Context, query string, cfg types.AnswerConfig) (RecordStream, error)
}

// Proxy validates queries and relays provider records to a sink.
// Stateless; one Proxy serves all requests.
type Proxy struct {
	Streamer Streamer
	Config   types.AnswerConfig
}

// Relay streams the answer for query to w as newline-delimited JSON.
// Each upstream record becomes exactly one line, written and flushed as
// it arrives. The error is nil on clean completion, ErrEmptyQuery or
// *UpstreamError before any output, and *InterruptError once output has
// started.
func (p *Proxy) Relay(ctx context.Context, query string, w io.Writer) error {
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}

	rs, err := p.Streamer.StreamAnswer(ctx, query, p.Config)
	if err != nil {
		return &UpstreamError{Err: err}
	}
	defer rs.Close()

	out := stream.NewWriter(w)
	for {
		rec, err := rs.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if out.Written() == 0 {
				return &UpstreamError{Err: err}
			}
			return &InterruptError{Written: out.Written(), Err: err}
		}
		if err := out.Write(rec); err != nil {
			// The caller went away; nothing left to signal.
			return &InterruptError{Written: out.Written(), Err: err}
		}
	}
}
