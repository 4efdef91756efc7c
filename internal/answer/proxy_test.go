// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/pdiddy/paper-finder/internal/stream"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// stubStream replays a fixed record sequence, optionally ending with an
// error instead of io.EOF.
type stubStream struct {
	records []stream.Record
	err     error
	closed  bool
}

func (s *stubStream) Next() (stream.Record, error) {
	if len(s.records) == 0 {
		if s.err != nil {
			return stream.Record{}, s.err
		}
		return stream.Record{}, io.EOF
	}
	rec := s.records[0]
	s.records = s.records[1:]
	return rec, nil
}

func (s *stubStream) Close() error {
	s.closed = true
	return nil
}

type stubStreamer struct {
	stream  *stubStream
	openErr error
	queries []string
}

func (s *stubStreamer) StreamAnswer(ctx context.Context, query string, cfg types.AnswerConfig) (RecordStream, error) {
	s.queries = append(s.queries, query)
	if s.openErr != nil {
		return nil, s.openErr
	}
	return s.stream, nil
}

func decodeLines(t *testing.T, data []byte) []stream.Record {
	t.Helper()
	var out []stream.Record
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if line == "" {
			continue
		}
		var rec stream.Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("line %q is not valid JSON: %v", line, err)
		}
		out = append(out, rec)
	}
	return out
}

func TestRelayWritesOneLinePerRecord(t *testing.T) {
	src := &stubStream{records: []stream.Record{
		{Content: "Transformers "},
		{Content: "scale well."},
		{Citations: []types.Citation{{URL: "https://arxiv.org/abs/1706.03762", Title: "Attention Is All You Need"}}},
	}}
	p := &Proxy{Streamer: &stubStreamer{stream: src}}

	var buf bytes.Buffer
	if err := p.Relay(context.Background(), "do transformers scale", &buf); err != nil {
		t.Fatalf("Relay: %v", err)
	}

	recs := decodeLines(t, buf.Bytes())
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if recs[0].Content != "Transformers " || recs[1].Content != "scale well." {
		t.Errorf("content records mismatch: %+v", recs[:2])
	}
	if len(recs[2].Citations) != 1 || recs[2].Citations[0].Title != "Attention Is All You Need" {
		t.Errorf("citation record mismatch: %+v", recs[2])
	}
	if !src.closed {
		t.Error("record stream was not closed")
	}
}

func TestRelayRejectsEmptyQuery(t *testing.T) {
	for _, query := range []string{"", "   ", "\n\t"} {
		streamer := &stubStreamer{stream: &stubStream{}}
		p := &Proxy{Streamer: streamer}

		var buf bytes.Buffer
		err := p.Relay(context.Background(), query, &buf)
		if !errors.Is(err, ErrEmptyQuery) {
			t.Errorf("query %q: got %v, want ErrEmptyQuery", query, err)
		}
		if len(streamer.queries) != 0 {
			t.Errorf("query %q: upstream was called", query)
		}
		if buf.Len() != 0 {
			t.Errorf("query %q: wrote %d bytes before validation", query, buf.Len())
		}
	}
}

func TestRelayUpstreamFailureBeforeOutput(t *testing.T) {
	streamer := &stubStreamer{openErr: errors.New("503 from provider")}
	p := &Proxy{Streamer: streamer}

	var buf bytes.Buffer
	err := p.Relay(context.Background(), "anything", &buf)

	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("got %T, want *UpstreamError", err)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %d bytes despite upstream failure", buf.Len())
	}
}

func TestRelayErrorBeforeFirstRecordIsUpstream(t *testing.T) {
	src := &stubStream{err: errors.New("connection reset")}
	p := &Proxy{Streamer: &stubStreamer{stream: src}}

	var buf bytes.Buffer
	err := p.Relay(context.Background(), "anything", &buf)

	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("got %T, want *UpstreamError", err)
	}
}

func TestRelayInterruptAfterPartialOutput(t *testing.T) {
	src := &stubStream{
		records: []stream.Record{{Content: "partial "}, {Content: "answer"}},
		err:     errors.New("upstream hung up"),
	}
	p := &Proxy{Streamer: &stubStreamer{stream: src}}

	var buf bytes.Buffer
	err := p.Relay(context.Background(), "anything", &buf)

	var ie *InterruptError
	if !errors.As(err, &ie) {
		t.Fatalf("got %T, want *InterruptError", err)
	}
	if ie.Written != 2 {
		t.Errorf("Written = %d, want 2", ie.Written)
	}
	recs := decodeLines(t, buf.Bytes())
	if len(recs) != 2 || recs[0].Content != "partial " {
		t.Errorf("partial output mismatch: %+v", recs)
	}
}

type failAfterWriter struct {
	n       int
	written int
}

func (w *failAfterWriter) Write(p []byte) (int, error) {
	if w.written >= w.n {
		return 0, errors.New("client gone")
	}
	w.written++
	return len(p), nil
}

func TestRelayWriteFailureIsInterrupt(t *testing.T) {
	src := &stubStream{records: []stream.Record{{Content: "a"}, {Content: "b"}}}
	p := &Proxy{Streamer: &stubStreamer{stream: src}}

	err := p.Relay(context.Background(), "anything", &failAfterWriter{n: 1})

	var ie *InterruptError
	if !errors.As(err, &ie) {
		t.Fatalf("got %T, want *InterruptError", err)
	}
}
