// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stream

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
)

// readChunk is the per-read buffer size. Small enough that tests with
// torn records stay realistic, large enough not to matter in practice.
const readChunk = 4096

// Scanner extracts Records from a newline-delimited JSON byte stream.
// Reads may split a record anywhere; the scanner holds back the
// incomplete trailing fragment until more bytes arrive instead of
// assuming one read yields whole lines. A complete line that fails to
// parse as JSON is dropped (counted, logged at debug) and scanning
// continues: a torn record never poisons the ones after it.
type Scanner struct {
	r       io.Reader
	buf     []byte
	partial strings.Builder
	lines   []string
	skipped int
	err     error
}

// NewScanner wraps r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: r, buf: make([]byte, readChunk)}
}

// Next returns the next valid record. It returns io.EOF when the
// stream ends cleanly and the underlying read error when it does not.
// Records are returned strictly in arrival order.
func (s *Scanner) Next() (Record, error) {
	for {
		// Drain queued complete lines first.
		for len(s.lines) > 0 {
			line := s.lines[0]
			s.lines = s.lines[1:]
			rec, ok := s.parse(line)
			if ok {
				return rec, nil
			}
		}

		if s.err != nil {
			return Record{}, s.err
		}

		n, err := s.r.Read(s.buf)
		if n > 0 {
			s.split(string(s.buf[:n]))
		}
		if err != nil {
			// Flush whatever is held back: the proxy writes whole
			// records per line, so a trailing fragment without a
			// newline is either a complete final record or junk the
			// parse step will drop.
			if tail := s.partial.String(); strings.TrimSpace(tail) != "" {
				s.lines = append(s.lines, tail)
			}
			s.partial.Reset()
			s.err = err
		}
	}
}

// Skipped returns the number of malformed lines dropped so far.
func (s *Scanner) Skipped() int {
	return s.skipped
}

// split appends chunk to the held-back fragment and queues every
// complete line. The text after the last newline stays held back.
func (s *Scanner) split(chunk string) {
	s.partial.WriteString(chunk)
	text := s.partial.String()

	last := strings.LastIndexByte(text, '\n')
	if last < 0 {
		return
	}

	s.partial.Reset()
	s.partial.WriteString(text[last+1:])

	for _, line := range strings.Split(text[:last], "\n") {
		if strings.TrimSpace(line) != "" {
			s.lines = append(s.lines, line)
		}
	}
}

// parse decodes one line. Malformed lines are skipped, not surfaced:
// per-record damage is recovered locally.
func (s *Scanner) parse(line string) (Record, bool) {
	var rec Record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		s.skipped++
		log.Debug().Err(err).Int("skipped", s.skipped).Msg("dropping malformed stream record")
		return Record{}, false
	}
	return rec, true
}
