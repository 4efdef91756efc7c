// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pdiddy/paper-finder/internal/stream"
	"github.com/pdiddy/paper-finder/pkg/types"
)

// Default answer parameters. The system prompt biases the provider
// toward short, evidence-based, yes/no-first answers.
const (
	defaultAnswerModel  = "exa"
	defaultAnswerPrompt = "Provide a good answer based on research papers and scientific evidence. " +
		"Use simple words and avoid complex sentences. Don't have very long answer. " +
		"Use short sentences. If there is a long sentence, break it into multiple short sentences. " +
		"Say Yes or No at the beginning of your answer."
)

// answerRequest is the provider request body for /answer.
type answerRequest struct {
	Query        string `json:"query"`
	Stream       bool   `json:"stream"`
	Model        string `json:"model,omitempty"`
	SystemPrompt string `json:"systemPrompt,omitempty"`
}

// answerChunk is one upstream unit. Content and citations are
// independent optional fields; the provider does not promise mutual
// exclusivity.
type answerChunk struct {
	Content   string           `json:"content"`
	Citations []answerCitation `json:"citations"`
}

// answerCitation is the provider's citation shape, wider than ours.
type answerCitation struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Text    string `json:"text"`
}

// StreamAnswer opens a streaming answer for query. The returned stream
// must be closed by the caller. A non-OK initial status or transport
// failure is reported here, before any record is produced; failures
// after that surface from AnswerStream.Next.
func (c *Client) StreamAnswer(ctx context.Context, query string, cfg types.AnswerConfig) (*AnswerStream, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query is required")
	}

	body := answerRequest{
		Query:        query,
		Stream:       true,
		Model:        answerModel(cfg),
		SystemPrompt: answerPrompt(cfg),
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBase+"/answer", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req, "")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider answer request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("provider returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	return &AnswerStream{body: resp.Body, br: bufio.NewReader(resp.Body)}, nil
}

// AnswerStream decodes the provider's server-sent-event answer stream
// into Records, one event at a time.
type AnswerStream struct {
	body io.ReadCloser
	br   *bufio.Reader
}

// Next returns the next record. io.EOF means the upstream stream ended
// cleanly (including the provider's terminator event); any other error
// is a mid-stream failure. Events that are not well-formed JSON data
// payloads are skipped.
func (s *AnswerStream) Next() (stream.Record, error) {
	for {
		line, err := s.br.ReadString('\n')
		if err != nil {
			if err == io.EOF && strings.TrimSpace(line) == "" {
				return stream.Record{}, io.EOF
			}
			if err != io.EOF {
				return stream.Record{}, err
			}
			// Final event without trailing newline: fall through and
			// try to decode what we have.
		}

		payload, ok := eventPayload(line)
		if !ok {
			if err == io.EOF {
				return stream.Record{}, io.EOF
			}
			continue
		}
		if payload == "[DONE]" {
			return stream.Record{}, io.EOF
		}

		var chunk answerChunk
		if jsonErr := json.Unmarshal([]byte(payload), &chunk); jsonErr != nil {
			log.Debug().Err(jsonErr).Msg("dropping malformed provider event")
			if err == io.EOF {
				return stream.Record{}, io.EOF
			}
			continue
		}
		return toRecord(chunk), nil
	}
}

// Close releases the underlying response body.
func (s *AnswerStream) Close() error {
	return s.body.Close()
}

// eventPayload extracts the JSON payload from one stream line. The
// provider frames events as "data: {...}"; bare JSON lines are accepted
// too since some deployments skip SSE framing.
func eventPayload(line string) (string, bool) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return "", false
	case strings.HasPrefix(line, "data:"):
		return strings.TrimSpace(strings.TrimPrefix(line, "data:")), true
	case strings.HasPrefix(line, "{"):
		return line, true
	default:
		// Comment or event-name line.
		return "", false
	}
}

// toRecord maps a provider chunk onto the wire record, preserving the
// present/absent distinction for citations.
func toRecord(chunk answerChunk) stream.Record {
	rec := stream.Record{Content: chunk.Content}
	if chunk.Citations != nil {
		rec.Citations = make([]types.Citation, 0, len(chunk.Citations))
		for _, c := range chunk.Citations {
			rec.Citations = append(rec.Citations, types.Citation{
				URL:     c.URL,
				Title:   c.Title,
				Snippet: citationSnippet(c),
			})
		}
	}
	return rec
}

// citationSnippet prefers the provider's own snippet and falls back to
// a truncated slice of the full text.
func citationSnippet(c answerCitation) string {
	if c.Snippet != "" {
		return c.Snippet
	}
	const maxSnippet = 240
	if len(c.Text) <= maxSnippet {
		return c.Text
	}
	return c.Text[:maxSnippet-3] + "..."
}

func answerModel(cfg types.AnswerConfig) string {
	if cfg.Model != "" {
		return cfg.Model
	}
	return defaultAnswerModel
}

func answerPrompt(cfg types.AnswerConfig) string {
	if cfg.SystemPrompt != "" {
		return cfg.SystemPrompt
	}
	return defaultAnswerPrompt
}
