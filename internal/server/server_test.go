// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-finder/internal/answer"
	"github.com/pdiddy/paper-finder/internal/cache"
	"github.com/pdiddy/paper-finder/internal/chat"
	"github.com/pdiddy/paper-finder/internal/stream"
	"github.com/pdiddy/paper-finder/pkg/types"
)

type fakeSearcher struct {
	papers     []types.ResearchPaper
	err        error
	calls      int
	lastMethod string
	lastQuery  string
}

func (f *fakeSearcher) Search(_ context.Context, query string, _ types.SearchConfig) ([]types.ResearchPaper, error) {
	f.calls++
	f.lastMethod = "search"
	f.lastQuery = query
	return f.papers, f.err
}

func (f *fakeSearcher) FindSimilar(_ context.Context, paperURL string, _ types.SearchConfig) ([]types.ResearchPaper, error) {
	f.calls++
	f.lastMethod = "similar"
	f.lastQuery = paperURL
	return f.papers, f.err
}

type fakeRecordStream struct {
	records []stream.Record
	err     error
}

func (f *fakeRecordStream) Next() (stream.Record, error) {
	if len(f.records) == 0 {
		if f.err != nil {
			return stream.Record{}, f.err
		}
		return stream.Record{}, io.EOF
	}
	rec := f.records[0]
	f.records = f.records[1:]
	return rec, nil
}

func (f *fakeRecordStream) Close() error { return nil }

type fakeAnswerStreamer struct {
	stream  *fakeRecordStream
	openErr error
}

func (f *fakeAnswerStreamer) StreamAnswer(context.Context, string, types.AnswerConfig) (answer.RecordStream, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.stream, nil
}

type fakeChatter struct {
	deltas []string
	err    error
	msgs   []chat.Message
}

func (f *fakeChatter) Stream(_ context.Context, msgs []chat.Message, onDelta func(string)) error {
	f.msgs = msgs
	if len(msgs) == 0 {
		return chat.ErrNoMessages
	}
	for _, d := range f.deltas {
		onDelta(d)
	}
	return f.err
}

func testServer(searcher Searcher, streamer answer.Streamer, chatter ChatStreamer) *Server {
	return NewServer(Options{
		Searcher: searcher,
		Answerer: &answer.Proxy{Streamer: streamer},
		Chatter:  chatter,
		Log:      zerolog.Nop(),
	})
}

func postJSON(t *testing.T, h http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestStatusEndpoint(t *testing.T) {
	h := testServer(&fakeSearcher{}, &fakeAnswerStreamer{stream: &fakeRecordStream{}}, &fakeChatter{}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "\"ok\":true") {
		t.Fatalf("unexpected status payload: %s", rr.Body.String())
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Error("request id header missing")
	}
}

func TestSearchEndpoint(t *testing.T) {
	searcher := &fakeSearcher{papers: []types.ResearchPaper{
		{Title: "Attention Is All You Need", URL: "https://arxiv.org/abs/1706.03762"},
	}}
	h := testServer(searcher, &fakeAnswerStreamer{stream: &fakeRecordStream{}}, &fakeChatter{}).Handler()

	rr := postJSON(t, h, "/api/search", map[string]string{"query": "transformers"})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if searcher.lastMethod != "search" || searcher.lastQuery != "transformers" {
		t.Errorf("searcher called with %s %q", searcher.lastMethod, searcher.lastQuery)
	}

	var resp struct {
		Results []types.ResearchPaper `json:"results"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Title != "Attention Is All You Need" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestSearchEndpointEmptyResultsStayArray(t *testing.T) {
	h := testServer(&fakeSearcher{}, &fakeAnswerStreamer{stream: &fakeRecordStream{}}, &fakeChatter{}).Handler()

	rr := postJSON(t, h, "/api/search", map[string]string{"query": "nothing matches"})

	if !strings.Contains(rr.Body.String(), "\"results\":[]") {
		t.Errorf("empty results should encode as []: %s", rr.Body.String())
	}
}

func TestSearchEndpointRejectsEmptyQuery(t *testing.T) {
	searcher := &fakeSearcher{}
	h := testServer(searcher, &fakeAnswerStreamer{stream: &fakeRecordStream{}}, &fakeChatter{}).Handler()

	rr := postJSON(t, h, "/api/search", map[string]string{"query": "  "})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if searcher.calls != 0 {
		t.Error("provider was called for an empty query")
	}
}

func TestSearchEndpointMethodNotAllowed(t *testing.T) {
	h := testServer(&fakeSearcher{}, &fakeAnswerStreamer{stream: &fakeRecordStream{}}, &fakeChatter{}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/search", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestSearchEndpointProviderFailure(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("provider down")}
	h := testServer(searcher, &fakeAnswerStreamer{stream: &fakeRecordStream{}}, &fakeChatter{}).Handler()

	rr := postJSON(t, h, "/api/search", map[string]string{"query": "anything"})

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "error") {
		t.Errorf("error payload missing: %s", rr.Body.String())
	}
}

func TestSearchEndpointUsesCache(t *testing.T) {
	store, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"), time.Minute)
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	defer store.Close()

	searcher := &fakeSearcher{papers: []types.ResearchPaper{{Title: "Cached Paper"}}}
	srv := NewServer(Options{
		Searcher: searcher,
		Answerer: &answer.Proxy{Streamer: &fakeAnswerStreamer{stream: &fakeRecordStream{}}},
		Chatter:  &fakeChatter{},
		Cache:    store,
		Log:      zerolog.Nop(),
	})
	h := srv.Handler()

	first := postJSON(t, h, "/api/search", map[string]string{"query": "transformers"})
	second := postJSON(t, h, "/api/search", map[string]string{"query": "transformers"})

	if searcher.calls != 1 {
		t.Errorf("provider called %d times, want 1", searcher.calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("cached response differs:\n%s\n%s", first.Body.String(), second.Body.String())
	}
}

func TestSimilarEndpoint(t *testing.T) {
	searcher := &fakeSearcher{papers: []types.ResearchPaper{{Title: "Related Work"}}}
	h := testServer(searcher, &fakeAnswerStreamer{stream: &fakeRecordStream{}}, &fakeChatter{}).Handler()

	rr := postJSON(t, h, "/api/similarpapers", map[string]string{"query": "https://arxiv.org/abs/1706.03762"})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if searcher.lastMethod != "similar" {
		t.Errorf("called %s, want similar", searcher.lastMethod)
	}
	if searcher.lastQuery != "https://arxiv.org/abs/1706.03762" {
		t.Errorf("paper url = %q", searcher.lastQuery)
	}
}

func TestAnswerEndpointStreamsRecords(t *testing.T) {
	streamer := &fakeAnswerStreamer{stream: &fakeRecordStream{records: []stream.Record{
		{Content: "Yes. "},
		{Content: "Evidence supports it."},
		{Citations: []types.Citation{{URL: "https://arxiv.org/abs/1706.03762", Title: "Attention Is All You Need"}}},
	}}}
	h := testServer(&fakeSearcher{}, streamer, &fakeChatter{}).Handler()

	rr := postJSON(t, h, "/api/answer", map[string]string{"query": "does attention work"})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cc := rr.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q", cc)
	}

	lines := strings.Split(strings.TrimRight(rr.Body.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(lines), rr.Body.String())
	}
	var first stream.Record
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("first line not JSON: %v", err)
	}
	if first.Content != "Yes. " {
		t.Errorf("first record = %+v", first)
	}
	var last stream.Record
	if err := json.Unmarshal([]byte(lines[2]), &last); err != nil {
		t.Fatalf("last line not JSON: %v", err)
	}
	if len(last.Citations) != 1 {
		t.Errorf("last record = %+v", last)
	}
}

func TestAnswerEndpointEmptyQuery(t *testing.T) {
	h := testServer(&fakeSearcher{}, &fakeAnswerStreamer{stream: &fakeRecordStream{}}, &fakeChatter{}).Handler()

	rr := postJSON(t, h, "/api/answer", map[string]string{"query": ""})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "search query is required") {
		t.Errorf("error payload: %s", rr.Body.String())
	}
}

func TestAnswerEndpointUpstreamFailure(t *testing.T) {
	streamer := &fakeAnswerStreamer{openErr: errors.New("provider down")}
	h := testServer(&fakeSearcher{}, streamer, &fakeChatter{}).Handler()

	rr := postJSON(t, h, "/api/answer", map[string]string{"query": "anything"})

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestAnswerEndpointMidStreamFailureAbortsConnection(t *testing.T) {
	streamer := &fakeAnswerStreamer{stream: &fakeRecordStream{
		records: []stream.Record{{Content: "partial"}},
		err:     errors.New("upstream hung up"),
	}}
	h := testServer(&fakeSearcher{}, streamer, &fakeChatter{}).Handler()

	data, _ := json.Marshal(map[string]string{"query": "anything"})
	req := httptest.NewRequest(http.MethodPost, "/api/answer", bytes.NewReader(data))
	rr := httptest.NewRecorder()

	defer func() {
		if r := recover(); r != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler", r)
		}
		if !strings.Contains(rr.Body.String(), "partial") {
			t.Errorf("partial output lost: %s", rr.Body.String())
		}
	}()
	h.ServeHTTP(rr, req)
	t.Error("handler returned instead of aborting")
}

func TestChatEndpointStreamsDeltas(t *testing.T) {
	chatter := &fakeChatter{deltas: []string{"It uses ", "attention."}}
	h := testServer(&fakeSearcher{}, &fakeAnswerStreamer{stream: &fakeRecordStream{}}, chatter).Handler()

	rr := postJSON(t, h, "/api/chat", map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "how does it work"}},
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `data: {"content":"It uses "}`) {
		t.Errorf("first delta missing: %s", body)
	}
	if !strings.HasSuffix(strings.TrimSpace(body), "data: [DONE]") {
		t.Errorf("terminator missing: %s", body)
	}
}

func TestSearchEndpointCleansPaperText(t *testing.T) {
	searcher := &fakeSearcher{papers: []types.ResearchPaper{{
		Title: "Some Paper",
		Text:  "[Skip to main content](#main) Deep learning improves structure prediction accuracy across benchmarks.",
	}}}
	h := testServer(searcher, &fakeAnswerStreamer{stream: &fakeRecordStream{}}, &fakeChatter{}).Handler()

	rr := postJSON(t, h, "/api/search", map[string]string{"query": "proteins"})

	var resp struct {
		Results []types.ResearchPaper `json:"results"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if strings.Contains(resp.Results[0].Text, "Skip to main content") {
		t.Errorf("boilerplate survived: %q", resp.Results[0].Text)
	}
	if !strings.Contains(resp.Results[0].Text, "structure prediction") {
		t.Errorf("prose was lost: %q", resp.Results[0].Text)
	}
}

func TestChatEndpointPaperContextBecomesSystemPrompt(t *testing.T) {
	chatter := &fakeChatter{deltas: []string{"ok"}}
	h := testServer(&fakeSearcher{}, &fakeAnswerStreamer{stream: &fakeRecordStream{}}, chatter).Handler()

	rr := postJSON(t, h, "/api/chat", map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "what is the key result"}},
		"paper": map[string]string{
			"title":   "Scaling Laws",
			"summary": "Loss follows a power law.",
			"text":    "Abstract: We measure loss against compute.\n\nIntroduction\nmore",
		},
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if len(chatter.msgs) != 2 || chatter.msgs[0].Role != "system" {
		t.Fatalf("msgs = %+v", chatter.msgs)
	}
	prompt := chatter.msgs[0].Content
	if !strings.Contains(prompt, "Scaling Laws") || !strings.Contains(prompt, "power law") {
		t.Errorf("paper fields missing from prompt: %q", prompt)
	}
	if !strings.Contains(prompt, "We measure loss against compute") {
		t.Errorf("cleaned abstract missing from prompt: %q", prompt)
	}
}

func TestChatEndpointRejectsEmptyConversation(t *testing.T) {
	h := testServer(&fakeSearcher{}, &fakeAnswerStreamer{stream: &fakeRecordStream{}}, &fakeChatter{}).Handler()

	rr := postJSON(t, h, "/api/chat", map[string]any{"messages": []map[string]string{}})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestIndexServesDemoPage(t *testing.T) {
	h := testServer(&fakeSearcher{}, &fakeAnswerStreamer{stream: &fakeRecordStream{}}, &fakeChatter{}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "/api/answer") {
		t.Error("demo page does not reference the answer endpoint")
	}
}

func TestUnknownPathIs404(t *testing.T) {
	h := testServer(&fakeSearcher{}, &fakeAnswerStreamer{stream: &fakeRecordStream{}}, &fakeChatter{}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
