// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the paper-finder HTTP API: search and
// similar-paper proxies, the streaming answer endpoint, the chat
// relay, and a demo page.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-finder/internal/answer"
	"github.com/pdiddy/paper-finder/internal/cache"
	"github.com/pdiddy/paper-finder/internal/chat"
	"github.com/pdiddy/paper-finder/internal/cleanup"
	"github.com/pdiddy/paper-finder/internal/search"
	"github.com/pdiddy/paper-finder/pkg/types"
)

const (
	defaultAnswerDuration = 100 * time.Second
	defaultChatDuration   = 30 * time.Second
)

// Searcher is the provider surface the search endpoints need.
type Searcher interface {
	Search(ctx context.Context, query string, cfg types.SearchConfig) ([]types.ResearchPaper, error)
	FindSimilar(ctx context.Context, paperURL string, cfg types.SearchConfig) ([]types.ResearchPaper, error)
}

// ChatStreamer streams a chat reply delta by delta.
type ChatStreamer interface {
	Stream(ctx context.Context, msgs []chat.Message, onDelta func(string)) error
}

// ProviderStreamer adapts the provider client to the answer proxy.
type ProviderStreamer struct {
	Client *search.Client
}

func (p ProviderStreamer) StreamAnswer(ctx context.Context, query string, cfg types.AnswerConfig) (answer.RecordStream, error) {
	s, err := p.Client.StreamAnswer(ctx, query, cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Server routes API requests to the provider client, the answer proxy,
// and the chat service. Cache is optional; nil disables it.
type Server struct {
	searcher  Searcher
	answerer  *answer.Proxy
	chatter   ChatStreamer
	cache     *cache.Store
	searchCfg types.SearchConfig
	answerCfg types.AnswerConfig
	chatCfg   types.ChatConfig
	cleaner   *cleanup.Pipeline
	log       zerolog.Logger
	startedAt time.Time
}

// Options carries the collaborators and configuration for NewServer.
type Options struct {
	Searcher Searcher
	Answerer *answer.Proxy
	Chatter  ChatStreamer
	Cache    *cache.Store
	Search   types.SearchConfig
	Answer   types.AnswerConfig
	Chat     types.ChatConfig
	Log      zerolog.Logger
}

// NewServer builds a Server from its collaborators.
func NewServer(opts Options) *Server {
	return &Server{
		searcher:  opts.Searcher,
		answerer:  opts.Answerer,
		chatter:   opts.Chatter,
		cache:     opts.Cache,
		searchCfg: opts.Search,
		answerCfg: opts.Answer,
		chatCfg:   opts.Chat,
		cleaner:   cleanup.New(),
		log:       opts.Log,
		startedAt: time.Now().UTC(),
	}
}

// Handler returns the API mux wrapped in request-id and logging
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/api/similarpapers", s.handleSimilar)
	mux.HandleFunc("/api/answer", s.handleAnswer)
	mux.HandleFunc("/api/chat", s.handleChat)
	return chainMiddlewares(mux, withRequestID, withLogging(s.log))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"started_at": s.startedAt.Format(time.RFC3339),
		"uptime_sec": int(time.Since(s.startedAt).Seconds()),
	})
}

type queryRequest struct {
	Query string `json:"query"`
}

type resultsResponse struct {
	Results []types.ResearchPaper `json:"results"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.respondResults(w, r, "/search", func(ctx context.Context, query string) ([]types.ResearchPaper, error) {
		return s.searcher.Search(ctx, query, s.searchCfg)
	})
}

// handleSimilar reuses the query field for the paper URL so browser
// callers can share one request shape across both endpoints.
func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	s.respondResults(w, r, "/findSimilar", func(ctx context.Context, query string) ([]types.ResearchPaper, error) {
		return s.searcher.FindSimilar(ctx, query, s.searchCfg)
	})
}

func (s *Server) respondResults(w http.ResponseWriter, r *http.Request, endpoint string, fetch func(context.Context, string) ([]types.ResearchPaper, error)) {
	query, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	if payload, hit := s.cacheGet(r.Context(), endpoint, query); hit {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(payload)
		return
	}

	papers, err := fetch(r.Context(), query)
	if err != nil {
		s.log.Error().Err(err).Str("endpoint", endpoint).Msg("provider call failed")
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "provider request failed"})
		return
	}
	if papers == nil {
		papers = []types.ResearchPaper{}
	}
	// Scraped page bodies are trimmed to readable abstracts before
	// they reach the client.
	for i := range papers {
		papers[i].Text = s.cleaner.Clean(papers[i].Text)
	}

	body, err := json.Marshal(resultsResponse{Results: papers})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "encoding results failed"})
		return
	}
	s.cachePut(r.Context(), endpoint, query, body)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// handleAnswer streams the answer as newline-delimited JSON. The
// response is committed by the first record, so failures after that
// point can only be signalled by killing the connection.
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	query, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.answerDuration())
	defer cancel()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	err := s.answerer.Relay(ctx, query, w)
	if err == nil {
		return
	}

	var interrupt *answer.InterruptError
	if errors.As(err, &interrupt) {
		s.log.Error().Err(err).Int("records", interrupt.Written).Msg("answer stream interrupted")
		panic(http.ErrAbortHandler)
	}
	if errors.Is(err, answer.ErrEmptyQuery) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "search query is required"})
		return
	}
	s.log.Error().Err(err).Msg("answer stream failed before output")
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": "provider request failed"})
}

func (s *Server) decodeQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return "", false
	}
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return "", false
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "search query is required"})
		return "", false
	}
	return req.Query, true
}

func (s *Server) cacheGet(ctx context.Context, endpoint, query string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	payload, ok, err := s.cache.Get(ctx, endpoint, query)
	if err != nil {
		s.log.Warn().Err(err).Msg("cache read failed")
		return nil, false
	}
	return payload, ok
}

func (s *Server) cachePut(ctx context.Context, endpoint, query string, payload []byte) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(ctx, endpoint, query, payload); err != nil {
		s.log.Warn().Err(err).Msg("cache write failed")
	}
}

func (s *Server) answerDuration() time.Duration {
	if s.answerCfg.MaxDuration > 0 {
		return s.answerCfg.MaxDuration
	}
	return defaultAnswerDuration
}

func (s *Server) chatDuration() time.Duration {
	if s.chatCfg.MaxDuration > 0 {
		return s.chatCfg.MaxDuration
	}
	return defaultChatDuration
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
