// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pdiddy/paper-finder/internal/chat"
)

type chatRequest struct {
	Messages []chat.Message `json:"messages"`

	// Paper optionally pins the conversation to one paper; its fields
	// become the system prompt, with the text run through the abstract
	// cleaner first.
	Paper *paperContext `json:"paper,omitempty"`
}

type paperContext struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Text    string `json:"text"`
}

type chatDelta struct {
	Content string `json:"content"`
}

// handleChat relays model reply deltas as server-sent events, one
// "data:" line per delta, ending with a [DONE] marker.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}

	msgs := req.Messages
	if req.Paper != nil {
		prompt := chat.PaperPrompt(req.Paper.Title, req.Paper.Summary, s.cleaner.Clean(req.Paper.Text))
		msgs = append([]chat.Message{{Role: "system", Content: prompt}}, msgs...)
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.chatDuration())
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, _ := w.(http.Flusher)
	written := 0
	onDelta := func(text string) {
		data, err := json.Marshal(chatDelta{Content: text})
		if err != nil {
			return
		}
		if _, err := w.Write(append(append([]byte("data: "), data...), '\n', '\n')); err != nil {
			return
		}
		written++
		if flusher != nil {
			flusher.Flush()
		}
	}

	if err := s.chatter.Stream(ctx, msgs, onDelta); err != nil {
		if written > 0 {
			s.log.Error().Err(err).Int("deltas", written).Msg("chat stream interrupted")
			panic(http.ErrAbortHandler)
		}
		if errors.Is(err, chat.ErrNoMessages) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		s.log.Error().Err(err).Msg("chat stream failed")
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "chat request failed"})
		return
	}

	_, _ = w.Write([]byte("data: [DONE]\n\n"))
	if flusher != nil {
		flusher.Flush()
	}
}
