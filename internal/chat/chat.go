// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chat streams model replies about a specific paper. The
// paper's summary and cleaned abstract ride in as the system prompt;
// the conversation itself is relayed turn by turn to the model and the
// reply is surfaced delta by delta.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/pdiddy/paper-finder/pkg/types"
)

const (
	defaultModel     = "claude-3-5-haiku-latest"
	defaultMaxTokens = 1024
)

// ErrNoMessages rejects a conversation with no user or assistant turns.
var ErrNoMessages = errors.New("at least one chat message is required")

// Message is one conversation turn as callers submit it. Role is
// "user", "assistant", or "system"; system turns are folded into the
// request's system prompt rather than sent as turns.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Service streams chat completions. The zero value is not usable; set
// Config with at least an API key.
type Service struct {
	Config types.ChatConfig

	// baseURL overrides the API endpoint in tests.
	baseURL string
}

// New returns a Service for the given configuration.
func New(cfg types.ChatConfig) *Service {
	return &Service{Config: cfg}
}

// Stream sends the conversation and invokes onDelta for every text
// fragment of the reply, in order. It returns once the reply is
// complete or the context is done.
func (s *Service) Stream(ctx context.Context, msgs []Message, onDelta func(string)) error {
	turns, system, err := convertMessages(msgs)
	if err != nil {
		return err
	}
	if s.Config.SystemPrompt != "" {
		system = joinSystem(s.Config.SystemPrompt, system)
	}

	opts := []anthropic.ClientOption{}
	if s.baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(s.baseURL))
	}
	client := anthropic.NewClient(s.Config.APIKey, opts...)

	_, err = client.CreateMessagesStream(ctx, anthropic.MessagesStreamRequest{
		MessagesRequest: anthropic.MessagesRequest{
			Model:     anthropic.Model(s.model()),
			System:    system,
			Messages:  turns,
			MaxTokens: s.maxTokens(),
		},
		OnContentBlockDelta: func(data anthropic.MessagesEventContentBlockDeltaData) {
			if text := data.Delta.GetText(); text != "" {
				onDelta(text)
			}
		},
	})
	if err != nil {
		return fmt.Errorf("chat stream failed: %w", err)
	}
	return nil
}

// convertMessages splits the submitted turns into model turns and a
// system prompt. Consecutive system turns are joined in order.
func convertMessages(msgs []Message) ([]anthropic.Message, string, error) {
	var turns []anthropic.Message
	var system []string
	for _, m := range msgs {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		switch m.Role {
		case "system":
			system = append(system, content)
		case "assistant":
			turns = append(turns, anthropic.NewAssistantTextMessage(content))
		case "user":
			turns = append(turns, anthropic.NewUserTextMessage(content))
		default:
			return nil, "", fmt.Errorf("unknown chat role %q", m.Role)
		}
	}
	if len(turns) == 0 {
		return nil, "", ErrNoMessages
	}
	return turns, strings.Join(system, "\n\n"), nil
}

func joinSystem(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}

func (s *Service) model() string {
	if s.Config.Model != "" {
		return s.Config.Model
	}
	return defaultModel
}

func (s *Service) maxTokens() int {
	if s.Config.MaxTokens > 0 {
		return s.Config.MaxTokens
	}
	return defaultMaxTokens
}

// PaperPrompt builds the system prompt that pins the conversation to
// one paper. Empty fields are left out.
func PaperPrompt(title, summary, abstract string) string {
	var b strings.Builder
	b.WriteString("You are a research assistant answering questions about a specific paper. " +
		"Ground every answer in the paper material below and say so when the paper does not cover a question.")
	if title != "" {
		fmt.Fprintf(&b, "\n\nTitle: %s", title)
	}
	if summary != "" {
		fmt.Fprintf(&b, "\n\nSummary:\n%s", summary)
	}
	if abstract != "" {
		fmt.Fprintf(&b, "\n\nAbstract:\n%s", abstract)
	}
	return b.String()
}
