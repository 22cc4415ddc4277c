package provider

import (
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/maximbilan/llmbridge/internal/config"
	"github.com/maximbilan/llmbridge/internal/llmerr"
	"github.com/tidwall/gjson"
)

const (
	anthropicVersion = "2023-06-01"

	// anthropicDefaultMaxTokens is sent when max_tokens is unset; the
	// Messages API rejects requests without it.
	anthropicDefaultMaxTokens = 1024

	fillerContent     = "Thanks."
	tailFillerContent = "Automated response"
)

// anthropicDialect talks to the Anthropic Messages API, which only knows the
// user and assistant roles and requires them to alternate.
type anthropicDialect struct{}

func (anthropicDialect) kind() Kind { return KindAnthropic }

func (anthropicDialect) normalize(messages []Message) []Message {
	return normalizeAnthropic(messages)
}

// normalizeAnthropic retags system messages as user messages and inserts a
// filler message of the opposite role between any two adjacent messages that
// share a role. Runs in linear time and returns a new slice.
func normalizeAnthropic(messages []Message) []Message {
	out := make([]Message, 0, 2*len(messages))
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			msg.Role = RoleUser
		}
		if n := len(out); n > 0 && out[n-1].Role == msg.Role {
			out = append(out, Message{Role: oppositeRole(msg.Role), Content: fillerContent})
		}
		out = append(out, msg)
	}

	// The loop above already separates every adjacent pair, including the
	// last one, so this only guards the invariant.
	if n := len(out); n > 1 && out[n-1].Role == out[n-2].Role {
		out = append(out, Message{Role: oppositeRole(out[n-1].Role), Content: tailFillerContent})
	}
	return out
}

func oppositeRole(role string) string {
	if role == RoleUser {
		return RoleAssistant
	}
	return RoleUser
}

func (anthropicDialect) endpoint(cfg Config) string { return cfg.URL }

func (anthropicDialect) headers(apiKey string) map[string]string {
	return map[string]string{
		"content-type":      "application/json",
		"anthropic-version": anthropicVersion,
		"x-api-key":         apiKey,
	}
}

// options drops frequency_penalty and presence_penalty, which the Messages
// API does not accept.
func (anthropicDialect) options(opts config.ModelOptions) map[string]any {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}
	return map[string]any{
		"temperature": opts.Temperature,
		"top_p":       opts.TopP,
		"max_tokens":  maxTokens,
	}
}

func (anthropicDialect) unwrap(body json.RawMessage) (string, error) {
	var msg anthropic.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return "", &llmerr.ResponseShapeError{Provider: KindAnthropic.DisplayName(), Reason: fmt.Sprintf("decoding message: %v", err)}
	}
	if len(msg.Content) == 0 {
		return "", &llmerr.ResponseShapeError{Provider: KindAnthropic.DisplayName(), Reason: "response has no content blocks"}
	}

	// Extract text content from the first content block
	block := msg.Content[0]
	if block.Type != "text" {
		return "", &llmerr.ResponseShapeError{
			Provider: KindAnthropic.DisplayName(),
			Reason:   fmt.Sprintf("first content block has type %q, want \"text\"", block.Type),
		}
	}
	// The SDK decoder fills a missing or non-string text with its zero value.
	text := gjson.GetBytes(body, "content.0.text")
	if !text.Exists() || text.Type != gjson.String {
		return "", &llmerr.ResponseShapeError{Provider: KindAnthropic.DisplayName(), Reason: "first text block has no string text"}
	}
	return text.String(), nil
}

func (anthropicDialect) staticProblems(cfg Config) []error {
	return requireKeyAndURL(KindAnthropic, cfg)
}
