package provider

import (
	"context"
	"strings"

	"github.com/maximbilan/llmbridge/internal/config"
	"github.com/maximbilan/llmbridge/internal/llmerr"
)

// Provider defines the interface for AI providers (Anthropic, Azure OpenAI, OpenAI)
type Provider interface {
	// Kind identifies the provider behind this client
	Kind() Kind

	// QueryChatModel sends the conversation and returns the completion text
	QueryChatModel(ctx context.Context, messages []Message) (string, error)

	// CheckConfiguration returns human-readable problems; empty means the
	// provider is configured correctly
	CheckConfiguration(ctx context.Context) []string
}

// Message represents a chat message
type Message struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Role constants
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Kind is the closed set of supported providers.
type Kind string

const (
	KindAnthropic Kind = config.ProviderAnthropic
	KindAzure     Kind = config.ProviderAzure
	KindOpenAI    Kind = config.ProviderOpenAI
)

// Kinds lists every supported provider in display order.
var Kinds = []Kind{KindAnthropic, KindAzure, KindOpenAI}

// ParseKind resolves a user-supplied provider name.
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	switch k {
	case KindAnthropic, KindAzure, KindOpenAI:
		return k, nil
	}
	return "", &llmerr.UnknownProviderError{Name: name}
}

// DisplayName is the provider name used in user-facing messages.
func (k Kind) DisplayName() string {
	switch k {
	case KindAnthropic:
		return "Anthropic"
	case KindAzure:
		return "Azure OpenAI"
	case KindOpenAI:
		return "OpenAI"
	}
	return string(k)
}

// Config holds what a client needs to reach one provider.
type Config struct {
	APIKey  string
	URL     string
	Model   string
	Options config.ModelOptions
}
