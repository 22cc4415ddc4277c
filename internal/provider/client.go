package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/maximbilan/llmbridge/internal/config"
	"github.com/maximbilan/llmbridge/internal/llmerr"
	"github.com/maximbilan/llmbridge/internal/transport"
	"github.com/maximbilan/llmbridge/internal/validation"
	"github.com/tidwall/sjson"
)

// checkPrompt is sent by CheckConfiguration once the static checks pass.
const checkPrompt = "Say hello world and nothing else."

// dialect is what differs between providers. Each supported Kind has exactly
// one dialect, chosen when the client is built.
type dialect interface {
	kind() Kind
	// normalize returns a conversation the provider accepts. It never
	// modifies its input.
	normalize(messages []Message) []Message
	endpoint(cfg Config) string
	headers(apiKey string) map[string]string
	// options returns the subset of model options the provider understands.
	options(opts config.ModelOptions) map[string]any
	unwrap(body json.RawMessage) (string, error)
	staticProblems(cfg Config) []error
}

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces the HTTP transport (useful for testing).
func WithTransport(t transport.Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithLogger sets the logger for the client and its default transport.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTimeout sets the request timeout of the default transport.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// Client implements Provider for one provider dialect.
type Client struct {
	cfg       Config
	dialect   dialect
	transport transport.Transport
	logger    *slog.Logger
	timeout   time.Duration
}

// New creates a client for kind. It panics with *llmerr.UnknownProviderError
// when kind is not one of Kinds; use ParseKind for user input.
func New(kind Kind, cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:     cfg,
		dialect: dialectFor(kind),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("provider", string(kind))
	if c.transport == nil {
		c.transport = transport.NewHTTP(
			transport.WithTimeout(c.timeout),
			transport.WithLogger(c.logger),
		)
	}
	return c
}

// NewAnthropicProvider creates a client for the Anthropic Messages API
func NewAnthropicProvider(cfg Config, opts ...Option) *Client {
	return New(KindAnthropic, cfg, opts...)
}

// NewAzureProvider creates a client for an Azure OpenAI chat deployment
func NewAzureProvider(cfg Config, opts ...Option) *Client {
	return New(KindAzure, cfg, opts...)
}

// NewOpenAIProvider creates a client for the OpenAI Chat Completions API
func NewOpenAIProvider(cfg Config, opts ...Option) *Client {
	return New(KindOpenAI, cfg, opts...)
}

func dialectFor(kind Kind) dialect {
	switch kind {
	case KindAnthropic:
		return anthropicDialect{}
	case KindAzure:
		return azureDialect{}
	case KindOpenAI:
		return openaiDialect{}
	}
	panic(&llmerr.UnknownProviderError{Name: string(kind)})
}

// Kind returns the provider kind.
func (c *Client) Kind() Kind { return c.dialect.kind() }

// QueryChatModel normalizes messages for the provider, sends them and returns
// the completion. The caller's slice is left untouched.
func (c *Client) QueryChatModel(ctx context.Context, messages []Message) (string, error) {
	if problems := c.dialect.staticProblems(c.cfg); len(problems) > 0 {
		return "", errors.Join(problems...)
	}
	if err := ValidateConversation(messages); err != nil {
		return "", err
	}

	normalized := c.dialect.normalize(messages)
	if len(normalized) != len(messages) {
		c.logger.Debug("conversation normalized", "before", len(messages), "after", len(normalized))
	}

	body, err := buildBody(c.cfg.Model, normalized, c.dialect.options(c.cfg.Options))
	if err != nil {
		return "", err
	}

	raw, err := c.transport.Request(ctx, http.MethodPost, c.dialect.endpoint(c.cfg), body, c.dialect.headers(c.cfg.APIKey))
	if err != nil {
		c.logger.Warn("chat request failed", "error", err)
		return "", err
	}

	completion, err := c.dialect.unwrap(raw)
	if err != nil {
		c.logger.Warn("unexpected response", "error", err)
		return "", err
	}
	return completion, nil
}

// CheckConfiguration validates the static settings and, when they are all
// present, sends CheckConversation. Missing fields are reported without a
// network call.
func (c *Client) CheckConfiguration(ctx context.Context) []string {
	var problems []string
	for _, err := range c.dialect.staticProblems(c.cfg) {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return problems
	}

	if _, err := c.QueryChatModel(ctx, CheckConversation()); err != nil {
		return []string{err.Error()}
	}
	return nil
}

// CheckConversation is the fixed conversation used by CheckConfiguration.
func CheckConversation() []Message {
	return []Message{{Role: RoleUser, Content: checkPrompt}}
}

// ValidateConversation rejects an empty conversation and reports the first
// message with an unknown role or oversized content.
func ValidateConversation(messages []Message) error {
	if len(messages) == 0 {
		return llmerr.ErrEmptyConversation
	}
	for i, msg := range messages {
		if err := validation.ValidateRole(msg.Role); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
		if err := validation.ValidateContent(msg.Content); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
	}
	return nil
}

// buildBody produces {"messages":...,"model":...} followed by the options in
// key order.
func buildBody(model string, messages []Message, options map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(struct {
		Messages []Message `json:"messages"`
		Model    string    `json:"model"`
	}{Messages: messages, Model: model})
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		body, err = sjson.SetBytes(body, k, options[k])
		if err != nil {
			return nil, fmt.Errorf("setting %s: %w", k, err)
		}
	}
	return body, nil
}

func requireKeyAndURL(kind Kind, cfg Config) []error {
	var problems []error
	if cfg.APIKey == "" {
		problems = append(problems, &llmerr.ConfigurationError{Provider: kind.DisplayName(), Field: "API key"})
	}
	if cfg.URL == "" {
		problems = append(problems, &llmerr.ConfigurationError{Provider: kind.DisplayName(), Field: "API url"})
	}
	return problems
}

func copyMessages(messages []Message) []Message {
	out := make([]Message, len(messages))
	copy(out, messages)
	return out
}
