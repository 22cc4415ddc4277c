package provider

import (
	"time"

	"github.com/maximbilan/llmbridge/internal/config"
)

// ConfigFromSettings extracts the API key, URL, model and shared model
// options of kind from persisted settings. It panics with
// *llmerr.UnknownProviderError when kind is not supported.
func ConfigFromSettings(kind Kind, s *config.Settings) Config {
	dialectFor(kind)
	api, _ := s.API(string(kind))
	return Config{
		APIKey:  api.APIKey,
		URL:     api.URL,
		Model:   api.Model,
		Options: s.ModelOptions,
	}
}

// FromSettings builds the client for kind from settings. The query path and
// the connectivity check both go through here so they always exercise the
// same configuration.
func FromSettings(kind Kind, s *config.Settings, opts ...Option) *Client {
	cfg := ConfigFromSettings(kind, s)
	opts = append([]Option{WithTimeout(time.Duration(s.RequestTimeoutSeconds) * time.Second)}, opts...)
	return New(kind, cfg, opts...)
}

// Normalize returns messages in the shape kind's API requires, without
// sending anything.
func Normalize(kind Kind, messages []Message) []Message {
	return dialectFor(kind).normalize(messages)
}

// Fingerprint identifies what shapes a completion apart from the
// conversation: the resolved endpoint, the model and the options kind
// actually sends. The API key is not part of it.
func Fingerprint(kind Kind, cfg Config) string {
	d := dialectFor(kind)
	body, err := buildBody(cfg.Model, nil, d.options(cfg.Options))
	if err != nil {
		return d.endpoint(cfg) + "\n" + cfg.Model
	}
	return d.endpoint(cfg) + "\n" + string(body)
}
