package validation

import (
	"fmt"
	"strings"
)

const (
	// MaxInputLength is the maximum allowed length for a single message (100K characters)
	// This prevents excessive API costs and potential memory issues
	MaxInputLength = 100000
)

var validRoles = map[string]bool{
	"system":    true,
	"user":      true,
	"assistant": true,
}

// ValidateRole checks that role is one of system, user or assistant.
func ValidateRole(role string) error {
	if !validRoles[role] {
		return fmt.Errorf("invalid message role %q (want system, user or assistant)", role)
	}
	return nil
}

// ValidateContent validates the text of a single message.
func ValidateContent(text string) error {
	if len(text) > MaxInputLength {
		return fmt.Errorf("message exceeds maximum length of %d characters (got %d)", MaxInputLength, len(text))
	}
	return nil
}

// APIKeyHint returns a warning when apiKey does not look like a key for the
// given provider, or "" when it looks fine. Keys are never rejected: proxies
// and self-hosted gateways issue keys in other formats.
func APIKeyHint(provider, apiKey string) string {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return "API key is empty"
	}
	switch provider {
	case "anthropic":
		if !strings.HasPrefix(apiKey, "sk-ant-") {
			return "Anthropic API keys usually start with 'sk-ant-'"
		}
	case "openai":
		if !strings.HasPrefix(apiKey, "sk-") {
			return "OpenAI API keys usually start with 'sk-'"
		}
	}
	if len(apiKey) < 20 {
		return "API key appears to be too short"
	}
	return ""
}
