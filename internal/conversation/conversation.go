// Package conversation reads chat conversations from YAML or JSON files and
// builds them from command-line prompts.
package conversation

import (
	"fmt"
	"os"
	"strings"

	"github.com/maximbilan/llmbridge/internal/provider"
	"gopkg.in/yaml.v3"
)

// File is the on-disk form of a conversation.
//
//	system: You are terse.
//	messages:
//	  - role: user
//	    content: Hello
type File struct {
	// System, when set, is sent as a leading system message.
	System   string             `yaml:"system,omitempty"`
	Messages []provider.Message `yaml:"messages"`
}

// Load reads a conversation file. JSON files are accepted as well since JSON
// is valid YAML.
func Load(path string) ([]provider.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading conversation file %s: %w", path, err)
	}
	msgs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing conversation file %s: %w", path, err)
	}
	return msgs, nil
}

// Parse decodes a conversation and checks it.
func Parse(data []byte) ([]provider.Message, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	msgs := f.Messages
	if s := strings.TrimSpace(f.System); s != "" {
		msgs = append([]provider.Message{{Role: provider.RoleSystem, Content: s}}, msgs...)
	}
	if err := provider.ValidateConversation(msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// FromPrompt builds a single-turn conversation, with an optional system
// message in front.
func FromPrompt(system, prompt string) []provider.Message {
	var msgs []provider.Message
	if s := strings.TrimSpace(system); s != "" {
		msgs = append(msgs, provider.Message{Role: provider.RoleSystem, Content: s})
	}
	return append(msgs, provider.Message{Role: provider.RoleUser, Content: prompt})
}

// Marshal renders msgs in the file format.
func Marshal(msgs []provider.Message) ([]byte, error) {
	return yaml.Marshal(File{Messages: msgs})
}
