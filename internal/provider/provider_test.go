package provider

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/maximbilan/llmbridge/internal/llmerr"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Kind
		wantErr bool
	}{
		{name: "anthropic", input: "anthropic", want: KindAnthropic},
		{name: "azure", input: "azure", want: KindAzure},
		{name: "openai", input: "openai", want: KindOpenAI},
		{name: "mixed case and spaces", input: "  OpenAI ", want: KindOpenAI},
		{name: "unknown", input: "gemini", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				var unknown *llmerr.UnknownProviderError
				if !errors.As(err, &unknown) {
					t.Errorf("ParseKind(%q) error = %T, want *llmerr.UnknownProviderError", tt.input, err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestKindDisplayName(t *testing.T) {
	want := map[Kind]string{
		KindAnthropic: "Anthropic",
		KindAzure:     "Azure OpenAI",
		KindOpenAI:    "OpenAI",
	}
	for _, k := range Kinds {
		if got := k.DisplayName(); got != want[k] {
			t.Errorf("%s.DisplayName() = %q, want %q", k, got, want[k])
		}
	}
}

func TestMockProvider(t *testing.T) {
	t.Run("registered response", func(t *testing.T) {
		mock := NewMockProvider(KindOpenAI)
		mock.SetResponse("test prompt", "test response")

		result, err := mock.QueryChatModel(context.Background(), []Message{
			{Role: RoleSystem, Content: "rules"},
			{Role: RoleUser, Content: "test prompt"},
		})
		if err != nil {
			t.Fatalf("QueryChatModel() error = %v", err)
		}
		if result != "test response" {
			t.Errorf("QueryChatModel() = %v, want 'test response'", result)
		}
		if mock.Calls() != 1 {
			t.Errorf("Calls() = %d, want 1", mock.Calls())
		}
	})

	t.Run("no response set", func(t *testing.T) {
		mock := NewMockProvider(KindOpenAI)

		result, err := mock.QueryChatModel(context.Background(), []Message{
			{Role: RoleUser, Content: "unknown prompt"},
		})
		if err != nil {
			t.Fatalf("QueryChatModel() error = %v", err)
		}
		if !strings.Contains(result, "Mock response for: unknown prompt") {
			t.Errorf("QueryChatModel() = %v, want to contain 'Mock response for: unknown prompt'", result)
		}
	})

	t.Run("empty messages", func(t *testing.T) {
		mock := NewMockProvider(KindOpenAI)
		if _, err := mock.QueryChatModel(context.Background(), []Message{}); err == nil {
			t.Error("QueryChatModel() with empty messages should return error")
		}
	})

	t.Run("configured error", func(t *testing.T) {
		mock := NewMockProvider(KindAzure)
		want := &llmerr.HTTPError{Status: 401}
		mock.SetError(want)
		if _, err := mock.QueryChatModel(context.Background(), CheckConversation()); !errors.Is(err, want) {
			t.Errorf("QueryChatModel() error = %v, want %v", err, want)
		}
	})

	t.Run("problems", func(t *testing.T) {
		mock := NewMockProvider(KindAnthropic)
		if got := mock.CheckConfiguration(context.Background()); len(got) != 0 {
			t.Errorf("CheckConfiguration() = %v, want none", got)
		}
		mock.SetProblems("Anthropic API key is not set")
		got := mock.CheckConfiguration(context.Background())
		if len(got) != 1 || got[0] != "Anthropic API key is not set" {
			t.Errorf("CheckConfiguration() = %v", got)
		}
		if mock.Checks() != 2 {
			t.Errorf("Checks() = %d, want 2", mock.Checks())
		}
		if mock.Kind() != KindAnthropic {
			t.Errorf("Kind() = %q", mock.Kind())
		}
	})
}

func TestProviderInterface(t *testing.T) {
	var _ Provider = (*Client)(nil)
	var _ Provider = (*MockProvider)(nil)
}
