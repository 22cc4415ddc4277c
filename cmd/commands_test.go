package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maximbilan/llmbridge/internal/config"
	"github.com/maximbilan/llmbridge/internal/llmerr"
	"github.com/maximbilan/llmbridge/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useMocks routes newProvider to one mock per kind and isolates HOME.
func useMocks(t *testing.T) map[provider.Kind]*provider.MockProvider {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	mocks := map[provider.Kind]*provider.MockProvider{}
	for _, k := range provider.Kinds {
		mocks[k] = provider.NewMockProvider(k)
	}
	orig := newProvider
	newProvider = func(kind provider.Kind, s *config.Settings) provider.Provider {
		return mocks[kind]
	}
	t.Cleanup(func() { newProvider = orig })
	return mocks
}

func testSettings(name string) *config.Settings {
	return &config.Settings{
		Provider:              name,
		OpenAI:                config.APISettings{APIKey: "sk-test", URL: "https://example.invalid", Model: "gpt-4o"},
		RequestTimeoutSeconds: 5,
		CacheEnabled:          true,
		CacheTTLDays:          1,
	}
}

func TestBuildConversation(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "conv.yaml")
	require.NoError(t, os.WriteFile(file, []byte("messages:\n  - role: user\n    content: first\n"), 0600))

	tests := []struct {
		name    string
		opts    askOptions
		args    []string
		stdin   string
		want    []provider.Message
		wantErr bool
	}{
		{
			name: "prompt args",
			args: []string{"hello", "there"},
			want: []provider.Message{{Role: "user", Content: "hello there"}},
		},
		{
			name: "system flag",
			opts: askOptions{system: "be brief"},
			args: []string{"hi"},
			want: []provider.Message{{Role: "system", Content: "be brief"}, {Role: "user", Content: "hi"}},
		},
		{
			name:  "stdin",
			stdin: "  from stdin\n",
			want:  []provider.Message{{Role: "user", Content: "from stdin"}},
		},
		{
			name: "file plus prompt",
			opts: askOptions{file: file, system: "rules"},
			args: []string{"second"},
			want: []provider.Message{
				{Role: "system", Content: "rules"},
				{Role: "user", Content: "first"},
				{Role: "user", Content: "second"},
			},
		},
		{name: "nothing", wantErr: true},
		{name: "missing file", opts: askOptions{file: filepath.Join(dir, "nope.yaml")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildConversation(tt.opts, tt.args, strings.NewReader(tt.stdin))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunAskUsesCache(t *testing.T) {
	mocks := useMocks(t)
	mocks[provider.KindOpenAI].SetResponse("hi", "hello!")
	s := testSettings("openai")
	msgs := []provider.Message{{Role: "user", Content: "hi"}}

	var out bytes.Buffer
	require.NoError(t, runAsk(context.Background(), &out, s, msgs, askOptions{}))
	assert.Equal(t, "hello!\n", out.String())

	out.Reset()
	require.NoError(t, runAsk(context.Background(), &out, s, msgs, askOptions{}))
	assert.Equal(t, "hello!\n", out.String())
	assert.Equal(t, 1, mocks[provider.KindOpenAI].Calls(), "second ask should be served from cache")

	out.Reset()
	require.NoError(t, runAsk(context.Background(), &out, s, msgs, askOptions{noCache: true}))
	assert.Equal(t, 2, mocks[provider.KindOpenAI].Calls())
}

func TestRunAskCacheKeyCoversEndpointAndOptions(t *testing.T) {
	mocks := useMocks(t)
	azure := mocks[provider.KindAzure]
	s := testSettings("azure")
	s.Azure = config.APISettings{
		APIKey: "az-key",
		URL:    "https://res.openai.azure.com/openai/deployments/gpt4/chat/completions?api-version=2024-02-01",
	}
	msgs := []provider.Message{{Role: "user", Content: "hi"}}

	var out bytes.Buffer
	azure.SetResponse("hi", "from-gpt4")
	require.NoError(t, runAsk(context.Background(), &out, s, msgs, askOptions{}))
	assert.Equal(t, "from-gpt4\n", out.String())

	azure.SetResponse("hi", "from-gpt35")
	s.Azure.URL = "https://res.openai.azure.com/openai/deployments/gpt35/chat/completions?api-version=2024-02-01"
	s.ModelOptions.Temperature = 0.2
	out.Reset()
	require.NoError(t, runAsk(context.Background(), &out, s, msgs, askOptions{}))
	assert.Equal(t, "from-gpt35\n", out.String())
	assert.Equal(t, 2, azure.Calls(), "another deployment must not be served from cache")

	s.ModelOptions.Temperature = 0.7
	out.Reset()
	require.NoError(t, runAsk(context.Background(), &out, s, msgs, askOptions{}))
	assert.Equal(t, 3, azure.Calls(), "another temperature must not be served from cache")

	s.Azure.APIKey = "rotated-key"
	out.Reset()
	require.NoError(t, runAsk(context.Background(), &out, s, msgs, askOptions{}))
	assert.Equal(t, "from-gpt35\n", out.String())
	assert.Equal(t, 3, azure.Calls(), "a new API key alone should still hit the cache")
}

func TestRunAskError(t *testing.T) {
	mocks := useMocks(t)
	mocks[provider.KindAnthropic].SetError(&llmerr.HTTPError{Status: 401, Message: "invalid x-api-key"})
	s := testSettings("anthropic")
	s.CacheEnabled = false

	var out bytes.Buffer
	err := runAsk(context.Background(), &out, s, []provider.Message{{Role: "user", Content: "hi"}}, askOptions{})

	require.Error(t, err)
	assert.Equal(t, "Anthropic: HTTP 401: invalid x-api-key", err.Error())
	assert.Equal(t, 401, llmerr.StatusCode(err))
	assert.Empty(t, out.String())
}

func TestCheckKinds(t *testing.T) {
	mocks := useMocks(t)
	mocks[provider.KindAzure].SetProblems("Azure OpenAI API key is not set")
	s := testSettings("openai")

	var out bytes.Buffer
	err := checkKinds(context.Background(), &out, s, provider.Kinds)

	assert.ErrorIs(t, err, errCheckFailed)
	got := out.String()
	for _, want := range []string{
		"Successfully connected to the Anthropic API.",
		"Cannot connect to the Azure OpenAI API. Please check your settings.",
		"Azure OpenAI API key is not set",
		"Successfully connected to the OpenAI API.",
	} {
		assert.Contains(t, got, want)
	}
	assert.Less(t, strings.Index(got, "Anthropic"), strings.Index(got, "Azure OpenAI API."), "results keep provider order")
	for _, k := range provider.Kinds {
		assert.Equal(t, 1, mocks[k].Checks())
	}

	out.Reset()
	require.NoError(t, checkKinds(context.Background(), &out, s, []provider.Kind{provider.KindOpenAI}))
}

func TestRunNormalize(t *testing.T) {
	msgs := []provider.Message{
		{Role: "system", Content: "rules"},
		{Role: "user", Content: "hi"},
	}

	var out bytes.Buffer
	require.NoError(t, runNormalize(&out, provider.KindAnthropic, msgs, false))
	assert.Contains(t, out.String(), "Anthropic: 2 messages become 3 (-1 +2)")

	out.Reset()
	require.NoError(t, runNormalize(&out, provider.KindOpenAI, msgs, false))
	assert.Contains(t, out.String(), "OpenAI: conversation is sent unchanged (2 messages)")

	out.Reset()
	require.NoError(t, runNormalize(&out, provider.KindAnthropic, msgs, true))
	assert.Contains(t, out.String(), "content: Thanks.")
	assert.NotContains(t, out.String(), "role: system")
}
