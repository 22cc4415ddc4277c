package provider

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/maximbilan/llmbridge/internal/config"
	"github.com/maximbilan/llmbridge/internal/llmerr"
	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"
)

// azureDeploymentsPath marks an Azure URL that already names a deployment.
const azureDeploymentsPath = "/openai/deployments/"

// openaiDialect talks to the OpenAI Chat Completions API. It accepts system
// messages and repeated roles as they are.
type openaiDialect struct{}

func (openaiDialect) kind() Kind { return KindOpenAI }

func (openaiDialect) normalize(messages []Message) []Message { return copyMessages(messages) }

func (openaiDialect) endpoint(cfg Config) string { return cfg.URL }

func (openaiDialect) headers(apiKey string) map[string]string {
	return map[string]string{
		"content-type":  "application/json",
		"Authorization": "Bearer " + apiKey,
	}
}

func (openaiDialect) options(opts config.ModelOptions) map[string]any {
	return chatCompletionOptions(opts)
}

func (openaiDialect) unwrap(body json.RawMessage) (string, error) {
	return unwrapChatCompletion(KindOpenAI, body)
}

func (openaiDialect) staticProblems(cfg Config) []error {
	return requireKeyAndURL(KindOpenAI, cfg)
}

// azureDialect talks to a chat-completion deployment on Azure OpenAI. The
// wire format is OpenAI's; only the endpoint and key header differ.
type azureDialect struct{}

func (azureDialect) kind() Kind { return KindAzure }

func (azureDialect) normalize(messages []Message) []Message { return copyMessages(messages) }

// endpoint uses the configured URL as-is when it already points at a
// deployment, otherwise treats it as the resource URL and appends the
// deployment path for cfg.Model.
func (azureDialect) endpoint(cfg Config) string {
	if strings.Contains(cfg.URL, azureDeploymentsPath) {
		return cfg.URL
	}
	apiVersion := openai.DefaultAzureConfig(cfg.APIKey, cfg.URL).APIVersion
	return fmt.Sprintf("%s%s%s/chat/completions?api-version=%s",
		strings.TrimRight(cfg.URL, "/"), azureDeploymentsPath, url.PathEscape(cfg.Model), apiVersion)
}

func (azureDialect) headers(apiKey string) map[string]string {
	return map[string]string{
		"content-type": "application/json",
		"api-key":      apiKey,
	}
}

func (azureDialect) options(opts config.ModelOptions) map[string]any {
	return chatCompletionOptions(opts)
}

func (azureDialect) unwrap(body json.RawMessage) (string, error) {
	return unwrapChatCompletion(KindAzure, body)
}

func (azureDialect) staticProblems(cfg Config) []error {
	problems := requireKeyAndURL(KindAzure, cfg)
	if cfg.URL != "" && !strings.Contains(cfg.URL, azureDeploymentsPath) && cfg.Model == "" {
		problems = append(problems, &llmerr.ConfigurationError{Provider: KindAzure.DisplayName(), Field: "deployment name (model)"})
	}
	return problems
}

func chatCompletionOptions(opts config.ModelOptions) map[string]any {
	out := map[string]any{
		"temperature":       opts.Temperature,
		"top_p":             opts.TopP,
		"frequency_penalty": opts.FrequencyPenalty,
		"presence_penalty":  opts.PresencePenalty,
	}
	if opts.MaxTokens > 0 {
		out["max_tokens"] = opts.MaxTokens
	}
	return out
}

func unwrapChatCompletion(kind Kind, body json.RawMessage) (string, error) {
	if !gjson.GetBytes(body, "choices.0").Exists() {
		return "", &llmerr.ResponseShapeError{Provider: kind.DisplayName(), Reason: "response has no choices"}
	}
	content := gjson.GetBytes(body, "choices.0.message.content")
	if !content.Exists() || content.Type != gjson.String {
		return "", &llmerr.ResponseShapeError{Provider: kind.DisplayName(), Reason: "first choice has no message content"}
	}
	return content.String(), nil
}
