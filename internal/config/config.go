package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigDirPerm is the permission for the config directory (0700 = rwx------)
	// Restrictive permissions protect the directory from being accessed by other users
	ConfigDirPerm os.FileMode = 0700
	// ConfigFilePerm is the permission for the config file (0600 = rw-------)
	// Restrictive permissions protect the API keys from being read by other users
	ConfigFilePerm os.FileMode = 0600

	// DirName is the config directory under the user's home.
	DirName = ".llmbridge"

	// EnvPrefix prefixes environment overrides, e.g. LLMBRIDGE_OPENAI_API_KEY.
	EnvPrefix = "LLMBRIDGE"
)

// Provider names accepted in the "provider" key.
const (
	ProviderAnthropic = "anthropic"
	ProviderAzure     = "azure"
	ProviderOpenAI    = "openai"
)

// APISettings holds the credentials and endpoint of one provider.
type APISettings struct {
	APIKey string `mapstructure:"api_key"`
	URL    string `mapstructure:"url"`
	Model  string `mapstructure:"model"`
}

// ModelOptions are the generation parameters shared by all providers.
// Each provider forwards only the options its API understands.
type ModelOptions struct {
	Temperature      float64 `mapstructure:"temperature"`
	TopP             float64 `mapstructure:"top_p"`
	FrequencyPenalty float64 `mapstructure:"frequency_penalty"`
	PresencePenalty  float64 `mapstructure:"presence_penalty"`
	MaxTokens        int     `mapstructure:"max_tokens"`
}

type Settings struct {
	Provider              string       `mapstructure:"provider"`
	Anthropic             APISettings  `mapstructure:"anthropic"`
	Azure                 APISettings  `mapstructure:"azure"`
	OpenAI                APISettings  `mapstructure:"openai"`
	ModelOptions          ModelOptions `mapstructure:"model_options"`
	RequestTimeoutSeconds int          `mapstructure:"request_timeout_seconds"`
	CacheEnabled          bool         `mapstructure:"cache_enabled"`
	CacheTTLDays          int          `mapstructure:"cache_ttl_days"`
	AutoCopy              bool         `mapstructure:"auto_copy"`
	LogLevel              string       `mapstructure:"log_level"`
	LogFormat             string       `mapstructure:"log_format"`
}

// Dir returns the config directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

func setDefaults() {
	viper.SetDefault("provider", ProviderOpenAI)

	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("anthropic.url", "https://api.anthropic.com/v1/messages")
	viper.SetDefault("anthropic.model", "claude-3-5-haiku-latest")

	viper.SetDefault("azure.api_key", "")
	viper.SetDefault("azure.url", "")
	viper.SetDefault("azure.model", "")

	viper.SetDefault("openai.api_key", "")
	viper.SetDefault("openai.url", "https://api.openai.com/v1/chat/completions")
	viper.SetDefault("openai.model", "gpt-4o")

	viper.SetDefault("model_options.temperature", 1.0)
	viper.SetDefault("model_options.top_p", 0.1)
	viper.SetDefault("model_options.frequency_penalty", 0.25)
	viper.SetDefault("model_options.presence_penalty", 0.0)
	viper.SetDefault("model_options.max_tokens", 800)

	viper.SetDefault("request_timeout_seconds", 30) // 30 seconds default timeout
	viper.SetDefault("cache_enabled", true)
	viper.SetDefault("cache_ttl_days", 7)
	viper.SetDefault("auto_copy", false)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")
}

func setup(configPath string) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func Load() (*Settings, error) {
	configPath, err := Dir()
	if err != nil {
		return nil, err
	}

	setup(configPath)
	setDefaults()

	// Try to read config
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; create directory and fall back to defaults
		if err := os.MkdirAll(configPath, ConfigDirPerm); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	var settings Settings
	if err := viper.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &settings, nil
}

func Save(s *Settings) error {
	configPath, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configPath, ConfigDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	viper.Set("provider", s.Provider)
	for name, api := range map[string]APISettings{
		ProviderAnthropic: s.Anthropic,
		ProviderAzure:     s.Azure,
		ProviderOpenAI:    s.OpenAI,
	} {
		viper.Set(name+".api_key", api.APIKey)
		viper.Set(name+".url", api.URL)
		viper.Set(name+".model", api.Model)
	}
	viper.Set("model_options.temperature", s.ModelOptions.Temperature)
	viper.Set("model_options.top_p", s.ModelOptions.TopP)
	viper.Set("model_options.frequency_penalty", s.ModelOptions.FrequencyPenalty)
	viper.Set("model_options.presence_penalty", s.ModelOptions.PresencePenalty)
	viper.Set("model_options.max_tokens", s.ModelOptions.MaxTokens)
	viper.Set("request_timeout_seconds", s.RequestTimeoutSeconds)
	viper.Set("cache_enabled", s.CacheEnabled)
	viper.Set("cache_ttl_days", s.CacheTTLDays)
	viper.Set("auto_copy", s.AutoCopy)
	viper.Set("log_level", s.LogLevel)
	viper.Set("log_format", s.LogFormat)

	return writeConfig(configPath)
}

func writeConfig(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		// If file doesn't exist, try SafeWriteConfigAs
		if err := viper.SafeWriteConfigAs(configFile); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}
	}

	// Set restrictive permissions on the config file to protect API keys
	if err := os.Chmod(configFile, ConfigFilePerm); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	return nil
}

func Set(key, value string) error {
	if key == "" {
		return fmt.Errorf("config key cannot be empty")
	}

	// Sanitize key to prevent injection
	key = strings.TrimSpace(key)
	if strings.ContainsAny(key, " \t\n\r") {
		return fmt.Errorf("config key contains invalid characters")
	}

	configPath, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configPath, ConfigDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	setup(configPath)

	// Try to read existing config (ignore error if file doesn't exist)
	_ = viper.ReadInConfig()

	viper.Set(key, value)

	return writeConfig(configPath)
}

func Get(key string) interface{} {
	if key == "" {
		return nil
	}

	configPath, err := Dir()
	if err != nil {
		return nil
	}

	setup(configPath)
	setDefaults()
	_ = viper.ReadInConfig() // Ignore error if config doesn't exist
	return viper.Get(key)
}

// API returns the settings block of the named provider.
func (s *Settings) API(provider string) (APISettings, bool) {
	switch provider {
	case ProviderAnthropic:
		return s.Anthropic, true
	case ProviderAzure:
		return s.Azure, true
	case ProviderOpenAI:
		return s.OpenAI, true
	}
	return APISettings{}, false
}

// Validate checks values that cannot be sent to any provider.
func (s *Settings) Validate() error {
	var errs []error

	if _, ok := s.API(s.Provider); !ok {
		errs = append(errs, fmt.Errorf("provider must be one of %s, %s, %s; got %q",
			ProviderAnthropic, ProviderAzure, ProviderOpenAI, s.Provider))
	}
	if s.ModelOptions.Temperature < 0 || s.ModelOptions.Temperature > 2 {
		errs = append(errs, fmt.Errorf("model_options.temperature must be between 0 and 2, got %g", s.ModelOptions.Temperature))
	}
	if s.ModelOptions.TopP < 0 || s.ModelOptions.TopP > 1 {
		errs = append(errs, fmt.Errorf("model_options.top_p must be between 0 and 1, got %g", s.ModelOptions.TopP))
	}
	if s.ModelOptions.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("model_options.max_tokens must be >= 0, got %d", s.ModelOptions.MaxTokens))
	}
	if s.RequestTimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("request_timeout_seconds must be >= 0, got %d", s.RequestTimeoutSeconds))
	}
	if s.CacheTTLDays < 0 {
		errs = append(errs, fmt.Errorf("cache_ttl_days must be >= 0, got %d", s.CacheTTLDays))
	}

	return errors.Join(errs...)
}
