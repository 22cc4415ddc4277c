package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/maximbilan/llmbridge/internal/config"
	"github.com/maximbilan/llmbridge/internal/logging"
	"github.com/maximbilan/llmbridge/internal/provider"
	"github.com/maximbilan/llmbridge/internal/validation"
	"github.com/spf13/cobra"
)

var (
	providerFlag string
	logLevelFlag string

	logger = logging.Discard()
)

// newProvider builds the client used by ask and check. Tests replace it.
var newProvider = func(kind provider.Kind, s *config.Settings) provider.Provider {
	return provider.FromSettings(kind, s, provider.WithLogger(logger))
}

var rootCmd = &cobra.Command{
	Use:   "llmbridge",
	Short: "Talk to Anthropic, Azure OpenAI and OpenAI through one interface",
	Long: `llmbridge sends chat conversations to Anthropic, Azure OpenAI or OpenAI
and checks that a provider's key and endpoint actually work.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var setCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a config value",
	Long: `Set a config value. Provider settings use dotted keys, for example:

  llmbridge config set provider anthropic
  llmbridge config set anthropic.api_key sk-ant-...
  llmbridge config set azure.url https://my-resource.openai.azure.com
  llmbridge config set model_options.temperature 0.7`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key, value := args[0], args[1]
		if err := config.Set(key, value); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if isSensitiveConfigKey(key) {
			fmt.Printf("Set %s = %s\n", key, maskSecret(value))
			if hint := apiKeyHint(key, value); hint != "" {
				fmt.Fprintf(os.Stderr, "Warning: %s\n", hint)
			}
			return
		}
		fmt.Printf("Set %s = %s\n", key, value)
	},
}

var getCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a config value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		value := config.Get(args[0])
		if isSensitiveConfigKey(args[0]) {
			fmt.Printf("%s = %s\n", args[0], maskSecret(fmt.Sprint(value)))
			return
		}
		fmt.Printf("%s = %v\n", args[0], value)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		configPath, err := config.Dir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := config.Save(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Configuration initialized at %s\n", filepath.Join(configPath, "config.yaml"))
		fmt.Printf("Set your API key with: llmbridge config set %s.api_key YOUR_KEY\n", cfg.Provider)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&providerFlag, "provider", "p", "", "provider to use (anthropic, azure, openai); overrides the config")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level (debug, info, warn, error); overrides the config")

	configCmd.AddCommand(setCmd)
	configCmd.AddCommand(getCmd)
	configCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadSettings reads the config, applies the persistent flags, validates the
// result and sets up logging.
func loadSettings() (*config.Settings, error) {
	s, err := config.Load()
	if err != nil {
		return nil, err
	}
	if providerFlag != "" {
		s.Provider = strings.ToLower(strings.TrimSpace(providerFlag))
	}
	if logLevelFlag != "" {
		s.LogLevel = logLevelFlag
	}

	logger = logging.New(s.LogLevel, s.LogFormat, os.Stderr)
	slog.SetDefault(logger)

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return s, nil
}

func isSensitiveConfigKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	return key == "api_key" || strings.HasSuffix(key, "_api_key") || strings.HasSuffix(key, ".api_key")
}

// maskSecret keeps the first and last four characters of long secrets.
func maskSecret(value string) string {
	if len(value) <= 8 {
		return "***"
	}
	return value[:4] + "***" + value[len(value)-4:]
}

// apiKeyHint checks a key set through "<provider>.api_key".
func apiKeyHint(key, value string) string {
	name, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(key)), ".")
	if _, err := provider.ParseKind(name); err != nil {
		return ""
	}
	return validation.APIKeyHint(name, value)
}
