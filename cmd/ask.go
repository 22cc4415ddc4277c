package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/maximbilan/llmbridge/internal/cache"
	"github.com/maximbilan/llmbridge/internal/clipboard"
	"github.com/maximbilan/llmbridge/internal/config"
	"github.com/maximbilan/llmbridge/internal/conversation"
	"github.com/maximbilan/llmbridge/internal/provider"
	"github.com/spf13/cobra"
)

type askOptions struct {
	file    string
	system  string
	copy    bool
	noCache bool
}

var askOpts askOptions

var askCmd = &cobra.Command{
	Use:   "ask [prompt...]",
	Short: "Send a prompt or a conversation file and print the completion",
	Long: `Ask sends a conversation to the configured provider and prints the reply.

The conversation comes from --file (YAML or JSON with a "messages" list), from
the prompt arguments, or from stdin. When both --file and a prompt are given
the prompt is appended as a final user message.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		messages, err := buildConversation(askOpts, args, cmd.InOrStdin())
		if err != nil {
			return err
		}
		return runAsk(cmd.Context(), cmd.OutOrStdout(), s, messages, askOpts)
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached completions",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached completion",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cache.New(0)
		if err != nil {
			return err
		}
		n, err := c.Clear()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached completions\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)

	askCmd.Flags().StringVarP(&askOpts.file, "file", "f", "", "conversation file (YAML or JSON)")
	askCmd.Flags().StringVarP(&askOpts.system, "system", "s", "", "system message to send before the prompt")
	askCmd.Flags().BoolVarP(&askOpts.copy, "copy", "c", false, "copy the completion to the clipboard")
	askCmd.Flags().BoolVar(&askOpts.noCache, "no-cache", false, "always send the request, ignoring cached completions")
	rootCmd.AddCommand(askCmd)
}

func buildConversation(opts askOptions, args []string, stdin io.Reader) ([]provider.Message, error) {
	prompt := strings.TrimSpace(strings.Join(args, " "))

	var messages []provider.Message
	if opts.file != "" {
		loaded, err := conversation.Load(opts.file)
		if err != nil {
			return nil, err
		}
		if system := strings.TrimSpace(opts.system); system != "" {
			loaded = append([]provider.Message{{Role: provider.RoleSystem, Content: system}}, loaded...)
		}
		messages = loaded
		if prompt != "" {
			messages = append(messages, provider.Message{Role: provider.RoleUser, Content: prompt})
		}
	} else {
		if prompt == "" && stdin != nil {
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("reading prompt from stdin: %w", err)
			}
			prompt = strings.TrimSpace(string(data))
		}
		if prompt == "" {
			return nil, errors.New("no prompt given: pass it as arguments, on stdin, or with --file")
		}
		messages = conversation.FromPrompt(opts.system, prompt)
	}

	if err := provider.ValidateConversation(messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func runAsk(ctx context.Context, out io.Writer, s *config.Settings, messages []provider.Message, opts askOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	kind, err := provider.ParseKind(s.Provider)
	if err != nil {
		return err
	}
	cfg := provider.ConfigFromSettings(kind, s)

	var c *cache.Cache
	if s.CacheEnabled && !opts.noCache {
		c, err = cache.New(s.CacheTTLDays)
		if err != nil {
			logger.Warn("cache disabled", "error", err)
			c = nil
		}
	}

	var key string
	completion, hit := "", false
	if c != nil {
		key = c.Key(kind, provider.Fingerprint(kind, cfg), messages)
		completion, hit = c.Get(key)
		logger.Debug("cache lookup", "hit", hit)
	}

	if !hit {
		if timeout := requestTimeout(s); timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		completion, err = newProvider(kind, s).QueryChatModel(ctx, messages)
		if err != nil {
			return fmt.Errorf("%s: %w", kind.DisplayName(), err)
		}
		if c != nil {
			if err := c.Set(key, kind, cfg.Model, messages, completion); err != nil {
				logger.Warn("failed to cache completion", "error", err)
			}
		}
	}

	fmt.Fprintln(out, completion)

	if opts.copy || s.AutoCopy {
		if !clipboard.Available() {
			logger.Warn("no clipboard utility found, completion not copied")
			return nil
		}
		if err := clipboard.Copy(completion); err != nil && !errors.Is(err, clipboard.ErrNothingToCopy) {
			logger.Warn("failed to copy completion", "error", err)
		}
	}
	return nil
}
