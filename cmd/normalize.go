package cmd

import (
	"fmt"
	"io"

	"github.com/maximbilan/llmbridge/internal/conversation"
	"github.com/maximbilan/llmbridge/internal/provider"
	"github.com/maximbilan/llmbridge/internal/ui"
	"github.com/spf13/cobra"
)

var (
	normalizeFile string
	normalizeYAML bool
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Show how a conversation is reshaped before it is sent",
	Long: `Normalize prints the conversation exactly as the selected provider would
receive it, as a diff against the file. Nothing is sent.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		kind, err := provider.ParseKind(s.Provider)
		if err != nil {
			return err
		}
		messages, err := conversation.Load(normalizeFile)
		if err != nil {
			return err
		}
		return runNormalize(cmd.OutOrStdout(), kind, messages, normalizeYAML)
	},
}

func init() {
	normalizeCmd.Flags().StringVarP(&normalizeFile, "file", "f", "", "conversation file (YAML or JSON)")
	normalizeCmd.Flags().BoolVar(&normalizeYAML, "yaml", false, "print the normalized conversation as YAML instead of a diff")
	_ = normalizeCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(out io.Writer, kind provider.Kind, messages []provider.Message, asYAML bool) error {
	normalized := provider.Normalize(kind, messages)

	if asYAML {
		data, err := conversation.Marshal(normalized)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}

	fmt.Fprint(out, ui.RenderConversationDiff(messages, normalized))
	removed, added := ui.ChangedMessages(messages, normalized)
	if removed == 0 && added == 0 {
		fmt.Fprintf(out, "\n%s: conversation is sent unchanged (%d messages)\n", kind.DisplayName(), len(messages))
		return nil
	}
	fmt.Fprintf(out, "\n%s: %d messages become %d (-%d +%d)\n",
		kind.DisplayName(), len(messages), len(normalized), removed, added)
	return nil
}
