package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/maximbilan/llmbridge/internal/config"
	"github.com/maximbilan/llmbridge/internal/provider"
	"github.com/maximbilan/llmbridge/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var errCheckFailed = errors.New("connectivity check failed")

var (
	checkAll   bool
	checkPlain bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the configured provider is reachable",
	Long: `Check validates the provider settings and sends one short test request.
Without --plain it opens an interactive view: Enter re-runs the check, q quits.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}

		if checkAll {
			return checkKinds(cmd.Context(), cmd.OutOrStdout(), s, provider.Kinds)
		}

		kind, err := provider.ParseKind(s.Provider)
		if err != nil {
			return err
		}
		if checkPlain {
			return checkKinds(cmd.Context(), cmd.OutOrStdout(), s, []provider.Kind{kind})
		}
		return checkInteractive(s, kind)
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkAll, "all", false, "check every provider concurrently")
	checkCmd.Flags().BoolVar(&checkPlain, "plain", false, "print the result instead of opening the interactive view")
	rootCmd.AddCommand(checkCmd)
}

func requestTimeout(s *config.Settings) time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// checkKinds runs the checks concurrently and prints the results in the
// order given.
func checkKinds(ctx context.Context, out io.Writer, s *config.Settings, kinds []provider.Kind) error {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([][]string, len(kinds))

	var g errgroup.Group
	for i, kind := range kinds {
		i := i
		p := newProvider(kind, s)
		g.Go(func() error {
			results[i] = ui.RunCheck(ctx, p, requestTimeout(s))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := 0
	for i, kind := range kinds {
		fmt.Fprintln(out, ui.RenderResult(kind, results[i]))
		if ui.StateFor(results[i]) == ui.StateFailure {
			failed++
		}
		logger.Debug("check finished", "provider", string(kind), "problems", len(results[i]))
	}
	if failed > 0 {
		return errCheckFailed
	}
	return nil
}

func checkInteractive(s *config.Settings, kind provider.Kind) error {
	model := ui.NewCheckModel(newProvider(kind, s), ui.CheckOptions{
		Timeout:   requestTimeout(s),
		AutoStart: true,
	})
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(ui.CheckModel); ok && m.State() == ui.StateFailure {
		return errCheckFailed
	}
	return nil
}
