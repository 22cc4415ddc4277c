package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/maximbilan/llmbridge/internal/provider"
)

// CheckState is where a connectivity check stands.
type CheckState int

const (
	StateNotStarted CheckState = iota
	StateLoading
	StateSuccess
	StateFailure
)

func (s CheckState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	default:
		return "not-started"
	}
}

// StateFor maps the outcome of CheckConfiguration to a final state. No
// problems is the only success.
func StateFor(problems []string) CheckState {
	if len(problems) == 0 {
		return StateSuccess
	}
	return StateFailure
}

// Notice is the one-line message shown once a check has finished.
func Notice(kind provider.Kind, problems []string) string {
	if len(problems) == 0 {
		return fmt.Sprintf("Successfully connected to the %s API.", kind.DisplayName())
	}
	return fmt.Sprintf("Cannot connect to the %s API. Please check your settings.", kind.DisplayName())
}

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	problemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	labelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	loadingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// RenderResult formats a finished check for terminal output.
func RenderResult(kind provider.Kind, problems []string) string {
	var s strings.Builder
	if len(problems) == 0 {
		s.WriteString(successStyle.Render("✓ " + Notice(kind, problems)))
		return s.String()
	}
	s.WriteString(failureStyle.Render("✗ " + Notice(kind, problems)))
	for _, p := range problems {
		s.WriteString("\n  ")
		s.WriteString(problemStyle.Render("• " + p))
	}
	return s.String()
}

// RunCheck calls CheckConfiguration with a timeout.
func RunCheck(ctx context.Context, p provider.Provider, timeout time.Duration) []string {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return p.CheckConfiguration(ctx)
}

// CheckOptions configures a CheckModel.
type CheckOptions struct {
	Timeout time.Duration
	// AutoStart runs the check as soon as the program starts.
	AutoStart bool
	// QuitWhenDone exits after the first check finishes.
	QuitWhenDone bool
}

// Messages
type checkDoneMsg struct {
	run      int
	problems []string
}

// ProviderChangedMsg swaps the provider under check. Any result still in
// flight for the old provider is discarded.
type ProviderChangedMsg struct {
	Provider provider.Provider
}

// CheckModel is the bubbletea model behind `check`.
type CheckModel struct {
	provider provider.Provider
	opts     CheckOptions

	state    CheckState
	problems []string
	// run identifies the check in flight so stale results can be dropped.
	run int

	spinner spinner.Model
}

// NewCheckModel creates a model in the not-started state.
func NewCheckModel(p provider.Provider, opts CheckOptions) CheckModel {
	return CheckModel{
		provider: p,
		opts:     opts,
		state:    StateNotStarted,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(loadingStyle),
		),
	}
}

// State returns the current state.
func (m CheckModel) State() CheckState { return m.state }

// Problems returns the problems of the last finished check.
func (m CheckModel) Problems() []string { return m.problems }

func (m CheckModel) Init() tea.Cmd {
	if m.opts.AutoStart {
		return func() tea.Msg { return tea.KeyMsg{Type: tea.KeyEnter} }
	}
	return nil
}

func (m CheckModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "enter", "r":
			return m.start()
		}
		return m, nil

	case ProviderChangedMsg:
		m.provider = msg.Provider
		m.state = StateNotStarted
		m.problems = nil
		m.run++
		return m, nil

	case checkDoneMsg:
		if msg.run != m.run || m.state != StateLoading {
			return m, nil
		}
		m.problems = msg.problems
		m.state = StateFor(msg.problems)
		if m.opts.QuitWhenDone {
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		if m.state != StateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// start begins a check unless one is already running.
func (m CheckModel) start() (tea.Model, tea.Cmd) {
	if m.state == StateLoading {
		return m, nil
	}
	m.run++
	m.state = StateLoading
	m.problems = nil

	p, run, timeout := m.provider, m.run, m.opts.Timeout
	check := func() tea.Msg {
		return checkDoneMsg{run: run, problems: RunCheck(context.Background(), p, timeout)}
	}
	return m, tea.Batch(m.spinner.Tick, check)
}

func (m CheckModel) View() string {
	var s strings.Builder
	kind := m.provider.Kind()

	s.WriteString(labelStyle.Render(kind.DisplayName() + " connection"))
	s.WriteString("\n\n")

	switch m.state {
	case StateNotStarted:
		s.WriteString(hintStyle.Render("Not checked yet."))
	case StateLoading:
		s.WriteString(m.spinner.View() + " " + loadingStyle.Render("Checking..."))
	case StateSuccess, StateFailure:
		s.WriteString(RenderResult(kind, m.problems))
	}

	s.WriteString("\n\n")
	s.WriteString(hintStyle.Render("Enter: check  q: quit"))
	s.WriteString("\n")
	return s.String()
}
