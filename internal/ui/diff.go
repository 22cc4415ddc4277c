package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/maximbilan/llmbridge/internal/provider"
	"github.com/sergi/go-diff/diffmatchpatch"
)

var (
	deleteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Strikethrough(true)
	insertStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	equalStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Transcript renders a conversation one message per line as "role: content",
// with newlines inside content escaped so each message stays on one line.
func Transcript(messages []provider.Message) string {
	var s strings.Builder
	for _, m := range messages {
		s.WriteString(m.Role)
		s.WriteString(": ")
		s.WriteString(strings.ReplaceAll(m.Content, "\n", `\n`))
		s.WriteString("\n")
	}
	return s.String()
}

// RenderConversationDiff shows, message by message, how a conversation
// changed: retagged and inserted messages are highlighted, untouched ones
// are dimmed.
func RenderConversationDiff(before, after []provider.Message) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(Transcript(before), Transcript(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var styled strings.Builder
	for _, diff := range diffs {
		for _, line := range strings.SplitAfter(diff.Text, "\n") {
			if line == "" {
				continue
			}
			text := strings.TrimSuffix(line, "\n")
			switch diff.Type {
			case diffmatchpatch.DiffDelete:
				styled.WriteString(deleteStyle.Render("- " + text))
			case diffmatchpatch.DiffInsert:
				styled.WriteString(insertStyle.Render("+ " + text))
			case diffmatchpatch.DiffEqual:
				styled.WriteString(equalStyle.Render("  " + text))
			}
			styled.WriteString("\n")
		}
	}
	return styled.String()
}

// ChangedMessages counts messages that differ between the two transcripts.
func ChangedMessages(before, after []provider.Message) (removed, added int) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(Transcript(before), Transcript(after))
	for _, d := range dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines) {
		n := strings.Count(d.Text, "\n")
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			removed += n
		case diffmatchpatch.DiffInsert:
			added += n
		}
	}
	return removed, added
}
