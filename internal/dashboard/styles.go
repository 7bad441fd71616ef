package dashboard

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/firefly-engineering/conduit-console/internal/health"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	baseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
)

// statusIcon returns the glyph shown next to a status.
func statusIcon(s health.Status) string {
	switch s {
	case health.StatusHealthy:
		return "✓"
	case health.StatusUnhealthy:
		return "⚠"
	case health.StatusStarting:
		return "◐"
	case health.StatusStopped:
		return "●"
	case health.StatusMissing:
		return "○"
	default:
		return "?"
	}
}

func formatStatus(s health.Status) string {
	return statusIcon(s) + " " + string(s)
}
