package dashboard

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// IsInteractive reports whether f is a terminal the TUI can draw on.
func IsInteractive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Run runs the interactive dashboard until the operator quits, the
// duration elapses, or ctx is cancelled.
func Run(ctx context.Context, src Source, opts Options) error {
	p := tea.NewProgram(NewModel(ctx, src, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
