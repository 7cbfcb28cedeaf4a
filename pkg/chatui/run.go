package chatui

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/papercomputeco/chatbox/pkg/chat"
)

// Run shows the full-screen chat until the user quits or ctx is cancelled.
// The controller is closed on return so a late answer is never applied.
func Run(ctx context.Context, ctrl *chat.Controller, opts Options, in io.Reader, out io.Writer) error {
	defer ctrl.Close()

	p := tea.NewProgram(
		New(ctx, ctrl, opts),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
