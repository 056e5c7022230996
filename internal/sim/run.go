package sim

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/wifistat/internal/device"
)

// Run drives ctrl in the background and shows it in a full-screen program
// until the user quits. Frames must come from the Display ctrl was built
// with.
func Run(ctx context.Context, ctrl *device.Controller, d *Display, opts Options, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	halted := make(chan error, 1)
	exit := make(chan error, 1)
	go func() {
		err := ctrl.Run(ctx)
		halted <- err
		exit <- err
	}()

	m := NewModel(d.Frames(), halted, ctrl.Button(), opts)
	progOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if in != nil {
		progOpts = append(progOpts, tea.WithInput(in))
	}
	if out != nil {
		progOpts = append(progOpts, tea.WithOutput(out))
	}
	_, uiErr := tea.NewProgram(m, progOpts...).Run()

	cancel()
	runErr := <-exit
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	if uiErr != nil && !errors.Is(uiErr, tea.ErrProgramKilled) {
		return errors.Join(uiErr, runErr)
	}
	return runErr
}
