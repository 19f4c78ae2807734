package ui

import (
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dosanma1/amiforge/internal/manifest"
)

// ErrCancelled is returned when the user aborts a prompt.
var ErrCancelled = errors.New("cancelled")

// AskOverwrite shows the region changes for the manifest at path and asks
// whether to write them, on the given terminal streams.
func AskOverwrite(in io.Reader, out io.Writer, path string, changes []manifest.Change) (bool, error) {
	p := tea.NewProgram(NewOverwrite(path, changes), tea.WithInput(in), tea.WithOutput(out))

	finalModel, err := p.Run()
	if err != nil {
		return false, err
	}

	result := finalModel.(OverwriteModel)
	if result.Cancelled() {
		return false, ErrCancelled
	}

	return result.Accepted(), nil
}
