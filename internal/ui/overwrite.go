package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dosanma1/amiforge/internal/manifest"
)

// OverwriteModel asks whether a manifest that already records AMIs should
// be replaced, listing every region that changes. Dropping a recorded
// region defaults the answer to no.
type OverwriteModel struct {
	path    string
	changes []manifest.Change

	accept    bool
	answered  bool
	cancelled bool
}

// NewOverwrite creates the prompt for replacing the manifest at path.
func NewOverwrite(path string, changes []manifest.Change) OverwriteModel {
	return OverwriteModel{
		path:    path,
		changes: changes,
		accept:  !dropsRegion(changes),
	}
}

func dropsRegion(changes []manifest.Change) bool {
	for _, c := range changes {
		if c.New == "" {
			return true
		}
	}
	return false
}

func (m OverwriteModel) Init() tea.Cmd {
	return nil
}

func (m OverwriteModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "y", "Y":
		m.accept, m.answered = true, true
	case "n", "N":
		m.accept, m.answered = false, true
	case "enter":
		m.answered = true
	case "left", "right", "tab", "h", "l":
		m.accept = !m.accept
		return m, nil
	case "ctrl+c", "esc", "q":
		m.cancelled = true
	default:
		return m, nil
	}
	return m, tea.Quit
}

func (m OverwriteModel) View() string {
	if m.answered || m.cancelled {
		return ""
	}

	yes, no := SelectedStyle, UnselectedStyle
	if !m.accept {
		yes, no = UnselectedStyle, SelectedStyle
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n\n", IconWarning,
		SubtitleStyle.Render(fmt.Sprintf("%s already records AMIs. Replace them?", m.path)))
	sb.WriteString(ChangeList(m.changes))
	fmt.Fprintf(&sb, "\n\n  %s Replace    %s Keep\n\n", yes.Render(">"), no.Render(">"))
	sb.WriteString(HelpStyle.Render("←/→: toggle • enter: confirm • y/n: quick select • esc: cancel"))
	return sb.String()
}

// Accepted reports whether the user answered and chose to replace.
func (m OverwriteModel) Accepted() bool {
	return m.answered && m.accept
}

// Cancelled reports whether the user aborted the prompt.
func (m OverwriteModel) Cancelled() bool {
	return m.cancelled
}

// ChangeList renders region changes one per line: "+" added, "-" dropped,
// "~" replaced.
func ChangeList(changes []manifest.Change) string {
	lines := make([]string, 0, len(changes))
	for _, c := range changes {
		region := RegionStyle.Render(c.Region)
		switch {
		case c.Old == "":
			lines = append(lines, fmt.Sprintf("  %s %s %s", SuccessStyle.Render("+"), region, AMIStyle.Render(c.New)))
		case c.New == "":
			lines = append(lines, fmt.Sprintf("  %s %s %s", ErrorStyle.Render("-"), region, c.Old))
		default:
			lines = append(lines, fmt.Sprintf("  %s %s %s -> %s", WarningStyle.Render("~"), region, c.Old, AMIStyle.Render(c.New)))
		}
	}
	return strings.Join(lines, "\n")
}
