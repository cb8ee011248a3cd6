package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// CaptureModel - Animation capture progress
// =============================================================================

// frameMsg reports a captured frame.
type frameMsg struct {
	frame int
	total int
}

// captureDoneMsg reports the end of the capture.
type captureDoneMsg struct {
	err error
}

// CaptureModel is the bubbletea model showing animation capture progress.
// The pipeline goroutine feeds it frameMsg values via Program.Send.
type CaptureModel struct {
	Frame int
	Total int
	Err   error
	width int
}

// NewCaptureModel creates a capture progress model.
func NewCaptureModel(total int) CaptureModel {
	return CaptureModel{Total: total, width: 30}
}

func (m CaptureModel) Init() tea.Cmd {
	return nil
}

func (m CaptureModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case frameMsg:
		m.Frame = msg.frame
		m.Total = msg.total
	case captureDoneMsg:
		m.Err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m CaptureModel) View() string {
	if m.Total == 0 {
		return StyleDim.Render("preparing capture...") + "\n"
	}
	filled := m.Frame * m.width / m.Total
	bar := styleProgressBar.Render(strings.Repeat("█", filled)) +
		StyleDim.Render(strings.Repeat("░", m.width-filled))
	return fmt.Sprintf("%s %s\n",
		bar,
		StyleDim.Render(fmt.Sprintf("frame %d/%d", m.Frame, m.Total)))
}
