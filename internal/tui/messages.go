package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskvoice/taskvoice/internal/boards"
)

// changedMsg reports that the recorder or the activity log moved on.
type changedMsg struct{}

// startedMsg carries the result of a start request.
type startedMsg struct{ err error }

// stoppedMsg carries the result of a stop request, after the gateway replied.
type stoppedMsg struct{ err error }

// boardsMsg carries a discovery result.
type boardsMsg struct {
	boards     []boards.Board
	err        error
	background bool
}

// waitForChange blocks until the next change signal.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}
