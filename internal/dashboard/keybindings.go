package dashboard

import tea "github.com/charmbracelet/bubbletea"

// Key bindings as constants for consistency.
const (
	KeyQuit       = "q"
	KeyQuitAlt    = "ctrl+c"
	KeyConnect    = "c"
	KeyDisconnect = "d"
	KeyClear      = "x"
	KeyFollow     = "f"
	KeyTop        = "home"
	KeyCollapse   = "esc"
	KeyToggleHelp = "?"
)

// HandleKeyMsg processes keyboard input and returns the command to run.
// Returns true if the key was handled, false otherwise.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	// Help toggle takes priority
	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}

	// If help is showing, Esc closes it
	if m.showHelp && key == KeyCollapse {
		m.showHelp = false
		return true, nil
	}

	switch key {
	case KeyQuit, KeyQuitAlt:
		m.quitting = true
		return true, tea.Quit

	case KeyConnect:
		if m.busy {
			return true, nil
		}
		m.busy = true
		m.notice = ""
		return true, m.actionCmd(actionConnect)

	case KeyDisconnect:
		if m.busy {
			return true, nil
		}
		m.busy = true
		m.notice = ""
		return true, m.actionCmd(actionDisconnect)

	case KeyClear:
		m.ctrl.ClearAll()
		m.refresh()
		return true, nil

	case KeyFollow:
		m.follow = !m.follow
		if m.follow {
			m.logs.GotoTop()
		}
		return true, nil

	case KeyTop:
		m.logs.GotoTop()
		return true, nil
	}

	return false, nil
}
