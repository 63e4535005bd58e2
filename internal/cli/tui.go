package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pystudio/pystudio/pkg/runner"
)

// tailLines is how many output lines the live view keeps on screen.
const tailLines = 20

// =============================================================================
// Messages
// =============================================================================

// sessionEventMsg wraps one session event for the bubbletea loop.
type sessionEventMsg runner.Event

// sessionClosedMsg signals that the event stream has been drained.
type sessionClosedMsg struct{}

// nextEvent waits for the next session event.
func nextEvent(ch <-chan runner.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return sessionClosedMsg{}
		}
		return sessionEventMsg(ev)
	}
}

// =============================================================================
// Model
// =============================================================================

// sessionModel is the live output view for a running script.
type sessionModel struct {
	script string
	sess   *runner.Session
	lines  []string
	state  runner.State
	frame  int
	done   bool
}

func newSessionModel(script string, sess *runner.Session) sessionModel {
	return sessionModel{
		script: script,
		sess:   sess,
		state:  runner.StateRunning,
	}
}

func (m sessionModel) Init() tea.Cmd {
	return nextEvent(m.sess.Events())
}

func (m sessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			// Stop the script; the view quits once the stream closes.
			m.sess.Cancel()
			return m, nil
		}

	case sessionEventMsg:
		switch msg.Stream {
		case runner.StreamStdout:
			m.lines = append(m.lines, msg.Text)
		case runner.StreamStderr:
			m.lines = append(m.lines, styleStderr.Render(msg.Text))
		}
		if len(m.lines) > tailLines {
			m.lines = m.lines[len(m.lines)-tailLines:]
		}
		m.frame++
		return m, nextEvent(m.sess.Events())

	case sessionClosedMsg:
		m.state = m.sess.State()
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m sessionModel) View() string {
	header := StyleTitle.Render("running "+m.script) + "\n"

	body := ""
	for _, line := range m.lines {
		body += line + "\n"
	}

	footer := StyleDim.Render("q or ctrl-c to stop")
	if m.done {
		footer = stateStyle(m.state).Render(string(m.state))
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer) + "\n"
}

func stateStyle(state runner.State) lipgloss.Style {
	switch state {
	case runner.StateCompleted:
		return StyleSuccess
	case runner.StateTerminated:
		return StyleWarning
	default:
		return StyleError
	}
}

// runSessionTUI drives the live view until the session settles.
func runSessionTUI(script string, sess *runner.Session) error {
	_, err := tea.NewProgram(newSessionModel(script, sess)).Run()
	return err
}
