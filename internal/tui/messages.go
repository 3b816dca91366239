package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/tun2proxyctl/internal/config"
	"github.com/Iron-Ham/tun2proxyctl/internal/event"
)

// statusInterval is how often the status line is refreshed between events.
const statusInterval = 500 * time.Millisecond

type eventMsg struct {
	ev event.Event
}

type eventsClosedMsg struct{}

type tickMsg time.Time

type autoStartMsg struct{}

type detectDoneMsg struct {
	path string
	ok   bool
}

type authCheckedMsg struct {
	path       string
	authorized bool
}

type opDoneMsg struct {
	op  string
	err error
}

// ConfigReloadedMsg delivers a configuration that changed on disk.
type ConfigReloadedMsg struct {
	Event  event.ConfigReloadedEvent
	Config *config.Config
}

// waitForEvent blocks on the supervisor's event stream and delivers the next
// event to Update. Update re-issues it after every event.
func waitForEvent(ch <-chan event.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{ev: ev}
	}
}

func tick() tea.Cmd {
	return tea.Tick(statusInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
