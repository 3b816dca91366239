package tui

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/tun2proxyctl/internal/errors"
	"github.com/Iron-Ham/tun2proxyctl/internal/tui/styles"
)

// Layout constants
const (
	// header + binary + proxy + blank + log border (2) + flash + help
	chromeHeight = 8
	// log border
	chromeWidth  = 2
	minLogHeight = 3
)

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.layout()
}

func (m *Model) layout() {
	if m.width == 0 {
		return
	}
	h := m.height - chromeHeight
	if m.showHelp {
		h -= len(m.keys.full()) - 1
	}
	h = max(h, minLogHeight)
	w := max(m.width-chromeWidth, 10)

	if !m.ready {
		m.viewport = viewport.New(w, h)
		m.ready = true
		m.refreshContent(true)
		return
	}
	m.viewport.Width = w
	m.viewport.Height = h
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return "Stopping tun2proxy…\n"
	}
	if !m.ready {
		return "Initializing…"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderInfo())
	b.WriteString("\n\n")
	b.WriteString(styles.LogArea.Render(m.viewport.View()))
	b.WriteString("\n")
	if m.flash != "" {
		style := styles.Error
		if m.flashSev < errors.SeverityError {
			style = styles.Warning
		}
		b.WriteString(style.Render(m.flash))
	}
	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderHeader() string {
	parts := []string{styles.Title.Render("tun2proxyctl"), styles.RenderPill(m.status.Phase)}
	if m.status.PID > 0 {
		parts = append(parts, styles.Muted.Render(fmt.Sprintf("pid %d", m.status.PID)))
	}
	if m.busy != "" {
		parts = append(parts, styles.Warning.Render(m.busy+"…"))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderInfo() string {
	binLine := styles.Label.Render("Binary")
	if m.binaryPath == "" {
		binLine += styles.Muted.Render("(not set)")
	} else {
		binLine += styles.Text.Render(m.binaryPath)
		if m.authKnown {
			if m.authorized {
				binLine += "  " + styles.Secondary.Render("✓ setuid root")
			} else {
				binLine += "  " + styles.Warning.Render("not authorized")
			}
		}
	}

	proxyLine := styles.Label.Render("Proxy")
	if m.proxyURL == "" {
		proxyLine += styles.Muted.Render("(not set)")
	} else {
		proxyLine += styles.Text.Render(redactURL(m.proxyURL))
	}

	return lipgloss.JoinVertical(lipgloss.Left, binLine, proxyLine)
}

func (m Model) renderHelp() string {
	bindings := m.keys.short()
	if m.showHelp {
		lines := make([]string, 0, len(m.keys.full()))
		for _, kb := range m.keys.full() {
			lines = append(lines, helpEntry(kb))
		}
		return styles.HelpBar.Render(strings.Join(lines, "\n"))
	}
	entries := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		entries = append(entries, helpEntry(kb))
	}
	return styles.HelpBar.Render(strings.Join(entries, "  "))
}

func helpEntry(kb key.Binding) string {
	h := kb.Help()
	return styles.HelpKey.Render(h.Key) + " " + h.Desc
}

// redactURL hides the proxy password.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Redacted()
}
