// Package styles holds the lipgloss palette and styles for the terminal UI.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/tun2proxyctl/internal/supervisor/state"
)

var (
	// Colors - all colors meet WCAG AA contrast (4.5:1) on both black and dark surfaces
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	SurfaceColor   = lipgloss.Color("#1F2937") // Dark surface
	TextColor      = lipgloss.Color("#F9FAFB") // Light text
	BorderColor    = lipgloss.Color("#6B7280") // Gray
	BlueColor      = lipgloss.Color("#60A5FA") // Blue

	// Convenience styles for colors
	Primary   = lipgloss.NewStyle().Foreground(PrimaryColor)
	Secondary = lipgloss.NewStyle().Foreground(SecondaryColor)
	Warning   = lipgloss.NewStyle().Foreground(WarningColor)
	Error     = lipgloss.NewStyle().Foreground(ErrorColor)
	Muted     = lipgloss.NewStyle().Foreground(MutedColor)
	Text      = lipgloss.NewStyle().Foreground(TextColor)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor)

	// Status pill shown next to the title
	Pill = lipgloss.NewStyle().
		Bold(true).
		Foreground(SurfaceColor).
		Padding(0, 1)

	// Field labels in the info block
	Label = lipgloss.NewStyle().
		Foreground(MutedColor).
		Width(8)

	// Log area
	LogArea = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(BorderColor)

	// Help bar
	HelpBar = lipgloss.NewStyle().
		Foreground(MutedColor)

	HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(SecondaryColor)

	// Log line prefixes by origin
	StdoutTag = lipgloss.NewStyle().Foreground(BlueColor)
	StderrTag = lipgloss.NewStyle().Foreground(ErrorColor)
	InfoTag   = lipgloss.NewStyle().Foreground(MutedColor)
)

// PhaseColor returns the pill color for a lifecycle phase.
func PhaseColor(p state.Phase) lipgloss.Color {
	switch p {
	case state.PhaseRunningDirect:
		return SecondaryColor
	case state.PhaseRunningElevated:
		return PrimaryColor
	case state.PhaseStarting, state.PhaseRetryPending, state.PhaseStartingElevated:
		return WarningColor
	case state.PhaseStopping:
		return BlueColor
	default:
		return MutedColor
	}
}

// PhaseLabel returns the short pill text for a lifecycle phase.
func PhaseLabel(p state.Phase) string {
	switch p {
	case state.PhaseStarting:
		return "STARTING"
	case state.PhaseRunningDirect:
		return "RUNNING"
	case state.PhaseRetryPending, state.PhaseStartingElevated:
		return "ELEVATING"
	case state.PhaseRunningElevated:
		return "RUNNING (ADMIN)"
	case state.PhaseStopping:
		return "STOPPING"
	default:
		return "STOPPED"
	}
}

// PhaseIcon returns a single-glyph indicator for a lifecycle phase.
func PhaseIcon(p state.Phase) string {
	switch p {
	case state.PhaseRunningDirect, state.PhaseRunningElevated:
		return "●"
	case state.PhaseStarting, state.PhaseRetryPending, state.PhaseStartingElevated:
		return "◐"
	case state.PhaseStopping:
		return "◑"
	default:
		return "○"
	}
}

// RenderPill renders the colored status pill for p.
func RenderPill(p state.Phase) string {
	return Pill.Background(PhaseColor(p)).Render(PhaseIcon(p) + " " + PhaseLabel(p))
}
