package styles

import (
	"strings"
	"testing"

	"github.com/Iron-Ham/tun2proxyctl/internal/supervisor/state"
)

func TestPhaseColor(t *testing.T) {
	tests := []struct {
		phase    state.Phase
		expected string
	}{
		{state.PhaseStopped, "#9CA3AF"},
		{state.PhaseStarting, "#F59E0B"},
		{state.PhaseRunningDirect, "#10B981"},
		{state.PhaseRetryPending, "#F59E0B"},
		{state.PhaseStartingElevated, "#F59E0B"},
		{state.PhaseRunningElevated, "#A78BFA"},
		{state.PhaseStopping, "#60A5FA"},
	}

	for _, tt := range tests {
		t.Run(tt.phase.String(), func(t *testing.T) {
			got := PhaseColor(tt.phase)
			if string(got) != tt.expected {
				t.Errorf("PhaseColor(%v) = %q, want %q", tt.phase, got, tt.expected)
			}
		})
	}
}

func TestPhaseLabel(t *testing.T) {
	tests := []struct {
		phase    state.Phase
		expected string
	}{
		{state.PhaseStopped, "STOPPED"},
		{state.PhaseStarting, "STARTING"},
		{state.PhaseRunningDirect, "RUNNING"},
		{state.PhaseRetryPending, "ELEVATING"},
		{state.PhaseStartingElevated, "ELEVATING"},
		{state.PhaseRunningElevated, "RUNNING (ADMIN)"},
		{state.PhaseStopping, "STOPPING"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := PhaseLabel(tt.phase); got != tt.expected {
				t.Errorf("PhaseLabel(%v) = %q, want %q", tt.phase, got, tt.expected)
			}
		})
	}
}

func TestRenderPill(t *testing.T) {
	out := RenderPill(state.PhaseRunningElevated)
	if !strings.Contains(out, "RUNNING (ADMIN)") {
		t.Errorf("RenderPill() = %q, want label", out)
	}
	if !strings.Contains(out, "●") {
		t.Errorf("RenderPill() = %q, want running icon", out)
	}
}
