package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStateString(t *testing.T) {
	tests := []struct {
		state RunState
		want  string
		run   bool
	}{
		{Stopped, "stopped", false},
		{RunningDirect, "running", true},
		{RunningElevated, "running (elevated)", true},
		{RunState(42), "unknown", false},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.String())
			assert.Equal(t, tt.run, tt.state.IsRunning())
		})
	}
}

func TestMachineDirectCycle(t *testing.T) {
	var m Machine
	require.NoError(t, m.Transition(PhaseStarting))
	require.NoError(t, m.Transition(PhaseRunningDirect))
	require.NoError(t, m.Transition(PhaseStopping))
	require.NoError(t, m.Transition(PhaseStopped))
	assert.Equal(t, uint64(1), m.Cycle())
	assert.False(t, m.Escalated())
}

func TestMachineSingleEscalationPerCycle(t *testing.T) {
	var m Machine
	require.NoError(t, m.Transition(PhaseStarting))
	require.NoError(t, m.Transition(PhaseRunningDirect))
	require.True(t, m.CanEscalate())
	require.NoError(t, m.Transition(PhaseRetryPending))
	require.NoError(t, m.Transition(PhaseStartingElevated))
	assert.True(t, m.Escalated())
	assert.False(t, m.CanEscalate())

	// There is no edge back into a direct run from an elevated start.
	err := m.Transition(PhaseRunningDirect)
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, PhaseStartingElevated, te.From)

	require.NoError(t, m.Transition(PhaseRunningElevated))
	assert.Error(t, m.Transition(PhaseRetryPending))
	require.NoError(t, m.Transition(PhaseStopping))
	require.NoError(t, m.Transition(PhaseStopped))

	// A new cycle gets a fresh retry.
	require.NoError(t, m.Transition(PhaseStarting))
	assert.False(t, m.Escalated())
	assert.Equal(t, uint64(2), m.Cycle())
}

func TestMachineRejectsInvalidEdges(t *testing.T) {
	tests := []struct {
		name  string
		setup []Phase
		to    Phase
	}{
		{"start while running", []Phase{PhaseStarting, PhaseRunningDirect}, PhaseStarting},
		{"retry from stopped", nil, PhaseRetryPending},
		{"elevated without retry", []Phase{PhaseStarting}, PhaseStartingElevated},
		{"stopping from stopped", nil, PhaseStopping},
		{"running from stopped", nil, PhaseRunningDirect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Machine
			for _, p := range tt.setup {
				require.NoError(t, m.Transition(p))
			}
			assert.Error(t, m.Transition(tt.to))
		})
	}
}

func TestPhaseBusy(t *testing.T) {
	assert.False(t, PhaseStopped.Busy())
	for _, p := range []Phase{PhaseStarting, PhaseRunningDirect, PhaseRetryPending, PhaseStartingElevated, PhaseRunningElevated, PhaseStopping} {
		assert.True(t, p.Busy(), p.String())
	}
	assert.Equal(t, "unknown", Phase(99).String())
}
