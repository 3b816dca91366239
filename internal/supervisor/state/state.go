// Package state defines the supervisor's observable RunState and the
// internal phase machine that drives it.
//
// RunState is what observers see: stopped, running directly under a held
// process handle, or running elevated as a detached daemon. Phase is the
// finer-grained machine behind it:
//
//	Stopped ─► Starting ─► RunningDirect ─► Stopping ─► Stopped
//	                │            │
//	                ▼            ▼ (exit + permission failure, once per cycle)
//	             Stopped    RetryPending ─► StartingElevated ─► RunningElevated
//	                                               │                  │
//	                                               ▼                  ▼
//	                                            Stopped           Stopping
//
// The retry edge is only legal while the current start cycle has not yet
// escalated, so a second elevation attempt is rejected by the machine itself.
package state

import "fmt"

// RunState is the status exposed to observers.
type RunState int

const (
	// Stopped means no process is supervised and no daemon is believed running.
	Stopped RunState = iota
	// RunningDirect means a child process handle is held.
	RunningDirect
	// RunningElevated means an elevated, daemonized process is believed running.
	RunningElevated
)

// String returns a human-readable string for the run state.
func (s RunState) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case RunningDirect:
		return "running"
	case RunningElevated:
		return "running (elevated)"
	default:
		return "unknown"
	}
}

// IsRunning reports whether s is one of the running states.
func (s RunState) IsRunning() bool {
	return s == RunningDirect || s == RunningElevated
}

// Phase is the internal lifecycle phase.
type Phase int

const (
	PhaseStopped Phase = iota
	PhaseStarting
	PhaseRunningDirect
	PhaseRetryPending
	PhaseStartingElevated
	PhaseRunningElevated
	PhaseStopping
)

// String returns a human-readable string for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseStopped:
		return "stopped"
	case PhaseStarting:
		return "starting"
	case PhaseRunningDirect:
		return "running"
	case PhaseRetryPending:
		return "retry-pending"
	case PhaseStartingElevated:
		return "starting-elevated"
	case PhaseRunningElevated:
		return "running-elevated"
	case PhaseStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Busy reports whether a start request must be ignored in this phase.
func (p Phase) Busy() bool {
	return p != PhaseStopped
}

var edges = map[Phase][]Phase{
	PhaseStopped:          {PhaseStarting},
	PhaseStarting:         {PhaseRunningDirect, PhaseStopped},
	PhaseRunningDirect:    {PhaseStopping, PhaseStopped, PhaseRetryPending},
	PhaseRetryPending:     {PhaseStartingElevated, PhaseStopped},
	PhaseStartingElevated: {PhaseRunningElevated, PhaseStopping, PhaseStopped},
	PhaseRunningElevated:  {PhaseStopping, PhaseStopped},
	PhaseStopping:         {PhaseStopped},
}

// TransitionError is returned for an edge the machine does not allow.
type TransitionError struct {
	From, To Phase
	Reason   string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid transition %s -> %s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

// Machine tracks the phase of one supervisor and the per-cycle escalation
// flag. It is not safe for concurrent use; the supervisor guards it.
type Machine struct {
	phase     Phase
	escalated bool
	cycle     uint64
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase { return m.phase }

// Cycle returns the number of start cycles begun so far.
func (m *Machine) Cycle() uint64 { return m.cycle }

// Escalated reports whether the current cycle already used its elevation retry.
func (m *Machine) Escalated() bool { return m.escalated }

// CanEscalate reports whether RetryPending is reachable from the current phase.
func (m *Machine) CanEscalate() bool {
	return m.phase == PhaseRunningDirect && !m.escalated
}

// Transition moves the machine to phase to.
func (m *Machine) Transition(to Phase) error {
	if !allowed(m.phase, to) {
		return &TransitionError{From: m.phase, To: to}
	}
	if to == PhaseRetryPending && m.escalated {
		return &TransitionError{From: m.phase, To: to, Reason: "cycle already escalated"}
	}

	switch to {
	case PhaseStarting:
		m.cycle++
		m.escalated = false
	case PhaseStartingElevated:
		m.escalated = true
	}
	m.phase = to
	return nil
}

func allowed(from, to Phase) bool {
	for _, p := range edges[from] {
		if p == to {
			return true
		}
	}
	return false
}
