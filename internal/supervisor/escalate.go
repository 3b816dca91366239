package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/Iron-Ham/tun2proxyctl/internal/errors"
	"github.com/Iron-Ham/tun2proxyctl/internal/logbook"
	"github.com/Iron-Ham/tun2proxyctl/internal/privilege"
	"github.com/Iron-Ham/tun2proxyctl/internal/supervisor/state"
)

// ElevationAttempt is the context of one elevated retry: the command being
// escalated and the stderr of the failed unprivileged run.
type ElevationAttempt struct {
	Path   string
	Args   []string
	Stderr string
}

// Command renders the attempt as a single quoted shell command line.
func (a ElevationAttempt) Command() string {
	return privilege.ShellCommand(a.Path, a.Args...)
}

// elevation tracks an outstanding privilege prompt for a start.
type elevation struct {
	attempt       ElevationAttempt
	cancel        context.CancelFunc
	done          chan struct{}
	stopRequested bool
}

// elevateLocked enters StartingElevated and runs the prompt in the
// background. Caller must hold s.mu with the machine in RetryPending.
func (s *Supervisor) elevateLocked(attempt ElevationAttempt) {
	if !s.transitionLocked(state.PhaseStartingElevated) {
		s.transitionLocked(state.PhaseStopped)
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	el := &elevation{attempt: attempt, cancel: cancel, done: make(chan struct{})}
	s.elevation = el
	s.appendLocked(logbook.OriginInfo, "Requesting administrator privileges via "+s.elevator.Name()+"...")
	s.logger.Info("elevating", "path", attempt.Path, "method", s.elevator.Name())

	s.bg.Go(func() {
		defer close(el.done)
		defer cancel()
		_, err := s.elevator.Run(ctx, attempt.Command())
		s.finishElevation(el, err)
	})
}

// finishElevation settles the phase after the prompt returns.
func (s *Supervisor) finishElevation(el *elevation, err error) {
	s.mu.Lock()
	if s.settleElevationLocked(el, err) {
		s.killDirectAndUnlock()
		return
	}
	s.mu.Unlock()
}

// settleElevationLocked applies the prompt result. It reports true when the
// daemon must be killed without privileges because shutdown asked for a stop
// while the prompt was open.
func (s *Supervisor) settleElevationLocked(el *elevation, err error) bool {
	if s.elevation != el {
		return false
	}
	s.elevation = nil

	if err != nil {
		result := "failure"
		if errors.IsCancelled(err) {
			result = "cancelled"
		}
		s.metrics.elevations.WithLabelValues(result).Inc()
		s.appendLocked(logbook.OriginStderr, "Elevation failed: "+err.Error())
		s.logger.Warn("elevation failed", "error", err, "cancelled", errors.IsCancelled(err))
		// The failed direct run was already cleaned up; the run state is
		// stopped and stays there.
		s.transitionLocked(state.PhaseStopped)
		return false
	}

	s.metrics.elevations.WithLabelValues("success").Inc()
	s.metrics.starts.WithLabelValues("elevated").Inc()
	s.appendLocked(logbook.OriginInfo, "Elevation succeeded. Daemonized process should be running.")
	s.transitionLocked(state.PhaseRunningElevated)
	s.setRunStateLocked(state.RunningElevated)

	if el.stopRequested {
		s.appendLocked(logbook.OriginInfo, "Stop was requested while elevating; stopping daemon.")
		s.transitionLocked(state.PhaseStopping)
		if s.quitting {
			// Shutdown may not prompt.
			return true
		}
		s.killElevatedLocked()
		return false
	}

	if s.opts.VerifyDaemon {
		cycle := s.machine.Cycle()
		name := privilege.ProcessName(el.attempt.Path)
		s.bg.Go(func() { s.verifyDaemon(cycle, name) })
	}
	return false
}

// verifyDaemon checks, after VerifyDelay, that the daemon actually exists.
// A missing daemon settles the run state at stopped; a failing check is
// only logged.
func (s *Supervisor) verifyDaemon(cycle uint64, name string) {
	select {
	case <-time.After(s.opts.VerifyDelay):
	case <-s.ctx.Done():
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.opts.ShutdownTimeout)
	running, err := s.checker.Running(ctx, name)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.machine.Cycle() != cycle || s.machine.Phase() != state.PhaseRunningElevated {
		return
	}
	switch {
	case err != nil:
		s.appendLocked(logbook.OriginInfo, "Could not verify daemon: "+err.Error())
	case running:
		s.appendLocked(logbook.OriginInfo, fmt.Sprintf("Daemon %s is running.", name))
	default:
		s.appendLocked(logbook.OriginStderr, fmt.Sprintf("Daemon %s is not running after elevation.", name))
		s.logger.Warn("daemon missing after elevation", "name", name)
		s.cleanupLocked()
		s.transitionLocked(state.PhaseStopped)
	}
}
