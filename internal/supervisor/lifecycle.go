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

// stopOp identifies one background elevated kill.
type stopOp struct {
	cancel context.CancelFunc
}

// handleExit is the single dispatch point for a direct run's exit: either
// plain cleanup, or cleanup followed by the one elevated retry.
func (s *Supervisor) handleExit(p *process, waitErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.proc != p {
		return
	}

	code, text := exitDescription(p.cmd.ProcessState, waitErr)
	s.appendLocked(logbook.OriginInfo, text)
	s.logger.Info("process exited", "path", p.path, "code", code)

	escalate := code != 0 &&
		p.permissionDenied() &&
		!p.stopRequested() &&
		!s.quitting &&
		!s.closed &&
		s.machine.Phase() == state.PhaseRunningDirect &&
		s.machine.CanEscalate()

	if !escalate {
		outcome := "clean"
		if code != 0 {
			outcome = "failed"
		}
		s.metrics.exits.WithLabelValues(outcome).Inc()
		s.cleanupLocked()
		s.transitionLocked(state.PhaseStopped)
		return
	}

	s.metrics.exits.WithLabelValues("permission_denied").Inc()
	denied := errors.NewSupervisorError("direct run lacked privileges", errors.ErrPermissionDenied).
		WithBinary(p.path).
		WithPhase(s.machine.Phase().String()).
		WithSeverity(errors.SeverityWarning)
	s.logger.Warn("escalating", "error", denied, "severity", errors.GetSeverity(denied).String())
	s.appendLocked(logbook.OriginInfo, fmt.Sprintf("Detected '%s'. Retrying with administrator privileges...", s.opts.PermissionSignature))
	attempt := ElevationAttempt{
		Path:   p.path,
		Args:   append(append([]string(nil), p.args...), "--daemonize"),
		Stderr: p.stderrTail.String(),
	}
	s.cleanupLocked()
	if !s.transitionLocked(state.PhaseRetryPending) {
		s.transitionLocked(state.PhaseStopped)
		return
	}
	s.elevateLocked(attempt)
}

// cleanupLocked releases the process handle and clears the run state. The
// output readers have already finished when it runs. It is the only place
// the run state becomes stopped. Caller must hold s.mu.
func (s *Supervisor) cleanupLocked() {
	s.proc = nil
	s.pendingStop = nil
	s.setRunStateLocked(state.Stopped)
	s.metrics.cleanups.Inc()
}

// Stop ends the current run without blocking.
//
//   - direct run: SIGTERM once; the exit triggers cleanup.
//   - elevated daemon: elevated killall in the background, then cleanup.
//   - elevation prompt outstanding: the prompt is cancelled.
//   - stopped, or a stop already in progress: nothing happens.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.machine.Phase() {
	case state.PhaseRunningDirect:
		s.appendLocked(logbook.OriginInfo, "Stopping…")
		s.transitionLocked(state.PhaseStopping)
		s.terminateLocked(s.proc)

	case state.PhaseStartingElevated:
		s.appendLocked(logbook.OriginInfo, "Stopping…")
		s.elevation.stopRequested = true
		s.elevation.cancel()

	case state.PhaseRunningElevated:
		s.appendLocked(logbook.OriginInfo, "Stopping…")
		s.transitionLocked(state.PhaseStopping)
		s.killElevatedLocked()

	default:
		s.logger.Debug("stop ignored", "phase", s.machine.Phase().String())
	}
}

func (s *Supervisor) terminateLocked(p *process) {
	if p == nil {
		return
	}
	sent, err := p.terminate()
	if sent {
		s.metrics.terminateSigs.Inc()
	}
	if err != nil {
		s.appendLocked(logbook.OriginStderr, "Failed to terminate process: "+err.Error())
	}
}

// killElevatedLocked starts the elevated kill-by-name of the daemon.
func (s *Supervisor) killElevatedLocked() {
	name := privilege.ProcessName(s.binaryPath)
	ctx, cancel := context.WithCancel(s.ctx)
	op := &stopOp{cancel: cancel}
	s.pendingStop = op
	s.appendLocked(logbook.OriginInfo, fmt.Sprintf("Requesting administrator privileges to stop daemon (%s)...", name))

	s.bg.Go(func() {
		defer cancel()
		outcome, err := s.killer.KillElevated(ctx, name)
		s.metrics.kill("elevated", outcome, err)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.pendingStop != op {
			return
		}
		s.reportKillLocked(outcome, err)
		s.cleanupLocked()
		s.transitionLocked(state.PhaseStopped)
	})
}

// reportKillLocked logs the outcome of a kill-by-name. "No matching
// processes" arrives here as KillNotRunning and counts as success.
func (s *Supervisor) reportKillLocked(outcome privilege.KillOutcome, err error) {
	switch {
	case err != nil:
		s.appendLocked(logbook.OriginStderr, fmt.Sprintf("Stop command finished (might have failed: %v)", err))
		s.logger.Warn("stop failed", "error", errors.Join(errors.ErrStopFailed, err))
	case outcome == privilege.KillNotRunning:
		s.appendLocked(logbook.OriginInfo, "Daemon was already stopped.")
	default:
		s.appendLocked(logbook.OriginInfo, "Daemon terminated.")
	}
}

// StopSync ends the current run for application shutdown. It blocks until
// the run has settled and never shows a privilege prompt: a daemon without a
// handle is killed with a direct, unprivileged killall whose failure is
// logged and otherwise ignored.
func (s *Supervisor) StopSync() {
	s.mu.Lock()
	s.quitting = true

	switch s.machine.Phase() {
	case state.PhaseRunningDirect, state.PhaseStopping:
		if p := s.proc; p != nil {
			if s.machine.Phase() == state.PhaseRunningDirect {
				s.appendLocked(logbook.OriginInfo, "Stopping…")
				s.transitionLocked(state.PhaseStopping)
			}
			s.terminateLocked(p)
			s.mu.Unlock()
			s.awaitExit(p)
			return
		}
		// Stopping without a handle: an elevated kill is outstanding.
		// Take it over with a direct kill.
		s.killDirectAndUnlock()
		return

	case state.PhaseRunningElevated:
		s.appendLocked(logbook.OriginInfo, "Stopping…")
		s.transitionLocked(state.PhaseStopping)
		s.killDirectAndUnlock()
		return

	case state.PhaseStartingElevated:
		el := s.elevation
		el.stopRequested = true
		el.cancel()
		s.mu.Unlock()
		select {
		case <-el.done:
		case <-time.After(s.opts.ShutdownTimeout):
			s.logger.Warn("elevation did not finish before shutdown")
		}
		return
	}
	s.mu.Unlock()
}

// awaitExit waits for p to exit, escalating to SIGKILL after the shutdown
// timeout.
func (s *Supervisor) awaitExit(p *process) {
	select {
	case <-p.done:
		return
	case <-time.After(s.opts.ShutdownTimeout):
	}
	s.logger.Warn("process ignored SIGTERM; killing", "path", p.path)
	_ = p.cmd.Process.Kill()
	<-p.done
}

// killDirectAndUnlock runs killall -9 synchronously without privileges and
// then cleans up. Called with s.mu held; releases it while killall runs.
func (s *Supervisor) killDirectAndUnlock() {
	name := privilege.ProcessName(s.binaryPath)
	if s.pendingStop != nil {
		s.pendingStop.cancel()
		s.pendingStop = nil
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	outcome, err := s.killer.Kill(ctx, name)
	cancel()
	s.metrics.kill("direct", outcome, err)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		stopErr := errors.NewSupervisorError("kill by name failed", errors.Join(errors.ErrStopFailed, err)).
			WithBinary(s.binaryPath).WithPhase(state.PhaseStopping.String())
		s.appendLocked(logbook.OriginStderr, "Stop failed: "+err.Error())
		s.logger.Warn("direct kill failed", "error", stopErr)
	} else {
		s.reportKillLocked(outcome, nil)
	}
	if s.machine.Phase() == state.PhaseStopping {
		s.cleanupLocked()
		s.transitionLocked(state.PhaseStopped)
	}
}

// StopDaemon kills a daemonized tun2proxy started by another invocation,
// through the privilege prompt. It does not depend on the run state.
func (s *Supervisor) StopDaemon(ctx context.Context, path string) error {
	name := privilege.ProcessName(path)
	s.Note(fmt.Sprintf("Requesting administrator privileges to stop daemon (%s)...", name))

	outcome, err := s.killer.KillElevated(ctx, name)
	s.metrics.kill("elevated", outcome, err)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reportKillLocked(outcome, err)
	if err != nil {
		return errors.NewSupervisorError("stop daemon", errors.Join(errors.ErrStopFailed, err)).WithBinary(path)
	}
	return nil
}
