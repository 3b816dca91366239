package supervisor

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"
	"golang.org/x/sys/unix"

	"github.com/Iron-Ham/tun2proxyctl/internal/capture"
	"github.com/Iron-Ham/tun2proxyctl/internal/errors"
	"github.com/Iron-Ham/tun2proxyctl/internal/logbook"
	"github.com/Iron-Ham/tun2proxyctl/internal/supervisor/state"
)

// process is the handle of a directly supervised child.
type process struct {
	cmd  *exec.Cmd
	path string
	args []string

	stdout *os.File
	stderr *os.File

	readers    conc.WaitGroup
	stderrTail *capture.RingBuffer
	done       chan struct{}

	mu        sync.Mutex
	denied    bool
	signalled bool
}

func (p *process) markDenied() {
	p.mu.Lock()
	p.denied = true
	p.mu.Unlock()
}

func (p *process) permissionDenied() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.denied
}

// terminate sends SIGTERM at most once. It reports whether a signal was sent.
func (p *process) terminate() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.signalled {
		return false, nil
	}
	p.signalled = true
	err := p.cmd.Process.Signal(unix.SIGTERM)
	if errors.Is(err, os.ErrProcessDone) {
		return false, nil
	}
	return err == nil, err
}

func (p *process) stopRequested() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signalled
}

// Args returns the argument vector for a run: --proxy <url> --dns <mode>
// --setup, with --daemonize appended for elevated runs.
func (s *Supervisor) Args(proxyURL string, daemonize bool) []string {
	args := []string{"--proxy", proxyURL, "--dns", s.opts.DNSMode, "--setup"}
	if daemonize {
		args = append(args, "--daemonize")
	}
	return args
}

// Start launches path with proxyURL. It returns once the process is spawned
// and never waits for it. Calling Start while a run or an elevation is in
// progress does nothing.
//
// Failures are reported as log records; the returned error carries the same
// information for callers that want it.
func (s *Supervisor) Start(path, proxyURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.NewSupervisorError("supervisor closed", errors.ErrLaunchFailed)
	}
	if s.proc != nil || s.machine.Phase().Busy() {
		s.logger.Debug("start ignored", "phase", s.machine.Phase().String())
		return nil
	}

	if fi, err := os.Stat(path); err != nil || fi.IsDir() {
		s.appendLocked(logbook.OriginStderr, "Error: binary not found at "+path)
		s.metrics.launchFailures.WithLabelValues("not_found").Inc()
		return errors.NewSupervisorError("binary not found", errors.ErrBinaryNotFound).WithBinary(path)
	}

	s.transitionLocked(state.PhaseStarting)
	s.binaryPath = path
	s.quitting = false
	args := s.Args(proxyURL, false)

	p, err := s.spawn(path, args)
	if err != nil {
		s.transitionLocked(state.PhaseStopped)
		s.appendLocked(logbook.OriginStderr, "Failed to start process: "+err.Error())
		s.metrics.launchFailures.WithLabelValues("spawn").Inc()
		s.logger.Warn("spawn failed", "path", path, "error", err)
		return errors.NewSupervisorError("failed to start process", errors.Join(errors.ErrLaunchFailed, err)).
			WithBinary(path).WithPhase(state.PhaseStarting.String())
	}

	s.proc = p
	s.transitionLocked(state.PhaseRunningDirect)
	s.setRunStateLocked(state.RunningDirect)
	s.appendLocked(logbook.OriginInfo, "Started: "+path+" "+strings.Join(args, " "))
	s.metrics.starts.WithLabelValues("direct").Inc()
	s.logger.Info("process started", "path", path, "pid", p.cmd.Process.Pid)

	s.startReaders(p)
	s.bg.Go(func() { s.wait(p) })
	return nil
}

// spawn starts the child with both streams on fresh pipes. The parent's
// copies of the write ends are closed so EOF arrives when the child exits.
func (s *Supervisor) spawn(path string, args []string) (*process, error) {
	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		outR.Close()
		outW.Close()
		return nil, err
	}

	cmd := exec.Command(path, args...)
	cmd.Stdout = outW
	cmd.Stderr = errW
	// Own process group so a terminal ^C reaches the supervisor only;
	// shutdown is then driven through Stop/StopSync.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	startErr := cmd.Start()
	outW.Close()
	errW.Close()
	if startErr != nil {
		outR.Close()
		errR.Close()
		return nil, startErr
	}

	return &process{
		cmd:        cmd,
		path:       path,
		args:       args,
		stdout:     outR,
		stderr:     errR,
		stderrTail: capture.NewRingBuffer(s.opts.StderrTailBytes),
		done:       make(chan struct{}),
	}, nil
}

func (s *Supervisor) startReaders(p *process) {
	p.readers.Go(func() {
		err := capture.Pump(p.stdout, func(text string) {
			s.appendOutput(logbook.OriginStdout, text)
		})
		if err != nil {
			s.logger.Warn("stdout read failed", "error", err)
		}
	})
	p.readers.Go(func() {
		err := capture.Pump(p.stderr, func(text string) {
			_, _ = p.stderrTail.WriteString(text)
			if strings.Contains(text, s.opts.PermissionSignature) {
				p.markDenied()
			}
			s.appendOutput(logbook.OriginStderr, text)
		})
		if err != nil {
			s.logger.Warn("stderr read failed", "error", err)
		}
	})
}

func (s *Supervisor) appendOutput(origin logbook.Origin, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(origin, text)
}

// wait observes the exit, lets the readers finish, and dispatches.
func (s *Supervisor) wait(p *process) {
	defer close(p.done)

	waitErr := p.cmd.Wait()
	s.drain(p)
	s.handleExit(p, waitErr)
}

// drain waits for both readers. If they outlive DrainTimeout the read ends
// are closed, which ends them.
func (s *Supervisor) drain(p *process) {
	finished := make(chan struct{})
	go func() {
		p.readers.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(s.opts.DrainTimeout):
		s.logger.Warn("output still open after exit; closing pipes", "path", p.path)
		p.stdout.Close()
		p.stderr.Close()
		<-finished
	}
	p.stdout.Close()
	p.stderr.Close()
}

// exitDescription renders the exit status for the log.
func exitDescription(ps *os.ProcessState, waitErr error) (code int, text string) {
	if ps == nil {
		return -1, fmt.Sprintf("Process exited with error: %v", waitErr)
	}
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		name := unix.SignalName(ws.Signal())
		if name == "" {
			name = fmt.Sprintf("signal %d", int(ws.Signal()))
		}
		return -1, "Process terminated by " + name
	}
	code = ps.ExitCode()
	return code, fmt.Sprintf("Process exited with code %d", code)
}
