package privilege

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Iron-Ham/tun2proxyctl/internal/errors"
	"github.com/Iron-Ham/tun2proxyctl/internal/logging"
)

// KillOutcome describes what a kill-by-name request found.
type KillOutcome int

const (
	// KillTerminated means at least one matching process was signalled.
	KillTerminated KillOutcome = iota
	// KillNotRunning means no process matched; the target is already stopped.
	KillNotRunning
)

// String returns a human-readable string for the outcome.
func (o KillOutcome) String() string {
	switch o {
	case KillTerminated:
		return "terminated"
	case KillNotRunning:
		return "not-running"
	default:
		return "unknown"
	}
}

// IsNoMatch reports whether killall output means no process had the name.
// macOS prints "No matching processes belonging to you were found"; psmisc
// prints "<name>: no process found".
func IsNoMatch(output string) bool {
	lower := strings.ToLower(output)
	return strings.Contains(lower, "no matching processes") ||
		strings.Contains(lower, "no process found")
}

// ProcessName returns the name killall and pgrep match for an executable path.
func ProcessName(path string) string {
	return filepath.Base(path)
}

// Killer terminates processes by executable name with killall -9.
type Killer struct {
	elevator Elevator
	logger   *logging.Logger
	killall  string
}

// NewKiller creates a Killer. The elevator is used only by KillElevated and
// may be nil when elevated kills are never needed.
func NewKiller(elevator Elevator, logger *logging.Logger) *Killer {
	return &Killer{
		elevator: elevator,
		logger:   logger.WithComponent("killer"),
		killall:  "killall",
	}
}

// Kill runs killall -9 name directly, without any privilege prompt.
func (k *Killer) Kill(ctx context.Context, name string) (KillOutcome, error) {
	res := run(ctx, k.killall, "-9", name)
	if res.err == nil {
		k.logger.Info("killed by name", "name", name)
		return KillTerminated, nil
	}
	out := res.stderr + res.stdout
	if IsNoMatch(out) {
		return KillNotRunning, nil
	}
	msg := strings.TrimSpace(out)
	if msg == "" {
		msg = res.err.Error()
	}
	k.logger.Warn("kill by name failed", "name", name, "error", msg)
	return KillTerminated, errors.NewSupervisorError(
		fmt.Sprintf("killall -9 %s: %s", name, msg), errors.ErrStopFailed).WithPhase("stopping")
}

// KillElevated runs killall -9 'name' through the elevator.
func (k *Killer) KillElevated(ctx context.Context, name string) (KillOutcome, error) {
	if k.elevator == nil {
		return KillTerminated, errors.NewElevationError("no elevation method configured")
	}
	_, err := k.elevator.Run(ctx, "killall -9 "+ShellQuote(name))
	if err == nil {
		k.logger.Info("killed by name (elevated)", "name", name)
		return KillTerminated, nil
	}
	var ee *errors.ElevationError
	if errors.As(err, &ee) && IsNoMatch(ee.Message+" "+ee.Output) {
		return KillNotRunning, nil
	}
	k.logger.Warn("elevated kill failed", "name", name, "error", err)
	return KillTerminated, err
}

// Running reports whether a process with exactly this name exists, using
// pgrep -x. Exit status 1 means no match; anything else is an error.
func Running(ctx context.Context, name string) (bool, error) {
	res := run(ctx, "pgrep", "-x", name)
	if res.err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(res.err, &exitErr) && res.exitCode == 1 {
		return false, nil
	}
	msg := strings.TrimSpace(res.stderr)
	if msg == "" {
		msg = res.err.Error()
	}
	return false, fmt.Errorf("pgrep -x %s: %s", name, msg)
}

// ProcessChecker adapts Running to an interface value.
type ProcessChecker struct{}

// Running reports whether a process named name exists.
func (ProcessChecker) Running(ctx context.Context, name string) (bool, error) {
	return Running(ctx, name)
}
