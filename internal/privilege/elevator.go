package privilege

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/Iron-Ham/tun2proxyctl/internal/errors"
	"github.com/Iron-Ham/tun2proxyctl/internal/logging"
)

// Method names accepted by New.
const (
	MethodAuto      = "auto"
	MethodOsascript = "osascript"
	MethodPkexec    = "pkexec"
	MethodSudo      = "sudo"
	MethodDirect    = "direct"
)

// ValidMethods returns the accepted elevation method names.
func ValidMethods() []string {
	return []string{MethodAuto, MethodOsascript, MethodPkexec, MethodSudo, MethodDirect}
}

// Elevator runs a shell command line with administrator rights and returns
// its standard output. Errors are *errors.ElevationError.
type Elevator interface {
	Name() string
	Run(ctx context.Context, command string) (string, error)
}

// New returns the Elevator for method. MethodAuto picks Direct when already
// root, AppleScript on macOS, and pkexec (falling back to sudo) on Linux.
func New(method string, logger *logging.Logger) (Elevator, error) {
	logger = logger.WithComponent("privilege")

	switch method {
	case MethodOsascript:
		return &AppleScript{logger: logger}, nil
	case MethodPkexec:
		return &Pkexec{logger: logger}, nil
	case MethodSudo:
		return &Sudo{logger: logger}, nil
	case MethodDirect:
		return &Direct{logger: logger}, nil
	case MethodAuto, "":
	default:
		return nil, errors.NewValidationError("unknown elevation method").
			WithField("supervisor.elevation").WithValue(method)
	}

	if unix.Getuid() == 0 {
		return &Direct{logger: logger}, nil
	}
	switch runtime.GOOS {
	case "darwin":
		return &AppleScript{logger: logger}, nil
	case "linux":
		if _, err := exec.LookPath("pkexec"); err == nil {
			return &Pkexec{logger: logger}, nil
		}
		return &Sudo{logger: logger}, nil
	}
	return nil, fmt.Errorf("%w: no elevation method for %s", errors.ErrUnsupportedPlatform, runtime.GOOS)
}

// result is the outcome of one external command.
type result struct {
	stdout   string
	stderr   string
	exitCode int
	err      error
}

func run(ctx context.Context, name string, args ...string) result {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := result{stdout: stdout.String(), stderr: stderr.String(), err: err}
	if cmd.ProcessState != nil {
		res.exitCode = cmd.ProcessState.ExitCode()
	} else {
		res.exitCode = -1
	}
	return res
}

// failure converts a failed result into an ElevationError.
func failure(ctx context.Context, res result) *errors.ElevationError {
	msg := strings.TrimSpace(res.stderr)
	if msg == "" && res.err != nil {
		msg = res.err.Error()
	}
	e := errors.NewElevationError(msg).WithOutput(res.stdout)
	if ctx.Err() != nil {
		e.Message = "elevation request cancelled"
		e.WithCancelled(true)
	}
	return e
}

// AppleScript elevates through osascript and the macOS authorization dialog.
type AppleScript struct {
	logger *logging.Logger
}

func (a *AppleScript) Name() string { return MethodOsascript }

// Run executes command via `do shell script ... with administrator privileges`.
func (a *AppleScript) Run(ctx context.Context, command string) (string, error) {
	a.logger.Debug("requesting elevation", "method", a.Name())
	res := run(ctx, "/usr/bin/osascript", "-e", AdminScript(command))
	if res.err == nil {
		return res.stdout, nil
	}
	if ctx.Err() != nil {
		return "", failure(ctx, res)
	}
	msg, code := ParseOsascriptError(res.stderr)
	if msg == "" {
		msg = strings.TrimSpace(res.stderr)
	}
	if msg == "" {
		msg = res.err.Error()
	}
	a.logger.Debug("elevation failed", "method", a.Name(), "code", code, "message", msg)
	return "", errors.NewElevationError(msg).
		WithCancelled(code == -128).
		WithOutput(res.stdout)
}

var osascriptErr = regexp.MustCompile(`execution error: (.*?)\s*\((-?\d+)\)\s*$`)

// ParseOsascriptError extracts the message and error number from osascript's
// stderr, e.g. "0:75: execution error: User canceled. (-128)". It returns
// ("", 0) when stderr does not match that shape.
func ParseOsascriptError(stderr string) (string, int) {
	m := osascriptErr.FindStringSubmatch(strings.TrimSpace(stderr))
	if m == nil {
		return "", 0
	}
	var code int
	_, _ = fmt.Sscanf(m[2], "%d", &code)
	return m[1], code
}

// Pkexec elevates through polkit.
type Pkexec struct {
	logger *logging.Logger
}

func (p *Pkexec) Name() string { return MethodPkexec }

// pkexec exits 126 when the dialog is dismissed and 127 when not authorized.
const (
	pkexecDismissed     = 126
	pkexecNotAuthorized = 127
)

// Run executes command via pkexec /bin/sh -c.
func (p *Pkexec) Run(ctx context.Context, command string) (string, error) {
	p.logger.Debug("requesting elevation", "method", p.Name())
	res := run(ctx, "pkexec", "/bin/sh", "-c", command)
	if res.err == nil {
		return res.stdout, nil
	}
	e := failure(ctx, res)
	switch res.exitCode {
	case pkexecDismissed:
		e.Message = "User canceled."
		e.WithCancelled(true)
	case pkexecNotAuthorized:
		if strings.TrimSpace(res.stderr) == "" {
			e.Message = "Not authorized."
		}
	}
	p.logger.Debug("elevation failed", "method", p.Name(), "exit_code", res.exitCode, "message", e.Message)
	return "", e
}

// Sudo elevates with non-interactive sudo. It only succeeds when no password
// is required.
type Sudo struct {
	logger *logging.Logger
}

func (s *Sudo) Name() string { return MethodSudo }

// Run executes command via sudo -n /bin/sh -c.
func (s *Sudo) Run(ctx context.Context, command string) (string, error) {
	s.logger.Debug("requesting elevation", "method", s.Name())
	res := run(ctx, "sudo", "-n", "/bin/sh", "-c", command)
	if res.err == nil {
		return res.stdout, nil
	}
	return "", failure(ctx, res)
}

// Direct runs the command without elevation, for callers that are already
// root, and in tests.
type Direct struct {
	logger *logging.Logger
}

// NewDirect returns a Direct elevator.
func NewDirect(logger *logging.Logger) *Direct {
	return &Direct{logger: logger}
}

func (d *Direct) Name() string { return MethodDirect }

// Run executes command via /bin/sh -c.
func (d *Direct) Run(ctx context.Context, command string) (string, error) {
	d.logger.Debug("running command", "method", d.Name())
	res := run(ctx, "/bin/sh", "-c", command)
	if res.err == nil {
		return res.stdout, nil
	}
	return "", failure(ctx, res)
}
