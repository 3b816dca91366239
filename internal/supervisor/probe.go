package supervisor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/Iron-Ham/tun2proxyctl/internal/errors"
	"github.com/Iron-Ham/tun2proxyctl/internal/logbook"
)

// Test runs `path --help` to completion and logs its output and exit code.
func (s *Supervisor) Test(ctx context.Context, path string) error {
	_, err := s.RunOneShot(ctx, path, []string{"--help"}, "Testing binary")
	return err
}

// Version runs `path --version` to completion and logs the result.
func (s *Supervisor) Version(ctx context.Context, path string) error {
	_, err := s.RunOneShot(ctx, path, []string{"--version"}, "Checking version")
	return err
}

// RunOneShot runs path with args to completion, independent of the
// supervised run. Output lines and the exit code are logged; a process that
// could not be started is logged as "One-shot failed". It blocks only the
// caller.
func (s *Supervisor) RunOneShot(ctx context.Context, path string, args []string, title string) (int, error) {
	s.Note(title + "…")

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		s.mu.Lock()
		s.appendLocked(logbook.OriginStderr, "One-shot failed: "+err.Error())
		s.mu.Unlock()
		return -1, errors.NewSupervisorError("one-shot failed", errors.Join(errors.ErrLaunchFailed, err)).WithBinary(path)
	}

	code := cmd.ProcessState.ExitCode()
	s.mu.Lock()
	s.appendLocked(logbook.OriginStdout, stdout.String())
	s.appendLocked(logbook.OriginStderr, stderr.String())
	s.appendLocked(logbook.OriginInfo, fmt.Sprintf("Exit code: %d", code))
	s.mu.Unlock()
	return code, nil
}
