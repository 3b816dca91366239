package supervisor

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iron-Ham/tun2proxyctl/internal/errors"
	"github.com/Iron-Ham/tun2proxyctl/internal/event"
	"github.com/Iron-Ham/tun2proxyctl/internal/logbook"
	"github.com/Iron-Ham/tun2proxyctl/internal/logging"
	"github.com/Iron-Ham/tun2proxyctl/internal/privilege"
	"github.com/Iron-Ham/tun2proxyctl/internal/supervisor/state"
)

const (
	testProxy   = "socks5://127.0.0.1:1080"
	waitTimeout = 5 * time.Second
	waitTick    = 10 * time.Millisecond
)

// fakeElevator records commands; run decides the result.
type fakeElevator struct {
	mu       sync.Mutex
	commands []string
	run      func(ctx context.Context, command string) error
}

func (f *fakeElevator) Name() string { return "fake" }

func (f *fakeElevator) Run(ctx context.Context, command string) (string, error) {
	f.mu.Lock()
	f.commands = append(f.commands, command)
	run := f.run
	f.mu.Unlock()
	if run == nil {
		return "", nil
	}
	return "", run(ctx, command)
}

func (f *fakeElevator) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

type killResult struct {
	outcome privilege.KillOutcome
	err     error
}

// fakeKiller records kill requests by mode.
type fakeKiller struct {
	mu       sync.Mutex
	direct   []string
	elevated []string
	directR  killResult
	elevR    killResult
}

func (f *fakeKiller) Kill(_ context.Context, name string) (privilege.KillOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.direct = append(f.direct, name)
	return f.directR.outcome, f.directR.err
}

func (f *fakeKiller) KillElevated(_ context.Context, name string) (privilege.KillOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.elevated = append(f.elevated, name)
	return f.elevR.outcome, f.elevR.err
}

func (f *fakeKiller) counts() (direct, elevated int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.direct), len(f.elevated)
}

type fakeChecker struct {
	running bool
	err     error
}

func (f fakeChecker) Running(context.Context, string) (bool, error) {
	return f.running, f.err
}

// recorder drains the event stream into a slice.
type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func record(s *Supervisor) *recorder {
	r := &recorder{}
	go func() {
		for e := range s.Events() {
			r.mu.Lock()
			r.events = append(r.events, e)
			r.mu.Unlock()
		}
	}()
	return r
}

func (r *recorder) states() []state.RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []state.RunState
	for _, e := range r.events {
		if se, ok := e.(event.StateEvent); ok {
			out = append(out, se.To)
		}
	}
	return out
}

func (r *recorder) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if le, ok := e.(event.LogEvent); ok {
			out = append(out, le.Record.Text)
		}
	}
	return out
}

type harness struct {
	sup      *Supervisor
	elevator *fakeElevator
	killer   *fakeKiller
	events   *recorder
}

func newHarness(t *testing.T, tweak func(*Options)) *harness {
	t.Helper()
	h := &harness{elevator: &fakeElevator{}, killer: &fakeKiller{}}
	opts := Options{
		Elevator:        h.elevator,
		Killer:          h.killer,
		Checker:         fakeChecker{running: true},
		ShutdownTimeout: 500 * time.Millisecond,
		DrainTimeout:    500 * time.Millisecond,
	}
	if tweak != nil {
		tweak(&opts)
	}
	sup, err := New(opts)
	require.NoError(t, err)
	h.sup = sup
	h.events = record(sup)
	t.Cleanup(sup.Close)
	return h
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tun2proxy-bin")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func texts(records []logbook.Record, origin logbook.Origin) []string {
	var out []string
	for _, r := range records {
		if r.Origin == origin {
			out = append(out, r.Text)
		}
	}
	return out
}

func countText(records []logbook.Record, substr string) int {
	n := 0
	for _, r := range records {
		if strings.Contains(r.Text, substr) {
			n++
		}
	}
	return n
}

func (h *harness) waitPhase(t *testing.T, p state.Phase) {
	t.Helper()
	require.Eventually(t, func() bool { return h.sup.Status().Phase == p }, waitTimeout, waitTick,
		"phase never reached %s (now %s)", p, h.sup.Status().Phase)
}

func (h *harness) waitLog(t *testing.T, substr string) {
	t.Helper()
	require.Eventually(t, func() bool { return countText(h.sup.Logs(), substr) > 0 }, waitTimeout, waitTick,
		"log never contained %q:\n%s", substr, h.sup.FormatLogs())
}

// escalateToDaemon drives a run into RunningElevated through the permission
// retry path.
func (h *harness) escalateToDaemon(t *testing.T) string {
	t.Helper()
	path := writeScript(t, `echo "tun2proxy: ioctl: Operation not permitted" >&2; exit 1`)
	require.NoError(t, h.sup.Start(path, testProxy))
	h.waitPhase(t, state.PhaseRunningElevated)
	return path
}

func TestStartMissingBinary(t *testing.T) {
	h := newHarness(t, nil)

	err := h.sup.Start("/nonexistent/tun2proxy", testProxy)
	assert.ErrorIs(t, err, errors.ErrBinaryNotFound)

	logs := h.sup.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, "Error: binary not found at /nonexistent/tun2proxy", logs[0].Text)
	assert.Equal(t, logbook.OriginStderr, logs[0].Origin)
	assert.Equal(t, state.Stopped, h.sup.RunState())
	assert.Equal(t, state.PhaseStopped, h.sup.Status().Phase)
	assert.Empty(t, h.events.states())
}

func TestStartNotExecutable(t *testing.T) {
	h := newHarness(t, nil)
	path := filepath.Join(t.TempDir(), "tun2proxy")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o644))

	err := h.sup.Start(path, testProxy)
	assert.ErrorIs(t, err, errors.ErrLaunchFailed)
	assert.Equal(t, 1, countText(h.sup.Logs(), "Failed to start process: "))
	assert.Equal(t, state.Stopped, h.sup.RunState())
	assert.Empty(t, h.elevator.Commands())
	assert.Empty(t, h.events.states())
}

func TestStartStreamsOutputAndCleansUp(t *testing.T) {
	h := newHarness(t, nil)
	path := writeScript(t, `printf 'line1\nline2\n\n'
echo warn >&2
printf 'tail without newline'`)

	require.NoError(t, h.sup.Start(path, testProxy))
	h.waitLog(t, "Process exited with code 0")
	h.waitPhase(t, state.PhaseStopped)

	logs := h.sup.Logs()
	assert.Equal(t, "Started: "+path+" --proxy "+testProxy+" --dns virtual --setup", logs[0].Text)
	assert.Equal(t, []string{"line1", "line2", "tail without newline"}, texts(logs, logbook.OriginStdout))
	assert.Equal(t, []string{"warn"}, texts(logs, logbook.OriginStderr))
	assert.Equal(t, "Process exited with code 0", logs[len(logs)-1].Text)

	assert.Equal(t, state.Stopped, h.sup.RunState())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.sup.metrics.cleanups))
	assert.Empty(t, h.elevator.Commands())

	require.Eventually(t, func() bool { return len(h.events.states()) == 2 }, waitTimeout, waitTick)
	assert.Equal(t, []state.RunState{state.RunningDirect, state.Stopped}, h.events.states())
}

func TestEventsFollowLogOrder(t *testing.T) {
	h := newHarness(t, nil)
	path := writeScript(t, `i=1; while [ $i -le 50 ]; do echo "out $i"; i=$((i+1)); done`)

	require.NoError(t, h.sup.Start(path, testProxy))
	h.waitPhase(t, state.PhaseStopped)

	want := make([]string, 0)
	for _, r := range h.sup.Logs() {
		want = append(want, r.Text)
	}
	require.Eventually(t, func() bool { return len(h.events.texts()) == len(want) }, waitTimeout, waitTick)
	assert.Equal(t, want, h.events.texts())
}

func TestStartWhileRunningIsNoop(t *testing.T) {
	h := newHarness(t, nil)
	path := writeScript(t, `exec sleep 30`)

	require.NoError(t, h.sup.Start(path, testProxy))
	require.NoError(t, h.sup.Start(path, testProxy))
	require.NoError(t, h.sup.Start(path, testProxy))

	assert.Equal(t, 1, countText(h.sup.Logs(), "Started: "))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.sup.metrics.starts.WithLabelValues("direct")))
	assert.Equal(t, state.RunningDirect, h.sup.RunState())
	assert.NotZero(t, h.sup.Status().PID)
}

func TestStopDirectSendsOneTerminate(t *testing.T) {
	h := newHarness(t, nil)
	path := writeScript(t, `exec sleep 30`)
	require.NoError(t, h.sup.Start(path, testProxy))

	h.sup.Stop()
	h.sup.Stop()
	h.waitPhase(t, state.PhaseStopped)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.sup.metrics.terminateSigs))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.sup.metrics.cleanups))
	assert.Equal(t, state.Stopped, h.sup.RunState())
	assert.Equal(t, 1, countText(h.sup.Logs(), "Stopping…"))
	assert.Equal(t, 1, countText(h.sup.Logs(), "Process terminated by SIGTERM"))
	assert.Empty(t, h.elevator.Commands(), "a terminated run must not escalate")

	direct, elevated := h.killer.counts()
	assert.Zero(t, direct)
	assert.Zero(t, elevated)
}

func TestStopImmediatelyAfterStart(t *testing.T) {
	h := newHarness(t, nil)
	path := writeScript(t, `exec sleep 30`)

	require.NoError(t, h.sup.Start(path, testProxy))
	h.sup.Stop()
	h.waitPhase(t, state.PhaseStopped)
	assert.Equal(t, state.Stopped, h.sup.RunState())
}

func TestStopWhenStoppedIsNoop(t *testing.T) {
	h := newHarness(t, nil)

	h.sup.Stop()
	h.sup.StopSync()

	assert.Empty(t, h.sup.Logs())
	direct, elevated := h.killer.counts()
	assert.Zero(t, direct)
	assert.Zero(t, elevated)
	assert.Zero(t, testutil.ToFloat64(h.sup.metrics.terminateSigs))
}

func TestPermissionDeniedEscalatesOnce(t *testing.T) {
	h := newHarness(t, nil)
	path := h.escalateToDaemon(t)

	cmds := h.elevator.Commands()
	require.Len(t, cmds, 1)
	assert.Equal(t,
		privilege.ShellCommand(path, "--proxy", testProxy, "--dns", "virtual", "--setup", "--daemonize"),
		cmds[0])

	logs := h.sup.Logs()
	assert.Equal(t, 1, countText(logs, "Detected 'Operation not permitted'. Retrying with administrator privileges..."))
	assert.Equal(t, 1, countText(logs, "Elevation succeeded"))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.sup.metrics.cleanups))
	assert.Equal(t, state.RunningElevated, h.sup.RunState())
	assert.Zero(t, h.sup.Status().PID)

	require.Eventually(t, func() bool { return len(h.events.states()) == 3 }, waitTimeout, waitTick)
	assert.Equal(t, []state.RunState{state.RunningDirect, state.Stopped, state.RunningElevated}, h.events.states())
}

// lockedBuffer is a bytes.Buffer safe for the supervisor's goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestCustomPermissionSignatureEscalates(t *testing.T) {
	var diag lockedBuffer
	h := newHarness(t, func(o *Options) {
		o.PermissionSignature = "EPERM: tun device"
		o.Logger = logging.NewWithWriter(&diag, logging.LevelDebug)
	})
	path := writeScript(t, `echo "open: EPERM: tun device" >&2; exit 1`)
	require.NoError(t, h.sup.Start(path, testProxy))
	h.waitPhase(t, state.PhaseRunningElevated)

	logs := h.sup.Logs()
	assert.Equal(t, 1, countText(logs, "Detected 'EPERM: tun device'. Retrying with administrator privileges..."))
	assert.Zero(t, countText(logs, "Operation not permitted"))

	out := diag.String()
	assert.Contains(t, out, `"msg":"escalating"`)
	assert.Contains(t, out, "operation not permitted")
	assert.Contains(t, out, `"severity":"warning"`)
	assert.Contains(t, out, path)
}

func TestCustomSignatureIgnoresDefaultText(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.PermissionSignature = "EPERM: tun device" })
	path := writeScript(t, `echo "tun2proxy: ioctl: Operation not permitted" >&2; exit 1`)
	require.NoError(t, h.sup.Start(path, testProxy))
	h.waitPhase(t, state.PhaseStopped)
	assert.Empty(t, h.elevator.Commands())
}

func TestPermissionTextWithZeroExitDoesNotEscalate(t *testing.T) {
	h := newHarness(t, nil)
	path := writeScript(t, `echo "Operation not permitted" >&2; exit 0`)

	require.NoError(t, h.sup.Start(path, testProxy))
	h.waitLog(t, "Process exited with code 0")
	h.waitPhase(t, state.PhaseStopped)
	assert.Empty(t, h.elevator.Commands())
}

func TestOtherFailureDoesNotEscalate(t *testing.T) {
	h := newHarness(t, nil)
	path := writeScript(t, `echo "bad proxy url" >&2; exit 2`)

	require.NoError(t, h.sup.Start(path, testProxy))
	h.waitLog(t, "Process exited with code 2")
	h.waitPhase(t, state.PhaseStopped)
	assert.Empty(t, h.elevator.Commands())
	assert.Equal(t, state.Stopped, h.sup.RunState())
}

func TestElevationFailureSettlesStopped(t *testing.T) {
	h := newHarness(t, nil)
	h.elevator.run = func(context.Context, string) error {
		return errors.NewElevationError("User canceled.").WithCancelled(true)
	}
	path := writeScript(t, `echo "Operation not permitted" >&2; exit 1`)

	require.NoError(t, h.sup.Start(path, testProxy))
	h.waitLog(t, "Elevation failed: User canceled.")
	h.waitPhase(t, state.PhaseStopped)

	assert.Equal(t, state.Stopped, h.sup.RunState())
	assert.Len(t, h.elevator.Commands(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.sup.metrics.elevations.WithLabelValues("cancelled")))

	// A fresh start cycle gets its own single retry.
	require.NoError(t, h.sup.Start(path, testProxy))
	require.Eventually(t, func() bool { return len(h.elevator.Commands()) == 2 }, waitTimeout, waitTick)
	h.waitPhase(t, state.PhaseStopped)
	assert.Equal(t, uint64(2), h.sup.Status().Cycle)
}

func TestStopElevatedNoMatchingProcessesIsSuccess(t *testing.T) {
	h := newHarness(t, nil)
	h.killer.elevR = killResult{outcome: privilege.KillNotRunning}
	h.escalateToDaemon(t)

	h.sup.Stop()
	h.waitPhase(t, state.PhaseStopped)

	logs := h.sup.Logs()
	assert.Equal(t, 1, countText(logs, "Requesting administrator privileges to stop daemon (tun2proxy-bin)..."))
	assert.Equal(t, 1, countText(logs, "Daemon was already stopped."))
	assert.Zero(t, countText(logs, "might have failed"))
	assert.Equal(t, state.Stopped, h.sup.RunState())

	direct, elevated := h.killer.counts()
	assert.Zero(t, direct)
	assert.Equal(t, 1, elevated)
	assert.Equal(t, []string{"tun2proxy-bin"}, h.killer.elevated)
}

func TestStopElevatedFailureStillCleansUp(t *testing.T) {
	h := newHarness(t, nil)
	h.killer.elevR = killResult{err: errors.NewElevationError("User canceled.").WithCancelled(true)}
	h.escalateToDaemon(t)

	h.sup.Stop()
	h.waitPhase(t, state.PhaseStopped)
	assert.Equal(t, 1, countText(h.sup.Logs(), "Stop command finished (might have failed: User canceled.)"))
	assert.Equal(t, state.Stopped, h.sup.RunState())
}

func TestStopSyncDaemonUsesDirectKill(t *testing.T) {
	h := newHarness(t, nil)
	h.escalateToDaemon(t)

	h.sup.StopSync()

	// Synchronous: settled on return.
	assert.Equal(t, state.Stopped, h.sup.RunState())
	assert.Equal(t, state.PhaseStopped, h.sup.Status().Phase)
	direct, elevated := h.killer.counts()
	assert.Equal(t, 1, direct)
	assert.Zero(t, elevated)
	assert.Len(t, h.elevator.Commands(), 1, "shutdown must not prompt")
	assert.Equal(t, 1, countText(h.sup.Logs(), "Daemon terminated."))
}

func TestStopSyncDirectKillFailureStillCleansUp(t *testing.T) {
	h := newHarness(t, nil)
	h.killer.directR = killResult{err: errors.New("killall: Operation not permitted")}
	h.escalateToDaemon(t)

	h.sup.StopSync()
	assert.Equal(t, state.Stopped, h.sup.RunState())
	assert.Equal(t, 1, countText(h.sup.Logs(), "Stop failed: killall: Operation not permitted"))
}

func TestStopSyncTakesOverPendingElevatedKill(t *testing.T) {
	h := newHarness(t, nil)
	h.escalateToDaemon(t)

	block := make(chan struct{})
	slow := &blockingKiller{fakeKiller: h.killer, release: block}
	h.sup.killer = slow

	h.sup.Stop()
	require.Eventually(t, func() bool { return slow.started() }, waitTimeout, waitTick)

	h.sup.StopSync()
	close(block)

	assert.Equal(t, state.Stopped, h.sup.RunState())
	direct, _ := h.killer.counts()
	assert.Equal(t, 1, direct)
}

// blockingKiller holds KillElevated until release is closed or ctx ends.
type blockingKiller struct {
	*fakeKiller
	release chan struct{}
	mu      sync.Mutex
	begun   bool
}

func (b *blockingKiller) KillElevated(ctx context.Context, name string) (privilege.KillOutcome, error) {
	b.mu.Lock()
	b.begun = true
	b.mu.Unlock()
	select {
	case <-b.release:
	case <-ctx.Done():
		return privilege.KillTerminated, ctx.Err()
	}
	return b.fakeKiller.KillElevated(ctx, name)
}

func (b *blockingKiller) started() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.begun
}

func TestStopSyncDirectWaitsForExit(t *testing.T) {
	h := newHarness(t, nil)
	path := writeScript(t, `exec sleep 30`)
	require.NoError(t, h.sup.Start(path, testProxy))

	h.sup.StopSync()
	assert.Equal(t, state.Stopped, h.sup.RunState())
	assert.Equal(t, state.PhaseStopped, h.sup.Status().Phase)
}

func TestStopSyncKillsProcessIgnoringTerm(t *testing.T) {
	h := newHarness(t, func(o *Options) { o.ShutdownTimeout = 200 * time.Millisecond })
	path := writeScript(t, `trap '' TERM
echo ready
while :; do sleep 0.05; done`)
	require.NoError(t, h.sup.Start(path, testProxy))
	h.waitLog(t, "ready")

	start := time.Now()
	h.sup.StopSync()
	assert.Equal(t, state.Stopped, h.sup.RunState())
	assert.Less(t, time.Since(start), 3*time.Second)
	assert.Equal(t, 1, countText(h.sup.Logs(), "Process terminated by SIGKILL"))
}

func TestStopDuringElevationCancelsPrompt(t *testing.T) {
	h := newHarness(t, nil)
	h.elevator.run = func(ctx context.Context, _ string) error {
		<-ctx.Done()
		return errors.NewElevationError("elevation request cancelled").WithCancelled(true)
	}
	path := writeScript(t, `echo "Operation not permitted" >&2; exit 1`)

	require.NoError(t, h.sup.Start(path, testProxy))
	h.waitPhase(t, state.PhaseStartingElevated)

	h.sup.Stop()
	h.waitPhase(t, state.PhaseStopped)
	assert.Equal(t, 1, countText(h.sup.Logs(), "Elevation failed: elevation request cancelled"))
	assert.Equal(t, state.Stopped, h.sup.RunState())

	direct, elevated := h.killer.counts()
	assert.Zero(t, direct)
	assert.Zero(t, elevated)
}

func TestStopDuringElevationKillsIfPromptSucceeds(t *testing.T) {
	h := newHarness(t, nil)
	release := make(chan struct{})
	h.elevator.run = func(context.Context, string) error {
		<-release // ignores cancellation, like a prompt that already ran
		return nil
	}
	path := writeScript(t, `echo "Operation not permitted" >&2; exit 1`)

	require.NoError(t, h.sup.Start(path, testProxy))
	h.waitPhase(t, state.PhaseStartingElevated)
	h.sup.Stop()
	close(release)

	h.waitPhase(t, state.PhaseStopped)
	_, elevated := h.killer.counts()
	assert.Equal(t, 1, elevated)
	assert.Equal(t, state.Stopped, h.sup.RunState())
}

func TestVerifyDaemonMissing(t *testing.T) {
	h := newHarness(t, func(o *Options) {
		o.VerifyDaemon = true
		o.VerifyDelay = 10 * time.Millisecond
		o.Checker = fakeChecker{running: false}
	})
	path := writeScript(t, `echo "Operation not permitted" >&2; exit 1`)
	require.NoError(t, h.sup.Start(path, testProxy))

	h.waitLog(t, "Daemon tun2proxy-bin is not running after elevation.")
	h.waitPhase(t, state.PhaseStopped)
	assert.Equal(t, state.Stopped, h.sup.RunState())
	assert.Equal(t, 2.0, testutil.ToFloat64(h.sup.metrics.cleanups))
}

func TestVerifyDaemonCheckErrorKeepsState(t *testing.T) {
	h := newHarness(t, func(o *Options) {
		o.VerifyDaemon = true
		o.VerifyDelay = 10 * time.Millisecond
		o.Checker = fakeChecker{err: errors.New("pgrep: not found")}
	})
	h.escalateToDaemon(t)

	h.waitLog(t, "Could not verify daemon: pgrep: not found")
	assert.Equal(t, state.RunningElevated, h.sup.RunState())
}

func TestClearLogs(t *testing.T) {
	h := newHarness(t, nil)
	h.sup.Note("hello\nworld")
	require.Len(t, h.sup.Logs(), 2)

	h.sup.ClearLogs()
	assert.Empty(t, h.sup.Logs())
	require.Eventually(t, func() bool {
		h.events.mu.Lock()
		defer h.events.mu.Unlock()
		n := len(h.events.events)
		if n == 0 {
			return false
		}
		_, ok := h.events.events[n-1].(event.LogsClearedEvent)
		return ok
	}, waitTimeout, waitTick)
}

func TestCloseIsIdempotent(t *testing.T) {
	h := newHarness(t, nil)
	path := writeScript(t, `exec sleep 30`)
	require.NoError(t, h.sup.Start(path, testProxy))

	h.sup.Close()
	h.sup.Close()
	assert.Equal(t, state.Stopped, h.sup.RunState())
	assert.ErrorIs(t, h.sup.Start(path, testProxy), errors.ErrLaunchFailed)
}
