package supervisor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sourcegraph/conc"

	"github.com/Iron-Ham/tun2proxyctl/internal/event"
	"github.com/Iron-Ham/tun2proxyctl/internal/logbook"
	"github.com/Iron-Ham/tun2proxyctl/internal/logging"
	"github.com/Iron-Ham/tun2proxyctl/internal/privilege"
	"github.com/Iron-Ham/tun2proxyctl/internal/supervisor/state"
)

// Defaults for Options fields left zero.
const (
	DefaultPermissionSignature = "Operation not permitted"
	DefaultDNSMode             = "virtual"
	DefaultShutdownTimeout     = 3 * time.Second
	DefaultDrainTimeout        = 2 * time.Second
	DefaultVerifyDelay         = 2 * time.Second
	DefaultStderrTailBytes     = 64 * 1024
)

// Killer terminates processes by executable name.
type Killer interface {
	// Kill runs killall directly and never prompts.
	Kill(ctx context.Context, name string) (privilege.KillOutcome, error)
	// KillElevated runs killall through the privilege prompt.
	KillElevated(ctx context.Context, name string) (privilege.KillOutcome, error)
}

// DaemonChecker reports whether a process with the given name exists.
type DaemonChecker interface {
	Running(ctx context.Context, name string) (bool, error)
}

// Options configures a Supervisor.
type Options struct {
	Logger *logging.Logger

	// Elevator runs privileged commands. Defaults to privilege.New("auto").
	Elevator privilege.Elevator
	// Killer defaults to a privilege.Killer using Elevator.
	Killer Killer
	// Checker defaults to pgrep.
	Checker DaemonChecker
	// Registerer receives the supervisor metrics. Defaults to a private
	// registry so several supervisors can coexist.
	Registerer prometheus.Registerer

	// DNSMode is passed as --dns. Defaults to "virtual".
	DNSMode string
	// PermissionSignature is the stderr text that triggers elevation.
	PermissionSignature string

	// VerifyDaemon enables the pgrep check after an elevated start.
	VerifyDaemon bool
	VerifyDelay  time.Duration

	// ShutdownTimeout bounds how long StopSync waits after SIGTERM before
	// sending SIGKILL.
	ShutdownTimeout time.Duration
	// DrainTimeout bounds how long output readers may run after the
	// process exits. Descendants that inherited the pipes can keep them
	// open; the read ends are closed once this expires.
	DrainTimeout time.Duration
	// StderrTailBytes is the size of the rolling stderr buffer.
	StderrTailBytes int
}

func (o *Options) setDefaults() {
	if o.DNSMode == "" {
		o.DNSMode = DefaultDNSMode
	}
	if o.PermissionSignature == "" {
		o.PermissionSignature = DefaultPermissionSignature
	}
	if o.VerifyDelay <= 0 {
		o.VerifyDelay = DefaultVerifyDelay
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = DefaultShutdownTimeout
	}
	if o.DrainTimeout <= 0 {
		o.DrainTimeout = DefaultDrainTimeout
	}
	if o.StderrTailBytes <= 0 {
		o.StderrTailBytes = DefaultStderrTailBytes
	}
}

// Supervisor owns the lifecycle of one tun2proxy process.
type Supervisor struct {
	opts     Options
	logger   *logging.Logger
	elevator privilege.Elevator
	killer   Killer
	checker  DaemonChecker
	metrics  *metrics
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	bg     conc.WaitGroup
	events *event.Queue
	book   *logbook.Book

	mu       sync.Mutex
	machine  state.Machine
	runState state.RunState
	proc     *process
	// binaryPath is the executable of the current or last run; the elevated
	// daemon is stopped by its base name.
	binaryPath string
	// elevation is set while a privilege prompt for a start is outstanding.
	elevation *elevation
	// pendingStop is set while a background elevated kill is outstanding.
	pendingStop *stopOp
	// quitting is set by StopSync; no prompt may be started afterwards.
	quitting bool
	closed   bool
}

// New creates a Supervisor.
func New(opts Options) (*Supervisor, error) {
	opts.setDefaults()
	logger := opts.Logger.WithComponent("supervisor")

	elevator := opts.Elevator
	if elevator == nil {
		e, err := privilege.New(privilege.MethodAuto, opts.Logger)
		if err != nil {
			return nil, err
		}
		elevator = e
	}
	killer := opts.Killer
	if killer == nil {
		killer = privilege.NewKiller(elevator, opts.Logger)
	}
	checker := opts.Checker
	if checker == nil {
		checker = privilege.ProcessChecker{}
	}
	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Supervisor{
		opts:     opts,
		logger:   logger,
		elevator: elevator,
		killer:   killer,
		checker:  checker,
		metrics:  newMetrics(reg),
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		events:   event.NewQueue(),
		book:     logbook.NewBook(),
	}, nil
}

// Events returns the ordered stream of LogEvent, LogsClearedEvent and
// StateEvent values. There must be a single consumer.
func (s *Supervisor) Events() <-chan event.Event {
	return s.events.C()
}

// RunState returns the current run state.
func (s *Supervisor) RunState() state.RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runState
}

// Status is a consistent snapshot of the supervisor.
type Status struct {
	RunState state.RunState
	Phase    state.Phase
	Binary   string
	PID      int
	Cycle    uint64
}

// Status returns the current status.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		RunState: s.runState,
		Phase:    s.machine.Phase(),
		Binary:   s.binaryPath,
		Cycle:    s.machine.Cycle(),
	}
	if s.proc != nil && s.proc.cmd.Process != nil {
		st.PID = s.proc.cmd.Process.Pid
	}
	return st
}

// Logs returns a copy of the log sequence.
func (s *Supervisor) Logs() []logbook.Record {
	return s.book.Snapshot()
}

// FormatLogs renders the whole log, one record per line.
func (s *Supervisor) FormatLogs() string {
	return logbook.Format(s.book.Snapshot())
}

// ClearLogs empties the log sequence.
func (s *Supervisor) ClearLogs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.book.Clear()
	s.events.Publish(event.NewLogsClearedEvent())
}

// Note appends an info record. Collaborators such as binary detection use it
// to report progress through the same log.
func (s *Supervisor) Note(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(logbook.OriginInfo, text)
}

// Close ends any run the way StopSync does, cancels outstanding prompts and
// background work, and closes the event stream.
func (s *Supervisor) Close() {
	s.StopSync()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.bg.Wait()
	s.events.Close()
}

// appendLocked converts text into records, stores them and publishes one
// LogEvent per record. Caller must hold s.mu.
func (s *Supervisor) appendLocked(origin logbook.Origin, text string) {
	records := logbook.NewRecords(origin, strings.ToValidUTF8(text, "\uFFFD"), s.now())
	if len(records) == 0 {
		return
	}
	s.book.Append(records...)
	for _, r := range records {
		s.events.Publish(event.NewLogEvent(r))
	}
	s.metrics.record(origin, len(records))
}

// setRunStateLocked publishes a StateEvent when the state changes.
// Caller must hold s.mu.
func (s *Supervisor) setRunStateLocked(to state.RunState) {
	from := s.runState
	if from == to {
		return
	}
	s.runState = to
	s.metrics.state(to)
	s.events.Publish(event.NewStateEvent(from, to))
	s.logger.Info("run state changed", "from", from.String(), "to", to.String())
}

// transitionLocked moves the phase machine. An illegal edge is a bug in the
// caller; it is logged and ignored.
func (s *Supervisor) transitionLocked(to state.Phase) bool {
	if err := s.machine.Transition(to); err != nil {
		s.logger.Error("illegal phase transition", "error", err)
		return false
	}
	s.logger.Debug("phase changed", "phase", to.String(), "cycle", s.machine.Cycle())
	return true
}
