package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/tun2proxyctl/internal/errors"
	"github.com/Iron-Ham/tun2proxyctl/internal/event"
	"github.com/Iron-Ham/tun2proxyctl/internal/logbook"
	"github.com/Iron-Ham/tun2proxyctl/internal/logging"
	"github.com/Iron-Ham/tun2proxyctl/internal/privilege"
	"github.com/Iron-Ham/tun2proxyctl/internal/supervisor"
	"github.com/Iron-Ham/tun2proxyctl/internal/tui/styles"
)

// Controller is the part of *supervisor.Supervisor the UI drives.
type Controller interface {
	Events() <-chan event.Event
	Status() supervisor.Status
	Start(path, proxyURL string) error
	Stop()
	ClearLogs()
	Note(text string)
	Test(ctx context.Context, path string) error
	Version(ctx context.Context, path string) error
	StopDaemon(ctx context.Context, path string) error
	Close()
}

// BinaryTool locates and authorizes the tun2proxy executable.
type BinaryTool interface {
	Detect(ctx context.Context, report func(string)) (string, bool)
	CheckAuthorization(path string) bool
	Authorize(ctx context.Context, elevator privilege.Elevator, path string) error
}

// Options configures the UI model.
type Options struct {
	Supervisor Controller
	Binary     BinaryTool
	Elevator   privilege.Elevator
	Logger     *logging.Logger

	BinaryPath     string
	ProxyURL       string
	MaxLogLines    int
	ShowTimestamps bool
	AutoStart      bool
	// AutoDetect runs binary detection at startup when BinaryPath is empty.
	AutoDetect bool
}

// Model is the bubbletea model for the supervisor UI.
type Model struct {
	sup      Controller
	bin      BinaryTool
	elevator privilege.Elevator
	logger   *logging.Logger
	keys     keyMap

	ctx    context.Context
	cancel context.CancelFunc

	binaryPath string
	proxyURL   string
	autoStart  bool
	autoDetect bool
	authKnown  bool
	authorized bool

	lines          []string
	maxLines       int
	showTimestamps bool

	viewport viewport.Model
	ready    bool
	width    int
	height   int

	status   supervisor.Status
	busy     string
	flash    string
	flashSev errors.Severity
	showHelp bool
	quitting bool
}

// NewModel creates the UI model.
func NewModel(opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())
	maxLines := opts.MaxLogLines
	if maxLines <= 0 {
		maxLines = 5000
	}
	m := Model{
		sup:            opts.Supervisor,
		bin:            opts.Binary,
		elevator:       opts.Elevator,
		logger:         opts.Logger.WithComponent("tui"),
		keys:           defaultKeys(),
		ctx:            ctx,
		cancel:         cancel,
		binaryPath:     opts.BinaryPath,
		proxyURL:       opts.ProxyURL,
		autoStart:      opts.AutoStart,
		autoDetect:     opts.AutoDetect,
		maxLines:       maxLines,
		showTimestamps: opts.ShowTimestamps,
	}
	if m.sup != nil {
		m.status = m.sup.Status()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForEvent(m.sup.Events()), tick()}
	switch {
	case m.binaryPath != "":
		cmds = append(cmds, m.checkAuth(m.binaryPath))
		if m.autoStart {
			cmds = append(cmds, func() tea.Msg { return autoStartMsg{} })
		}
	case m.autoDetect && m.bin != nil:
		cmds = append(cmds, m.detect())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case eventMsg:
		m.applyEvent(msg.ev)
		return m, waitForEvent(m.sup.Events())

	case eventsClosedMsg:
		return m, nil

	case tickMsg:
		if m.quitting {
			return m, nil
		}
		m.status = m.sup.Status()
		return m, tick()

	case autoStartMsg:
		m.start()
		return m, nil

	case detectDoneMsg:
		m.busy = ""
		if !msg.ok {
			return m, nil
		}
		m.binaryPath = msg.path
		cmds := []tea.Cmd{m.checkAuth(msg.path)}
		if m.autoStart && !m.status.Phase.Busy() {
			cmds = append(cmds, func() tea.Msg { return autoStartMsg{} })
			m.autoStart = false
		}
		return m, tea.Batch(cmds...)

	case authCheckedMsg:
		if msg.path == m.binaryPath {
			m.authKnown = true
			m.authorized = msg.authorized
		}
		return m, nil

	case opDoneMsg:
		m.busy = ""
		if msg.err != nil {
			m.reportError(msg.op, msg.err)
		}
		if msg.op == opAuthorize && m.binaryPath != "" {
			return m, m.checkAuth(m.binaryPath)
		}
		return m, nil

	case ConfigReloadedMsg:
		return m.applyConfig(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

const (
	opTest       = "Test"
	opVersion    = "Version"
	opDetect     = "Detect"
	opAuthorize  = "Authorize"
	opKillDaemon = "Stop daemon"
)

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.flash = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.Start):
		m.start()
		return m, nil

	case key.Matches(msg, m.keys.Stop):
		m.sup.Stop()
		m.status = m.sup.Status()
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.sup.ClearLogs()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil

	case key.Matches(msg, m.keys.Detect):
		if m.bin == nil {
			return m, nil
		}
		if m.busy != "" {
			m.setFlash(m.busy+" is still running", errors.SeverityWarning)
			return m, nil
		}
		return m, m.detect()

	case key.Matches(msg, m.keys.Test):
		return m.runWithBinary(opTest, m.sup.Test)

	case key.Matches(msg, m.keys.Version):
		return m.runWithBinary(opVersion, m.sup.Version)

	case key.Matches(msg, m.keys.KillDaemon):
		return m.runWithBinary(opKillDaemon, m.sup.StopDaemon)

	case key.Matches(msg, m.keys.Authorize):
		if m.bin == nil || m.elevator == nil {
			return m, nil
		}
		bin, elevator, sup := m.bin, m.elevator, m.sup
		return m.runWithBinary(opAuthorize, func(ctx context.Context, path string) error {
			sup.Note("Authorizing " + path + " (chown root, chmod u+s)...")
			if err := bin.Authorize(ctx, elevator, path); err != nil {
				sup.Note("Authorization failed: " + err.Error())
				return err
			}
			sup.Note("Binary authorized.")
			return nil
		})
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) start() {
	if m.binaryPath == "" {
		m.sup.Note("No tun2proxy binary set. Press d to auto-detect or set binary.path.")
		return
	}
	if err := m.sup.Start(m.binaryPath, m.proxyURL); err != nil {
		m.reportError("Start", err)
	}
	m.status = m.sup.Status()
}

func (m *Model) setFlash(text string, sev errors.Severity) {
	m.flash = text
	m.flashSev = sev
}

// reportError words the flash line for a failed operation. Messages that are
// not meant for users go to the log and the flash line only points there.
func (m *Model) reportError(op string, err error) {
	switch {
	case errors.IsCancelled(err):
		m.setFlash(op+" cancelled", errors.SeverityWarning)
	case !errors.IsUserFacing(err):
		m.sup.Note(fmt.Sprintf("%s failed: %v", op, err))
		m.setFlash(op+" failed; details in the log", errors.GetSeverity(err))
	case errors.IsRetryable(err):
		m.setFlash(fmt.Sprintf("%s: %v (press again to retry)", op, err), errors.GetSeverity(err))
	default:
		m.setFlash(fmt.Sprintf("%s: %v", op, err), errors.GetSeverity(err))
	}
}

// runWithBinary runs fn in the background with the current binary path. Only
// one such operation runs at a time.
func (m Model) runWithBinary(op string, fn func(ctx context.Context, path string) error) (tea.Model, tea.Cmd) {
	if m.binaryPath == "" {
		m.sup.Note("No tun2proxy binary set. Press d to auto-detect or set binary.path.")
		return m, nil
	}
	if m.busy != "" {
		m.setFlash(m.busy+" is still running", errors.SeverityWarning)
		return m, nil
	}
	m.busy = op
	ctx, path := m.ctx, m.binaryPath
	return m, func() tea.Msg {
		return opDoneMsg{op: op, err: fn(ctx, path)}
	}
}

func (m *Model) detect() tea.Cmd {
	m.busy = opDetect
	ctx, bin, sup := m.ctx, m.bin, m.sup
	return func() tea.Msg {
		path, ok := bin.Detect(ctx, sup.Note)
		return detectDoneMsg{path: path, ok: ok}
	}
}

func (m Model) checkAuth(path string) tea.Cmd {
	bin := m.bin
	if bin == nil {
		return nil
	}
	return func() tea.Msg {
		return authCheckedMsg{path: path, authorized: bin.CheckAuthorization(path)}
	}
}

func (m *Model) applyEvent(ev event.Event) {
	switch e := ev.(type) {
	case event.LogEvent:
		m.appendLine(m.formatRecord(e.Record))
	case event.LogsClearedEvent:
		m.lines = nil
		m.refreshContent(true)
	case event.StateEvent:
		m.status = m.sup.Status()
	}
}

func (m *Model) appendLine(line string) {
	follow := !m.ready || m.viewport.AtBottom()
	m.lines = append(m.lines, line)
	if over := len(m.lines) - m.maxLines; over > 0 {
		m.lines = append([]string(nil), m.lines[over:]...)
	}
	m.refreshContent(follow)
}

func (m *Model) refreshContent(follow bool) {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	if follow {
		m.viewport.GotoBottom()
	}
}

func (m Model) formatRecord(r logbook.Record) string {
	var sb strings.Builder
	if m.showTimestamps {
		sb.WriteString(styles.Muted.Render(r.Timestamp.Format("15:04:05")))
		sb.WriteString(" ")
	}
	switch r.Origin {
	case logbook.OriginStdout:
		sb.WriteString(styles.StdoutTag.Render("out"))
	case logbook.OriginStderr:
		sb.WriteString(styles.StderrTag.Render("err"))
	default:
		sb.WriteString(styles.InfoTag.Render("···"))
	}
	sb.WriteString(" ")
	sb.WriteString(r.Text)
	return sb.String()
}

func (m Model) applyConfig(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	cfg := msg.Config
	if cfg == nil {
		return m, nil
	}
	if proxyURL, err := cfg.Proxy.BuildURL(); err == nil {
		m.proxyURL = proxyURL
	}
	if cfg.TUI.MaxLogLines > 0 {
		m.maxLines = cfg.TUI.MaxLogLines
	}
	m.showTimestamps = cfg.TUI.ShowTimestamps
	m.sup.Note("Configuration reloaded from " + msg.Event.Path + ". Changes apply to the next start.")

	var cmd tea.Cmd
	if cfg.Binary.Path != "" && cfg.Binary.Path != m.binaryPath {
		m.binaryPath = cfg.Binary.Path
		m.authKnown = false
		cmd = m.checkAuth(m.binaryPath)
	}
	return m, cmd
}

// Quitting reports whether the user asked to quit.
func (m Model) Quitting() bool {
	return m.quitting
}

// BinaryPath returns the executable the UI starts.
func (m Model) BinaryPath() string {
	return m.binaryPath
}

// Lines returns the rendered log lines currently held.
func (m Model) Lines() []string {
	return m.lines
}
