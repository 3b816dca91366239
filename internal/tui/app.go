package tui

import (
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/tun2proxyctl/internal/config"
	"github.com/Iron-Ham/tun2proxyctl/internal/event"
	"github.com/Iron-Ham/tun2proxyctl/internal/logging"
)

// App wraps the Bubbletea program
type App struct {
	program    *tea.Program
	model      Model
	sup        Controller
	configPath string
	logger     *logging.Logger
}

// New creates a new TUI application. When configPath is non-empty the file
// is watched and changes are applied to the next start.
func New(opts Options, configPath string) *App {
	return &App{
		model:      NewModel(opts),
		sup:        opts.Supervisor,
		configPath: configPath,
		logger:     opts.Logger.WithComponent("tui"),
	}
}

// Run starts the TUI and blocks until it exits. The supervisor is closed on
// the way out, which stops tun2proxy synchronously.
func (a *App) Run() error {
	defer a.sup.Close()

	a.program = tea.NewProgram(
		a.model,
		tea.WithAltScreen(),
	)

	// Terminating signals go through the normal quit path so the tunnel is
	// torn down before exit
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		<-sigChan
		if a.program != nil {
			a.program.Send(tea.Quit())
		}
	}()

	if a.configPath != "" {
		path := a.configPath
		w, err := config.NewWatcher(path, func(cfg *config.Config) {
			a.program.Send(ConfigReloadedMsg{
				Event:  event.NewConfigReloadedEvent(path),
				Config: cfg,
			})
		}, a.logger)
		if err != nil {
			a.logger.Warn("config watch disabled", "path", path, "error", err)
		} else {
			defer w.Stop()
		}
	}

	_, err := a.program.Run()

	// Clean up signal handler
	signal.Stop(sigChan)

	return err
}
