package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/tun2proxyctl/internal/event"
	"github.com/Iron-Ham/tun2proxyctl/internal/supervisor/state"
	"github.com/Iron-Ham/tun2proxyctl/internal/tui"
)

// settleInterval is how often the foreground run checks whether the
// supervisor has settled back to stopped.
const settleInterval = 250 * time.Millisecond

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run tun2proxy in the foreground",
	Long: `Run tun2proxy in the foreground and print its output.

If tun2proxy exits reporting "Operation not permitted", it is retried once
with administrator privileges as a daemon. Ctrl+C stops a direct run before
exiting. A daemon started with administrator privileges is only sent an
unprivileged kill and may keep running; end it with 'tun2proxyctl stop'.`,
	RunE: runForeground,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the terminal UI",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(tuiCmd)
}

func runForeground(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	r, err := newRuntime()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	path, err := r.binaryPath(ctx, lineReporter(out))
	if err != nil {
		r.Close()
		return err
	}
	proxyURL, err := r.proxyURL()
	if err != nil {
		r.Close()
		return err
	}

	events := r.sup.Events()
	if err := r.sup.Start(path, proxyURL); err != nil {
		r.Close()
		drainEvents(out, events)
		return err
	}

	superviseUntilDone(ctx, r, out, events)
	last := r.sup.RunState()

	// Close stops tun2proxy synchronously and ends the event stream
	r.Close()
	drainEvents(out, events)
	fmt.Fprintf(out, "tun2proxy %s\n", r.sup.RunState())
	printStopHint(out, last)
	return nil
}

// printStopHint warns that an elevated daemon may have outlived the
// unprivileged kill issued on exit.
func printStopHint(out io.Writer, last state.RunState) {
	if last != state.RunningElevated {
		return
	}
	fmt.Fprintln(out, "The tun2proxy daemon ran with administrator privileges and may still be running.")
	fmt.Fprintln(out, "Run 'tun2proxyctl stop' to end it.")
}

// superviseUntilDone prints events until ctx is cancelled or the supervisor
// settles back to stopped.
func superviseUntilDone(ctx context.Context, r *runtime, out io.Writer, events <-chan event.Event) {
	ticker := time.NewTicker(settleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			printEvent(out, ev)
		case <-ticker.C:
			if r.sup.Status().Phase == state.PhaseStopped {
				return
			}
		}
	}
}

func printEvent(out io.Writer, ev event.Event) {
	if e, ok := ev.(event.LogEvent); ok {
		fmt.Fprintln(out, e.Record.String())
	}
}

// drainEvents prints whatever is left on a closed or closing stream.
func drainEvents(out io.Writer, events <-chan event.Event) {
	for ev := range events {
		printEvent(out, ev)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	r, err := newRuntime()
	if err != nil {
		return err
	}
	defer r.Close()

	proxyURL, err := r.proxyURL()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	app := tui.New(tui.Options{
		Supervisor:     r.sup,
		Binary:         r.finder,
		Elevator:       r.elevator,
		Logger:         r.logger,
		BinaryPath:     r.cfg.Binary.Path,
		ProxyURL:       proxyURL,
		MaxLogLines:    r.cfg.TUI.MaxLogLines,
		ShowTimestamps: r.cfg.TUI.ShowTimestamps,
		AutoStart:      r.cfg.TUI.AutoStart,
		AutoDetect:     r.cfg.Binary.AutoDetect,
	}, configFileUsed())
	return app.Run()
}
