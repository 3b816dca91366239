// Package supervisor launches, monitors, privilege-elevates and stops the
// tun2proxy executable.
//
// A [Supervisor] owns at most one child process. It has three parts:
//
//   - Launcher: Start spawns the binary with piped stdout/stderr, turns
//     every complete output line into a log record, and keeps a rolling
//     tail of stderr.
//   - Elevation escalator: when a direct run exits non-zero with
//     "Operation not permitted" on stderr, the same start is issued once
//     more through the OS privilege prompt with --daemonize appended. The
//     daemon is then tracked without a process handle.
//   - Lifecycle tracker: Stop and StopSync end the run whatever its kind,
//     and cleanup is the only place the run state returns to stopped.
//
// All mutations of the process handle, phase, run state and log happen
// under one mutex, and the matching events are queued while it is held, so
// the order of [Supervisor.Events] always matches the order of the changes.
//
// # Basic Usage
//
//	sup, err := supervisor.New(supervisor.Options{Logger: logger})
//	if err != nil {
//	    return err
//	}
//	defer sup.Close()
//
//	go func() {
//	    for e := range sup.Events() {
//	        // render log lines and state changes
//	    }
//	}()
//
//	_ = sup.Start("/usr/local/bin/tun2proxy-bin", "socks5://127.0.0.1:1080")
//	...
//	sup.StopSync() // on quit: never prompts
package supervisor
