// Package logging provides structured diagnostic logging for tun2proxyctl.
//
// This is the supervisor's own debug log, written as JSON lines through
// log/slog. It is distinct from the user-visible log stream of LogRecords
// (see package logbook), which carries tun2proxy output and lifecycle
// messages to the TUI.
//
// # Basic Usage
//
//	logger, err := logging.NewLoggerWithRotation(stateDir, "INFO", logging.DefaultRotationConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	sup := logger.WithComponent("supervisor").WithBinary(path)
//	sup.Info("process started", "pid", pid)
//
// # Log Rotation
//
// Rotated files are named tun2proxyctl.log.1, .2, ... where .1 is the most
// recent backup. With Compress set, backups become .N.gz.
//
// # Testing
//
// Use [NopLogger] to discard output, or [NewWithWriter] to capture it.
// Methods on a nil *Logger are no-ops.
package logging
