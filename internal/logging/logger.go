package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Log levels supported by the logger
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// FileName is the name of the diagnostic log inside the state directory.
const FileName = "tun2proxyctl.log"

// Logger writes JSON diagnostics through slog. Child loggers created with
// With, WithComponent or WithBinary share the parent's output. A nil *Logger
// discards everything.
type Logger struct {
	logger *slog.Logger
	closer *onceCloser
}

// onceCloser lets every child logger call Close while the file is closed
// only once.
type onceCloser struct {
	once sync.Once
	c    io.Closer
	err  error
}

func (o *onceCloser) Close() error {
	o.once.Do(func() { o.err = o.c.Close() })
	return o.err
}

// NewLogger creates a Logger that writes JSON lines to {dir}/tun2proxyctl.log
// without rotation. If dir is empty, logs go to stderr.
func NewLogger(dir string, level string) (*Logger, error) {
	return NewLoggerWithRotation(dir, level, RotationConfig{})
}

// NewLoggerWithRotation creates a Logger whose file is rotated according to
// cfg. A zero MaxSizeMB disables rotation.
func NewLoggerWithRotation(dir string, level string, cfg RotationConfig) (*Logger, error) {
	if dir == "" {
		return NewWithWriter(os.Stderr, level), nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	rw, err := NewRotatingWriter(filepath.Join(dir, FileName), cfg)
	if err != nil {
		return nil, err
	}

	l := NewWithWriter(rw, level)
	l.closer = &onceCloser{c: rw}
	return l, nil
}

// NewWithWriter creates a Logger writing JSON lines to w.
func NewWithWriter(w io.Writer, level string) *Logger {
	opts := &slog.HandlerOptions{Level: slogLevel(ParseLevel(level))}
	return &Logger{logger: slog.New(slog.NewJSONHandler(w, opts))}
}

// NopLogger returns a Logger that discards all log output.
func NopLogger() *Logger {
	return NewWithWriter(io.Discard, LevelError)
}

func slogLevel(level string) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel normalizes a level name; unknown names mean LevelInfo.
func ParseLevel(level string) string {
	switch l := strings.ToUpper(strings.TrimSpace(level)); l {
	case LevelDebug, LevelWarn, LevelError:
		return l
	default:
		return LevelInfo
	}
}

// ValidLevels returns the list of valid log level strings.
func ValidLevels() []string {
	return []string{LevelDebug, LevelInfo, LevelWarn, LevelError}
}

// WithComponent tags the child with the component name ("supervisor",
// "privilege", "binary", ...).
func (l *Logger) WithComponent(component string) *Logger {
	return l.With("component", component)
}

// WithBinary tags the child with the tun2proxy executable path.
func (l *Logger) WithBinary(path string) *Logger {
	return l.With("binary", path)
}

// With returns a child carrying the given key-value pairs. Pairs whose key
// is not a string are dropped.
func (l *Logger) With(args ...any) *Logger {
	if l == nil || len(args) == 0 {
		return l
	}
	attrs := make([]any, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			attrs = append(attrs, slog.Any(key, args[i+1]))
		}
	}
	return &Logger{logger: l.logger.With(attrs...), closer: l.closer}
}

func (l *Logger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args) }
func (l *Logger) Info(msg string, args ...any) { l.log(slog.LevelInfo, msg, args) }
func (l *Logger) Warn(msg string, args ...any) { l.log(slog.LevelWarn, msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args) }

func (l *Logger) log(level slog.Level, msg string, args []any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Log(context.Background(), level, msg, args...)
}

// Close closes the log file, if any. Safe to call from any child and more
// than once.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
