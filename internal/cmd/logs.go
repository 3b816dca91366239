package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/tun2proxyctl/internal/config"
	"github.com/Iron-Ham/tun2proxyctl/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View the diagnostic log",
	Long: `View and filter the tun2proxyctl diagnostic log.

The log is written as JSON lines to the state directory
($XDG_STATE_HOME/tun2proxyctl or ~/.local/state/tun2proxyctl).

Examples:
  # Show the last 50 lines
  tun2proxyctl logs

  # Show everything
  tun2proxyctl logs -n 0

  # Follow logs in real-time
  tun2proxyctl logs -f

  # Filter by log level
  tun2proxyctl logs --level warn

  # Show logs from the last hour
  tun2proxyctl logs --since 1h

  # Search for specific patterns
  tun2proxyctl logs --grep "elevation|killall"`,
	RunE: runLogs,
}

var (
	logsTail   int
	logsFollow bool
	logsLevel  string
	logsSince  string
	logsGrep   string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of lines to show (0 for all)")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output (like tail -f)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show logs since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Filter logs matching pattern (regex)")
}

// logEntry represents a parsed JSON log line
type logEntry struct {
	Time      time.Time      `json:"time"`
	Level     string         `json:"level"`
	Msg       string         `json:"msg"`
	Component string         `json:"component,omitempty"`
	Binary    string         `json:"binary,omitempty"`
	Extra     map[string]any `json:"-"` // Captures additional fields
}

// UnmarshalJSON implements custom unmarshaling to capture extra fields
func (e *logEntry) UnmarshalJSON(data []byte) error {
	// First, unmarshal known fields using a type alias to avoid recursion
	type Alias logEntry
	aux := &struct {
		*Alias
	}{
		Alias: (*Alias)(e),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	// Then unmarshal all fields to capture extras
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	// Remove known fields, keep the rest as extra
	delete(all, "time")
	delete(all, "level")
	delete(all, "msg")
	delete(all, "component")
	delete(all, "binary")

	if len(all) > 0 {
		e.Extra = all
	}

	return nil
}

// ANSI color codes for terminal output
const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorBlue   = "\033[34m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

// levelColor returns the ANSI color code for a log level
func levelColor(level string) string {
	switch strings.ToUpper(level) {
	case logging.LevelDebug:
		return colorGray
	case logging.LevelInfo:
		return colorBlue
	case logging.LevelWarn:
		return colorYellow
	case logging.LevelError:
		return colorRed
	default:
		return colorReset
	}
}

// levelPriority returns the priority of a log level for filtering
func levelPriority(level string) int {
	switch strings.ToUpper(level) {
	case logging.LevelDebug:
		return 0
	case logging.LevelInfo:
		return 1
	case logging.LevelWarn:
		return 2
	case logging.LevelError:
		return 3
	default:
		return -1
	}
}

// formatLogEntry formats a log entry for terminal output
func formatLogEntry(entry *logEntry) string {
	var sb strings.Builder

	// Timestamp
	sb.WriteString(colorGray)
	sb.WriteString("[")
	sb.WriteString(entry.Time.Format("15:04:05.000"))
	sb.WriteString("]")
	sb.WriteString(colorReset)

	// Level with color
	sb.WriteString(" ")
	sb.WriteString(levelColor(entry.Level))
	sb.WriteString("[")
	sb.WriteString(strings.ToUpper(entry.Level))
	sb.WriteString("]")
	sb.WriteString(colorReset)

	if entry.Component != "" {
		sb.WriteString(" ")
		sb.WriteString(colorCyan)
		sb.WriteString(entry.Component)
		sb.WriteString(":")
		sb.WriteString(colorReset)
	}

	// Message
	sb.WriteString(" ")
	sb.WriteString(entry.Msg)

	if entry.Binary != "" {
		sb.WriteString(" ")
		sb.WriteString(colorCyan)
		sb.WriteString("binary=")
		sb.WriteString(colorReset)
		sb.WriteString(entry.Binary)
	}

	// Extra fields
	for key, value := range entry.Extra {
		sb.WriteString(" ")
		sb.WriteString(colorCyan)
		sb.WriteString(key)
		sb.WriteString("=")
		sb.WriteString(colorReset)
		sb.WriteString(fmt.Sprintf("%v", value))
	}

	return sb.String()
}

// logFilter holds the parsed --level, --since and --grep options.
type logFilter struct {
	minLevel  int
	sinceTime time.Time
	grep      *regexp.Regexp
}

func parseLogFilter(level, since, grep string, now time.Time) (logFilter, error) {
	f := logFilter{minLevel: -1}
	if level != "" {
		f.minLevel = levelPriority(logging.ParseLevel(level))
	}
	if since != "" {
		duration, err := time.ParseDuration(since)
		if err != nil {
			return f, fmt.Errorf("invalid duration format: %w", err)
		}
		f.sinceTime = now.Add(-duration)
	}
	if grep != "" {
		re, err := regexp.Compile(grep)
		if err != nil {
			return f, fmt.Errorf("invalid grep pattern: %w", err)
		}
		f.grep = re
	}
	return f, nil
}

func runLogs(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	logPath := filepath.Join(config.StateDir(), logging.FileName)

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		fmt.Fprintln(out, "No diagnostic log found.")
		fmt.Fprintln(out, "Logs are stored at:", logPath)
		return nil
	}

	filter, err := parseLogFilter(logsLevel, logsSince, logsGrep, time.Now())
	if err != nil {
		return err
	}

	if logsFollow {
		return followLogs(cmd.Context(), out, logPath, filter)
	}
	return displayLogs(out, logPath, logsTail, filter)
}

// displayLogs reads the log file and displays filtered entries
func displayLogs(out io.Writer, logPath string, tail int, filter logFilter) error {
	file, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	var entries []string
	scanner := bufio.NewScanner(file)

	// Increase buffer size for potentially long log lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		var entry logEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			// If we can't parse as JSON, display raw line
			entries = append(entries, line)
			continue
		}

		if !passesFilters(&entry, filter) {
			continue
		}

		entries = append(entries, formatLogEntry(&entry))
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading log file: %w", err)
	}

	// Apply tail limit
	if tail > 0 && len(entries) > tail {
		entries = entries[len(entries)-tail:]
	}

	for _, entry := range entries {
		fmt.Fprintln(out, entry)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No matching log entries found.")
	}

	return nil
}

// followLogs implements tail -f behavior for the log file
func followLogs(ctx context.Context, out io.Writer, logPath string, filter logFilter) error {
	file, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}

	fmt.Fprintf(out, "Following logs... (Ctrl+C to stop)\n\n")

	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				// No new data, wait briefly and try again
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(100 * time.Millisecond):
				}
				continue
			}
			return fmt.Errorf("error reading log file: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var entry logEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			fmt.Fprintln(out, line)
			continue
		}

		if !passesFilters(&entry, filter) {
			continue
		}

		fmt.Fprintln(out, formatLogEntry(&entry))
	}
}

// passesFilters checks if a log entry passes all filter criteria
func passesFilters(entry *logEntry, filter logFilter) bool {
	if filter.minLevel >= 0 && levelPriority(entry.Level) < filter.minLevel {
		return false
	}

	if !filter.sinceTime.IsZero() && entry.Time.Before(filter.sinceTime) {
		return false
	}

	// Grep filter - search in message and extra fields
	if filter.grep != nil {
		searchText := entry.Msg + " " + entry.Component + " " + entry.Binary
		for _, v := range entry.Extra {
			searchText += " " + fmt.Sprintf("%v", v)
		}
		if !filter.grep.MatchString(searchText) {
			return false
		}
	}

	return true
}
