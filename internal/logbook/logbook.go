// Package logbook holds the user-visible log: immutable records of tun2proxy
// output and supervisor lifecycle messages, kept in arrival order.
package logbook

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Origin identifies where a record came from.
type Origin string

const (
	OriginStdout Origin = "stdout"
	OriginStderr Origin = "stderr"
	OriginInfo   Origin = "info"
)

// Record is one line of the user-visible log. Records are never mutated
// after creation.
type Record struct {
	ID        uuid.UUID
	Timestamp time.Time
	Origin    Origin
	Text      string
}

// String renders the record the way the log export does:
// "[2006-01-02 15:04:05.000] [stdout] text".
func (r Record) String() string {
	return fmt.Sprintf("[%s] [%s] %s", r.Timestamp.Format("2006-01-02 15:04:05.000"), r.Origin, r.Text)
}

// NewRecords converts a text chunk into one record per non-blank line,
// preserving line order. All records share the same timestamp.
func NewRecords(origin Origin, text string, now time.Time) []Record {
	lines := SplitLines(text)
	if len(lines) == 0 {
		return nil
	}
	out := make([]Record, 0, len(lines))
	for _, line := range lines {
		out = append(out, Record{
			ID:        uuid.New(),
			Timestamp: now,
			Origin:    origin,
			Text:      line,
		})
	}
	return out
}

// SplitLines splits text on line boundaries (\n, \r\n, \r) and drops lines
// that are empty or whitespace-only. Trailing whitespace is trimmed from
// each kept line.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\v\f")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// Book is the ordered, append-only sequence of records. It is unbounded
// unless cleared. Safe for concurrent use.
type Book struct {
	mu      sync.RWMutex
	records []Record
}

// NewBook returns an empty Book.
func NewBook() *Book {
	return &Book{}
}

// Append adds records in order.
func (b *Book) Append(records ...Record) {
	if len(records) == 0 {
		return
	}
	b.mu.Lock()
	b.records = append(b.records, records...)
	b.mu.Unlock()
}

// Len returns the number of records.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}

// Snapshot returns a copy of all records.
func (b *Book) Snapshot() []Record {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Record, len(b.records))
	copy(out, b.records)
	return out
}

// Tail returns a copy of the last n records.
func (b *Book) Tail(n int) []Record {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n <= 0 {
		return nil
	}
	if n > len(b.records) {
		n = len(b.records)
	}
	out := make([]Record, n)
	copy(out, b.records[len(b.records)-n:])
	return out
}

// Clear drops all records.
func (b *Book) Clear() {
	b.mu.Lock()
	b.records = nil
	b.mu.Unlock()
}

// Format renders records one per line using Record.String.
func Format(records []Record) string {
	var sb strings.Builder
	for i, r := range records {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(r.String())
	}
	return sb.String()
}
