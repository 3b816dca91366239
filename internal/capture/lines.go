package capture

import (
	"errors"
	"io"
	"os"
	"unicode/utf8"
)

// MaxPartialLine bounds how many bytes of an unterminated line are held.
// Longer runs are emitted as if a line break had been seen.
const MaxPartialLine = 4 * DefaultChunkSize

// LineSplitter buffers partial lines between chunks. It is not safe for
// concurrent use; each stream gets its own splitter.
type LineSplitter struct {
	partial []byte
}

// Push appends chunk and returns the text of every line completed so far,
// terminators included. Bytes after the last line break are kept for the
// next call. A lone '\r' counts as a break only once the following byte is
// known, so "\r\n" split across chunks is not reported twice.
func (s *LineSplitter) Push(chunk []byte) string {
	if len(chunk) == 0 {
		return ""
	}
	s.partial = append(s.partial, chunk...)

	cut := -1
	for i := len(s.partial) - 1; i >= 0; i-- {
		c := s.partial[i]
		if c == '\n' {
			cut = i
			break
		}
		if c == '\r' && i < len(s.partial)-1 {
			cut = i
			break
		}
	}
	if cut < 0 {
		if len(s.partial) <= MaxPartialLine {
			return ""
		}
		return s.forceCut()
	}

	out := string(s.partial[:cut+1])
	rest := copy(s.partial, s.partial[cut+1:])
	s.partial = s.partial[:rest]
	return out
}

// forceCut emits the oversized partial line, keeping an incomplete trailing
// UTF-8 sequence for the next chunk.
func (s *LineSplitter) forceCut() string {
	end := len(s.partial)
	for back := 1; back < utf8.UTFMax && end-back >= 0; back++ {
		if utf8.RuneStart(s.partial[end-back]) {
			if !utf8.FullRune(s.partial[end-back:]) {
				end -= back
			}
			break
		}
	}
	out := string(s.partial[:end])
	rest := copy(s.partial, s.partial[end:])
	s.partial = s.partial[:rest]
	return out
}

// Flush returns any buffered partial line and clears it.
func (s *LineSplitter) Flush() string {
	out := string(s.partial)
	s.partial = s.partial[:0]
	return out
}

// Pending returns the number of buffered bytes not yet returned.
func (s *LineSplitter) Pending() int {
	return len(s.partial)
}

// DefaultChunkSize is the read size Pump uses.
const DefaultChunkSize = 4096

// Pump reads r until EOF or error and calls emit with each run of complete
// lines, then once more with the flushed partial line if one remains.
// Closing r from another goroutine ends the pump; that is not reported as
// an error.
func Pump(r io.Reader, emit func(text string)) error {
	var s LineSplitter
	buf := make([]byte, DefaultChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if text := s.Push(buf[:n]); text != "" {
				emit(text)
			}
		}
		if err != nil {
			if rest := s.Flush(); rest != "" {
				emit(rest)
			}
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return err
		}
	}
}
