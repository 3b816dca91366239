// Package capture turns raw process output into complete lines.
//
// Two pieces are provided:
//
//   - [LineSplitter] accumulates arbitrary byte chunks and hands back only
//     complete lines, carrying a trailing partial line over to the next
//     chunk until it is terminated or flushed at end of stream.
//   - [RingBuffer] keeps the most recent N bytes of a stream. The supervisor
//     uses one per launch to hold the stderr tail that exit diagnostics are
//     built from.
//
// [Pump] ties them together: it reads an io.Reader to EOF and calls a
// callback once per chunk of complete lines.
package capture
