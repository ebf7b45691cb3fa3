// Package ndjson reassembles newline-delimited JSON records from raw byte
// chunks whose boundaries never align with record boundaries, and filters
// the free-text noise vendor CLIs interleave with JSON on the same stream.
package ndjson

import (
	"encoding/json"
	"io"
	"strings"
)

// Splitter turns an unbounded sequence of raw chunks into complete lines.
//
// It maintains a single residual buffer: each chunk is appended, the buffer
// is split on newlines, every piece except the last is a complete line, and
// the last piece (possibly empty) becomes the new residual.
type Splitter struct {
	residual string
}

// Feed appends a chunk and returns the complete lines it closed.
func (s *Splitter) Feed(chunk []byte) []string {
	s.residual += string(chunk)
	if !strings.Contains(s.residual, "\n") {
		return nil
	}
	pieces := strings.Split(s.residual, "\n")
	s.residual = pieces[len(pieces)-1]
	return pieces[:len(pieces)-1]
}

// Final returns the residual buffer, covering the case where the stream's
// last record lacks a trailing newline. The residual is cleared.
func (s *Splitter) Final() string {
	line := s.residual
	s.residual = ""
	return line
}

// IsJSONObject reports whether a trimmed line plausibly starts a JSON
// record. Used to cheaply skip banner lines before attempting a decode.
func IsJSONObject(line string) bool {
	return strings.HasPrefix(line, "{")
}

// Valid reports whether line parses as JSON.
func Valid(line string) bool {
	return json.Valid([]byte(line))
}

// NoiseFilter recognizes known non-JSON banner prefixes (startup and
// cache-load notices) that are dropped silently rather than logged.
type NoiseFilter struct {
	prefixes []string
}

// NewNoiseFilter builds a filter for the given line prefixes.
func NewNoiseFilter(prefixes ...string) *NoiseFilter {
	return &NoiseFilter{prefixes: prefixes}
}

// Match reports whether the line is recognized banner noise.
func (f *NoiseFilter) Match(line string) bool {
	for _, p := range f.prefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// Reader adapts an io.Reader (a process stdout pipe) into a sequence of
// complete lines using a Splitter.
type Reader struct {
	src   io.Reader
	split Splitter
	buf   []byte
	next  []string
	err   error
}

// NewReader creates a line reader over src.
func NewReader(src io.Reader) *Reader {
	return &Reader{
		src: src,
		buf: make([]byte, 8192),
	}
}

// ReadLine returns the next complete line. At end of stream it returns the
// final unterminated line once (if any), then io.EOF.
func (r *Reader) ReadLine() (string, error) {
	for {
		if len(r.next) > 0 {
			line := r.next[0]
			r.next = r.next[1:]
			return line, nil
		}
		if r.err != nil {
			return "", r.err
		}

		n, err := r.src.Read(r.buf)
		if n > 0 {
			r.next = append(r.next, r.split.Feed(r.buf[:n])...)
		}
		if err != nil {
			if final := r.split.Final(); final != "" {
				r.next = append(r.next, final)
			}
			r.err = err
		}
	}
}
