// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// MaxEventSize bounds a single SSE event (all data lines together).
const MaxEventSize = 64 * 1024

// ErrEventTooLarge is returned when an event exceeds MaxEventSize. The
// reader skips to the end of the offending event, so reading can continue.
var ErrEventTooLarge = errors.New("sse event too large")

// =============================================================================
// SSE READER
// =============================================================================

// SSEReader parses Server-Sent Events.
type SSEReader struct {
	reader  *bufio.Reader
	maxSize int
}

// NewSSEReader creates a new SSE reader from an io.Reader.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{
		reader:  bufio.NewReaderSize(r, 16*1024),
		maxSize: MaxEventSize,
	}
}

// ReadEvent reads the next event and returns its type and data. Multiple
// data lines are joined with "\n". Comment lines (": keepalive") and
// unknown fields are ignored. At end of input a pending event is returned
// first; after that io.EOF.
func (s *SSEReader) ReadEvent() (string, []byte, error) {
	var (
		eventType string
		data      []byte
		hasData   bool
		oversize  bool
	)

	for {
		line, err := s.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if oversize {
					return eventType, nil, ErrEventTooLarge
				}
				if hasData {
					return eventType, data, nil
				}
				return "", nil, io.EOF
			}
			return "", nil, err
		}

		if len(line) == 0 {
			if oversize {
				return eventType, nil, ErrEventTooLarge
			}
			if hasData {
				return eventType, data, nil
			}
			eventType = ""
			continue
		}

		if line[0] == ':' {
			continue
		}

		field, value := line, []byte(nil)
		if idx := bytes.IndexByte(line, ':'); idx >= 0 {
			field = line[:idx]
			value = line[idx+1:]
			if len(value) > 0 && value[0] == ' ' {
				value = value[1:]
			}
		}

		switch string(field) {
		case "event":
			eventType = string(value)
		case "data":
			if oversize {
				continue
			}
			if len(data)+len(value)+1 > s.maxSize {
				oversize = true
				data = nil
				continue
			}
			if hasData {
				data = append(data, '\n')
			}
			data = append(data, value...)
			hasData = true
		}
	}
}

// readLine returns one line without its terminator. Lines longer than the
// buffer are read in full; size is enforced by ReadEvent.
func (s *SSEReader) readLine() ([]byte, error) {
	var line []byte
	for {
		chunk, isPrefix, err := s.reader.ReadLine()
		if err != nil {
			if len(line) > 0 && errors.Is(err, io.EOF) {
				return line, nil
			}
			return nil, err
		}
		if len(line) > s.maxSize {
			// keep draining but stop growing
			if !isPrefix {
				return line, nil
			}
			continue
		}
		line = append(line, chunk...)
		if !isPrefix {
			return line, nil
		}
	}
}
