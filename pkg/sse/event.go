// Package sse implements the wire encoding for SSE (Server-Sent Events)
// frames pushed by the pulse hub, plus a client-side reader used by CLI
// commands to consume a hub's event stream.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import (
	"fmt"
	"strings"
)

// heartbeatFrame is a comment-only SSE frame. Clients never surface it
// to their message handlers; its only effect is resetting idle timeouts
// on the connection path.
const heartbeatFrame = ":\n\n"

// Event is a single server-sent event. Events are plain values: build
// one, encode it, throw it away. The zero value encodes to a frame with
// one empty data line.
type Event struct {
	// Type is the SSE event type, emitted as the "event:" field.
	// An empty string means the default "message" type per the SSE spec.
	Type string

	// Data is the event payload, emitted as one "data:" line per line
	// of input. May be empty or span multiple lines.
	Data string

	// ID is the event ID, emitted as the "id:" field if non-empty.
	ID string
}

// Encode renders the event in the SSE wire format, terminated by the
// blank line that marks the event boundary.
//
// ID and Type are single-line fields: a line break inside either would
// corrupt the framing, so Encode rejects it with ErrMultilineField
// instead of guessing at caller intent. Data may contain line breaks;
// each line becomes its own "data:" line, empty lines included, so the
// decoded payload round-trips exactly.
func (e Event) Encode() ([]byte, error) {
	if strings.ContainsAny(e.ID, "\r\n") {
		return nil, fmt.Errorf("id field: %w", ErrMultilineField)
	}
	if strings.ContainsAny(e.Type, "\r\n") {
		return nil, fmt.Errorf("event field: %w", ErrMultilineField)
	}

	var b strings.Builder
	b.Grow(len(e.ID) + len(e.Type) + len(e.Data) + 32)

	if e.ID != "" {
		b.WriteString("id: ")
		b.WriteString(e.ID)
		b.WriteByte('\n')
	}

	if e.Type != "" {
		b.WriteString("event: ")
		b.WriteString(e.Type)
		b.WriteByte('\n')
	}

	data := strings.ReplaceAll(e.Data, "\r\n", "\n")
	for _, line := range strings.Split(data, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}

	// Event-boundary marker.
	b.WriteByte('\n')

	return []byte(b.String()), nil
}

// Heartbeat returns the comment-only keep-alive frame ":\n\n".
func Heartbeat() []byte {
	return []byte(heartbeatFrame)
}
