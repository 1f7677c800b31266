package aqgo

import (
	"strconv"
	"strings"
)

// Response is one GTP reply, rendered in a single write.
type Response struct {
	OK   bool
	ID   int // echoed when >= 0
	Body string
	// Streaming suppresses the blank-line terminator: an unterminated
	// analysis stream follows and the response cannot be closed mid-stream.
	Streaming bool
}

// String renders the wire form: "="/"?" head, the echoed id, one space, the
// body, and the blank-line terminator unless a streaming session is live.
func (r Response) String() string {
	var sb strings.Builder
	if r.OK {
		sb.WriteByte('=')
	} else {
		sb.WriteByte('?')
	}
	if r.ID >= 0 {
		sb.WriteString(strconv.Itoa(r.ID))
	}
	sb.WriteByte(' ')
	sb.WriteString(r.Body)
	if !r.Streaming {
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	return sb.String()
}
