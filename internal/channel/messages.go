// Package channel implements the duplex status channel: a websocket
// carrying typed JSON messages that multiplexes interactive terminals and
// periodic resource snapshots over a single connection.
package channel

import (
	"encoding/json"
	"time"
)

// Inbound message types.
const (
	MsgTerminalCreate   = "terminal-create"
	MsgTerminalInput    = "terminal-input"
	MsgTerminalResize   = "terminal-resize"
	MsgTerminalClear    = "terminal-clear"
	MsgMonitorSubscribe = "monitor-subscribe"
	MsgTerminalKill     = "terminal-kill"
)

// Outbound message types.
const (
	MsgConnectionEstablished = "connection-established"
	MsgTerminalCreated       = "terminal-created"
	MsgTerminalOutput        = "terminal-output"
	MsgTerminalCleared       = "terminal-cleared"
	MsgTerminalKilled        = "terminal-killed"
	MsgResourceSnapshot      = "resource-snapshot"
	MsgError                 = "error"
)

// Envelope is the wire form of every channel message. Fields beyond Type
// are populated per message type; unknown inbound types are ignored.
type Envelope struct {
	Type       string          `json:"type"`
	TerminalID string          `json:"terminalId,omitempty"`
	SessionID  string          `json:"sessionId,omitempty"`
	Data       string          `json:"data,omitempty"`
	Cols       int             `json:"cols,omitempty"`
	Rows       int             `json:"rows,omitempty"`
	Error      string          `json:"error,omitempty"`
	Timestamp  time.Time       `json:"timestamp,omitzero"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// ResourceSnapshot reports process-level resource usage. It is sent to
// subscribed connections on a fixed interval.
type ResourceSnapshot struct {
	Goroutines     int     `json:"goroutines"`
	HeapAllocBytes uint64  `json:"heapAllocBytes"`
	HeapSysBytes   uint64  `json:"heapSysBytes"`
	NumGC          uint32  `json:"numGC"`
	CPUs           int     `json:"cpus"`
	UptimeSeconds  float64 `json:"uptimeSeconds"`
}
