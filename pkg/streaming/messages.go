// Package streaming defines the message envelope shared by the host-UI
// bridge and the websocket storage backend.
package streaming

import (
	"encoding/json"

	"github.com/velofit/engine/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	// Host UI → engine
	TypeCommand = "command"

	// Engine → host UI
	TypeOverlayFrame = "overlay_frame"
	TypeResults      = "results"
	TypeStatus       = "status"
	TypeError        = "error"

	// Engine → remote viewer (websocket storage backend)
	TypeStartSession   = "start_session"
	TypeEndSession     = "end_session"
	TypeSnapshotSaved  = "snapshot_saved"
	TypeAngleSample    = "angle_sample"
	TypeReportExported = "report_exported"
	TypePerformance    = "performance"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// CommandPayload is a host-UI command: the dispatcher command name plus
// its raw string arguments.
type CommandPayload struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

// StartSessionPayload carries the new session's identity.
type StartSessionPayload struct {
	Session *core.SessionInfo `json:"session"`
}

// ResultsPayload carries the classified joint angles after a derivation.
type ResultsPayload struct {
	Results []core.Classification `json:"results"`
}

// ResultPayload returns a synchronous command's result to the host UI.
type ResultPayload struct {
	Command string `json:"command"`
	Result  any    `json:"result,omitempty"`
}

// ErrorPayload reports a command failure back to the host UI.
type ErrorPayload struct {
	Command string `json:"command"`
	Message string `json:"message"`
}
