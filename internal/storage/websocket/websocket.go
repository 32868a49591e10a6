// Package websocket implements a storage.Backend that streams session
// activity to a remote viewer instead of persisting it locally.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/velofit/engine/pkg/core"
	"github.com/velofit/engine/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL    string
	Secret string
}

// Backend streams fit session data over WebSocket to a remote viewer.
// It implements storage.Backend but not storage.Uploadable. Snapshots
// are mirrored out but cannot be loaded back; a restore needs a local
// backend.
type Backend struct {
	conn *connection
	cfg  Config
}

// New creates a new WebSocket storage backend.
func New(cfg Config) *Backend {
	return &Backend{
		conn: newConnection(slog.Default()),
		cfg:  cfg,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.conn.close()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// sendEnvelope marshals the payload into an Envelope and pushes it
// to the write loop (fire-and-forget).
func (b *Backend) sendEnvelope(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

// sendEnvelopeAndWait marshals the payload and waits for a server ack.
func (b *Backend) sendEnvelopeAndWait(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	return b.conn.sendAndWait(data, msgType, ackTimeout)
}

// StartSession sends the session identity and waits for server ack.
func (b *Backend) StartSession(s *core.SessionInfo) error {
	data, err := marshalEnvelope(streaming.TypeStartSession, streaming.StartSessionPayload{Session: s})
	if err != nil {
		return err
	}

	// Cache for reconnect replay.
	b.conn.mu.Lock()
	b.conn.cachedStartMsg = data
	b.conn.mu.Unlock()

	return b.conn.sendAndWait(data, streaming.TypeStartSession, ackTimeout)
}

// EndSession sends end_session and waits for server ack.
func (b *Backend) EndSession() error {
	err := b.sendEnvelopeAndWait(streaming.TypeEndSession, nil)

	// Clear cached state regardless of error.
	b.conn.mu.Lock()
	b.conn.cachedStartMsg = nil
	b.conn.mu.Unlock()

	return err
}

// SaveSnapshot mirrors the snapshot to the viewer.
func (b *Backend) SaveSnapshot(snap *core.Snapshot) error {
	return b.sendEnvelope(streaming.TypeSnapshotSaved, snap)
}

// LoadSnapshot always fails — the streaming backend keeps nothing.
func (b *Backend) LoadSnapshot(name string) (*core.Snapshot, error) {
	return nil, fmt.Errorf("websocket backend cannot load snapshots")
}

// ListSnapshots always fails — the streaming backend keeps nothing.
func (b *Backend) ListSnapshots() ([]core.Snapshot, error) {
	return nil, fmt.Errorf("websocket backend cannot list snapshots")
}

func (b *Backend) RecordAngleSample(c *core.Classification) error {
	return b.sendEnvelope(streaming.TypeAngleSample, c)
}

func (b *Backend) RecordReport(r *core.ReportInfo) error {
	return b.sendEnvelope(streaming.TypeReportExported, r)
}

func (b *Backend) RecordPerformance(p *core.PerformanceSample) error {
	return b.sendEnvelope(streaming.TypePerformance, p)
}
