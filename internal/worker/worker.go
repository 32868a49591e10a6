// Package worker connects the command dispatcher to the live session,
// the image cache, the report exporter and the storage backend. Each
// handler parses its payload, applies the transition and records the
// resulting state, so the bridge stays a thin transport.
package worker

import (
	"time"

	"github.com/velofit/engine/internal/cache"
	"github.com/velofit/engine/internal/dispatcher"
	"github.com/velofit/engine/internal/influx"
	"github.com/velofit/engine/internal/logging"
	"github.com/velofit/engine/internal/parser"
	"github.com/velofit/engine/internal/report"
	"github.com/velofit/engine/internal/session"
	"github.com/velofit/engine/internal/storage"
	"github.com/velofit/engine/pkg/core"
)

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	ImageCache    *cache.ImageCache
	SnapshotCache *cache.SnapshotCache
	LogManager    *logging.SlogManager
	ParserService parser.Service

	// DemoImagePath is the bundled sample photo served when a load
	// command asks for the demo instead of an uploaded file.
	DemoImagePath string

	// Metrics is the optional InfluxDB sink; nil disables metric writes.
	Metrics *influx.Manager
}

// Manager owns the command handlers.
type Manager struct {
	deps       Dependencies
	backend    storage.Backend
	session    *session.Session
	exporter   *report.Exporter
	dispatcher *dispatcher.Dispatcher
}

// NewManager creates a new worker manager
func NewManager(deps Dependencies, backend storage.Backend, sess *session.Session, exporter *report.Exporter) *Manager {
	return &Manager{
		deps:     deps,
		backend:  backend,
		session:  sess,
		exporter: exporter,
	}
}

// Session exposes the live session, mainly for the bridge's redraw path.
func (m *Manager) Session() *session.Session {
	return m.session
}

// FinalPointsSetter is an optional interface for backends that embed
// the committed landmark coordinates into their session export.
type FinalPointsSetter interface {
	SetFinalPoints(points []core.Point)
}

// DBWriteDurationProvider is an optional interface that backends can implement
// to expose their last DB write duration for monitoring.
type DBWriteDurationProvider interface {
	GetLastDBWriteDuration() time.Duration
}

// GetLastDBWriteDuration returns the duration of the last DB write cycle.
// Returns 0 if the backend doesn't support this metric.
func (m *Manager) GetLastDBWriteDuration() time.Duration {
	if p, ok := m.backend.(DBWriteDurationProvider); ok {
		return p.GetLastDBWriteDuration()
	}
	return 0
}

// ExportInProgress reports whether a report export job is running.
func (m *Manager) ExportInProgress() bool {
	return m.exporter.InProgress()
}

// QueueLen reports the pending event count for a buffered command.
func (m *Manager) QueueLen(command string) int {
	if m.dispatcher == nil {
		return 0
	}
	return m.dispatcher.QueueLen(command)
}
