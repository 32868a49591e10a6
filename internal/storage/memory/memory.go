// internal/storage/memory/memory.go
package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/velofit/engine/internal/config"
	"github.com/velofit/engine/pkg/core"
)

// Backend stores fit session data in memory and exports to JSON at
// session end.
type Backend struct {
	cfg     config.MemoryConfig
	session *core.SessionInfo
	endTime time.Time

	finalPoints []core.Point

	samples   []core.Classification
	snapshots map[string]core.Snapshot
	snapOrder []string // insertion order of snapshot names
	reports   []core.ReportInfo

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:       cfg,
		snapshots: make(map[string]core.Snapshot),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new fit session
func (b *Backend) StartSession(s *core.SessionInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.session = s
	b.endTime = time.Time{}
	b.finalPoints = nil
	b.samples = nil
	b.snapshots = make(map[string]core.Snapshot)
	b.snapOrder = nil
	b.reports = nil

	return nil
}

// EndSession finalizes and exports the session data
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return fmt.Errorf("no active session")
	}
	b.endTime = time.Now()

	return b.exportJSON()
}

// SetFinalPoints records the committed landmark sequence carried onto
// the export. Called by the worker just before EndSession.
func (b *Backend) SetFinalPoints(points []core.Point) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.finalPoints = append([]core.Point(nil), points...)
}

// SaveSnapshot stores a snapshot; a second save under the same name
// replaces the first.
func (b *Backend) SaveSnapshot(snap *core.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.snapshots[snap.Name]; !exists {
		b.snapOrder = append(b.snapOrder, snap.Name)
	}
	b.snapshots[snap.Name] = *snap
	return nil
}

// LoadSnapshot looks up a snapshot by name
func (b *Backend) LoadSnapshot(name string) (*core.Snapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snap, ok := b.snapshots[name]
	if !ok {
		return nil, fmt.Errorf("snapshot %q not found", name)
	}
	return &snap, nil
}

// ListSnapshots returns all snapshots in save order
func (b *Backend) ListSnapshots() ([]core.Snapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.Snapshot, 0, len(b.snapOrder))
	for _, name := range b.snapOrder {
		out = append(out, b.snapshots[name])
	}
	return out, nil
}

// RecordAngleSample records a classified joint angle
func (b *Backend) RecordAngleSample(c *core.Classification) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = append(b.samples, *c)
	return nil
}

// SampleCount returns the number of recorded angle samples.
func (b *Backend) SampleCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.samples)
}

// RecordReport records a finished report export
func (b *Backend) RecordReport(r *core.ReportInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reports = append(b.reports, *r)
	return nil
}

// RecordPerformance is a no-op — performance samples only matter for
// the database backends.
func (b *Backend) RecordPerformance(p *core.PerformanceSample) error {
	return nil
}

// GetExportedFilePath returns the path of the last JSON export.
// Part of the storage.Uploadable interface.
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// GetExportMetadata returns upload metadata for the last session.
// Part of the storage.Uploadable interface.
func (b *Backend) GetExportMetadata() core.UploadMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()

	meta := core.UploadMetadata{}
	if b.session != nil {
		meta.Rider = b.session.Rider
		meta.BikeType = b.session.BikeType
		meta.RideStyle = b.session.RideStyle
		if !b.endTime.IsZero() {
			meta.Duration = b.endTime.Sub(b.session.StartTime).Seconds()
		}
	}
	return meta
}
