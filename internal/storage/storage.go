// internal/storage/storage.go
package storage

import "github.com/velofit/engine/pkg/core"

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management
	StartSession(s *core.SessionInfo) error
	EndSession() error

	// Snapshot persistence (SaveSnapshot assigns nothing; snapshots are
	// addressed by name, latest wins)
	SaveSnapshot(snap *core.Snapshot) error
	LoadSnapshot(name string) (*core.Snapshot, error)
	ListSnapshots() ([]core.Snapshot, error)

	// Result recording
	RecordAngleSample(c *core.Classification) error
	RecordReport(r *core.ReportInfo) error
	RecordPerformance(p *core.PerformanceSample) error
}

// Uploadable is an optional interface for storage backends that produce
// files suitable for upload to the companion web service.
type Uploadable interface {
	GetExportedFilePath() string
	GetExportMetadata() core.UploadMetadata
}
