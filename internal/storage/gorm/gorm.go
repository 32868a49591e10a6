// Package gormstorage implements the storage.Backend interface on a GORM
// connection with internal queues and a background DB writer goroutine.
// The postgres and sqlite backends build on it via composition.
package gormstorage

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/velofit/engine/internal/logging"
	"github.com/velofit/engine/internal/model"
	"github.com/velofit/engine/internal/queue"
	"github.com/velofit/engine/pkg/core"
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB         *gorm.DB
	LogManager *logging.SlogManager
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	AngleSamples *queue.Queue[model.AngleSample]
	Reports      *queue.Queue[model.ReportRecord]
	Performances *queue.Queue[model.EnginePerformance]
}

func newQueues() *queues {
	return &queues{
		AngleSamples: queue.New[model.AngleSample](),
		Reports:      queue.New[model.ReportRecord](),
		Performances: queue.New[model.EnginePerformance](),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch
// writes for high-frequency records. Sessions and snapshots are written
// synchronously because later operations read them back by ID or name.
type Backend struct {
	deps      Dependencies
	queues    *queues
	sessionID atomic.Uint64
	stopChan  chan struct{}

	mu                  sync.Mutex
	lastDBWriteDuration time.Duration
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	return &Backend{
		deps: deps,
	}
}

// Init creates internal queues and starts the DB writer goroutine.
func (b *Backend) Init() error {
	b.queues = newQueues()
	b.stopChan = make(chan struct{})
	b.startDBWriters()
	return nil
}

// Close stops the DB writer goroutine.
func (b *Backend) Close() error {
	if b.stopChan != nil {
		close(b.stopChan)
	}
	return nil
}

// StartSession inserts the session row synchronously and keeps the
// DB-assigned ID for stamping queued records.
func (b *Backend) StartSession(s *core.SessionInfo) error {
	if b.deps.DB == nil {
		return nil
	}

	row := model.FitSession{
		Rider:         s.Rider,
		BikeType:      s.BikeType,
		RideStyle:     s.RideStyle,
		StartTime:     s.StartTime,
		DisplayWidth:  s.Image.DisplayWidth,
		DisplayHeight: s.Image.DisplayHeight,
		NaturalWidth:  s.Image.NaturalWidth,
		NaturalHeight: s.Image.NaturalHeight,
	}
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	s.ID = row.ID
	b.sessionID.Store(uint64(row.ID))
	return nil
}

// SetSessionID sets the current session ID for the DB writer (used by CLI tools).
func (b *Backend) SetSessionID(id uint) {
	b.sessionID.Store(uint64(id))
}

// EndSession flushes pending queues so nothing recorded during the
// session is lost, then updates the session row's selections.
func (b *Backend) EndSession() error {
	if b.deps.DB == nil {
		return nil
	}

	b.flushQueues()
	return nil
}

// SaveSnapshot inserts a snapshot synchronously (not queued) because
// a restore may follow immediately.
func (b *Backend) SaveSnapshot(snap *core.Snapshot) error {
	if b.deps.DB == nil {
		return nil
	}

	rec := model.NewSnapshotRecord(uint(b.sessionID.Load()), *snap)
	if err := b.deps.DB.Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the most recent snapshot saved under name.
func (b *Backend) LoadSnapshot(name string) (*core.Snapshot, error) {
	if b.deps.DB == nil {
		return nil, fmt.Errorf("no database configured")
	}

	var rec model.SnapshotRecord
	err := b.deps.DB.
		Where("name = ?", name).
		Order("created_at DESC").
		First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("snapshot %q not found", name)
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	snap := rec.ToSnapshot()
	return &snap, nil
}

// ListSnapshots returns all snapshots for the current session in save order.
func (b *Backend) ListSnapshots() ([]core.Snapshot, error) {
	if b.deps.DB == nil {
		return nil, fmt.Errorf("no database configured")
	}

	var recs []model.SnapshotRecord
	err := b.deps.DB.
		Where("session_id = ?", uint(b.sessionID.Load())).
		Order("created_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	out := make([]core.Snapshot, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.ToSnapshot())
	}
	return out, nil
}

// RecordAngleSample queues a classified joint angle.
func (b *Backend) RecordAngleSample(c *core.Classification) error {
	b.queues.AngleSamples.Push(model.AngleSample{
		Time:        time.Now(),
		Joint:       c.Joint,
		Degrees:     c.Degrees,
		WithinRange: c.IsWithinRange,
		RangeMin:    c.Range.Min,
		RangeMax:    c.Range.Max,
	})
	return nil
}

// RecordReport queues a finished report export. The table rows travel
// as a JSON column.
func (b *Backend) RecordReport(r *core.ReportInfo) error {
	rows, err := json.Marshal(r.Rows)
	if err != nil {
		return fmt.Errorf("failed to marshal report rows: %w", err)
	}

	b.queues.Reports.Push(model.ReportRecord{
		FilePath:  r.FilePath,
		BikeType:  r.BikeType,
		RideStyle: r.RideStyle,
		Rows:      rows,
	})
	return nil
}

// RecordPerformance queues a periodic engine status sample.
func (b *Backend) RecordPerformance(p *core.PerformanceSample) error {
	b.queues.Performances.Push(model.EnginePerformance{
		Time:                p.Time,
		GestureQueueLen:     uint16(p.GestureQueueLen),
		SampleQueueLen:      uint16(p.SampleQueueLen),
		SnapshotQueueLen:    uint16(p.SnapshotQueueLen),
		ExportInProgress:    p.ExportInProgress,
		LastWriteDurationMs: float32(p.LastWriteMs),
	})
	return nil
}

// QueueLengths reports the pending write-queue sizes for monitoring.
func (b *Backend) QueueLengths() (samples, reports int) {
	if b.queues == nil {
		return 0, 0
	}
	return b.queues.AngleSamples.Len(), b.queues.Reports.Len()
}

// GetLastDBWriteDuration returns the duration of the last queue flush.
func (b *Backend) GetLastDBWriteDuration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastDBWriteDuration
}

// writeQueue writes all items from a queue to the database in a transaction.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log func(string, string, string), prepare func([]T)) {
	if q.Empty() {
		return
	}

	tx := db.Begin()
	items := q.GetAndEmpty()
	if prepare != nil {
		prepare(items)
	}
	if err := tx.Create(&items).Error; err != nil {
		log(":DB:WRITER:", fmt.Sprintf("Error creating %s: %v", name, err), "ERROR")
		tx.Rollback()
		q.Push(items...)
		return
	}

	tx.Commit()
}

// flushQueues drains every queue into the DB once.
func (b *Backend) flushQueues() {
	if b.deps.DB == nil {
		return
	}
	log := b.deps.LogManager.WriteLog

	sessionID := uint(b.sessionID.Load())

	stampSamples := func(items []model.AngleSample) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}
	stampReports := func(items []model.ReportRecord) {
		for i := range items {
			items[i].SessionID = sessionID
		}
	}

	start := time.Now()
	writeQueue(b.deps.DB, b.queues.AngleSamples, "angle samples", log, stampSamples)
	writeQueue(b.deps.DB, b.queues.Reports, "reports", log, stampReports)
	writeQueue(b.deps.DB, b.queues.Performances, "performance samples", log, nil)

	b.mu.Lock()
	b.lastDBWriteDuration = time.Since(start)
	b.mu.Unlock()
}

// startDBWriters starts the background goroutine that periodically
// drains queues into the DB.
func (b *Backend) startDBWriters() {
	go func() {
		for {
			select {
			case <-b.stopChan:
				return
			default:
			}

			b.flushQueues()
			time.Sleep(2 * time.Second)
		}
	}()
}
