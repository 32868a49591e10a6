// Package monitor periodically samples the engine's runtime state (queue
// depths, export activity, write latency), mirrors it to a status file
// for the host to poll and hands it to the storage backend.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/velofit/engine/internal/influx"
	"github.com/velofit/engine/internal/logging"
	"github.com/velofit/engine/internal/storage"
	"github.com/velofit/engine/internal/worker"
	"github.com/velofit/engine/pkg/core"
)

// WriteQueueLengthProvider is an optional backend interface exposing
// pending write-queue depths.
type WriteQueueLengthProvider interface {
	QueueLengths() (samples, reports int)
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	LogManager    *logging.SlogManager
	WorkerManager *worker.Manager
	Backend       storage.Backend
	StatusDir     string
	Interval      time.Duration

	// Metrics is the optional InfluxDB sink; nil disables metric writes.
	Metrics *influx.Manager
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Sample captures the current engine state.
func (s *Service) Sample() core.PerformanceSample {
	sample := core.PerformanceSample{
		Time:             time.Now(),
		GestureQueueLen:  s.deps.WorkerManager.QueueLen(":GESTURE:MOVE:"),
		ExportInProgress: s.deps.WorkerManager.ExportInProgress(),
		LastWriteMs:      float64(s.deps.WorkerManager.GetLastDBWriteDuration().Milliseconds()),
	}
	if p, ok := s.deps.Backend.(WriteQueueLengthProvider); ok {
		sample.SampleQueueLen, sample.SnapshotQueueLen = p.QueueLengths()
	}
	return sample
}

// StatusLine renders a sample as one JSON line for the status file.
func StatusLine(sample core.PerformanceSample) string {
	out, err := json.Marshal(sample)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(out)
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting status monitor goroutine", "interval", s.deps.Interval)

		var statusFile *os.File
		if s.deps.StatusDir != "" {
			var err error
			statusFile, err = os.Create(filepath.Join(s.deps.StatusDir, "status.txt"))
			if err != nil {
				logger.Error("Error creating status file", "error", err)
			} else {
				defer statusFile.Close()
			}
		}

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				sample := s.Sample()

				if statusFile != nil {
					statusFile.Truncate(0)
					statusFile.Seek(0, 0)
					statusFile.WriteString(StatusLine(sample) + "\n")
				}

				if err := s.deps.Backend.RecordPerformance(&sample); err != nil {
					logger.Error("Error recording performance sample", "error", err)
				}

				if s.deps.Metrics != nil {
					bucket, point := influx.PerformancePoint(sample)
					if err := s.deps.Metrics.WritePoint(context.Background(), bucket, point); err != nil {
						logger.Warn("Error writing performance metric", "error", err)
					}
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}
