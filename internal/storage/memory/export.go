// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	v1 "github.com/velofit/engine/internal/storage/memory/export/v1"
	"github.com/velofit/engine/internal/util"
	"github.com/velofit/engine/pkg/core"
)

// exportJSON writes the session data to a (optionally gzipped) JSON
// file. Caller holds the lock.
func (b *Backend) exportJSON() error {
	export := v1.Build(&v1.SessionData{
		Session:       b.session,
		EngineVersion: core.EngineVersion,
		EndTime:       b.endTime,
		FinalPoints:   b.finalPoints,
		Samples:       b.samples,
		Snapshots:     b.orderedSnapshots(),
		Reports:       b.reports,
	})

	rider := util.SanitizeFilename(b.session.Rider)
	if rider == "" {
		rider = "session"
	}
	timestamp := b.session.StartTime.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", rider, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", rider, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

// orderedSnapshots returns snapshots in save order. Caller holds the lock.
func (b *Backend) orderedSnapshots() []core.Snapshot {
	out := make([]core.Snapshot, 0, len(b.snapOrder))
	for _, name := range b.snapOrder {
		out = append(out, b.snapshots[name])
	}
	return out
}

func writeJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data v1.Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}
