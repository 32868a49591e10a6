package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// runCommand executes a maintenance subcommand against the configured
// storage backend and returns.
func (e *engine) runCommand(args []string) error {
	switch strings.ToLower(args[0]) {
	case "snapshots":
		return e.listSnapshots()
	case "exportsnapshots":
		return e.exportSnapshots()
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// listSnapshots prints the stored snapshots.
func (e *engine) listSnapshots() error {
	snaps, err := e.backend.ListSnapshots()
	if err != nil {
		return fmt.Errorf("listing snapshots: %w", err)
	}

	if len(snaps) == 0 {
		fmt.Println("No snapshots stored.")
		return nil
	}

	fmt.Printf("%-24s %-8s %-12s %s\n", "NAME", "POINTS", "CANVAS", "SAVED")
	for _, s := range snaps {
		fmt.Printf("%-24s %-8d %-12s %s\n",
			s.Name,
			len(s.Points),
			fmt.Sprintf("%.0fx%.0f", s.DisplayWidth, s.DisplayHeight),
			s.SavedAt.Format(time.RFC3339))
	}
	return nil
}

// exportSnapshots writes all stored snapshots to a gzipped JSON file in
// the working directory.
func (e *engine) exportSnapshots() error {
	snaps, err := e.backend.ListSnapshots()
	if err != nil {
		return fmt.Errorf("listing snapshots: %w", err)
	}
	if len(snaps) == 0 {
		fmt.Println("No snapshots to export.")
		return nil
	}

	data, err := json.Marshal(snaps)
	if err != nil {
		return fmt.Errorf("marshalling snapshots: %w", err)
	}

	fileName := fmt.Sprintf("snapshots_%s.json.gz", time.Now().Format("20060102_150405"))
	f, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer func() { _ = f.Close() }()

	gzWriter := gzip.NewWriter(f)
	defer func() { _ = gzWriter.Close() }()
	if _, err = gzWriter.Write(data); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}

	fmt.Printf("Exported %d snapshots to %s\n", len(snaps), fileName)
	return nil
}
