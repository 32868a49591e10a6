// Package parser converts the raw string arguments relayed by the host
// bridge into typed command payloads. It is pure []string -> struct
// conversion with zero dependencies beyond a logger.
package parser

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/velofit/engine/internal/util"
)

// Service is the interface the worker layer consumes.
type Service interface {
	ParseSessionStart(args []string) (SessionStart, error)
	ParseLoadImage(args []string) (LoadImage, error)
	ParseGesture(args []string) (Gesture, error)
	ParseSelection(args []string) (string, error)
	ParseSnapshotRef(args []string) (SnapshotRef, error)
}

// Parser implements Service.
type Parser struct {
	logger *slog.Logger
}

// New creates a Parser. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

var _ Service = (*Parser)(nil)

func (p *Parser) unmarshalArg(args []string, what string, v any) error {
	if len(args) < 1 {
		return fmt.Errorf("parse %s: no arguments", what)
	}
	cleaned := util.CleanArgs(args)
	if err := json.Unmarshal([]byte(cleaned[0]), v); err != nil {
		p.logger.Debug("payload unmarshal failed", "payload", what, "error", err)
		return fmt.Errorf("parse %s: %w", what, err)
	}
	return nil
}
