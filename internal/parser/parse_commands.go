package parser

import (
	"fmt"
	"strings"

	"github.com/velofit/engine/internal/util"
)

// ParseSessionStart parses the payload of a :NEW:SESSION: command.
func (p *Parser) ParseSessionStart(args []string) (SessionStart, error) {
	var s SessionStart
	if err := p.unmarshalArg(args, "session start", &s); err != nil {
		return SessionStart{}, err
	}
	return s, nil
}

// ParseLoadImage parses the payload of a :LOAD:IMAGE: command.
func (p *Parser) ParseLoadImage(args []string) (LoadImage, error) {
	var li LoadImage
	if err := p.unmarshalArg(args, "load image", &li); err != nil {
		return LoadImage{}, err
	}
	if !li.Demo && li.Path == "" {
		return LoadImage{}, fmt.Errorf("parse load image: empty path")
	}
	if li.DisplayWidth <= 0 || li.DisplayHeight <= 0 {
		return LoadImage{}, fmt.Errorf("parse load image: non-positive display dimensions %gx%g",
			li.DisplayWidth, li.DisplayHeight)
	}
	return li, nil
}

// ParseGesture parses the payload shared by all gesture commands.
func (p *Parser) ParseGesture(args []string) (Gesture, error) {
	var g Gesture
	if err := p.unmarshalArg(args, "gesture", &g); err != nil {
		return Gesture{}, err
	}
	return g, nil
}

// ParseSelection parses a bare riding-style or bicycle-type name.
func (p *Parser) ParseSelection(args []string) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("parse selection: no arguments")
	}
	v := strings.TrimSpace(util.CleanArgs(args)[0])
	if v == "" {
		return "", fmt.Errorf("parse selection: empty value")
	}
	return v, nil
}

// ParseSnapshotRef parses a snapshot name payload. A bare, non-JSON
// string argument is accepted as the name itself.
func (p *Parser) ParseSnapshotRef(args []string) (SnapshotRef, error) {
	if len(args) < 1 {
		return SnapshotRef{}, fmt.Errorf("parse snapshot ref: no arguments")
	}
	cleaned := util.CleanArgs(args)
	if strings.HasPrefix(strings.TrimSpace(cleaned[0]), "{") {
		var ref SnapshotRef
		if err := p.unmarshalArg(cleaned, "snapshot ref", &ref); err != nil {
			return SnapshotRef{}, err
		}
		if ref.Name == "" {
			return SnapshotRef{}, fmt.Errorf("parse snapshot ref: empty name")
		}
		return ref, nil
	}
	name := strings.TrimSpace(cleaned[0])
	if name == "" {
		return SnapshotRef{}, fmt.Errorf("parse snapshot ref: empty name")
	}
	return SnapshotRef{Name: name}, nil
}
