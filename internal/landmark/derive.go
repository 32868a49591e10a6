package landmark

import (
	"errors"
	"log/slog"
	"math"

	"github.com/velofit/engine/internal/geometry"
	"github.com/velofit/engine/pkg/core"
)

// Joint identifies one of the five derivable joint angles.
type Joint int

const (
	JointAnkle Joint = iota
	JointKnee
	JointBack
	JointShoulder
	JointElbow
)

// Joints lists all joints in derivation order.
var Joints = []Joint{JointAnkle, JointKnee, JointBack, JointShoulder, JointElbow}

var jointNames = map[Joint]string{
	JointAnkle:    "ankle",
	JointKnee:     "knee",
	JointBack:     "back",
	JointShoulder: "shoulder",
	JointElbow:    "elbow",
}

// String returns the lowercase joint name.
func (j Joint) String() string {
	if n, ok := jointNames[j]; ok {
		return n
	}
	return "joint(?)"
}

// LabelRole returns the landmark whose marker carries this joint's
// overlay label: the vertex for flex angles, the hip for the back angle.
func (j Joint) LabelRole() Role {
	return jointSpecs[j].label
}

// jointSpec describes how one joint angle is derived from the sequence.
type jointSpec struct {
	roles      []Role // required landmark roles, in formula order
	horizontal bool   // measure against the horizontal axis instead of a vertex
	flexion    bool   // report |180 - angle| (deviation from a straight limb)
	label      Role
}

// jointSpecs is the fixed derivation table. Joint identity comes from
// this table alone; no index arithmetic appears anywhere else.
var jointSpecs = map[Joint]jointSpec{
	JointAnkle:    {roles: []Role{RoleToe, RoleAnkle, RoleKnee}, label: RoleAnkle},
	JointKnee:     {roles: []Role{RoleAnkle, RoleKnee, RoleHip}, label: RoleKnee},
	JointBack:     {roles: []Role{RoleHip, RoleShoulder}, horizontal: true, label: RoleHip},
	JointShoulder: {roles: []Role{RoleHip, RoleShoulder, RoleElbow}, label: RoleShoulder},
	JointElbow:    {roles: []Role{RoleShoulder, RoleElbow, RoleHand}, flexion: true, label: RoleElbow},
}

// Derive recomputes every joint angle for which all required landmarks
// are placed. Degenerate triples (coincident points) are skipped rather
// than clamped; the caller sees no reading for that joint this frame.
//
// The sequence is tiny and derivation is interaction-driven, so results
// are recomputed from scratch on every call without memoization.
func Derive(seq *Sequence, log *slog.Logger) []core.AngleReading {
	readings := make([]core.AngleReading, 0, len(Joints))

	for _, j := range Joints {
		spec := jointSpecs[j]
		if !rolesPlaced(seq, spec.roles) {
			continue
		}

		var degrees float64
		if spec.horizontal {
			degrees = geometry.AngleFromHorizontal(seq.At(int(spec.roles[0])), seq.At(int(spec.roles[1])))
		} else {
			var err error
			degrees, err = geometry.AngleAt(
				seq.At(int(spec.roles[0])),
				seq.At(int(spec.roles[1])),
				seq.At(int(spec.roles[2])),
			)
			if errors.Is(err, geometry.ErrDegenerate) {
				if log != nil {
					log.Debug("skipping degenerate joint", "joint", j.String())
				}
				continue
			}
		}

		if spec.flexion {
			degrees = math.Abs(180 - degrees)
		}

		readings = append(readings, core.AngleReading{Joint: j.String(), Degrees: degrees})
	}

	return readings
}

func rolesPlaced(seq *Sequence, roles []Role) bool {
	for _, r := range roles {
		if int(r) >= seq.Len() {
			return false
		}
	}
	return true
}
