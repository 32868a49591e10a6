package ranges

import (
	"github.com/velofit/engine/internal/landmark"
	"github.com/velofit/engine/pkg/core"
)

type adviceKey struct {
	joint     landmark.Joint
	direction core.Direction
}

// adviceTable maps each out-of-range joint and direction to the fit
// adjustment shown in the recommendation table. Consulted only when a
// classification falls outside its target interval.
var adviceTable = map[adviceKey]string{
	{landmark.JointAnkle, core.DirectionLow}:  "Ankle is too flexed. Check cleat position and drop the heel slightly less through the stroke.",
	{landmark.JointAnkle, core.DirectionHigh}: "Ankle is too extended. Move the cleat rearward or reduce pointing the toes at the bottom of the stroke.",

	{landmark.JointKnee, core.DirectionLow}:  "Knee is too bent at the bottom of the stroke. Raise the saddle in small steps.",
	{landmark.JointKnee, core.DirectionHigh}: "Knee is too straight at the bottom of the stroke. Lower the saddle in small steps.",

	{landmark.JointBack, core.DirectionLow}:  "Back is flatter than the target posture. Raise the handlebar or shorten the stem.",
	{landmark.JointBack, core.DirectionHigh}: "Back is more upright than the target posture. Lower the handlebar or lengthen the stem.",

	{landmark.JointShoulder, core.DirectionLow}:  "Shoulder angle is too closed. Lengthen the reach with a longer stem or move the saddle back.",
	{landmark.JointShoulder, core.DirectionHigh}: "Shoulder angle is too open. Shorten the reach with a shorter stem or move the saddle forward.",

	{landmark.JointElbow, core.DirectionLow}:  "Arms are too straight. Relax the elbows or shorten the reach so they can bend.",
	{landmark.JointElbow, core.DirectionHigh}: "Arms are too bent. Lengthen the reach or check that the handlebar is not too close.",
}

// adviceFor returns the advice line for an out-of-range joint.
func adviceFor(joint landmark.Joint, direction core.Direction) string {
	return adviceTable[adviceKey{joint: joint, direction: direction}]
}
