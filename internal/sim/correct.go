package sim

import (
	"math"

	"github.com/dicebox/dicebox-go/internal/mathx"
)

// faceNormals holds the outward normal of each face in the body frame,
// indexed by face value. Consistent with ClassifyOrientation: rotating
// the body so that faceNormals[f] points up shows face f.
var faceNormals = [7]mathx.Vec3{
	{},         // unused
	{0, 1, 0},  // 1
	{1, 0, 0},  // 2
	{0, 0, 1},  // 3
	{0, 0, -1}, // 4
	{-1, 0, 0}, // 5
	{0, -1, 0}, // 6
}

// Correction is one entry of the desired-roll table: a single rotation
// that, composed onto a die's displayed orientation in the body frame,
// shows the desired face instead of the actual one.
type Correction struct {
	Axis  mathx.Vec3 `json:"axis"`
	Angle float64    `json:"angle"`
}

// correctionTable maps (actual, desired) ordered pairs of distinct
// faces to their corrective rotation. Derived, not hand-copied: each
// entry is the minimal rotation taking the desired face's normal onto
// the actual face's normal. Opposite faces need a 180° rotation whose
// axis is ambiguous; a fixed perpendicular is chosen so the table stays
// deterministic.
var correctionTable = buildCorrectionTable()

func buildCorrectionTable() map[[2]int]Correction {
	table := make(map[[2]int]Correction, 30)
	for actual := 1; actual <= 6; actual++ {
		for desired := 1; desired <= 6; desired++ {
			if actual == desired {
				continue
			}
			table[[2]int{actual, desired}] = deriveCorrection(
				faceNormals[desired], faceNormals[actual])
		}
	}
	return table
}

// deriveCorrection builds the minimal rotation mapping unit vector from
// onto unit vector to.
func deriveCorrection(from, to mathx.Vec3) Correction {
	d := from.Dot(to)
	if d < -0.999999 {
		// Opposite faces: any perpendicular axis works; take the first
		// coordinate axis orthogonal to the pair.
		for _, e := range []mathx.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}} {
			if math.Abs(from.Dot(e)) < 0.9 {
				return Correction{Axis: e, Angle: math.Pi}
			}
		}
	}
	return Correction{
		Axis:  from.Cross(to).Normalize(),
		Angle: math.Acos(d),
	}
}

// CorrectionFor returns the table entry for the ordered pair, or false
// when actual == desired (identity, nothing to apply).
func CorrectionFor(actual, desired int) (Correction, bool) {
	c, ok := correctionTable[[2]int{actual, desired}]
	return c, ok
}

// CorrectOrientation composes the corrective rotation for the pair onto
// a displayed orientation. The input comes from playback, never from
// the trajectory record, so the physically simulated outcome is
// untouched. correct(a, a) returns the orientation unchanged.
func CorrectOrientation(displayed mathx.Quat, actual, desired int) mathx.Quat {
	c, ok := CorrectionFor(actual, desired)
	if !ok {
		return displayed
	}
	return displayed.Mul(mathx.AxisAngle(c.Axis, c.Angle))
}
