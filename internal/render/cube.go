package render

import "github.com/dicebox/dicebox-go/internal/mathx"

// face describes one cube face in body space: the outward normal and the
// two tangent axes spanning the quad. Face numbering matches the
// classifier's layout, opposite faces sum to 7.
type face struct {
	normal mathx.Vec3
	u, v   mathx.Vec3
}

var faces = [6]face{
	{normal: mathx.Vec3{0, 1, 0}, u: mathx.Vec3{1, 0, 0}, v: mathx.Vec3{0, 0, 1}},  // 1: +Y
	{normal: mathx.Vec3{1, 0, 0}, u: mathx.Vec3{0, 0, 1}, v: mathx.Vec3{0, 1, 0}},  // 2: +X
	{normal: mathx.Vec3{0, 0, 1}, u: mathx.Vec3{1, 0, 0}, v: mathx.Vec3{0, 1, 0}},  // 3: +Z
	{normal: mathx.Vec3{0, 0, -1}, u: mathx.Vec3{1, 0, 0}, v: mathx.Vec3{0, 1, 0}}, // 4: -Z
	{normal: mathx.Vec3{-1, 0, 0}, u: mathx.Vec3{0, 0, 1}, v: mathx.Vec3{0, 1, 0}}, // 5: -X
	{normal: mathx.Vec3{0, -1, 0}, u: mathx.Vec3{1, 0, 0}, v: mathx.Vec3{0, 0, 1}}, // 6: -Y
}

// pipLayouts gives pip centers per face value in face-local coordinates,
// each axis spanning [-1, 1]. Standard western die arrangement.
var pipLayouts = [7][][2]float64{
	1: {{0, 0}},
	2: {{-0.55, -0.55}, {0.55, 0.55}},
	3: {{-0.55, -0.55}, {0, 0}, {0.55, 0.55}},
	4: {{-0.55, -0.55}, {-0.55, 0.55}, {0.55, -0.55}, {0.55, 0.55}},
	5: {{-0.55, -0.55}, {-0.55, 0.55}, {0, 0}, {0.55, -0.55}, {0.55, 0.55}},
	6: {{-0.55, -0.55}, {-0.55, 0}, {-0.55, 0.55}, {0.55, -0.55}, {0.55, 0}, {0.55, 0.55}},
}

const pipRadius = 0.17

// pipAt reports whether face-local point (u, v) falls inside a pip of
// the given face value.
func pipAt(value int, u, v float64) bool {
	if value < 1 || value > 6 {
		return false
	}
	r2 := pipRadius * pipRadius
	for _, c := range pipLayouts[value] {
		du, dv := u-c[0], v-c[1]
		if du*du+dv*dv <= r2 {
			return true
		}
	}
	return false
}
