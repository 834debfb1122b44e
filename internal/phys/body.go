package phys

import (
	"github.com/dicebox/dicebox-go/internal/mathx"
)

// Body is one dynamic rigid box in the world. Bodies are reused between
// rolls: Reset puts one back into a known pre-launch state.
type Body struct {
	Position    mathx.Vec3
	Orientation mathx.Quat
	Velocity    mathx.Vec3
	AngularVel  mathx.Vec3

	Mass       float64
	HalfExtent float64

	asleep     bool
	aligned    bool
	sleepTimer float64
}

// inertia returns the moment of inertia of the cube about any axis
// through its center (uniform box: m·(s²+s²)/12 with s = 2·HalfExtent).
func (b *Body) inertia() float64 {
	return b.Mass * (2.0 / 3.0) * b.HalfExtent * b.HalfExtent
}

// Asleep reports whether the body has settled and stopped simulating.
func (b *Body) Asleep() bool {
	return b.asleep
}

// Aligned reports whether the settled orientation was snapped to one of
// the 24 face-aligned rotations. A body that slept unaligned is resting
// on an edge or corner.
func (b *Body) Aligned() bool {
	return b.aligned
}

// ApplyImpulse applies an instantaneous impulse at a point given in the
// body's local frame, changing both linear and angular velocity.
func (b *Body) ApplyImpulse(impulse, localPoint mathx.Vec3) {
	b.Velocity = b.Velocity.Add(impulse.Scale(1 / b.Mass))
	r := b.Orientation.Rotate(localPoint)
	b.AngularVel = b.AngularVel.Add(r.Cross(impulse).Scale(1 / b.inertia()))
}

// Reset wakes the body and places it with zero velocities. Must run
// before a new scenario is applied so state from a superseded roll
// cannot leak into the next one.
func (b *Body) Reset(pos mathx.Vec3, orient mathx.Quat) {
	b.Position = pos
	b.Orientation = orient.Normalize()
	b.Velocity = mathx.Vec3{}
	b.AngularVel = mathx.Vec3{}
	b.asleep = false
	b.aligned = false
	b.sleepTimer = 0
}

// Wake clears sleep state without touching pose or velocity. Used to
// suppress a sleep event when the resting orientation is indeterminate:
// the body stays active and receives a small deterministic tipping
// nudge so it falls onto a face instead of balancing on an edge.
func (b *Body) Wake() {
	b.asleep = false
	b.aligned = false
	b.sleepTimer = 0
}
