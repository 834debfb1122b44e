// Package phys is the physics world behind the roll pipeline: a bounded
// arena (floor plus four walls) holding one dynamic box body per die.
// The integrator is fixed-step and fully deterministic; stepping the
// same initial state always produces the same trajectory.
package phys

import (
	"math"

	"github.com/dicebox/dicebox-go/internal/mathx"
)

// Config holds the world tunables. Zero values are replaced by
// DefaultConfig defaults.
type Config struct {
	Gravity     float64 // m/s², applied along −Y
	ArenaHalfX  float64
	ArenaHalfZ  float64
	Restitution float64
	Friction    float64 // horizontal velocity retained factor lost per floor contact step

	LinearDamping  float64 // velocity retained per step while airborne
	AngularDamping float64

	SleepLinear  float64 // speed below which the sleep timer runs
	SleepAngular float64
	SleepDelay   float64 // seconds of stillness before settling starts

	AlignRate   float64 // rad/s rotation toward the snapped orientation
	AlignMargin float64 // dominance margin for face-alignment snapping
}

// DefaultConfig returns the tuning used in production.
func DefaultConfig() Config {
	return Config{
		Gravity:        20.0,
		ArenaHalfX:     6.0,
		ArenaHalfZ:     6.0,
		Restitution:    0.4,
		Friction:       0.08,
		LinearDamping:  0.995,
		AngularDamping: 0.97,
		SleepLinear:    0.08,
		SleepAngular:   0.12,
		SleepDelay:     0.25,
		AlignRate:      6.0,
		AlignMargin:    0.25,
	}
}

// World owns the static arena geometry and the dynamic die bodies.
type World struct {
	cfg    Config
	bodies []*Body
}

// NewWorld creates a world with n die bodies of the given half-extent.
func NewWorld(cfg Config, n int, halfExtent float64) *World {
	w := &World{cfg: cfg}
	w.Resize(n, halfExtent)
	return w
}

// Bodies returns the dynamic bodies, index = die index.
func (w *World) Bodies() []*Body {
	return w.bodies
}

// Config returns the world tuning.
func (w *World) Config() Config {
	return w.cfg
}

// Resize rebuilds the body set for a new die count. Old bodies are
// discarded; new ones start asleep at the origin until a scenario is
// applied.
func (w *World) Resize(n int, halfExtent float64) {
	w.bodies = make([]*Body, n)
	for i := range w.bodies {
		w.bodies[i] = &Body{
			Orientation: mathx.QuatIdentity(),
			Mass:        1.0,
			HalfExtent:  halfExtent,
			asleep:      true,
		}
	}
}

// AllAsleep reports whether every body has settled.
func (w *World) AllAsleep() bool {
	for _, b := range w.bodies {
		if !b.asleep {
			return false
		}
	}
	return true
}

// Step advances the simulation by one fixed timestep.
func (w *World) Step(dt float64) {
	for _, b := range w.bodies {
		if b.asleep {
			continue
		}
		w.integrate(b, dt)
	}

	for i := 0; i < len(w.bodies); i++ {
		for j := i + 1; j < len(w.bodies); j++ {
			w.resolvePair(w.bodies[i], w.bodies[j])
		}
	}

	for _, b := range w.bodies {
		if b.asleep {
			continue
		}
		w.resolveFloor(b, dt)
		w.resolveWalls(b)
		w.updateSleep(b, dt)
	}
}

func (w *World) integrate(b *Body, dt float64) {
	b.Velocity[1] -= w.cfg.Gravity * dt
	b.Velocity = b.Velocity.Scale(w.cfg.LinearDamping)
	b.AngularVel = b.AngularVel.Scale(w.cfg.AngularDamping)

	b.Position = b.Position.Add(b.Velocity.Scale(dt))

	// dq/dt = ½·ω·q with ω as a pure quaternion in the world frame.
	omega := mathx.Quat{b.AngularVel[0], b.AngularVel[1], b.AngularVel[2], 0}
	dq := omega.Mul(b.Orientation)
	half := 0.5 * dt
	b.Orientation = mathx.Quat{
		b.Orientation[0] + dq[0]*half,
		b.Orientation[1] + dq[1]*half,
		b.Orientation[2] + dq[2]*half,
		b.Orientation[3] + dq[3]*half,
	}.Normalize()
}

// maxTipSpin is the angular speed above which the support torque stops
// feeding a tipping body. Tipping past an edge needs well under this;
// anything faster is tumbling and must lose energy, not gain it.
const maxTipSpin = 2.0

// support returns the reach of the rotated cube along world axis row r
// of the rotation matrix (0=X, 1=Y, 2=Z).
func support(b *Body, row int) float64 {
	m := b.Orientation.Mat3()
	return b.HalfExtent * (math.Abs(m[row*3]) + math.Abs(m[row*3+1]) + math.Abs(m[row*3+2]))
}

// lowestCorner returns the world-frame offset from the center to the
// lowest of the eight cube corners.
func lowestCorner(b *Body) mathx.Vec3 {
	h := b.HalfExtent
	best := mathx.Vec3{}
	bestY := math.Inf(1)
	for sx := -1.0; sx <= 1; sx += 2 {
		for sy := -1.0; sy <= 1; sy += 2 {
			for sz := -1.0; sz <= 1; sz += 2 {
				c := b.Orientation.Rotate(mathx.Vec3{sx * h, sy * h, sz * h})
				if c[1] < bestY {
					bestY = c[1]
					best = c
				}
			}
		}
	}
	return best
}

func (w *World) resolveFloor(b *Body, dt float64) {
	corner := lowestCorner(b)
	bottom := b.Position[1] + corner[1]
	if bottom >= 0 {
		return
	}

	b.Position[1] -= bottom
	if b.Velocity[1] < 0 {
		b.Velocity[1] = -b.Velocity[1] * w.cfg.Restitution
		// Below this the bounce is just per-step gravity being
		// reflected back; kill it so resting bodies stop jittering.
		if b.Velocity[1] < 0.15 {
			b.Velocity[1] = 0
		}
	}

	// Contact friction on the horizontal plane.
	b.Velocity[0] *= 1 - w.cfg.Friction
	b.Velocity[2] *= 1 - w.cfg.Friction

	// Support-force torque about the contact corner tips an edge- or
	// corner-leaning cube onto a face. It applies only while no face
	// dominates and the spin is below the tip cap: a cube with a
	// dominant face rests on four corners whose torques cancel, so
	// single-corner torque there pumps spin in every contact step and
	// the die rocks instead of settling. Once a face dominates, contact
	// damping drains the spin and the alignment phase flattens the die.
	if _, ok := mathx.NearestAligned(b.Orientation, w.cfg.AlignMargin); !ok && b.AngularVel.Len() < maxTipSpin {
		normalForce := mathx.Vec3{0, b.Mass * w.cfg.Gravity, 0}
		torque := corner.Cross(normalForce)
		b.AngularVel = b.AngularVel.Add(torque.Scale(dt / b.inertia()))
	}
	b.AngularVel = b.AngularVel.Scale(1 - w.cfg.Friction)
}

func (w *World) resolveWalls(b *Body) {
	reachX := support(b, 0)
	reachZ := support(b, 2)

	if over := b.Position[0] + reachX - w.cfg.ArenaHalfX; over > 0 {
		b.Position[0] -= over
		if b.Velocity[0] > 0 {
			b.Velocity[0] = -b.Velocity[0] * w.cfg.Restitution
		}
	}
	if over := -w.cfg.ArenaHalfX - (b.Position[0] - reachX); over > 0 {
		b.Position[0] += over
		if b.Velocity[0] < 0 {
			b.Velocity[0] = -b.Velocity[0] * w.cfg.Restitution
		}
	}
	if over := b.Position[2] + reachZ - w.cfg.ArenaHalfZ; over > 0 {
		b.Position[2] -= over
		if b.Velocity[2] > 0 {
			b.Velocity[2] = -b.Velocity[2] * w.cfg.Restitution
		}
	}
	if over := -w.cfg.ArenaHalfZ - (b.Position[2] - reachZ); over > 0 {
		b.Position[2] += over
		if b.Velocity[2] < 0 {
			b.Velocity[2] = -b.Velocity[2] * w.cfg.Restitution
		}
	}
}

// resolvePair handles die-die contact with a bounding-sphere test and a
// mass-ratio push-out plus restitution impulse.
func (w *World) resolvePair(a, b *Body) {
	if a.asleep && b.asleep {
		return
	}
	radius := a.HalfExtent + b.HalfExtent
	delta := a.Position.Sub(b.Position)
	dist := delta.Len()
	if dist >= radius || dist < 1e-9 {
		return
	}

	normal := delta.Scale(1 / dist)
	depth := radius - dist

	totalMass := a.Mass + b.Mass
	a.Position = a.Position.Add(normal.Scale(depth * b.Mass / totalMass))
	b.Position = b.Position.Sub(normal.Scale(depth * a.Mass / totalMass))

	relVel := a.Velocity.Sub(b.Velocity)
	along := relVel.Dot(normal)
	if along > 0 {
		return // already separating
	}

	e := w.cfg.Restitution
	j := -(1 + e) * along / (1/a.Mass + 1/b.Mass)
	impulse := normal.Scale(j)
	a.Velocity = a.Velocity.Add(impulse.Scale(1 / a.Mass))
	b.Velocity = b.Velocity.Sub(impulse.Scale(1 / b.Mass))

	// Contact spins both bodies a little.
	spin := normal.Cross(relVel).Scale(0.5)
	a.AngularVel = a.AngularVel.Sub(spin.Scale(1 / a.inertia()))
	b.AngularVel = b.AngularVel.Add(spin.Scale(1 / b.inertia()))

	a.Wake()
	b.Wake()
}

func (w *World) updateSleep(b *Body, dt float64) {
	onFloor := b.Position[1]-support(b, 1) < 1e-3
	slow := b.Velocity.Len() < w.cfg.SleepLinear && b.AngularVel.Len() < w.cfg.SleepAngular
	if !onFloor || !slow {
		b.sleepTimer = 0
		return
	}

	b.sleepTimer += dt
	if b.sleepTimer < w.cfg.SleepDelay {
		return
	}

	target, ok := mathx.NearestAligned(b.Orientation, w.cfg.AlignMargin)
	if !ok {
		// Edge or corner balance: report sleep with the raw pose and
		// let the caller decide whether to wake and nudge the body.
		b.Velocity = mathx.Vec3{}
		b.AngularVel = mathx.Vec3{}
		b.asleep = true
		b.aligned = false
		return
	}

	angle := b.Orientation.AngleTo(target)
	if angle < 1e-3 {
		b.Orientation = target
		b.Position[1] = b.HalfExtent // rest exactly on the floor
		b.Velocity = mathx.Vec3{}
		b.AngularVel = mathx.Vec3{}
		b.asleep = true
		b.aligned = true
		return
	}

	// Rotate toward the snapped orientation at the alignment rate,
	// keeping the body grounded and still while it flattens.
	t := w.cfg.AlignRate * dt / angle
	if t > 1 {
		t = 1
	}
	b.Orientation = b.Orientation.Slerp(target, t)
	b.Position[1] = support(b, 1)
	b.Velocity = mathx.Vec3{}
	b.AngularVel = mathx.Vec3{}
}

// Nudge applies a small deterministic tipping rotation impulse derived
// from the body's current orientation. The resolver uses it after
// suppressing an indeterminate sleep so the die falls onto a face.
func (w *World) Nudge(b *Body) {
	m := b.Orientation.Mat3()
	// Tip about the horizontal axis most orthogonal to the current
	// up-most body axis; the orientation itself picks the direction, so
	// repeated runs stay deterministic.
	axis := mathx.Vec3{m[3], 0, m[5]}.Normalize()
	if axis.Len() < 0.5 {
		axis = mathx.Vec3{1, 0, 0}
	}
	b.AngularVel = b.AngularVel.Add(axis.Scale(1.5))
	b.Velocity[1] += 0.5
}
