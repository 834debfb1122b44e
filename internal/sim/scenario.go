package sim

import (
	"math"

	"github.com/dicebox/dicebox-go/internal/mathx"
	"github.com/dicebox/dicebox-go/internal/rng"
)

// ScenarioConfig tunes scenario generation. Values mirror the arena the
// physics world is built with; the generator itself never touches the
// world.
type ScenarioConfig struct {
	ArenaHalfX    float64
	ArenaHalfZ    float64
	DieHalfExtent float64
	DropHeight    float64

	MinSeparation     float64
	PlacementAttempts int

	ImpulseMin float64
	ImpulseMax float64
	// Fraction of the impulse magnitude applied upward so launched dice
	// hop rather than slide.
	ImpulseLift float64

	// Local contact point for impulse application; off-center so every
	// launch imparts spin.
	ImpulsePoint mathx.Vec3
}

// DefaultScenarioConfig returns the production scenario tuning.
func DefaultScenarioConfig() ScenarioConfig {
	return ScenarioConfig{
		ArenaHalfX:        6.0,
		ArenaHalfZ:        6.0,
		DieHalfExtent:     0.5,
		DropHeight:        1.5,
		MinSeparation:     1.8,
		PlacementAttempts: 64,
		ImpulseMin:        12.0,
		ImpulseMax:        30.0,
		ImpulseLift:       0.2,
		ImpulsePoint:      mathx.Vec3{0.1, 0.2, 0.1},
	}
}

// GenerateScenario deterministically derives launch state for n dice
// from (seed, nonce). Per die it draws, in fixed order: three
// orientation angles, an impulse magnitude, a launch direction angle,
// and a planar position. Same inputs, same scenario.
func GenerateScenario(seed string, nonce uint64, n int, cfg ScenarioConfig) Scenario {
	stream := rng.NewStream(seed, nonce)
	sc := Scenario{Seed: seed, Nonce: nonce, Dice: make([]DieSetup, n)}

	placed := make([]mathx.Vec3, 0, n)
	for i := 0; i < n; i++ {
		d := &sc.Dice[i]

		d.Orientation = mathx.EulerToQuat(stream.NextAngle(), stream.NextAngle(), stream.NextAngle())

		mag := stream.NextInRange(cfg.ImpulseMin, cfg.ImpulseMax)
		dir := stream.NextAngle()
		d.Impulse = mathx.Vec3{
			math.Cos(dir) * mag,
			mag * cfg.ImpulseLift,
			math.Sin(dir) * mag,
		}
		d.ImpulsePoint = cfg.ImpulsePoint

		pos, ok := placeByRejection(stream, placed, cfg)
		if !ok {
			pos = gridPosition(len(placed), n, cfg)
		}
		pos[1] = cfg.DropHeight
		d.Position = pos
		placed = append(placed, pos)
	}
	return sc
}

// placeByRejection samples the usable footprint until a candidate
// clears every already-placed die by the minimum separation, giving up
// after the attempt budget.
func placeByRejection(stream *rng.Stream, placed []mathx.Vec3, cfg ScenarioConfig) (mathx.Vec3, bool) {
	maxX := cfg.ArenaHalfX - cfg.DieHalfExtent*2
	maxZ := cfg.ArenaHalfZ - cfg.DieHalfExtent*2
	for attempt := 0; attempt < cfg.PlacementAttempts; attempt++ {
		cand := mathx.Vec3{
			stream.NextInRange(-maxX, maxX),
			0,
			stream.NextInRange(-maxZ, maxZ),
		}
		if clearsAll(cand, placed, cfg.MinSeparation) {
			return cand, true
		}
	}
	return mathx.Vec3{}, false
}

func clearsAll(cand mathx.Vec3, placed []mathx.Vec3, minSep float64) bool {
	for _, p := range placed {
		dx := cand[0] - p[0]
		dz := cand[2] - p[2]
		if math.Sqrt(dx*dx+dz*dz) < minSep {
			return false
		}
	}
	return true
}

// gridPosition lays die i of n onto a deterministic grid covering the
// same footprint the sampler uses, so placement succeeds for any count.
func gridPosition(i, n int, cfg ScenarioConfig) mathx.Vec3 {
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols
	maxX := cfg.ArenaHalfX - cfg.DieHalfExtent*2
	maxZ := cfg.ArenaHalfZ - cfg.DieHalfExtent*2

	col := i % cols
	row := i / cols
	x := -maxX
	if cols > 1 {
		x += float64(col) * (2 * maxX) / float64(cols-1)
	}
	z := -maxZ
	if rows > 1 {
		z += float64(row) * (2 * maxZ) / float64(rows-1)
	}
	return mathx.Vec3{x, 0, z}
}
