// Package sim contains the roll pipeline: seeded scenario generation,
// the resolver state machine that drives the physics world to rest, the
// face classifier, and the cosmetic outcome corrector.
package sim

import (
	"github.com/dicebox/dicebox-go/internal/mathx"
)

// Pose is the recorded state of one die at one step.
type Pose struct {
	Position    mathx.Vec3 `json:"position"`
	Orientation mathx.Quat `json:"orientation"`
}

// Trajectory is the per-step history of every die during one
// resolution: Trajectory[step][die]. Append-only while resolving,
// frozen afterwards. Always holds at least one step; the last step is
// the resting pose whose classification is the authoritative outcome.
type Trajectory [][]Pose

// Steps returns the number of recorded steps.
func (t Trajectory) Steps() int {
	return len(t)
}

// Dice returns the number of dice per step, 0 for an empty record.
func (t Trajectory) Dice() int {
	if len(t) == 0 {
		return 0
	}
	return len(t[0])
}

// RollOutcome is the immutable result of one resolution.
type RollOutcome struct {
	Faces      []int      `json:"faces"`
	Trajectory Trajectory `json:"-"`
	Report     string     `json:"report"` // faces in settle order, "+"-separated
	Seed       string     `json:"seed"`
	Nonce      uint64     `json:"nonce"`
	TimedOut   bool       `json:"timed_out"`
	Retries    int        `json:"retries"`
}

// DieSetup is the seed-derived launch state for a single die.
type DieSetup struct {
	Position     mathx.Vec3
	Orientation  mathx.Quat
	Impulse      mathx.Vec3
	ImpulsePoint mathx.Vec3
}

// Scenario is the complete launch configuration for one roll attempt.
// Immutable once generated; retries regenerate it under a fresh seed.
type Scenario struct {
	Seed  string
	Nonce uint64
	Dice  []DieSetup
}
