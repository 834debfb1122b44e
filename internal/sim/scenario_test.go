package sim

import (
	"math"
	"testing"
)

func TestScenarioDeterminism(t *testing.T) {
	cfg := DefaultScenarioConfig()
	a := GenerateScenario("abc", 0, 5, cfg)
	b := GenerateScenario("abc", 0, 5, cfg)

	for i := range a.Dice {
		if a.Dice[i] != b.Dice[i] {
			t.Fatalf("die %d differs between identical seeds", i)
		}
	}
}

func TestScenarioSeedSensitivity(t *testing.T) {
	cfg := DefaultScenarioConfig()
	a := GenerateScenario("abc", 0, 3, cfg)
	b := GenerateScenario("abd", 0, 3, cfg)
	if a.Dice[0] == b.Dice[0] {
		t.Error("different seeds produced the same first die setup")
	}

	c := GenerateScenario("abc", 1, 3, cfg)
	if a.Dice[0] == c.Dice[0] {
		t.Error("different nonces produced the same first die setup")
	}
}

func TestScenarioMinimumSeparation(t *testing.T) {
	cfg := DefaultScenarioConfig()
	for _, n := range []int{2, 4, 8} {
		sc := GenerateScenario("separation", 0, n, cfg)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				dx := sc.Dice[i].Position[0] - sc.Dice[j].Position[0]
				dz := sc.Dice[i].Position[2] - sc.Dice[j].Position[2]
				d := math.Sqrt(dx*dx + dz*dz)
				if d < cfg.MinSeparation {
					t.Errorf("n=%d: dice %d,%d only %v apart", n, i, j, d)
				}
			}
		}
	}
}

func TestScenarioGridFallbackDistinct(t *testing.T) {
	cfg := DefaultScenarioConfig()
	cfg.PlacementAttempts = 0 // force the grid path for every die
	sc := GenerateScenario("grid", 0, 10, cfg)

	seen := make(map[[2]float64]bool)
	for i, d := range sc.Dice {
		key := [2]float64{d.Position[0], d.Position[2]}
		if seen[key] {
			t.Errorf("die %d shares a grid position %v", i, key)
		}
		seen[key] = true
	}
}

func TestScenarioImpulseRange(t *testing.T) {
	cfg := DefaultScenarioConfig()
	sc := GenerateScenario("impulse", 0, 10, cfg)
	for i, d := range sc.Dice {
		horizontal := math.Hypot(d.Impulse[0], d.Impulse[2])
		if horizontal < cfg.ImpulseMin || horizontal >= cfg.ImpulseMax {
			t.Errorf("die %d: horizontal impulse %v outside [%v,%v)", i, horizontal, cfg.ImpulseMin, cfg.ImpulseMax)
		}
		if d.Impulse[1] <= 0 {
			t.Errorf("die %d: no upward lift on launch impulse", i)
		}
		if d.ImpulsePoint != cfg.ImpulsePoint {
			t.Errorf("die %d: impulse point %v, want fixed %v", i, d.ImpulsePoint, cfg.ImpulsePoint)
		}
	}
}

func TestScenarioPositionsInsideArena(t *testing.T) {
	cfg := DefaultScenarioConfig()
	sc := GenerateScenario("bounds", 0, 10, cfg)
	for i, d := range sc.Dice {
		if math.Abs(d.Position[0]) > cfg.ArenaHalfX || math.Abs(d.Position[2]) > cfg.ArenaHalfZ {
			t.Errorf("die %d placed outside the arena: %v", i, d.Position)
		}
		if d.Position[1] != cfg.DropHeight {
			t.Errorf("die %d drop height %v, want %v", i, d.Position[1], cfg.DropHeight)
		}
	}
}
