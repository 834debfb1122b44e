package sim

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dicebox/dicebox-go/internal/phys"
)

// errStuck marks an attempt where no unsettled die moved across a full
// detection window. It never escapes Resolve: stuck attempts retry
// under a fresh seed, and exhausted retries degrade to a timeout.
var errStuck = errors.New("resolution stuck")

// Per-die watcher states. The watcher is polled once per step instead
// of subscribing to sleep events, keeping the control flow linear.
type watcherState int

const (
	watcherActive watcherState = iota
	watcherIndeterminate
	watcherSettled
)

// ResolverConfig tunes the resolver state machine. The stuck-detection
// window and retry cap vary between deployments; the mechanism does
// not.
type ResolverConfig struct {
	StepDT          float64
	DetectionWindow int
	MoveThreshold   float64
	RotThreshold    float64
	MaxRetries      uint64
	Deadline        time.Duration
	MaxSteps        int
	FallbackFace    int
	ClassifyTol     float64
	// MaxNudges caps how often one die may rest indeterminate and be
	// nudged within a single attempt before the attempt counts as stuck.
	MaxNudges int
}

// DefaultResolverConfig returns the production resolver tuning.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		StepDT:          1.0 / 60.0,
		DetectionWindow: 1000,
		MoveThreshold:   1e-3,
		RotThreshold:    1e-3,
		MaxRetries:      3,
		Deadline:        10 * time.Second,
		MaxSteps:        20000,
		FallbackFace:    1,
		ClassifyTol:     DefaultClassifyTolerance,
		MaxNudges:       8,
	}
}

// Resolver drives the physics world from a generated scenario to
// physical rest and classifies the result. One Resolver owns its world;
// a resolution runs synchronously to completion, so there is no
// concurrent access to the bodies.
type Resolver struct {
	world   *phys.World
	cfg     ResolverConfig
	scenCfg ScenarioConfig
	logger  *log.Logger

	// now is swappable so tests can freeze the wall clock.
	now func() time.Time

	// OnSettle, when set, fires as each die is classified, in settle
	// order. Drives the incremental outcome report.
	OnSettle func(die, face int)
}

// NewResolver creates a resolver around an existing world.
func NewResolver(world *phys.World, cfg ResolverConfig, scenCfg ScenarioConfig, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(log.Writer(), "[resolver] ", log.LstdFlags)
	}
	return &Resolver{
		world:   world,
		cfg:     cfg,
		scenCfg: scenCfg,
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock replaces the wall-clock source. Test hook.
func (r *Resolver) SetClock(now func() time.Time) {
	r.now = now
}

// Resolve runs the full pipeline for (seed, nonce) and n dice: generate
// a scenario, step the world until every die settles, classify, and
// freeze the trajectory. Stuck attempts retry under a derived seed up
// to the retry cap; exhaustion and wall-clock expiry both degrade to a
// timed-out outcome with fallback faces, so every call that is not
// cancelled yields a complete RollOutcome.
func (r *Resolver) Resolve(ctx context.Context, seed string, nonce uint64, n int) (*RollOutcome, error) {
	if n != len(r.world.Bodies()) {
		r.world.Resize(n, r.scenCfg.DieHalfExtent)
	}

	var out *RollOutcome
	attempt := 0
	backoff := retry.WithMaxRetries(r.cfg.MaxRetries, retry.NewConstant(time.Nanosecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptSeed := retrySeed(seed, attempt)
		o, stuck, err := r.runAttempt(ctx, attemptSeed, nonce, n)
		if err != nil {
			return err
		}
		out = o
		if stuck {
			r.logger.Printf("attempt %d stuck after window, retrying with derived seed", attempt)
			attempt++
			return retry.RetryableError(errStuck)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errStuck) && out != nil {
			// Retry budget exhausted: degrade to timeout. The counter
			// was bumped for a retry that never ran.
			attempt--
			r.logger.Printf("retry budget exhausted after %d retries, reporting timeout", attempt)
			out.TimedOut = true
		} else {
			return nil, fmt.Errorf("resolve: %w", err)
		}
	}
	out.Seed = seed
	out.Nonce = nonce
	out.Retries = attempt
	return out, nil
}

// retrySeed derives the seed for a retry attempt. Attempt 0 uses the
// caller's seed unchanged so results stay reproducible.
func retrySeed(seed string, attempt int) string {
	if attempt == 0 {
		return seed
	}
	return fmt.Sprintf("%s/retry-%d", seed, attempt)
}

// runAttempt is one RUNNING episode: apply a scenario, step to rest or
// deadline, record the trajectory. Returns stuck=true when the stuck
// detector fired.
func (r *Resolver) runAttempt(ctx context.Context, seed string, nonce uint64, n int) (*RollOutcome, bool, error) {
	scenario := GenerateScenario(seed, nonce, n, r.scenCfg)
	bodies := r.world.Bodies()

	// Reset zeroes velocities and clears stale sleep state before the
	// new scenario applies; without it a superseded roll could leak a
	// sleep event into this one.
	for i, b := range bodies {
		d := scenario.Dice[i]
		b.Reset(d.Position, d.Orientation)
		b.ApplyImpulse(d.Impulse, d.ImpulsePoint)
	}

	watchers := make([]watcherState, n)
	nudges := make([]int, n)
	faces := make([]int, n)
	var report []string
	trajectory := make(Trajectory, 0, 1024)
	deadline := r.now().Add(r.cfg.Deadline)

	var prevWindow []Pose
	timedOut := false

	for step := 0; ; step++ {
		// Sample before advancing; the final iteration captures the
		// resting pose, so the record always ends on the authoritative
		// state.
		trajectory = append(trajectory, samplePoses(bodies))

		if allSettled(watchers) {
			break
		}
		if step >= r.cfg.MaxSteps || r.now().After(deadline) {
			timedOut = true
			break
		}
		if step%r.cfg.DetectionWindow == 0 {
			select {
			case <-ctx.Done():
				return nil, false, ctx.Err()
			default:
			}
			window := samplePoses(bodies)
			if step > 0 && r.isStuck(prevWindow, window, watchers) {
				return r.finishAttempt(trajectory, faces, watchers, report, true), true, nil
			}
			prevWindow = window
		}

		r.world.Step(r.cfg.StepDT)
		r.pollWatchers(bodies, watchers, nudges, faces, &report)
		for i, count := range nudges {
			if count > r.cfg.MaxNudges {
				// A die that keeps resting indeterminate despite nudges
				// is not going to recover locally; retry the attempt.
				r.logger.Printf("die %d nudged %d times without settling, treating attempt as stuck", i, count)
				return r.finishAttempt(trajectory, faces, watchers, report, true), true, nil
			}
		}
	}

	if timedOut {
		r.logger.Printf("resolution timed out after %d steps, %d/%d settled",
			len(trajectory)-1, countSettled(watchers), n)
	}
	return r.finishAttempt(trajectory, faces, watchers, report, timedOut), false, nil
}

// pollWatchers advances each die's watcher: a sleeping body is
// classified; a valid face settles the watcher, an indeterminate rest
// suppresses the sleep and nudges the die so it tips onto a face.
func (r *Resolver) pollWatchers(bodies []*phys.Body, watchers []watcherState, nudges, faces []int, report *[]string) {
	for i, b := range bodies {
		if watchers[i] == watcherSettled || !b.Asleep() {
			continue
		}
		face := ClassifyOrientation(b.Orientation, r.cfg.ClassifyTol)
		if face == FaceIndeterminate {
			b.Wake()
			r.world.Nudge(b)
			nudges[i]++
			watchers[i] = watcherIndeterminate // re-armed, still unsettled
			continue
		}
		watchers[i] = watcherSettled
		faces[i] = face
		*report = append(*report, strconv.Itoa(face))
		if r.OnSettle != nil {
			r.OnSettle(i, face)
		}
	}
}

// isStuck compares unsettled dice across a detection window: stuck when
// every one of them has neither moved nor rotated beyond the noise
// thresholds.
func (r *Resolver) isStuck(prev, cur []Pose, watchers []watcherState) bool {
	sawUnsettled := false
	for i := range cur {
		if watchers[i] == watcherSettled {
			continue
		}
		sawUnsettled = true
		moved := cur[i].Position.Sub(prev[i].Position).Len()
		rotated := cur[i].Orientation.AngleTo(prev[i].Orientation)
		if moved > r.cfg.MoveThreshold || rotated > r.cfg.RotThreshold {
			return false
		}
	}
	return sawUnsettled
}

func (r *Resolver) finishAttempt(trajectory Trajectory, faces []int, watchers []watcherState, report []string, timedOut bool) *RollOutcome {
	for i := range faces {
		if watchers[i] != watcherSettled {
			faces[i] = r.cfg.FallbackFace
		}
	}
	return &RollOutcome{
		Faces:      faces,
		Trajectory: trajectory,
		Report:     strings.Join(report, "+"),
		TimedOut:   timedOut,
	}
}

func samplePoses(bodies []*phys.Body) []Pose {
	poses := make([]Pose, len(bodies))
	for i, b := range bodies {
		poses[i] = Pose{Position: b.Position, Orientation: b.Orientation}
	}
	return poses
}

func allSettled(watchers []watcherState) bool {
	for _, w := range watchers {
		if w != watcherSettled {
			return false
		}
	}
	return true
}

func countSettled(watchers []watcherState) int {
	n := 0
	for _, w := range watchers {
		if w == watcherSettled {
			n++
		}
	}
	return n
}
