package playback

import (
	"image"
	"math"
	"testing"
	"time"

	"github.com/dicebox/dicebox-go/internal/mathx"
	"github.com/dicebox/dicebox-go/internal/sim"
)

// makeTrajectory builds a synthetic record: die d at step s sits at
// x = s, identity orientation.
func makeTrajectory(steps, dice int) sim.Trajectory {
	t := make(sim.Trajectory, steps)
	for s := 0; s < steps; s++ {
		t[s] = make([]sim.Pose, dice)
		for d := 0; d < dice; d++ {
			t[s][d] = sim.Pose{
				Position:    mathx.Vec3{float64(s), 0.5, 0},
				Orientation: mathx.QuatIdentity(),
			}
		}
	}
	return t
}

func testOutcome(steps, dice int) *sim.RollOutcome {
	faces := make([]int, dice)
	for i := range faces {
		faces[i] = 1
	}
	return &sim.RollOutcome{Faces: faces, Trajectory: makeTrajectory(steps, dice)}
}

// fakeClock is a manually advanced wall clock.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func tinyImage() image.Image {
	return image.NewNRGBA(image.Rect(0, 0, 1, 1))
}

func TestInterpolatedMonotoneAndTerminal(t *testing.T) {
	sched := &QueueScheduler{}
	p := NewPlayer(sched, nil)
	clock := &fakeClock{now: time.Unix(100, 0)}
	p.SetClock(clock.Now)

	var xs []float64
	p.Play(testOutcome(11, 1), Options{
		Mode: ModeInterpolated,
		Render: func(poses []sim.Pose) image.Image {
			xs = append(xs, poses[0].Position[0])
			return nil
		},
	})

	// Half a simulation step of wall time per refresh.
	for i := 0; i < 100 && sched.Pending(); i++ {
		sched.RunNext()
		clock.Advance(time.Second / 120)
	}

	if sched.Pending() {
		t.Fatal("playback did not reach the terminal frame")
	}
	if len(xs) == 0 {
		t.Fatal("no frames rendered")
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] < xs[i-1] {
			t.Fatalf("frame %d went backwards: %v after %v", i, xs[i], xs[i-1])
		}
	}
	if xs[len(xs)-1] != 10 {
		t.Errorf("terminal frame at x=%v, want exact last sample 10", xs[len(xs)-1])
	}
}

func TestInterpolatedBlendsBetweenSamples(t *testing.T) {
	sched := &QueueScheduler{}
	p := NewPlayer(sched, nil)
	clock := &fakeClock{now: time.Unix(0, 0)}
	p.SetClock(clock.Now)

	var xs []float64
	p.Play(testOutcome(4, 1), Options{
		Mode: ModeInterpolated,
		Render: func(poses []sim.Pose) image.Image {
			xs = append(xs, poses[0].Position[0])
			return nil
		},
	})

	// First frame at elapsed 0 renders sample 0 exactly.
	sched.RunNext()
	if xs[0] != 0 {
		t.Fatalf("first frame x=%v, want 0", xs[0])
	}

	// Advance half a step: the next frame must sit midway. The duration
	// is truncated to whole nanoseconds, so compare with an epsilon.
	clock.Advance(time.Second / 120)
	sched.RunNext()
	if math.Abs(xs[1]-0.5) > 1e-6 {
		t.Errorf("half-step frame x=%v, want 0.5", xs[1])
	}
}

func TestFixedFrameCopiesEverySample(t *testing.T) {
	sched := &QueueScheduler{}
	p := NewPlayer(sched, nil)

	var xs []float64
	p.Play(testOutcome(5, 1), Options{
		Mode: ModeFixedFrame,
		Render: func(poses []sim.Pose) image.Image {
			xs = append(xs, poses[0].Position[0])
			return nil
		},
	})
	sched.Drain()

	want := []float64{0, 1, 2, 3, 4}
	if len(xs) != len(want) {
		t.Fatalf("rendered %d frames, want %d", len(xs), len(want))
	}
	for i := range want {
		if xs[i] != want[i] {
			t.Errorf("frame %d: x=%v, want %v (no interpolation in fixed mode)", i, xs[i], want[i])
		}
	}
}

func TestSupersededSessionRendersNothing(t *testing.T) {
	sched := &QueueScheduler{}
	p := NewPlayer(sched, nil)

	first, second := 0, 0
	p.Play(testOutcome(5, 1), Options{
		Mode:   ModeFixedFrame,
		Render: func([]sim.Pose) image.Image { first++; return nil },
	})
	sched.RunNext() // one frame of the first session
	sched.RunNext() // second frame

	p.Play(testOutcome(5, 1), Options{
		Mode:   ModeFixedFrame,
		Render: func([]sim.Pose) image.Image { second++; return nil },
	})
	sched.Drain()

	if first != 2 {
		t.Errorf("superseded session rendered %d frames after takeover, want it frozen at 2", first)
	}
	if second != 5 {
		t.Errorf("current session rendered %d frames, want 5", second)
	}
}

func TestSupersededSessionStopsExporting(t *testing.T) {
	sched := &QueueScheduler{}
	p := NewPlayer(sched, nil)
	exp := NewExporter()

	p.Play(testOutcome(5, 1), Options{
		Mode:   ModeFixedFrame,
		Render: func([]sim.Pose) image.Image { return tinyImage() },
		Export: exp,
	})
	sched.RunNext()
	sched.RunNext()
	if exp.Len() != 2 {
		t.Fatalf("expected 2 exported frames before takeover, got %d", exp.Len())
	}

	// New roll with the same exporter: buffer resets and only new
	// frames accumulate.
	p.Play(testOutcome(3, 1), Options{
		Mode:   ModeFixedFrame,
		Render: func([]sim.Pose) image.Image { return tinyImage() },
		Export: exp,
	})
	sched.Drain()
	if exp.Len() != 3 {
		t.Errorf("exporter holds %d frames, want 3 from the new session only", exp.Len())
	}
}

func TestFixedFrameExportDurations(t *testing.T) {
	sched := &QueueScheduler{}
	p := NewPlayer(sched, nil)
	exp := NewExporter()

	p.Play(testOutcome(4, 1), Options{
		Mode:   ModeFixedFrame,
		Render: func([]sim.Pose) image.Image { return tinyImage() },
		Export: exp,
	})
	sched.Drain()

	want := time.Second / 60
	for i, f := range exp.Frames() {
		if f.Duration != want {
			t.Errorf("frame %d duration %v, want fixed timestep %v", i, f.Duration, want)
		}
	}
}

func TestCorrectionAppliedToDisplayOnly(t *testing.T) {
	sched := &QueueScheduler{}
	p := NewPlayer(sched, nil)

	out := testOutcome(3, 1) // actual face 1, identity orientations
	var rendered []sim.Pose
	p.Play(out, Options{
		Mode:    ModeFixedFrame,
		Desired: []int{6},
		Render: func(poses []sim.Pose) image.Image {
			rendered = poses
			return nil
		},
	})
	sched.Drain()

	if got := sim.ClassifyOrientation(rendered[0].Orientation, sim.DefaultClassifyTolerance); got != 6 {
		t.Errorf("displayed face %d, want desired 6", got)
	}
	// The record itself must stay untouched.
	last := out.Trajectory[out.Trajectory.Steps()-1]
	if got := sim.ClassifyOrientation(last[0].Orientation, sim.DefaultClassifyTolerance); got != 1 {
		t.Errorf("trajectory record was mutated: classifies as %d", got)
	}
}

func TestCancelStopsPlayback(t *testing.T) {
	sched := &QueueScheduler{}
	p := NewPlayer(sched, nil)

	frames := 0
	p.Play(testOutcome(10, 1), Options{
		Mode:   ModeFixedFrame,
		Render: func([]sim.Pose) image.Image { frames++; return nil },
	})
	sched.RunNext()
	p.Cancel()
	sched.Drain()

	if frames != 1 {
		t.Errorf("rendered %d frames after cancel, want 1", frames)
	}
}
