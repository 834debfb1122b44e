// Package playback replays a frozen trajectory record against a
// monotonic clock, either interpolated at display rate or locked to the
// simulation rate, with token-based cancellation and optional frame
// export.
package playback

import (
	"image"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dicebox/dicebox-go/internal/sim"
)

// SimRate is the simulation step rate the trajectory was recorded at.
const SimRate = 60.0

// Mode selects how trajectory samples map to display frames.
type Mode int

const (
	// ModeInterpolated follows the wall clock, blending between the two
	// neighboring samples each refresh.
	ModeInterpolated Mode = iota
	// ModeFixedFrame ignores the clock and advances exactly one sample
	// per refresh.
	ModeFixedFrame
)

// RenderFunc receives the per-die display poses for one frame and
// returns the rendered image, or nil when nothing was drawn. The poses
// already include any outcome correction.
type RenderFunc func(poses []sim.Pose) image.Image

// Options configures one playback session.
type Options struct {
	Mode Mode
	// Desired, when non-empty, holds the operator-desired face per die;
	// 0 means leave that die alone. Correction is cosmetic: it bends
	// only the displayed orientations, never the record.
	Desired []int
	Render  RenderFunc
	// Export, when set, accumulates rendered frames with durations.
	Export *Exporter
}

// Player owns the current playback session. Starting a new session
// supersedes the previous one: its token stops matching and any
// in-flight callback renders nothing and never reschedules.
type Player struct {
	mu        sync.Mutex
	clock     func() time.Time
	scheduler Scheduler
	logger    *log.Logger
	current   uuid.UUID
}

// NewPlayer creates a player using the given scheduler as its display
// refresh source.
func NewPlayer(scheduler Scheduler, logger *log.Logger) *Player {
	if logger == nil {
		logger = log.New(log.Writer(), "[playback] ", log.LstdFlags)
	}
	return &Player{
		clock:     time.Now,
		scheduler: scheduler,
		logger:    logger,
	}
}

// SetClock replaces the wall-clock source. Test hook.
func (p *Player) SetClock(now func() time.Time) {
	p.clock = now
}

// session is the per-roll playback state; at most one holds the
// player's current token.
type session struct {
	token      uuid.UUID
	trajectory sim.Trajectory
	actual     []int
	opts       Options
	start      time.Time
	lastFrame  time.Time
	fixedIndex int
	done       bool
}

// Play starts a playback session for a resolved outcome and returns
// its generation token. The previous session, if any, is superseded
// immediately.
func (p *Player) Play(outcome *sim.RollOutcome, opts Options) uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()

	token := uuid.New()
	p.current = token
	if opts.Export != nil {
		opts.Export.Reset()
	}

	s := &session{
		token:      token,
		trajectory: outcome.Trajectory,
		actual:     outcome.Faces,
		opts:       opts,
		start:      p.clock(),
	}
	s.lastFrame = s.start
	p.scheduler.Schedule(func() { p.frame(s) })
	return token
}

// Cancel invalidates the current session without starting a new one.
func (p *Player) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = uuid.Nil
}

// frame is one display-refresh callback.
func (p *Player) frame(s *session) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Stale token: this session was superseded. Render nothing, do not
	// reschedule.
	if s.token != p.current || s.done {
		return
	}
	if s.trajectory.Steps() == 0 {
		s.done = true
		return
	}

	var poses []sim.Pose
	var terminal bool
	switch s.opts.Mode {
	case ModeFixedFrame:
		poses, terminal = s.fixedFramePoses()
	default:
		poses, terminal = s.interpolatedPoses(p.clock())
	}

	display := applyCorrection(poses, s.actual, s.opts.Desired)

	var img image.Image
	if s.opts.Render != nil {
		img = s.opts.Render(display)
	}
	if s.opts.Export != nil && img != nil {
		now := p.clock()
		var d time.Duration
		if s.opts.Mode == ModeFixedFrame {
			d = time.Second / time.Duration(SimRate)
		} else {
			d = now.Sub(s.lastFrame)
		}
		s.lastFrame = now
		s.opts.Export.Append(img, d)
	}

	if terminal {
		s.done = true
		return
	}
	p.scheduler.Schedule(func() { p.frame(s) })
}

// interpolatedPoses maps elapsed wall time to a fractional step index
// and blends between the neighboring samples: positions linearly,
// orientations spherically. Past the end it snaps exactly to the last
// sample and reports the terminal frame.
func (s *session) interpolatedPoses(now time.Time) ([]sim.Pose, bool) {
	elapsed := now.Sub(s.start).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	idx := elapsed * SimRate

	last := s.trajectory.Steps() - 1
	i := int(math.Floor(idx))
	if i > last {
		i = last
	}
	j := int(math.Ceil(idx))
	if j > last {
		return clonePoses(s.trajectory[last]), true
	}

	frac := idx - math.Floor(idx)
	a, b := s.trajectory[i], s.trajectory[j]
	poses := make([]sim.Pose, len(a))
	for d := range a {
		poses[d] = sim.Pose{
			Position:    a[d].Position.Lerp(b[d].Position, frac),
			Orientation: a[d].Orientation.Slerp(b[d].Orientation, frac),
		}
	}
	return poses, false
}

// fixedFramePoses advances one trajectory index per refresh, copying
// the sample without interpolation.
func (s *session) fixedFramePoses() ([]sim.Pose, bool) {
	last := s.trajectory.Steps() - 1
	i := s.fixedIndex
	if i >= last {
		i = last
	}
	poses := clonePoses(s.trajectory[i])
	s.fixedIndex++
	return poses, i >= last
}

// applyCorrection composes the desired-roll rotation onto the displayed
// orientation of each die whose desired face differs from its actual
// one. Input samples are copied, never mutated.
func applyCorrection(poses []sim.Pose, actual, desired []int) []sim.Pose {
	out := clonePoses(poses)
	for i := range out {
		if i >= len(actual) || i >= len(desired) {
			break
		}
		if desired[i] == 0 || desired[i] == actual[i] {
			continue
		}
		out[i].Orientation = sim.CorrectOrientation(out[i].Orientation, actual[i], desired[i])
	}
	return out
}

func clonePoses(in []sim.Pose) []sim.Pose {
	out := make([]sim.Pose, len(in))
	copy(out, in)
	return out
}
