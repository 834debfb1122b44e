package render

import (
	"image"
	"testing"

	"github.com/dicebox/dicebox-go/internal/mathx"
	"github.com/dicebox/dicebox-go/internal/sim"
)

func testRenderer(size, supersample int) *Renderer {
	return New(Config{
		Size:        size,
		Supersample: supersample,
		Margin:      8,
		ArenaHalfX:  3,
		ArenaHalfZ:  3,
	})
}

func restingPose() sim.Pose {
	return sim.Pose{
		Position:    mathx.Vec3{0, 0.5, 0},
		Orientation: mathx.QuatIdentity(),
	}
}

func TestFrameSizeAndBackground(t *testing.T) {
	r := testRenderer(64, 1)
	img := r.Frame([]sim.Pose{restingPose()}, 0.5)

	if got := img.Bounds(); got.Dx() != 64 || got.Dy() != 64 {
		t.Fatalf("frame bounds %v, want 64x64", got)
	}
	// Corners lie outside the die and show the felt.
	c := img.NRGBAAt(1, 1)
	if c.G <= c.R || c.G <= c.B {
		t.Errorf("corner pixel %v is not felt green", c)
	}
	if c.A != 255 {
		t.Errorf("frame must be opaque, corner alpha %d", c.A)
	}
}

func TestFrameShowsUpFace(t *testing.T) {
	r := testRenderer(64, 1)
	img := r.Frame([]sim.Pose{restingPose()}, 0.5)

	// Face 1 is up: a single pip at the die center, ivory around it.
	pip := img.NRGBAAt(32, 32)
	if pip.R > 80 || pip.G > 80 || pip.B > 80 {
		t.Errorf("center pixel %v should be a dark pip", pip)
	}
	body := img.NRGBAAt(29, 32)
	if body.R < 150 || body.G < 150 || body.B < 150 {
		t.Errorf("off-pip pixel %v should be shaded ivory", body)
	}
}

func TestFrameDepthPrefersUpperFace(t *testing.T) {
	// Rolled to 6: face 6 up, face 1 down. The center of face 6 has no
	// pip, so the depth test must keep the upper face's ivory there
	// instead of the buried face 1 pip.
	r := testRenderer(64, 1)
	pose := sim.Pose{
		Position:    mathx.Vec3{0, 0.5, 0},
		Orientation: mathx.AxisAngle(mathx.Vec3{1, 0, 0}, 3.141592653589793),
	}
	img := r.Frame([]sim.Pose{pose}, 0.5)

	c := img.NRGBAAt(32, 32)
	if c.R < 150 || c.G < 150 || c.B < 150 {
		t.Errorf("center pixel %v should be ivory, buried face leaked through", c)
	}
}

func TestFrameSupersampleMatchesOutputSize(t *testing.T) {
	r := testRenderer(48, 3)
	img := r.Frame([]sim.Pose{restingPose()}, 0.5)
	if got := img.Bounds(); got.Dx() != 48 || got.Dy() != 48 {
		t.Fatalf("supersampled frame bounds %v, want 48x48", got)
	}
}

func TestFrameEmptyPoseList(t *testing.T) {
	r := testRenderer(32, 1)
	img := r.Frame(nil, 0.5)
	if img == nil {
		t.Fatal("empty frame must still render the felt")
	}
}

func TestDownscaleNoOpWhenSmall(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	if got := Downscale(src, 32); got != src {
		t.Error("images at or under the target size pass through unchanged")
	}
}

func TestPipLayouts(t *testing.T) {
	for value := 1; value <= 6; value++ {
		if got := len(pipLayouts[value]); got != value {
			t.Errorf("face %d has %d pips", value, got)
		}
		if !pipAt(value, pipLayouts[value][0][0], pipLayouts[value][0][1]) {
			t.Errorf("face %d: pip center not inside its own pip", value)
		}
	}
	if pipAt(1, 0.9, 0.9) {
		t.Error("face corner must not read as a pip")
	}
}
