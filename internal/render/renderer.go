// Package render draws top-down frames of the dice arena with a small
// software rasterizer. Each frame is rendered at a supersampled
// resolution with a depth buffer and flat shading, then downscaled to
// the output size.
package render

import (
	"image"

	"github.com/dicebox/dicebox-go/internal/mathx"
	"github.com/dicebox/dicebox-go/internal/sim"
)

// Config sets the output geometry of rendered frames.
type Config struct {
	// Size is the output edge length in pixels; frames are square.
	Size int
	// Supersample renders at Size*Supersample and downscales.
	Supersample int
	// Margin is the border around the arena at output size, in pixels.
	Margin int
	// ArenaHalfX and ArenaHalfZ are the visible floor half-extents.
	ArenaHalfX float64
	ArenaHalfZ float64
}

func DefaultConfig() Config {
	return Config{
		Size:        320,
		Supersample: 3,
		Margin:      8,
		ArenaHalfX:  6,
		ArenaHalfZ:  6,
	}
}

// Renderer projects die poses straight down onto the floor plane:
// screen x is world x, screen y is world z, depth is world y.
type Renderer struct {
	cfg      Config
	lightDir mathx.Vec3
	felt     [4]uint8
}

func New(cfg Config) *Renderer {
	if cfg.Size <= 0 {
		cfg.Size = 320
	}
	if cfg.Supersample < 1 {
		cfg.Supersample = 1
	}
	if cfg.ArenaHalfX <= 0 {
		cfg.ArenaHalfX = 6
	}
	if cfg.ArenaHalfZ <= 0 {
		cfg.ArenaHalfZ = 6
	}
	return &Renderer{
		cfg:      cfg,
		lightDir: mathx.Vec3{0.3, 0.9, 0.25}.Normalize(),
		felt:     [4]uint8{22, 86, 54, 255},
	}
}

// Frame renders one frame of the given die poses. halfExtent is the die
// half edge length in world units.
func (r *Renderer) Frame(poses []sim.Pose, halfExtent float64) *image.NRGBA {
	ss := r.cfg.Supersample
	renderSize := r.cfg.Size * ss
	margin := r.cfg.Margin * ss

	span := 2 * r.cfg.ArenaHalfX
	if 2*r.cfg.ArenaHalfZ > span {
		span = 2 * r.cfg.ArenaHalfZ
	}
	scale := float64(renderSize-2*margin) / span
	center := float64(renderSize) / 2

	fb := newFrameBuffer(renderSize, renderSize, r.felt)

	for _, p := range poses {
		r.drawDie(fb, p, halfExtent, scale, center)
	}

	img := fb.image()
	if ss > 1 {
		img = Downscale(img, r.cfg.Size)
	}
	return img
}

func (r *Renderer) drawDie(fb *frameBuffer, p sim.Pose, h, scale, center float64) {
	m := p.Orientation.Mat3()

	for fi, f := range faces {
		worldNormal := m.MulVec(f.normal)
		ndl := worldNormal.Dot(r.lightDir)
		if ndl < 0 {
			ndl = 0
		}
		shade := 0.35 + 0.65*ndl

		// Quad corners wound (-1,-1) (1,-1) (1,1) (-1,1) in face space.
		var quad [4]vertex
		for ci, s := range [4][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			body := f.normal.Add(f.u.Scale(s[0])).Add(f.v.Scale(s[1])).Scale(h)
			world := p.Position.Add(m.MulVec(body))
			quad[ci] = vertex{
				x: center + world[0]*scale,
				y: center + world[2]*scale,
				z: world[1],
				u: s[0],
				v: s[1],
			}
		}

		value := fi + 1
		rasterTriangle(fb, quad[0], quad[1], quad[2], shade, value)
		rasterTriangle(fb, quad[0], quad[2], quad[3], shade, value)
	}
}
