package render

import (
	"image"
	"math"
)

// frameBuffer holds the render target as flat slices: RGBA interleaved
// color plus a per-pixel depth value, higher wins.
type frameBuffer struct {
	width  int
	height int
	color  []uint8
	depth  []float64
}

func newFrameBuffer(w, h int, bg [4]uint8) *frameBuffer {
	n := w * h
	depth := make([]float64, n)
	for i := range depth {
		depth[i] = math.Inf(-1)
	}
	color := make([]uint8, n*4)
	for i := 0; i < n; i++ {
		color[i*4] = bg[0]
		color[i*4+1] = bg[1]
		color[i*4+2] = bg[2]
		color[i*4+3] = bg[3]
	}
	return &frameBuffer{width: w, height: h, color: color, depth: depth}
}

func (fb *frameBuffer) image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, fb.width, fb.height))
	copy(img.Pix, fb.color)
	return img
}
