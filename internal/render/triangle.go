package render

import "math"

// vertex is one projected corner: screen position, depth, and
// face-local coordinates for pip lookup.
type vertex struct {
	x, y, z float64
	u, v    float64
}

var (
	bodyColor = [3]float64{236, 232, 220}
	pipColor  = [3]float64{30, 30, 34}
)

// rasterTriangle fills one screen-space triangle with depth testing and
// flat shading. Pips are resolved per pixel from the interpolated
// face-local coordinates, so no texture images are involved.
func rasterTriangle(fb *frameBuffer, a, b, c vertex, shade float64, value int) {
	minX := int(math.Min(math.Min(a.x, b.x), c.x))
	maxX := int(math.Max(math.Max(a.x, b.x), c.x)) + 1
	minY := int(math.Min(math.Min(a.y, b.y), c.y))
	maxY := int(math.Max(math.Max(a.y, b.y), c.y)) + 1

	if minX < 0 {
		minX = 0
	}
	if maxX >= fb.width {
		maxX = fb.width - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= fb.height {
		maxY = fb.height - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	det := (b.y-c.y)*(a.x-c.x) + (c.x-b.x)*(a.y-c.y)
	if det > -1e-9 && det < 1e-9 {
		return
	}
	invDet := 1.0 / det

	dy12 := b.y - c.y
	dx21 := c.x - b.x
	dy20 := c.y - a.y
	dx02 := a.x - c.x

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) - c.y
		rowOff := sy * fb.width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) - c.x
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1
			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*a.z + w1*b.z + w2*c.z
			idx := rowOff + sx
			if z <= fb.depth[idx] {
				continue
			}
			fb.depth[idx] = z

			col := bodyColor
			u := w0*a.u + w1*b.u + w2*c.u
			v := w0*a.v + w1*b.v + w2*c.v
			if pipAt(value, u, v) {
				col = pipColor
			}

			px := idx * 4
			fb.color[px] = clamp255(col[0] * shade)
			fb.color[px+1] = clamp255(col[1] * shade)
			fb.color[px+2] = clamp255(col[2] * shade)
			fb.color[px+3] = 255
		}
	}
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
