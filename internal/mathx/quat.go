package mathx

import "math"

// Quat represents a rotation quaternion (x, y, z, w).
type Quat [4]float64

// QuatIdentity returns the identity rotation.
func QuatIdentity() Quat {
	return Quat{0, 0, 0, 1}
}

// AxisAngle builds a quaternion rotating by angle radians around axis.
// The axis must be a unit vector.
func AxisAngle(axis Vec3, angle float64) Quat {
	s := math.Sin(angle * 0.5)
	return Quat{axis[0] * s, axis[1] * s, axis[2] * s, math.Cos(angle * 0.5)}
}

// EulerToQuat converts Euler angles (radians, X applied first, then Y,
// then Z about world axes) to a quaternion.
func EulerToQuat(rx, ry, rz float64) Quat {
	qx := AxisAngle(Vec3{1, 0, 0}, rx)
	qy := AxisAngle(Vec3{0, 1, 0}, ry)
	qz := AxisAngle(Vec3{0, 0, 1}, rz)
	return qz.Mul(qy).Mul(qx)
}

// Mul returns q·r. Rotating a vector by the product applies r first,
// then q, matching rotation-matrix multiplication order.
func (q Quat) Mul(r Quat) Quat {
	qx, qy, qz, qw := q[0], q[1], q[2], q[3]
	rx, ry, rz, rw := r[0], r[1], r[2], r[3]
	return Quat{
		qw*rx + qx*rw + qy*rz - qz*ry,
		qw*ry - qx*rz + qy*rw + qz*rx,
		qw*rz + qx*ry - qy*rx + qz*rw,
		qw*rw - qx*rx - qy*ry - qz*rz,
	}
}

// Conj returns the conjugate (inverse for unit quaternions).
func (q Quat) Conj() Quat {
	return Quat{-q[0], -q[1], -q[2], q[3]}
}

func (q Quat) Dot(r Quat) float64 {
	return q[0]*r[0] + q[1]*r[1] + q[2]*r[2] + q[3]*r[3]
}

func (q Quat) Len() float64 {
	return math.Sqrt(q.Dot(q))
}

// Normalize returns the unit quaternion; identity if degenerate.
func (q Quat) Normalize() Quat {
	l := q.Len()
	if l < 1e-12 {
		return QuatIdentity()
	}
	return Quat{q[0] / l, q[1] / l, q[2] / l, q[3] / l}
}

// Rotate applies the rotation to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q[0], q[1], q[2]}
	s := q[3]
	// v' = 2(u·v)u + (s²−u·u)v + 2s(u×v)
	return u.Scale(2 * u.Dot(v)).
		Add(v.Scale(s*s - u.Dot(u))).
		Add(u.Cross(v).Scale(2 * s))
}

// Mat3 converts the quaternion to a 3×3 rotation matrix.
func (q Quat) Mat3() Mat3 {
	x, y, z, w := q[0], q[1], q[2], q[3]
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	return Mat3{
		1 - 2*(yy+zz), 2 * (xy - wz), 2 * (xz + wy),
		2 * (xy + wz), 1 - 2*(xx+zz), 2 * (yz - wx),
		2 * (xz - wy), 2 * (yz + wx), 1 - 2*(xx+yy),
	}
}

// Mat3ToQuat converts a rotation matrix to a unit quaternion.
func Mat3ToQuat(m Mat3) Quat {
	tr := m[0] + m[4] + m[8]
	var q Quat
	switch {
	case tr > 0:
		s := math.Sqrt(tr+1) * 2
		q = Quat{(m[7] - m[5]) / s, (m[2] - m[6]) / s, (m[3] - m[1]) / s, s / 4}
	case m[0] > m[4] && m[0] > m[8]:
		s := math.Sqrt(1+m[0]-m[4]-m[8]) * 2
		q = Quat{s / 4, (m[1] + m[3]) / s, (m[2] + m[6]) / s, (m[7] - m[5]) / s}
	case m[4] > m[8]:
		s := math.Sqrt(1+m[4]-m[0]-m[8]) * 2
		q = Quat{(m[1] + m[3]) / s, s / 4, (m[5] + m[7]) / s, (m[2] - m[6]) / s}
	default:
		s := math.Sqrt(1+m[8]-m[0]-m[4]) * 2
		q = Quat{(m[2] + m[6]) / s, (m[5] + m[7]) / s, s / 4, (m[3] - m[1]) / s}
	}
	return q.Normalize()
}

// Slerp spherically interpolates from q to r by t in [0,1].
func (q Quat) Slerp(r Quat, t float64) Quat {
	d := q.Dot(r)
	// Take the short arc.
	if d < 0 {
		r = Quat{-r[0], -r[1], -r[2], -r[3]}
		d = -d
	}
	if d > 0.9995 {
		// Nearly parallel: fall back to nlerp.
		return Quat{
			q[0] + (r[0]-q[0])*t,
			q[1] + (r[1]-q[1])*t,
			q[2] + (r[2]-q[2])*t,
			q[3] + (r[3]-q[3])*t,
		}.Normalize()
	}
	theta := math.Acos(d)
	sinTheta := math.Sin(theta)
	wq := math.Sin((1-t)*theta) / sinTheta
	wr := math.Sin(t*theta) / sinTheta
	return Quat{
		q[0]*wq + r[0]*wr,
		q[1]*wq + r[1]*wr,
		q[2]*wq + r[2]*wr,
		q[3]*wq + r[3]*wr,
	}.Normalize()
}

// AngleTo returns the rotation angle in radians between q and r.
func (q Quat) AngleTo(r Quat) float64 {
	d := math.Abs(q.Dot(r))
	if d > 1 {
		d = 1
	}
	return 2 * math.Acos(d)
}

// EulerFromQuat decomposes q into Euler angles (X applied first, then Y,
// then Z about world axes). The inverse of EulerToQuat up to angle
// wrapping. Handles the y = ±90° singularity by folding z into x.
func EulerFromQuat(q Quat) (x, y, z float64) {
	m := q.Mat3()
	sy := -m[6] // −m31
	if sy > 1 {
		sy = 1
	} else if sy < -1 {
		sy = -1
	}
	y = math.Asin(sy)
	if math.Abs(m[6]) < 0.999999 {
		x = math.Atan2(m[7], m[8])
		z = math.Atan2(m[3], m[0])
		// Every rotation has two decompositions, (x, y, z) and
		// (x−π, π−y, z−π). Prefer the one with the small z so a flat
		// rest spun past ±90° of yaw still reads as (x, yaw, 0).
		if math.Abs(x) >= math.Pi/2 && math.Abs(z) > math.Pi/2 {
			x -= math.Copysign(math.Pi, x)
			z -= math.Copysign(math.Pi, z)
			y = math.Pi - y
			if y > math.Pi {
				y -= 2 * math.Pi
			}
		}
		return x, y, z
	}
	// Gimbal lock: only x−z (y=+90°) or x+z (y=−90°) is recoverable.
	z = 0
	if m[6] < 0 { // y = +90°
		x = math.Atan2(m[1], m[2])
	} else { // y = −90°
		x = math.Atan2(-m[1], -m[2])
	}
	return x, y, z
}

// NearestAligned snaps q to the closest of the 24 axis-aligned cube
// orientations. Reports false when the orientation is ambiguous: some
// body axis has no clearly dominant world axis within margin, which is
// how an edge- or corner-balanced cube presents.
func NearestAligned(q Quat, margin float64) (Quat, bool) {
	m := q.Mat3()
	var snapped Mat3
	var taken [3]bool
	for c := 0; c < 3; c++ {
		best, bestAbs, second := 0, 0.0, 0.0
		for r := 0; r < 3; r++ {
			a := math.Abs(m[r*3+c])
			if a > bestAbs {
				second = bestAbs
				bestAbs, best = a, r
			} else if a > second {
				second = a
			}
		}
		if bestAbs-second < margin || taken[best] {
			return QuatIdentity(), false
		}
		taken[best] = true
		if m[best*3+c] >= 0 {
			snapped[best*3+c] = 1
		} else {
			snapped[best*3+c] = -1
		}
	}
	if snapped.Det() < 0 {
		return QuatIdentity(), false
	}
	return Mat3ToQuat(snapped), true
}
