package mathx

import (
	"math"
	"testing"
)

const eps = 1e-9

func vecClose(a, b Vec3, tol float64) bool {
	return a.Sub(b).Len() < tol
}

func TestAxisAngleRotate(t *testing.T) {
	// 90° around Y maps +X to −Z.
	q := AxisAngle(Vec3{0, 1, 0}, math.Pi/2)
	got := q.Rotate(Vec3{1, 0, 0})
	if !vecClose(got, Vec3{0, 0, -1}, 1e-9) {
		t.Errorf("expected (0,0,-1), got %v", got)
	}
}

func TestMulMatchesMatrixOrder(t *testing.T) {
	qa := AxisAngle(Vec3{1, 0, 0}, 0.7)
	qb := AxisAngle(Vec3{0, 0, 1}, -1.3)
	v := Vec3{0.3, -1.1, 2.0}

	// (qa·qb).Rotate must equal qa.Rotate(qb.Rotate(v)).
	lhs := qa.Mul(qb).Rotate(v)
	rhs := qa.Rotate(qb.Rotate(v))
	if !vecClose(lhs, rhs, 1e-9) {
		t.Errorf("composition mismatch: %v vs %v", lhs, rhs)
	}
}

func TestMat3RoundTrip(t *testing.T) {
	cases := []Quat{
		QuatIdentity(),
		AxisAngle(Vec3{1, 0, 0}, 1.0),
		AxisAngle(Vec3{0, 1, 0}, -2.2),
		EulerToQuat(0.4, -1.1, 2.9),
	}
	for _, q := range cases {
		back := Mat3ToQuat(q.Mat3())
		if q.AngleTo(back) > 1e-7 {
			t.Errorf("round trip of %v lost %v rad", q, q.AngleTo(back))
		}
	}
}

func TestEulerRoundTrip(t *testing.T) {
	cases := [][3]float64{
		{0, 0, 0},
		{math.Pi / 2, 0, 0},
		{-math.Pi / 2, 0, 0},
		{0, 0, math.Pi / 2},
		{0, 0, -math.Pi / 2},
		{math.Pi, 0, 0},
		{0.3, 0.8, -0.4},
	}
	for _, c := range cases {
		q := EulerToQuat(c[0], c[1], c[2])
		x, y, z := EulerFromQuat(q)
		back := EulerToQuat(x, y, z)
		if q.AngleTo(back) > 1e-7 {
			t.Errorf("euler %v -> (%v,%v,%v): angle error %v", c, x, y, z, q.AngleTo(back))
		}
	}
}

func TestEulerYawStaysInY(t *testing.T) {
	// A die resting on a face but spun about the vertical axis must keep
	// its x/z angles canonical; only y absorbs the spin.
	for _, yaw := range []float64{0, 0.5, math.Pi / 4, math.Pi / 2, 2.5, -2.5} {
		spin := AxisAngle(Vec3{0, 1, 0}, yaw)
		tipped := spin.Mul(AxisAngle(Vec3{1, 0, 0}, math.Pi/2))
		x, _, z := EulerFromQuat(tipped)
		if math.Abs(x-math.Pi/2) > 1e-6 || math.Abs(z) > 1e-6 {
			t.Errorf("yaw %v: got x=%v z=%v, want x=π/2 z=0", yaw, x, z)
		}
	}
}

func TestSlerpEndpointsAndMidpoint(t *testing.T) {
	a := QuatIdentity()
	b := AxisAngle(Vec3{0, 1, 0}, math.Pi/2)

	if a.Slerp(b, 0).AngleTo(a) > eps {
		t.Error("slerp(0) is not the start")
	}
	if a.Slerp(b, 1).AngleTo(b) > eps {
		t.Error("slerp(1) is not the end")
	}
	mid := a.Slerp(b, 0.5)
	want := AxisAngle(Vec3{0, 1, 0}, math.Pi/4)
	if mid.AngleTo(want) > 1e-7 {
		t.Errorf("slerp midpoint off by %v rad", mid.AngleTo(want))
	}
}

func TestNearestAligned(t *testing.T) {
	// Slightly perturbed face-up orientation snaps to exact alignment.
	q := AxisAngle(Vec3{1, 0, 0}, math.Pi/2+0.02)
	snapped, ok := NearestAligned(q, 0.1)
	if !ok {
		t.Fatal("expected snap to succeed")
	}
	want := AxisAngle(Vec3{1, 0, 0}, math.Pi/2)
	if snapped.AngleTo(want) > 1e-7 {
		t.Errorf("snapped orientation off by %v rad", snapped.AngleTo(want))
	}

	// A 45° edge balance is ambiguous.
	edge := AxisAngle(Vec3{1, 0, 0}, math.Pi/4)
	if _, ok := NearestAligned(edge, 0.1); ok {
		t.Error("expected edge balance to be ambiguous")
	}
}
