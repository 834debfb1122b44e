package sim

import (
	"math"

	"github.com/dicebox/dicebox-go/internal/mathx"
)

// FaceIndeterminate marks a rest on an edge or corner rather than a
// face.
const FaceIndeterminate = 0

// DefaultClassifyTolerance is the angular tolerance in radians between
// a face normal and world up within which the face still counts as up.
const DefaultClassifyTolerance = 0.3

// ClassifyOrientation maps a resting orientation to a face value 1..6,
// or FaceIndeterminate when no face is cleanly up. A face classifies
// when its outward normal, rotated by q, lies within tol radians of
// world up. Faces sit 90° apart, so for any tol below π/4 at most one
// can match; spin about the vertical axis never changes the result.
func ClassifyOrientation(q mathx.Quat, tol float64) int {
	for face := 1; face <= 6; face++ {
		up := q.Rotate(faceNormals[face])[1]
		if up > 1 {
			up = 1
		}
		if math.Acos(up) < tol {
			return face
		}
	}
	return FaceIndeterminate
}
