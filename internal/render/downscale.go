package render

import (
	"image"

	"golang.org/x/image/draw"
)

// Downscale reduces a supersampled frame to the target edge length with
// Catmull-Rom filtering. Frames are fully opaque, so no alpha
// premultiply pass is needed before scaling.
func Downscale(img *image.NRGBA, target int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= target && b.Dy() <= target {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, target, target))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
