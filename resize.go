package deepforest

import (
	"image"

	"github.com/chewxy/math32"
)

// minSideScale returns the scale factor that resizes an image of
// srcWidth x srcHeight so its shortest side matches minSide whilst
// maintaining aspect, capped so the longest side never exceeds maxSide.
// Aerial orthomosaic strips can have extreme aspect ratios so the cap
// keeps the network input bounded.
func minSideScale(srcWidth, srcHeight, minSide, maxSide int) float32 {

	small := math32.Min(float32(srcWidth), float32(srcHeight))
	large := math32.Max(float32(srcWidth), float32(srcHeight))

	scale := float32(minSide) / small

	if large*scale > float32(maxSide) {
		scale = float32(maxSide) / large
	}

	return scale
}

// scaleSize returns the pixel dimensions of an image of srcWidth x
// srcHeight after applying scale
func scaleSize(srcWidth, srcHeight int, scale float32) image.Point {
	return image.Pt(int(float32(srcWidth)*scale), int(float32(srcHeight)*scale))
}
