package deepforest

import "image"

// BoxRect is the region of a predicted bounding box in pixel coordinates
// of the source image
type BoxRect struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Rect returns the box as an image.Rectangle
func (b BoxRect) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Right, b.Bottom)
}

// Width of the box in pixels
func (b BoxRect) Width() int {
	return b.Right - b.Left
}

// Height of the box in pixels
func (b BoxRect) Height() int {
	return b.Bottom - b.Top
}

// Detection is a single predicted bounding box returned from running a
// model over an image
type Detection struct {
	// Box is the region of the source image containing the object
	Box BoxRect
	// Score is the prediction confidence from 0 to 1
	Score float32
	// Class is the label index the region was classified as
	Class int
	// Label is the class name corresponding to Class, eg: Tree
	Label string
}
