package render

import (
	"image/color"

	"gocv.io/x/gocv"
)

type Alignment int

const (
	Left   Alignment = 1
	Center Alignment = 2
	Right  Alignment = 3
)

// Font defines the parameters for rendering text on an image using GoCV
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// Padding to place around text
	LeftPad   int
	RightPad  int
	TopPad    int
	BottomPad int
	// Alignment of the text label to the bounding box
	Alignment Alignment
}

// DefaultFont returns default font settings
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.5,
		Color:     White,
		Thickness: 1,
		LineType:  gocv.LineAA,
		LeftPad:   4,
		RightPad:  4,
		TopPad:    4,
		BottomPad: 6,
		Alignment: Left,
	}
}

var (
	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 50, A: 255}
	Red    = color.RGBA{R: 255, G: 45, B: 45, A: 255}
	Cyan   = color.RGBA{R: 0, G: 255, B: 255, A: 255}

	// classColors is the list of colors boxes are painted in per class
	// label, picked to stand out over green canopy imagery
	classColors = []color.RGBA{
		{R: 255, G: 45, B: 45, A: 255},   // #FF2D2D
		{R: 0, G: 255, B: 255, A: 255},   // #00FFFF
		{R: 255, G: 255, B: 50, A: 255},  // #FFFF32
		{R: 255, G: 0, B: 255, A: 255},   // #FF00FF
		{R: 255, G: 140, B: 0, A: 255},   // #FF8C00
		{R: 64, G: 128, B: 255, A: 255},  // #4080FF
		{R: 255, G: 255, B: 255, A: 255}, // #FFFFFF
		{R: 255, G: 105, B: 180, A: 255}, // #FF69B4
		{R: 148, G: 0, B: 211, A: 255},   // #9400D3
		{R: 139, G: 69, B: 19, A: 255},   // #8B4513
	}
)

// classColor returns the box color used for a class label index
func classColor(class int) color.RGBA {

	if class < 0 {
		class = -class
	}

	return classColors[class%len(classColors)]
}
