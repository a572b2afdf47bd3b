package render

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"gocv.io/x/gocv"
)

// Box is a single classed detection region to draw
type Box struct {
	// Rect is the box region in pixel coordinates
	Rect image.Rectangle
	// Class is the label index, used to pick the box color and label
	// text
	Class int
	// Score is the detection confidence drawn in the label
	Score float32
}

// boxLabel records the label rendering details of a box so all labels
// can be drawn last
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// DetectionBoxes renders the bounding boxes around the detected tree
// crowns.  Boxes are colored by class and labelled with the class name
// and confidence score.
func DetectionBoxes(img *gocv.Mat, boxes []Box, classNames []string,
	font Font, lineThickness int) {

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0)

	// draw detection boxes
	for _, box := range boxes {

		useClr := classColor(box.Class)

		// draw rectangle around detected object
		gocv.Rectangle(img, box.Rect, useClr, lineThickness)

		// create text for label
		name := strconv.Itoa(box.Class)

		if box.Class >= 0 && box.Class < len(classNames) {
			name = classNames[box.Class]
		}

		text := fmt.Sprintf("%s %.2f", name, box.Score)
		textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

		// Calculate the alignment of text label
		var centerX int

		switch font.Alignment {
		case Center:
			centerX = (box.Rect.Min.X + box.Rect.Max.X) / 2

		case Right:
			centerX = box.Rect.Max.X - (textSize.X / 2) - font.RightPad + (lineThickness / 2)

		case Left:
			fallthrough
		default:
			centerX = box.Rect.Min.X + (textSize.X / 2) + font.LeftPad - (lineThickness / 2)
		}

		// Adjust the label position so the text is centered horizontally
		labelPosition := image.Pt(centerX-textSize.X/2, box.Rect.Min.Y-font.BottomPad)

		// create box for placing text on
		bRect := image.Rect(centerX-textSize.X/2-font.LeftPad,
			box.Rect.Min.Y-textSize.Y-font.TopPad-font.BottomPad,
			centerX+textSize.X/2+font.RightPad, box.Rect.Min.Y)

		// record label rendering details
		nextLabel := boxLabel{
			rect:    bRect,
			clr:     useClr,
			text:    text,
			textPos: labelPosition,
		}
		boxLabels = append(boxLabels, nextLabel)
	}

	// draw all precalculated box labels so they are the top most layer on
	// the image and don't get overlapped by neighbouring crown boxes
	for _, box := range boxLabels {
		// draw box text gets written on
		gocv.Rectangle(img, box.rect, box.clr, -1)

		// Draw the label over box
		gocv.PutTextWithParams(img, box.text, box.textPos,
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}

// AnnotationBoxes renders ground truth annotation boxes in a single
// color with no labels, used for inspecting training data
func AnnotationBoxes(img *gocv.Mat, boxes []image.Rectangle, clr color.RGBA,
	lineThickness int) {

	for _, rect := range boxes {
		gocv.Rectangle(img, rect, clr, lineThickness)
	}
}
