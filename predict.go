package deepforest

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/chewxy/math32"
	"github.com/treecrowns/go-deepforest/render"
	"gocv.io/x/gocv"
)

// detectionCols is the number of values per row in the output tensor of
// exported models: x1, y1, x2, y2, score, class
const detectionCols = 6

// PredictOptions control what PredictImage returns
type PredictOptions struct {
	// ReturnPlot draws the detections on a copy of the source image and
	// returns it in the result's Plot
	ReturnPlot bool
	// Show displays the annotated image in a window until a key is
	// pressed.  Only applies when ReturnPlot is set.
	Show bool
}

// PredictResult holds the detections for a single image
type PredictResult struct {
	// Boxes are the predicted tree crowns in source image pixel
	// coordinates
	Boxes []Detection
	// Plot is a copy of the source image annotated with the predicted
	// boxes, in RGB channel order.  Only set when predicted with
	// ReturnPlot.
	Plot gocv.Mat
	// hasPlot indicates Plot holds an image that needs releasing
	hasPlot bool
	// closed flags the plot as released
	closed bool
}

// Close releases the annotated plot.  It is safe to call on results
// without a plot and safe to call more than once.
func (r *PredictResult) Close() error {

	if r.closed || !r.hasPlot {
		r.closed = true
		return nil
	}

	r.closed = true

	err := r.Plot.Close()

	if err != nil {
		return fmt.Errorf("error closing plot: %w", err)
	}

	return nil
}

// SavePlot writes the annotated plot to file.  OpenCV image writers
// expect BGR ordered data so the RGB plot is converted before encoding.
func (r *PredictResult) SavePlot(file string) error {

	if !r.hasPlot || r.closed {
		return fmt.Errorf("result has no plot")
	}

	bgr := gocv.NewMat()
	gocv.CvtColor(r.Plot, &bgr, gocv.ColorRGBToBGR)

	defer bgr.Close()

	if ok := gocv.IMWrite(file, bgr); !ok {
		return fmt.Errorf("failed to save plot to %s", file)
	}

	return nil
}

// PredictImage predicts tree crowns in a single image file.  The held
// model is converted into a fresh inference variant on every call so a
// newly trained model is picked up immediately.
func (df *Deepforest) PredictImage(imagePath string, opts PredictOptions) (*PredictResult, error) {

	if df.Model == nil {
		return nil, ErrNoModel
	}

	pm, err := ConvertModel(df.Model, df.Config)

	if err != nil {
		return nil, fmt.Errorf("error converting model: %w", err)
	}

	df.PredictionModel = pm

	img := gocv.IMRead(imagePath, gocv.IMReadColor)

	if img.Empty() {
		return nil, fmt.Errorf("error reading image from %s", imagePath)
	}

	defer img.Close()

	boxes, err := pm.detect(img)

	if err != nil {
		return nil, fmt.Errorf("error predicting %s: %w", imagePath, err)
	}

	if !opts.ReturnPlot {
		return &PredictResult{Boxes: boxes}, nil
	}

	// draw boxes over the decoded image, drawing colors assume BGR
	// ordered data
	rBoxes := make([]render.Box, len(boxes))

	for i, det := range boxes {
		rBoxes[i] = render.Box{
			Rect:  det.Box.Rect(),
			Class: det.Class,
			Score: det.Score,
		}
	}

	render.DetectionBoxes(&img, rBoxes, df.Config.Classes, render.DefaultFont(), 2)

	if opts.Show {
		showImage(filepath.Base(imagePath), img)
	}

	// returned plots use RGB channel order, the working image is BGR
	plot := gocv.NewMat()
	gocv.CvtColor(img, &plot, gocv.ColorBGRToRGB)

	return &PredictResult{
		Boxes:   boxes,
		Plot:    plot,
		hasPlot: true,
	}, nil
}

// showImage displays a BGR ordered image in a window until a key is
// pressed
func showImage(title string, img gocv.Mat) {

	window := gocv.NewWindow(title)

	defer window.Close()

	window.IMShow(img)
	window.WaitKey(0)
}

// detect runs the network over a BGR ordered image and returns the
// detections in source image pixel coordinates
func (m *Model) detect(img gocv.Mat) ([]Detection, error) {

	if m.closed {
		return nil, fmt.Errorf("model %s has been closed", m.File)
	}

	srcWidth := img.Cols()
	srcHeight := img.Rows()

	if srcWidth == 0 || srcHeight == 0 {
		return nil, fmt.Errorf("source image is empty")
	}

	// aspect preserving resize so the smallest side matches the
	// configured minimum without the largest exceeding the maximum
	scale := minSideScale(srcWidth, srcHeight, m.imageMinSide, m.imageMaxSide)
	dstSize := scaleSize(srcWidth, srcHeight, scale)

	// pixel values are scaled to the 0-1 range the model was trained on,
	// and the R and B channels are swapped to the RGB order it expects
	blob := gocv.BlobFromImage(img, 1.0/255.0, dstSize,
		gocv.NewScalar(0, 0, 0, 0), true, false)

	defer blob.Close()

	m.net.SetInput(blob, "")

	out := m.net.Forward("")

	defer out.Close()

	return m.decodeOutput(out, scale)
}

// decodeOutput converts the output tensor rows into Detections, drops
// rows under the score threshold, suppresses overlapping boxes, and maps
// coordinates back to the source image space
func (m *Model) decodeOutput(out gocv.Mat, scale float32) ([]Detection, error) {

	total := out.Total()

	if total == 0 {
		return nil, nil
	}

	if total%detectionCols != 0 {
		return nil, fmt.Errorf("unexpected output tensor size %d", total)
	}

	numRows := total / detectionCols

	flat := out.Reshape(1, numRows)

	defer flat.Close()

	var (
		rects   []image.Rectangle
		scores  []float32
		classes []int
	)

	for i := 0; i < numRows; i++ {

		score := flat.GetFloatAt(i, 4)

		if score < m.scoreThreshold {
			continue
		}

		// map box coordinates back to the source image
		left := int(math32.Round(flat.GetFloatAt(i, 0) / scale))
		top := int(math32.Round(flat.GetFloatAt(i, 1) / scale))
		right := int(math32.Round(flat.GetFloatAt(i, 2) / scale))
		bottom := int(math32.Round(flat.GetFloatAt(i, 3) / scale))

		rects = append(rects, image.Rect(left, top, right, bottom))
		scores = append(scores, score)
		classes = append(classes, int(flat.GetFloatAt(i, 5)))
	}

	if len(rects) == 0 {
		return nil, nil
	}

	// suppression of duplicate boxes is delegated to OpenCV
	indices := gocv.NMSBoxes(rects, scores, m.scoreThreshold, m.nmsThreshold)

	dets := make([]Detection, 0, len(indices))

	for _, idx := range indices {

		if idx < 0 || idx >= len(rects) {
			continue
		}

		r := rects[idx]

		det := Detection{
			Box: BoxRect{
				Left:   r.Min.X,
				Top:    r.Min.Y,
				Right:  r.Max.X,
				Bottom: r.Max.Y,
			},
			Score: scores[idx],
			Class: classes[idx],
		}

		if det.Class >= 0 && det.Class < len(m.labels) {
			det.Label = m.labels[det.Class]
		}

		dets = append(dets, det)
	}

	return dets, nil
}
