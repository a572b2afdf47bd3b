package deepforest

import (
	"fmt"
	"log"
	"path/filepath"
	"sort"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/stat"
)

// EvaluateResult summarises predicted boxes scored against ground truth
// annotations
type EvaluateResult struct {
	// Precision is the fraction of predictions that matched an
	// annotation
	Precision float64
	// Recall is the fraction of annotations matched by a prediction
	Recall float64
	// MeanIoU is the mean overlap of the matched pairs
	MeanIoU float64
	// StdDevIoU is the overlap spread of the matched pairs
	StdDevIoU float64
	// Predictions is the total number of predicted boxes
	Predictions int
	// Annotations is the total number of ground truth boxes
	Annotations int
	// Matches is the number of predicted boxes paired with an
	// annotation
	Matches int
}

// Evaluate predicts tree crowns over every image in an annotation csv
// and scores the predicted boxes against the ground truth.  A prediction
// matches an annotation when their overlap is at or above iouThreshold.
// Image paths in the csv are resolved relative to the annotation file
// when not absolute.
func (df *Deepforest) Evaluate(annotations string, iouThreshold float32) (*EvaluateResult, error) {

	if df.Model == nil {
		return nil, ErrNoModel
	}

	anns, err := ReadAnnotations(annotations)

	if err != nil {
		return nil, err
	}

	if len(anns) == 0 {
		return nil, fmt.Errorf("annotations file %s is empty", annotations)
	}

	// group ground truth boxes by image keeping first seen order
	truthByImage := make(map[string][]BoxRect)

	var imageOrder []string

	for _, a := range anns {

		if _, ok := truthByImage[a.ImagePath]; !ok {
			imageOrder = append(imageOrder, a.ImagePath)
		}

		truthByImage[a.ImagePath] = append(truthByImage[a.ImagePath], a.Box())
	}

	baseDir := filepath.Dir(annotations)

	res := &EvaluateResult{}

	var ious []float64

	for _, img := range imageOrder {

		imgPath := img

		if !filepath.IsAbs(imgPath) {
			imgPath = filepath.Join(baseDir, imgPath)
		}

		pred, err := df.PredictImage(imgPath, PredictOptions{})

		if err != nil {
			return nil, fmt.Errorf("error evaluating %s: %w", img, err)
		}

		truth := truthByImage[img]

		matched := matchDetections(pred.Boxes, truth, iouThreshold)

		res.Predictions += len(pred.Boxes)
		res.Annotations += len(truth)
		res.Matches += len(matched)

		for _, iou := range matched {
			ious = append(ious, float64(iou))
		}

		log.Printf("evaluated %s: %d predictions, %d of %d annotations matched",
			img, len(pred.Boxes), len(matched), len(truth))
	}

	if res.Predictions > 0 {
		res.Precision = float64(res.Matches) / float64(res.Predictions)
	}

	if res.Annotations > 0 {
		res.Recall = float64(res.Matches) / float64(res.Annotations)
	}

	if len(ious) > 0 {
		res.MeanIoU = stat.Mean(ious, nil)
	}

	if len(ious) > 1 {
		res.StdDevIoU = stat.StdDev(ious, nil)
	}

	return res, nil
}

// matchDetections greedily pairs predicted boxes with ground truth
// boxes.  Predictions are taken in descending score order, each claiming
// the unmatched truth box with the highest overlap at or above
// iouThreshold.  Returns the IoU of each matched pair.
func matchDetections(preds []Detection, truth []BoxRect, iouThreshold float32) []float32 {

	order := make([]int, len(preds))

	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		return preds[order[a]].Score > preds[order[b]].Score
	})

	used := make([]bool, len(truth))

	var ious []float32

	for _, pi := range order {

		bestIoU := float32(0)
		bestIdx := -1

		for ti, tb := range truth {

			if used[ti] {
				continue
			}

			iou := boxIoU(preds[pi].Box, tb)

			if iou >= iouThreshold && iou > bestIoU {
				bestIoU = iou
				bestIdx = ti
			}
		}

		if bestIdx >= 0 {
			used[bestIdx] = true
			ious = append(ious, bestIoU)
		}
	}

	return ious
}

// boxIoU works out the Intersection of Union (IoU) value of two boxes
// dimensions, with added 1.0 for inclusive pixel calculation
func boxIoU(a, b BoxRect) float32 {

	w := math32.Max(0, math32.Min(float32(a.Right), float32(b.Right))-
		math32.Max(float32(a.Left), float32(b.Left))+1)
	h := math32.Max(0, math32.Min(float32(a.Bottom), float32(b.Bottom))-
		math32.Max(float32(a.Top), float32(b.Top))+1)

	intersection := w * h

	area0 := float32(a.Right-a.Left+1) * float32(a.Bottom-a.Top+1)
	area1 := float32(b.Right-b.Left+1) * float32(b.Bottom-b.Top+1)

	union := area0 + area1 - intersection

	if union <= 0 {
		return 0
	}

	return intersection / union
}
