/*
Example code showing how to train a tree crown detection model from a csv
annotation file, and how to inspect the training data before a long run
*/
package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"path/filepath"
	"strings"

	"github.com/treecrowns/go-deepforest"
	"github.com/treecrowns/go-deepforest/render"
	"gocv.io/x/gocv"
)

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	// read in cli flags
	annFile := flag.String("a", "../data/annotations.csv", "Training annotation csv file with path,x1,y1,x2,y2,label rows")
	configFile := flag.String("c", "", "Optional settings YAML file, searches the default locations when omitted")
	inspectDir := flag.String("inspect", "", "Write ground truth overlay images to this directory instead of training")
	imagesPerEpoch := flag.Int("n", 0, "Override the number of images used to size an epoch")

	flag.Parse()

	if *inspectDir != "" {

		err := inspectAnnotations(*annFile, *inspectDir)

		if err != nil {
			log.Fatal("Error inspecting annotations: ", err)
		}

		log.Println("done")
		return
	}

	cfg, err := deepforest.LoadConfig(*configFile)

	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	df, err := deepforest.NewDeepforestWithConfig("", cfg)

	if err != nil {
		log.Fatal("Error creating session: ", err)
	}

	defer df.Close()

	model, _, _, err := df.Train(*annFile, deepforest.TrainOptions{
		ImagesPerEpoch: *imagesPerEpoch,
	})

	if err != nil {
		log.Fatal("Error training model: ", err)
	}

	log.Printf("trained model saved at %s", model.File)

	// score the new model against the training annotations
	eval, err := df.Evaluate(*annFile, 0.5)

	if err != nil {
		log.Fatal("Error evaluating model: ", err)
	}

	log.Printf("precision %.3f, recall %.3f, mean IoU %.3f",
		eval.Precision, eval.Recall, eval.MeanIoU)

	log.Println("done")
}

// inspectAnnotations writes each annotated image with its ground truth
// boxes drawn on, for checking training data before a long run
func inspectAnnotations(annFile, outDir string) error {

	anns, err := deepforest.ReadAnnotations(annFile)

	if err != nil {
		return err
	}

	// group boxes by image
	byImage := make(map[string][]image.Rectangle)

	for _, a := range anns {
		byImage[a.ImagePath] = append(byImage[a.ImagePath], a.Box().Rect())
	}

	baseDir := filepath.Dir(annFile)

	for imgPath, boxes := range byImage {

		srcPath := imgPath

		if !filepath.IsAbs(srcPath) {
			srcPath = filepath.Join(baseDir, imgPath)
		}

		img := gocv.IMRead(srcPath, gocv.IMReadColor)

		if img.Empty() {
			return fmt.Errorf("error reading image from %s", srcPath)
		}

		render.AnnotationBoxes(&img, boxes, render.Yellow, 2)

		base := filepath.Base(imgPath)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		outFile := filepath.Join(outDir, base+"-boxes.jpg")

		ok := gocv.IMWrite(outFile, img)

		img.Close()

		if !ok {
			return fmt.Errorf("failed to save %s", outFile)
		}

		log.Printf("wrote %s with %d boxes", outFile, len(boxes))
	}

	return nil
}
