/*
Example code showing how to predict tree crowns in an aerial image using
a saved model or the latest prebuilt release
*/
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/treecrowns/go-deepforest"
	"github.com/treecrowns/go-deepforest/render"
)

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	// read in cli flags
	modelFile := flag.String("m", "", "Exported ONNX model file to load, fetches the latest model release when omitted")
	imgFile := flag.String("i", "../data/tree-tile.jpg", "Image file to predict tree crowns on")
	saveFile := flag.String("o", "", "The output JPG file with predicted crown boxes, defaults to the configured save path")
	configFile := flag.String("c", "", "Optional settings YAML file, searches the default locations when omitted")
	classesFile := flag.String("l", "", "Optional classes csv file from a training run used to label detections")
	ttfFont := flag.String("f", "", "Optional TTF font used to draw the crown count on the output")
	show := flag.Bool("show", false, "Display the annotated image in a window until a key is pressed")
	query := flag.Bool("q", false, "Print model information")

	flag.Parse()

	cfg, err := deepforest.LoadConfig(*configFile)

	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	// a classes file written by a training run overrides the configured
	// class names
	if *classesFile != "" {

		names, err := deepforest.ReadClasses(*classesFile)

		if err != nil {
			log.Fatal("Error reading classes file: ", err)
		}

		cfg.Classes = names
	}

	df, err := deepforest.NewDeepforestWithConfig(*modelFile, cfg)

	if err != nil {
		log.Fatal("Error creating session: ", err)
	}

	defer df.Close()

	// fetch the latest prebuilt model when none was given
	if *modelFile == "" {

		err = df.UseRelease()

		if err != nil {
			log.Fatal("Error fetching model release: ", err)
		}
	}

	if *query {

		err = df.Model.Query(os.Stdout)

		if err != nil {
			log.Fatal("Error querying model: ", err)
		}
	}

	res, err := df.PredictImage(*imgFile, deepforest.PredictOptions{
		ReturnPlot: true,
		Show:       *show,
	})

	if err != nil {
		log.Fatal("Error predicting image: ", err)
	}

	defer res.Close()

	log.Printf("predicted %d tree crowns", len(res.Boxes))

	for _, det := range res.Boxes {
		log.Printf("crown @ (%d %d %d %d) %.2f", det.Box.Left, det.Box.Top,
			det.Box.Right, det.Box.Bottom, det.Score)
	}

	// optionally draw the crown count with a TTF font
	if *ttfFont != "" {

		face, err := render.LoadTTFFace(*ttfFont, 24)

		if err != nil {
			log.Fatal("Error loading font: ", err)
		}

		label := fmt.Sprintf("%d crowns", len(res.Boxes))

		err = face.DrawLabel(&res.Plot, label, 10, res.Plot.Rows()-12,
			render.Yellow)

		if err != nil {
			log.Fatal("Error drawing label: ", err)
		}
	}

	// save the result, defaulting into the configured save path
	outFile := *saveFile

	if outFile == "" {
		base := filepath.Base(*imgFile)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		outFile = filepath.Join(cfg.SavePath, base+"-crowns.jpg")
	}

	if err := os.MkdirAll(filepath.Dir(outFile), 0755); err != nil {
		log.Fatal("Error creating output directory: ", err)
	}

	err = res.SavePlot(outFile)

	if err != nil {
		log.Fatal("Error saving result: ", err)
	}

	log.Printf("Saved tree crown prediction to %s\n", outFile)

	log.Println("done")
}
