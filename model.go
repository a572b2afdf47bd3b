package deepforest

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gocv.io/x/gocv"
)

// ErrNoModel is the error returned by prediction and evaluation when the
// session has no model weights.  Train a new model, load a saved model,
// or fetch a prebuilt release with UseRelease first.
var ErrNoModel = errors.New("model has no weights, train a new model, " +
	"load a saved model, or use a prebuilt release")

// Model wraps an ONNX object detection network loaded with the OpenCV
// DNN backend
type Model struct {
	// File is the full path of the ONNX model file the network was
	// loaded from
	File string
	// net is the loaded network
	net gocv.Net
	// labels are the class names detections are mapped to, set when the
	// model is converted for inference
	labels []string
	// scoreThreshold is the minimum confidence a detection must have,
	// set when the model is converted for inference
	scoreThreshold float32
	// nmsThreshold is the box overlap threshold used when suppressing
	// duplicate detections, set when the model is converted for
	// inference
	nmsThreshold float32
	// imageMinSide and imageMaxSide bound the resize applied to images
	// before inference, set when the model is converted for inference
	imageMinSide int
	imageMaxSide int
	// derived indicates this handle shares its network with the Model
	// it was converted from, so Close leaves the network open
	derived bool
	// closed flags the network as released
	closed bool
}

// ReadModel loads an ONNX object detection model.  Provide the full path
// and filename of the exported model file to load.
func ReadModel(modelFile string) (*Model, error) {

	// check file exists before handing to the OpenCV loader
	info, err := os.Stat(modelFile)

	if err != nil {
		return nil, fmt.Errorf("model file does not exist at %s, error: %w",
			modelFile, err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("model file is a directory")
	}

	net := gocv.ReadNetFromONNX(modelFile)

	if net.Empty() {
		return nil, fmt.Errorf("error reading network from model file %s",
			modelFile)
	}

	return &Model{
		File: modelFile,
		net:  net,
	}, nil
}

// ConvertModel returns an inference ready variant of a trained model
// with the detection parameters from cfg applied, or the defaults when
// cfg is nil.  Exported model files already embed box decoding, so the
// returned handle shares the underlying network, and closing it leaves
// the shared network open.
func ConvertModel(m *Model, cfg *Config) (*Model, error) {

	if m == nil {
		return nil, ErrNoModel
	}

	if m.closed {
		return nil, fmt.Errorf("model %s has been closed", m.File)
	}

	if cfg == nil {
		def := DefaultConfig()
		cfg = &def
	}

	return &Model{
		File:           m.File,
		net:            m.net,
		labels:         cfg.Classes,
		scoreThreshold: cfg.ScoreThreshold,
		nmsThreshold:   cfg.NMSThreshold,
		imageMinSide:   cfg.ImageMinSide,
		imageMaxSide:   cfg.ImageMaxSide,
		derived:        true,
	}, nil
}

// trainingVariant returns the handle used to continue training from the
// model.  It shares the underlying network and carries no detection
// parameters.
func (m *Model) trainingVariant() *Model {

	return &Model{
		File:    m.File,
		net:     m.net,
		derived: true,
	}
}

// Close releases the network resources.  Handles returned by
// ConvertModel share their network with the source Model and do not
// release it.
func (m *Model) Close() error {

	if m.derived || m.closed {
		return nil
	}

	err := m.net.Close()

	if err != nil {
		return fmt.Errorf("error closing network: %w", err)
	}

	m.closed = true

	return nil
}

// outputLayerNames returns the names of the network's unconnected output
// layers.  OpenCV layer id's are 1 based.
func (m *Model) outputLayerNames() []string {

	layers := m.net.GetLayerNames()

	var names []string

	for _, id := range m.net.GetUnconnectedOutLayers() {
		if id >= 1 && id <= len(layers) {
			names = append(names, layers[id-1])
		}
	}

	return names
}

// Query the loaded model to get layer information in text/human readable
// format
func (m *Model) Query(w io.Writer) error {

	if m.closed {
		return fmt.Errorf("model %s has been closed", m.File)
	}

	fmt.Fprintf(w, "Model File: %s\n", m.File)

	layers := m.net.GetLayerNames()

	fmt.Fprintf(w, "Total Layers: %d\n", len(layers))

	fmt.Fprintf(w, "Output layers:\n")

	for _, name := range m.outputLayerNames() {
		fmt.Fprintf(w, "  %s\n", name)
	}

	return nil
}
