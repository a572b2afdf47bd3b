package deepforest

import (
	"errors"
	"image"
	"path/filepath"
	"testing"
)

func TestPredictImageNoModel(t *testing.T) {

	df, err := NewDeepforestWithConfig("", nil)

	if err != nil {
		t.Fatalf("error creating session: %v", err)
	}

	_, err = df.PredictImage("tile.jpg", PredictOptions{})

	if !errors.Is(err, ErrNoModel) {
		t.Errorf("expected ErrNoModel, got %v", err)
	}
}

func TestNewDeepforestWithConfigDefaults(t *testing.T) {

	df, err := NewDeepforestWithConfig("", nil)

	if err != nil {
		t.Fatalf("error creating session: %v", err)
	}

	if df.Config == nil || df.Config.Backbone != "resnet50" {
		t.Errorf("nil config must fall back to defaults, got %+v", df.Config)
	}

	if df.Model != nil {
		t.Errorf("session without a saved model must start empty")
	}
}

func TestNewDeepforestWithConfigMissingModel(t *testing.T) {

	missing := filepath.Join(t.TempDir(), "missing.onnx")

	_, err := NewDeepforestWithConfig(missing, nil)

	if err == nil {
		t.Fatalf("expected error for missing saved model")
	}
}

func TestAdoptModelReplacesHandles(t *testing.T) {

	df, err := NewDeepforestWithConfig("", nil)

	if err != nil {
		t.Fatalf("error creating session: %v", err)
	}

	// seed the session with stand-in handles for a previous model
	df.Model = &Model{File: "old.onnx", derived: true}
	df.PredictionModel = &Model{File: "old.onnx", derived: true}
	df.TrainingModel = &Model{File: "old.onnx", derived: true}

	m := &Model{File: "new.onnx", derived: true}

	if err := df.adoptModel(m); err != nil {
		t.Fatalf("error adopting model: %v", err)
	}

	if df.Model != m {
		t.Errorf("model handle was not replaced")
	}

	// variant handles of the old model share its released network and
	// must not survive the swap
	if df.PredictionModel != nil || df.TrainingModel != nil {
		t.Errorf("variant handles of the old model were not cleared")
	}
}

func TestCloseWithoutModel(t *testing.T) {

	df, err := NewDeepforestWithConfig("", nil)

	if err != nil {
		t.Fatalf("error creating session: %v", err)
	}

	if err := df.Close(); err != nil {
		t.Errorf("error closing empty session: %v", err)
	}

	// closing again must be safe
	if err := df.Close(); err != nil {
		t.Errorf("error closing session twice: %v", err)
	}
}

func TestPredictResultCloseWithoutPlot(t *testing.T) {

	res := &PredictResult{
		Boxes: []Detection{{Score: 0.9}},
	}

	if err := res.Close(); err != nil {
		t.Errorf("error closing plotless result: %v", err)
	}

	if err := res.Close(); err != nil {
		t.Errorf("error closing result twice: %v", err)
	}

	if err := res.SavePlot("out.jpg"); err == nil {
		t.Errorf("expected error saving a plotless result")
	}
}

func TestBoxRect(t *testing.T) {

	box := BoxRect{Left: 10, Top: 20, Right: 110, Bottom: 220}

	exp := image.Rect(10, 20, 110, 220)

	if got := box.Rect(); got != exp {
		t.Errorf("rect does not match, got %v, expected %v", got, exp)
	}

	if got := box.Width(); got != 100 {
		t.Errorf("width does not match, got %d, expected 100", got)
	}

	if got := box.Height(); got != 200 {
		t.Errorf("height does not match, got %d, expected 200", got)
	}
}
