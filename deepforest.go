package deepforest

import (
	"fmt"
)

// Deepforest is a tree crown detection session.  It holds the loaded
// configuration and up to three handles on the current model: the base
// model, the inference ready prediction variant, and the training
// variant.
type Deepforest struct {
	// Config holds the session settings, read once at construction and
	// not modified afterwards
	Config *Config
	// Model is the current base model.  nil until a model is trained,
	// loaded, or fetched with UseRelease.
	Model *Model
	// PredictionModel is the inference ready variant of Model, replaced
	// on every prediction
	PredictionModel *Model
	// TrainingModel is the training variant of Model, set by Train
	TrainingModel *Model
}

// NewDeepforest returns a tree crown detection session using the
// configuration file found on the search path, or defaults when none
// exists.  savedModel optionally provides the full path of an exported
// model file to load, pass an empty string to start without weights.
func NewDeepforest(savedModel string) (*Deepforest, error) {

	cfg, err := LoadConfig("")

	if err != nil {
		return nil, err
	}

	return NewDeepforestWithConfig(savedModel, cfg)
}

// NewDeepforestWithConfig returns a tree crown detection session using
// the given configuration
func NewDeepforestWithConfig(savedModel string, cfg *Config) (*Deepforest, error) {

	if cfg == nil {
		def := DefaultConfig()
		cfg = &def
	}

	df := &Deepforest{
		Config: cfg,
	}

	if savedModel != "" {

		m, err := ReadModel(savedModel)

		if err != nil {
			return nil, fmt.Errorf("error loading saved model: %w", err)
		}

		df.Model = m
	}

	return df, nil
}

// adoptModel replaces the session's model with m, releasing any
// previously held network first.  Variant handles of the old model are
// cleared as they share its network.  When releasing the old network
// fails the new model is closed so neither network leaks.
func (df *Deepforest) adoptModel(m *Model) error {

	if df.Model != nil {
		if err := df.Model.Close(); err != nil {
			m.Close()
			return fmt.Errorf("error releasing previous model: %w", err)
		}
	}

	df.Model = m
	df.PredictionModel = nil
	df.TrainingModel = nil

	return nil
}

// Close releases the network held by the session.  Prediction and
// training variants share the base model's network so it is released
// once.
func (df *Deepforest) Close() error {

	if df.Model == nil {
		return nil
	}

	err := df.Model.Close()

	if err != nil {
		return err
	}

	df.Model = nil
	df.PredictionModel = nil
	df.TrainingModel = nil

	return nil
}
