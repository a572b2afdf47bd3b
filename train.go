package deepforest

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chewxy/math32"
)

// Training input pipelines
const (
	// InputFitGenerator feeds the trainer from the annotation csv
	// directly
	InputFitGenerator = "fit_generator"
	// InputTfrecord feeds the trainer from prepared record shards
	InputTfrecord = "tfrecord"
)

// ExperimentLogger receives the training parameters for experiment
// tracking
type ExperimentLogger interface {
	LogParameter(name, value string)
}

// TrainOptions control how training data is fed to the trainer
type TrainOptions struct {
	// InputType selects the training input pipeline, InputFitGenerator
	// or InputTfrecord.  Defaults to InputFitGenerator.
	InputType string
	// Tfrecords lists the prepared record shards, only used with
	// InputTfrecord
	Tfrecords []string
	// Experiment optionally receives each training parameter for
	// experiment tracking
	Experiment ExperimentLogger
	// ImagesPerEpoch overrides the number of annotated images used to
	// size an epoch.  Useful for debugging on a subset.
	ImagesPerEpoch int
}

// Train trains a new tree crown detection model on an annotation csv by
// invoking the configured external trainer command and loading the model
// it exports under the snapshot path.  On success the session's model
// handles are replaced and the base model, prediction variant and
// training variant are returned.
func (df *Deepforest) Train(annotations string, opt TrainOptions) (*Model, *Model, *Model, error) {

	args, err := formatArgs(annotations, df.Config, opt)

	if err != nil {
		return nil, nil, nil, err
	}

	log.Printf("training with args %v", args)

	if opt.Experiment != nil {
		logParameters(opt.Experiment, args)
	}

	cmd := exec.Command(df.Config.Trainer, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return nil, nil, nil, fmt.Errorf("trainer %s failed: %w",
			df.Config.Trainer, err)
	}

	modelFile, err := newestModelFile(df.Config.SnapshotPath)

	if err != nil {
		return nil, nil, nil, err
	}

	m, err := ReadModel(modelFile)

	if err != nil {
		return nil, nil, nil, err
	}

	if err := df.adoptModel(m); err != nil {
		return nil, nil, nil, err
	}

	pm, err := ConvertModel(m, df.Config)

	if err != nil {
		return nil, nil, nil, err
	}

	df.PredictionModel = pm
	df.TrainingModel = m.trainingVariant()

	return df.Model, df.PredictionModel, df.TrainingModel, nil
}

// formatArgs assembles the argument list passed to the external trainer
// command.  The classes file is derived from the annotations and written
// beside it, and the number of steps per epoch is computed from the
// unique image count, or the ImagesPerEpoch override, over the batch
// size.
func formatArgs(annotations string, cfg *Config, opt TrainOptions) ([]string, error) {

	inputType := opt.InputType

	if inputType == "" {
		inputType = InputFitGenerator
	}

	if inputType != InputFitGenerator && inputType != InputTfrecord {
		return nil, fmt.Errorf("unknown input type %q", inputType)
	}

	if inputType == InputTfrecord && len(opt.Tfrecords) == 0 {
		return nil, fmt.Errorf("input type %s requires record shards", InputTfrecord)
	}

	if cfg.BatchSize < 1 {
		return nil, fmt.Errorf("batch size must be at least 1, have %d",
			cfg.BatchSize)
	}

	anns, err := ReadAnnotations(annotations)

	if err != nil {
		return nil, err
	}

	if len(anns) == 0 {
		return nil, fmt.Errorf("annotations file %s is empty", annotations)
	}

	classesFile, err := createClassesFile(annotations, anns)

	if err != nil {
		return nil, err
	}

	numImages := countImages(anns)

	if opt.ImagesPerEpoch > 0 {
		numImages = opt.ImagesPerEpoch
	}

	steps := int(math32.Ceil(float32(numImages) / float32(cfg.BatchSize)))

	args := []string{
		"--backbone", cfg.Backbone,
		"--image-min-side", strconv.Itoa(cfg.ImageMinSide),
		"--multi-gpu", strconv.Itoa(cfg.MultiGPU),
		"--batch-size", strconv.Itoa(cfg.BatchSize),
		"--epochs", strconv.Itoa(cfg.Epochs),
		"--steps", strconv.Itoa(steps),
	}

	if cfg.Weights != "" {
		args = append(args, "--weights", cfg.Weights)
	}

	if cfg.FreezeLayers > 0 {
		args = append(args, "--freeze-layers", strconv.Itoa(cfg.FreezeLayers))
	}

	if cfg.FreezeResnet {
		args = append(args, "--freeze-backbone")
	}

	if !cfg.SaveSnapshot {
		args = append(args, "--no-snapshots")
	}

	if cfg.ValidationAnnotations != "" {
		args = append(args, "--val-annotations", cfg.ValidationAnnotations)
	}

	args = append(args, "--snapshot-path", cfg.SnapshotPath)

	args = append(args, inputType, annotations, classesFile)

	if inputType == InputTfrecord {
		args = append(args, opt.Tfrecords...)
	}

	return args, nil
}

// logParameters forwards the assembled training arguments to an
// experiment logger as name/value pairs
func logParameters(exp ExperimentLogger, args []string) {

	for i := 0; i < len(args); i++ {

		if !strings.HasPrefix(args[i], "--") {
			continue
		}

		name := strings.TrimPrefix(args[i], "--")

		// flags that take no value
		if name == "freeze-backbone" || name == "no-snapshots" {
			exp.LogParameter(name, "true")
			continue
		}

		if i+1 < len(args) {
			exp.LogParameter(name, args[i+1])
			i++
		}
	}
}

// newestModelFile returns the most recently modified exported model
// under dir, which is the model the trainer run just wrote
func newestModelFile(dir string) (string, error) {

	entries, err := os.ReadDir(dir)

	if err != nil {
		return "", fmt.Errorf("error reading snapshot path %s: %w", dir, err)
	}

	var (
		newest     string
		newestTime time.Time
	)

	for _, entry := range entries {

		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".onnx") {
			continue
		}

		info, err := entry.Info()

		if err != nil {
			return "", fmt.Errorf("error reading snapshot info: %w", err)
		}

		if newest == "" || info.ModTime().After(newestTime) {
			newest = filepath.Join(dir, entry.Name())
			newestTime = info.ModTime()
		}
	}

	if newest == "" {
		return "", fmt.Errorf("no model file found under %s", dir)
	}

	return newest, nil
}
