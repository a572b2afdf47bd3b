package deepforest

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the config file name searched for in the working
// directory and the user config directory when no explicit path is given
// to LoadConfig.
const DefaultConfigFile = "deepforest_config.yml"

// ReleaseConfig identifies the GitHub repository that pretrained model
// releases are published under.
type ReleaseConfig struct {
	// Owner is the GitHub account or organisation name
	Owner string `yaml:"owner"`
	// Repo is the repository name
	Repo string `yaml:"repo"`
}

// Config holds the static settings consumed by a session.  It is read
// once when the session is constructed and treated as immutable for the
// lifetime of the session.
type Config struct {
	// BatchSize is the number of images per training batch.  If MultiGPU
	// is greater than 1 this is the total across all GPUs and must be
	// evenly divisible by MultiGPU
	BatchSize int `yaml:"batch_size"`
	// Weights is an optional path to model weights loaded before
	// training, used for fine tuning
	Weights string `yaml:"weights"`
	// Backbone is the feature extraction network architecture.  Only
	// resnet50 has been well explored
	Backbone string `yaml:"backbone"`
	// ImageMinSide resizes images so the shortest side matches this many
	// pixels whilst maintaining aspect
	ImageMinSide int `yaml:"image_min_side"`
	// ImageMaxSide caps the longest side after ImageMinSide scaling
	ImageMaxSide int `yaml:"image_max_side"`
	// MultiGPU is the number of GPUs the delegated trainer runs across
	MultiGPU int `yaml:"multi_gpu"`
	// Epochs is the number of full cycles over the input data to train
	Epochs int `yaml:"epochs"`
	// ValidationAnnotations is an optional annotation csv file used for
	// validation during training.  Empty trains without validation
	ValidationAnnotations string `yaml:"validation_annotations"`
	// FreezeLayers freezes the bottom n layers, used for fine tuning
	FreezeLayers int `yaml:"freeze_layers"`
	// FreezeResnet freezes the backbone during training
	FreezeResnet bool `yaml:"freeze_resnet"`
	// SaveSnapshot keeps the model snapshot of every epoch regardless of
	// the evaluation metric
	SaveSnapshot bool `yaml:"save_snapshot"`
	// SnapshotPath is the directory the trainer writes snapshots and the
	// final trained artifact to
	SnapshotPath string `yaml:"snapshot_path"`
	// SavePath is the directory annotated prediction images are saved to
	SavePath string `yaml:"save_path"`
	// Trainer is the external training command delegated to by Train
	Trainer string `yaml:"trainer"`

	// ScoreThreshold is the minimum score a bounding box needs to be
	// included in prediction results
	ScoreThreshold float32 `yaml:"score_threshold"`
	// NMSThreshold is the maximum allowed Intersection over Union between
	// two boxes before the lower scoring one is suppressed.  Suppression
	// itself is delegated to OpenCV
	NMSThreshold float32 `yaml:"nms_threshold"`
	// Classes are the object class names the model was trained with, in
	// label index order
	Classes []string `yaml:"classes"`

	// ModelDir is the directory downloaded release artifacts are cached
	// in.  Empty uses a go-deepforest directory under the user cache dir
	ModelDir string `yaml:"model_dir"`
	// Release is the channel pretrained models are fetched from
	Release ReleaseConfig `yaml:"release"`
}

// DefaultConfig returns a Config populated with the documented defaults,
// matching a single class tree crown model trained on 800px imagery.
func DefaultConfig() Config {
	return Config{
		BatchSize:      1,
		Backbone:       "resnet50",
		ImageMinSide:   800,
		ImageMaxSide:   1333,
		MultiGPU:       1,
		Epochs:         1,
		SaveSnapshot:   true,
		SnapshotPath:   "./snapshots/",
		SavePath:       "./snapshots/",
		Trainer:        "deepforest-train",
		ScoreThreshold: 0.05,
		NMSThreshold:   0.5,
		Classes:        []string{"Tree"},
		Release: ReleaseConfig{
			Owner: "treecrowns",
			Repo:  "deepforest-models",
		},
	}
}

// LoadConfig reads the YAML settings file at path over the defaults.  An
// empty path searches the working directory then the user config
// directory for DefaultConfigFile, falling back to pure defaults when
// neither exists.
func LoadConfig(path string) (*Config, error) {

	cfg := DefaultConfig()

	if path == "" {
		path = findConfigFile()

		if path == "" {
			// no config file present, run on defaults
			return &cfg, nil
		}
	}

	data, err := os.ReadFile(path)

	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
	}

	return &cfg, nil
}

// findConfigFile returns the first config file found in the search
// locations, or empty when none exists
func findConfigFile() string {

	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}

	dir, err := os.UserConfigDir()

	if err != nil {
		return ""
	}

	path := filepath.Join(dir, "go-deepforest", DefaultConfigFile)

	if _, err := os.Stat(path); err == nil {
		return path
	}

	return ""
}

// modelDir returns the directory release artifacts are cached in,
// creating it when missing
func (c *Config) modelDir() (string, error) {

	dir := c.ModelDir

	if dir == "" {
		cache, err := os.UserCacheDir()

		if err != nil {
			return "", fmt.Errorf("error resolving user cache dir: %w", err)
		}

		dir = filepath.Join(cache, "go-deepforest")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating model dir %s: %w", dir, err)
	}

	return dir, nil
}
