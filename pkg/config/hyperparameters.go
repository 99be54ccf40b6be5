// Package config loads and validates the engine's hyperparameters,
// following the same defaults/override-from-env/validate three-pass
// shape the rest of the stack uses for its service configs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

// LossFunction names a loss ("square" or "cross-entropy"). It is
// validated and persisted with the hyperparameters; RSquaredSelector
// scores candidate features by R² whichever value it holds.
type LossFunction string

const (
	LossSquare        LossFunction = "square"
	LossCrossEntropy   LossFunction = "cross-entropy"
)

// Hyperparameters are the recognized options of spec.md §6.
type Hyperparameters struct {
	Aggregations   []string     `yaml:"aggregations" json:"aggregations"`
	NumFeatures    int          `yaml:"num_features" json:"num_features"`
	NumThreads     int          `yaml:"num_threads" json:"num_threads"`
	SamplingFactor float64      `yaml:"sampling_factor" json:"sampling_factor"`
	NMostFrequent  int          `yaml:"n_most_frequent" json:"n_most_frequent"`
	DeltaT         float64      `yaml:"delta_t" json:"delta_t"`
	MaxLag         int          `yaml:"max_lag" json:"max_lag"`
	LossFunction   LossFunction `yaml:"loss_function" json:"loss_function"`
	MinDF          int          `yaml:"min_df" json:"min_df"`
	VocabSize      int          `yaml:"vocab_size" json:"vocab_size"`
}

// Load reads hyperparameters from a YAML file (if path is non-empty
// and exists), applies RELPROP_-prefixed environment overrides, then
// validates the result.
func Load(path string) (*Hyperparameters, error) {
	hp := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading hyperparameters file %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, hp); err != nil {
			return nil, fmt.Errorf("parsing hyperparameters file %s: %w", path, err)
		}
	}

	overrideFromEnv(hp)

	if err := validate(hp); err != nil {
		return nil, fmt.Errorf("hyperparameter validation: %w", err)
	}
	return hp, nil
}

func defaults() *Hyperparameters {
	return &Hyperparameters{
		Aggregations:   []string{"COUNT", "AVG", "SUM", "MIN", "MAX"},
		NumFeatures:    100,
		NumThreads:     0,
		SamplingFactor: 1.0,
		NMostFrequent:  10,
		DeltaT:         0,
		MaxLag:         0,
		LossFunction:   LossSquare,
		MinDF:          1,
		VocabSize:      500,
	}
}

func overrideFromEnv(hp *Hyperparameters) {
	if v := os.Getenv("RELPROP_AGGREGATIONS"); v != "" {
		hp.Aggregations = strings.Split(v, ",")
	}
	if v := os.Getenv("RELPROP_NUM_FEATURES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			hp.NumFeatures = n
		}
	}
	if v := os.Getenv("RELPROP_NUM_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			hp.NumThreads = n
		}
	}
	if v := os.Getenv("RELPROP_SAMPLING_FACTOR"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			hp.SamplingFactor = f
		}
	}
	if v := os.Getenv("RELPROP_N_MOST_FREQUENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			hp.NMostFrequent = n
		}
	}
	if v := os.Getenv("RELPROP_DELTA_T"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			hp.DeltaT = f
		}
	}
	if v := os.Getenv("RELPROP_MAX_LAG"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			hp.MaxLag = n
		}
	}
	if v := os.Getenv("RELPROP_LOSS_FUNCTION"); v != "" {
		hp.LossFunction = LossFunction(v)
	}
	if v := os.Getenv("RELPROP_MIN_DF"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			hp.MinDF = n
		}
	}
	if v := os.Getenv("RELPROP_VOCAB_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			hp.VocabSize = n
		}
	}
}

func validate(hp *Hyperparameters) error {
	if len(hp.Aggregations) == 0 {
		return fmt.Errorf("aggregations must not be empty")
	}
	if hp.NumFeatures <= 0 {
		return fmt.Errorf("num_features must be > 0, got %d", hp.NumFeatures)
	}
	if hp.SamplingFactor <= 0 || hp.SamplingFactor > 1 {
		return fmt.Errorf("sampling_factor must be in (0,1], got %v", hp.SamplingFactor)
	}
	if hp.NMostFrequent < 0 {
		return fmt.Errorf("n_most_frequent must be >= 0, got %d", hp.NMostFrequent)
	}
	if hp.DeltaT < 0 {
		return fmt.Errorf("delta_t must be >= 0, got %v", hp.DeltaT)
	}
	if hp.MaxLag < 0 {
		return fmt.Errorf("max_lag must be >= 0, got %d", hp.MaxLag)
	}
	if (hp.MaxLag > 0) != (hp.DeltaT > 0) {
		return fmt.Errorf("max_lag and delta_t must be set together (max_lag=%d, delta_t=%v)", hp.MaxLag, hp.DeltaT)
	}
	if hp.LossFunction != LossSquare && hp.LossFunction != LossCrossEntropy {
		return fmt.Errorf("invalid loss_function %q: must be square or cross-entropy", hp.LossFunction)
	}
	if hp.MinDF < 0 {
		return fmt.Errorf("min_df must be >= 0, got %d", hp.MinDF)
	}
	if hp.VocabSize < 0 {
		return fmt.Errorf("vocab_size must be >= 0, got %d", hp.VocabSize)
	}
	return nil
}

// EffectiveNumThreads resolves NumThreads per spec.md §4.8: <=0 means
// auto, defaulting to max(2, hardwareConcurrency/2).
func (hp *Hyperparameters) EffectiveNumThreads(hardwareConcurrency int) int {
	if hp.NumThreads > 0 {
		return hp.NumThreads
	}
	n := hardwareConcurrency / 2
	if n < 2 {
		n = 2
	}
	return n
}
