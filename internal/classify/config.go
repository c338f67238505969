package classify

import (
	"fmt"
	"os"
	"strconv"
)

// Config locates the model artifacts. Every artifact is optional: a missing
// classifier selects the keyword heuristic and a missing code predictor
// leaves SKP/MDP codes unset.
type Config struct {
	ClassifierPath    string `toml:"classifier_path"`
	CodePredictorPath string `toml:"code_predictor_path"`
	EncoderPath       string `toml:"encoder_path"`
	FallbackVersion   string `toml:"fallback_version"`
	RuntimeLibrary    string `toml:"runtime_library"`
	SequenceLength    int    `toml:"sequence_length"`
	WarmOnStart       bool   `toml:"warm_on_start"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	ClassifierPath    string
	CodePredictorPath string
	EncoderPath       string
	FallbackVersion   string
	RuntimeLibrary    string
	SequenceLength    string
	WarmOnStart       string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. WarmOnStart only turns on.
func (c *Config) Merge(overlay *Config) {
	if overlay.ClassifierPath != "" {
		c.ClassifierPath = overlay.ClassifierPath
	}
	if overlay.CodePredictorPath != "" {
		c.CodePredictorPath = overlay.CodePredictorPath
	}
	if overlay.EncoderPath != "" {
		c.EncoderPath = overlay.EncoderPath
	}
	if overlay.FallbackVersion != "" {
		c.FallbackVersion = overlay.FallbackVersion
	}
	if overlay.RuntimeLibrary != "" {
		c.RuntimeLibrary = overlay.RuntimeLibrary
	}
	if overlay.SequenceLength != 0 {
		c.SequenceLength = overlay.SequenceLength
	}
	if overlay.WarmOnStart {
		c.WarmOnStart = true
	}
}

func (c *Config) loadDefaults() {
	if c.ClassifierPath == "" {
		c.ClassifierPath = "models/incident_classifier.onnx"
	}
	if c.CodePredictorPath == "" {
		c.CodePredictorPath = "models/skp_mdp_predictor.onnx"
	}
	if c.EncoderPath == "" {
		c.EncoderPath = "models/encoder"
	}
	if c.FallbackVersion == "" {
		c.FallbackVersion = "fallback-rule-0.1"
	}
	if c.SequenceLength == 0 {
		c.SequenceLength = 128
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.ClassifierPath != "" {
		if v := os.Getenv(env.ClassifierPath); v != "" {
			c.ClassifierPath = v
		}
	}
	if env.CodePredictorPath != "" {
		if v := os.Getenv(env.CodePredictorPath); v != "" {
			c.CodePredictorPath = v
		}
	}
	if env.EncoderPath != "" {
		if v := os.Getenv(env.EncoderPath); v != "" {
			c.EncoderPath = v
		}
	}
	if env.FallbackVersion != "" {
		if v := os.Getenv(env.FallbackVersion); v != "" {
			c.FallbackVersion = v
		}
	}
	if env.RuntimeLibrary != "" {
		if v := os.Getenv(env.RuntimeLibrary); v != "" {
			c.RuntimeLibrary = v
		}
	}
	if env.SequenceLength != "" {
		if v := os.Getenv(env.SequenceLength); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.SequenceLength = n
			}
		}
	}
	if env.WarmOnStart != "" {
		if v := os.Getenv(env.WarmOnStart); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.WarmOnStart = b
			}
		}
	}
}

func (c *Config) validate() error {
	if c.SequenceLength < 8 || c.SequenceLength > 512 {
		return fmt.Errorf("sequence_length must be between 8 and 512, got %d", c.SequenceLength)
	}
	return nil
}
