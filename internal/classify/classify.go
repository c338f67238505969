// Package classify predicts the category and SKP/MDP codes of an incident
// from its free-text narrative.
//
// A trained classifier scores sentence embeddings produced by a multilingual
// encoder. Both are loaded from disk at most once per process and either may
// be absent: the Classifier then answers with a deterministic keyword
// heuristic and the CodePredictor answers with no codes. Neither ever
// returns an error to its caller.
package classify

import (
	"math"
	"strings"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/taxonomy"
)

// DefaultLabels is the label encoder order the incident classifier was
// trained with. A manifest may override it.
var DefaultLabels = []string{
	"KNC - Kejadian Nyaris Cedera",
	"KPC - Kejadian Potensial Cedera",
	"KTC - Kejadian Tidak Cedera",
	"KTD - Kejadian Tidak Diharapkan",
	"SENTINEL - Insiden KTD dengan dampak sedang - berat",
}

// Prediction is the automated category of an incident.
type Prediction struct {
	Category     taxonomy.Category `json:"category"`
	Confidence   float64           `json:"confidence"`
	ModelVersion string            `json:"model_version"`
}

// Codes are the predicted SKP and MDP codes. Either may be nil.
type Codes struct {
	SKP *taxonomy.SKPCode `json:"skp"`
	MDP *taxonomy.MDPCode `json:"mdp"`
}

// Encoder turns preprocessed text into a sentence embedding.
type Encoder interface {
	Encode(text string) ([]float32, error)
	Close() error
}

// Scorer maps an embedding to one probability vector per model output.
type Scorer interface {
	Score(embedding []float32) ([][]float32, error)
	Close() error
}

// Artifact is a loaded scoring model and the labels of each of its outputs.
type Artifact struct {
	Scorer  Scorer
	Targets []Target
	Version string
}

// Target names one model output and the labels of its classes.
type Target struct {
	Name   string   `yaml:"name"`
	Output string   `yaml:"output"`
	Labels []string `yaml:"labels"`
}

// ArtifactLoader loads the artifact stored at path.
type ArtifactLoader func(path string) (*Artifact, error)

// EncoderLoader loads the sentence encoder.
type EncoderLoader func() (Encoder, error)

// Fallback is the keyword heuristic used whenever the trained classifier
// cannot answer.
func Fallback(text, version string) Prediction {
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "jatuh") || strings.Contains(lower, "fall"):
		return Prediction{Category: taxonomy.CategoryKTD, Confidence: 0.6, ModelVersion: version}
	case strings.Contains(lower, "med") || strings.Contains(lower, "obat"):
		return Prediction{Category: taxonomy.CategoryKNC, Confidence: 0.55, ModelVersion: version}
	default:
		return Prediction{Category: taxonomy.CategoryKTC, Confidence: 0.5, ModelVersion: version}
	}
}

func argmax(v []float32) (int, float32) {
	best, score := -1, float32(0)
	for i, p := range v {
		if best == -1 || p > score {
			best, score = i, p
		}
	}
	return best, score
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
