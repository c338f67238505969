package classify

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest describes an exported scoring model. It is read from a YAML file
// beside the model sharing its stem: models/x.onnx pairs with models/x.yaml.
type Manifest struct {
	Version      string   `yaml:"version"`
	EmbeddingDim int      `yaml:"embedding_dim"`
	Input        string   `yaml:"input"`
	Targets      []Target `yaml:"targets"`
}

// Encoder tokenizer kinds.
const (
	TokenizerUnigram   = "unigram"
	TokenizerWordPiece = "wordpiece"
)

// EncoderManifest describes an exported sentence encoder directory holding
// model.onnx, encoder.yaml and the tokenizer assets: tokenizer.json for a
// unigram tokenizer, vocab.txt for WordPiece.
type EncoderManifest struct {
	Tokenizer    string `yaml:"tokenizer"`
	HiddenSize   int    `yaml:"hidden_size"`
	LowerCase    *bool  `yaml:"lowercase"`
	TokenTypeIDs bool   `yaml:"token_type_ids"`
	Output       string `yaml:"output"`
}

// ManifestPath returns the manifest location for a model file.
func ManifestPath(modelPath string) string {
	return strings.TrimSuffix(modelPath, filepath.Ext(modelPath)) + ".yaml"
}

// LoadManifest reads and normalizes the manifest of modelPath. The
// incident classifier may omit targets; a single default target with
// DefaultLabels is assumed.
func LoadManifest(modelPath string) (*Manifest, error) {
	data, err := os.ReadFile(ManifestPath(modelPath))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	if err := m.normalize(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) normalize() error {
	if m.EmbeddingDim <= 0 {
		return errors.New("manifest embedding_dim must be positive")
	}
	if m.Input == "" {
		m.Input = "embeddings"
	}
	if len(m.Targets) == 0 {
		m.Targets = []Target{{Name: "category", Labels: DefaultLabels}}
	}

	for i := range m.Targets {
		t := &m.Targets[i]
		if len(t.Labels) == 0 {
			return fmt.Errorf("target %q has no labels", t.Name)
		}
		if t.Output != "" {
			continue
		}
		if len(m.Targets) == 1 {
			t.Output = "probabilities"
		} else {
			t.Output = t.Name + "_probabilities"
		}
	}
	return nil
}

// LoadEncoderManifest reads encoder.yaml from dir. A missing file selects
// the defaults of paraphrase-multilingual-MiniLM-L12-v2: an XLM-R unigram
// tokenizer without lowercasing and 384 hidden units. WordPiece encoders
// lowercase unless told otherwise.
func LoadEncoderManifest(dir string) (*EncoderManifest, error) {
	m := &EncoderManifest{}

	data, err := os.ReadFile(filepath.Join(dir, "encoder.yaml"))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read encoder manifest: %w", err)
	default:
		if err := yaml.Unmarshal(data, m); err != nil {
			return nil, fmt.Errorf("parse encoder manifest: %w", err)
		}
	}

	switch strings.ToLower(m.Tokenizer) {
	case "", TokenizerUnigram:
		m.Tokenizer = TokenizerUnigram
	case TokenizerWordPiece:
		m.Tokenizer = TokenizerWordPiece
	default:
		return nil, fmt.Errorf("encoder tokenizer %q is not unigram or wordpiece", m.Tokenizer)
	}

	if m.HiddenSize <= 0 {
		m.HiddenSize = 384
	}
	if m.LowerCase == nil {
		lower := m.Tokenizer == TokenizerWordPiece
		m.LowerCase = &lower
	}
	if m.Output == "" {
		m.Output = "last_hidden_state"
	}
	return m, nil
}
