package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/taxonomy"
)

// Classifier predicts the incident category of a narrative.
type Classifier struct {
	fallbackVersion string
	encoder         *SharedEncoder
	logger          *slog.Logger
	artifact        lazy[*Artifact]
}

// NewClassifier creates a Classifier for the artifact at cfg.ClassifierPath.
// Nothing is read from disk until the first Classify or Warm call.
func NewClassifier(cfg *Config, encoder *SharedEncoder, load ArtifactLoader, logger *slog.Logger) *Classifier {
	c := &Classifier{
		fallbackVersion: cfg.FallbackVersion,
		encoder:         encoder,
		logger:          logger.With("component", "classifier"),
	}
	c.artifact.load = func() (*Artifact, error) {
		art, err := openArtifact(cfg.ClassifierPath, load, c.logger)
		if err != nil {
			return nil, err
		}
		if len(art.Targets) == 0 {
			art.Targets = []Target{{Name: "category", Labels: DefaultLabels}}
		}
		return art, nil
	}
	return c
}

// Classify returns the predicted category of text. When the trained model
// or the encoder is unavailable, or inference fails, the keyword heuristic
// answers instead.
func (c *Classifier) Classify(ctx context.Context, text string) Prediction {
	art, err := c.artifact.get()
	if err != nil {
		return Fallback(text, c.fallbackVersion)
	}

	enc, err := c.encoder.Get()
	if err != nil {
		return Fallback(text, art.Version)
	}

	embedding, err := enc.Encode(Preprocess(text))
	if err != nil {
		c.logger.WarnContext(ctx, "encode failed, using heuristic", "error", err)
		return Fallback(text, art.Version)
	}

	scores, err := art.Scorer.Score(embedding)
	if err != nil || len(scores) == 0 {
		c.logger.WarnContext(ctx, "classifier inference failed, using heuristic", "error", err)
		return Fallback(text, art.Version)
	}

	labels := art.Targets[0].Labels
	idx, p := argmax(scores[0])
	if idx < 0 || idx >= len(labels) {
		c.logger.WarnContext(ctx, "class index outside label set, using heuristic", "index", idx)
		return Fallback(text, art.Version)
	}

	category, ok := taxonomy.CategoryFromLabel(labels[idx])
	if !ok {
		c.logger.WarnContext(ctx, "unknown class label, using heuristic", "label", labels[idx])
		return Fallback(text, art.Version)
	}

	return Prediction{
		Category:     category,
		Confidence:   clamp01(float64(p)),
		ModelVersion: art.Version,
	}
}

// ModelVersion reports the version stamped on predictions: the artifact
// version when a model is loaded, the fallback version otherwise.
func (c *Classifier) ModelVersion() string {
	if art, err := c.artifact.get(); err == nil {
		return art.Version
	}
	return c.fallbackVersion
}

// Warm loads the artifact ahead of the first request.
func (c *Classifier) Warm() error {
	_, err := c.artifact.get()
	return err
}

// Close releases the loaded model.
func (c *Classifier) Close() error {
	return c.artifact.release(func(a *Artifact) error { return a.Scorer.Close() })
}

var errArtifactMissing = errors.New("artifact not found")

func openArtifact(path string, load ArtifactLoader, logger *slog.Logger) (*Artifact, error) {
	if load == nil {
		return nil, fmt.Errorf("no loader for %s", path)
	}

	if _, err := os.Stat(path); err != nil {
		logger.Warn("model artifact not found", "path", path)
		return nil, fmt.Errorf("%w: %s", errArtifactMissing, path)
	}

	art, err := load(path)
	if err != nil {
		logger.Error("model artifact failed to load", "path", path, "error", err)
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if art == nil || art.Scorer == nil {
		return nil, fmt.Errorf("load %s: loader returned no scorer", path)
	}

	if art.Version == "" {
		art.Version = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	logger.Info("model artifact loaded", "path", path, "version", art.Version)
	return art, nil
}
