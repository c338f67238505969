package classify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/taxonomy"
)

// CodePredictor predicts SKP and MDP codes from a narrative with a
// multi-output model. Output targets are matched by name: the first whose
// name starts with "skp" and the first whose name contains "mdp".
type CodePredictor struct {
	encoder  *SharedEncoder
	logger   *slog.Logger
	artifact lazy[*Artifact]
}

// NewCodePredictor creates a CodePredictor for cfg.CodePredictorPath.
func NewCodePredictor(cfg *Config, encoder *SharedEncoder, load ArtifactLoader, logger *slog.Logger) *CodePredictor {
	p := &CodePredictor{
		encoder: encoder,
		logger:  logger.With("component", "code_predictor"),
	}
	p.artifact.load = func() (*Artifact, error) {
		art, err := openArtifact(cfg.CodePredictorPath, load, p.logger)
		if err != nil {
			return nil, err
		}
		if len(art.Targets) == 0 {
			if err := art.Scorer.Close(); err != nil {
				p.logger.Warn("closing rejected code predictor failed", "path", cfg.CodePredictorPath, "error", err)
			}
			return nil, fmt.Errorf("code predictor %s declares no targets", cfg.CodePredictorPath)
		}
		return art, nil
	}
	return p
}

// PredictCodes returns the codes resolvable from text. Any failure yields
// empty Codes.
func (p *CodePredictor) PredictCodes(ctx context.Context, text string) Codes {
	var codes Codes

	art, err := p.artifact.get()
	if err != nil {
		return codes
	}

	enc, err := p.encoder.Get()
	if err != nil {
		return codes
	}

	embedding, err := enc.Encode(Preprocess(text))
	if err != nil {
		p.logger.WarnContext(ctx, "encode failed, skipping code prediction", "error", err)
		return codes
	}

	scores, err := art.Scorer.Score(embedding)
	if err != nil {
		p.logger.WarnContext(ctx, "code prediction failed", "error", err)
		return codes
	}

	for i, target := range art.Targets {
		if i >= len(scores) {
			break
		}

		idx, _ := argmax(scores[i])
		if idx < 0 || idx >= len(target.Labels) {
			continue
		}
		label := target.Labels[idx]
		name := strings.ToLower(target.Name)

		switch {
		case codes.SKP == nil && strings.HasPrefix(name, "skp"):
			if code, ok := taxonomy.ParseSKP(label); ok {
				codes.SKP = &code
			}
		case codes.MDP == nil && strings.Contains(name, "mdp"):
			if code, ok := taxonomy.ParseMDP(label); ok {
				codes.MDP = &code
			}
		}
	}

	return codes
}

// Warm loads the artifact ahead of the first request.
func (p *CodePredictor) Warm() error {
	_, err := p.artifact.get()
	return err
}

// Close releases the loaded model.
func (p *CodePredictor) Close() error {
	return p.artifact.release(func(a *Artifact) error { return a.Scorer.Close() })
}
