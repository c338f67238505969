package classify

import (
	"errors"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/yusufekamaulana/rsua-akreditasi/pkg/lifecycle"
)

// Models owns the encoder and both predictors of a process.
type Models struct {
	Encoder    *SharedEncoder
	Classifier *Classifier
	Codes      *CodePredictor

	runtime *ONNXRuntime
	warm    bool
	logger  *slog.Logger
}

// NewModels wires the ONNX-backed models described by cfg. Nothing is
// loaded until first use or Start with WarmOnStart set.
func NewModels(cfg *Config, logger *slog.Logger) *Models {
	logger = logger.With("system", "classify")
	rt := NewONNXRuntime(cfg.RuntimeLibrary, filepath.Dir(cfg.ClassifierPath))

	enc := NewSharedEncoder(rt.EncoderLoader(cfg.EncoderPath, cfg.SequenceLength), logger)

	return &Models{
		Encoder:    enc,
		Classifier: NewClassifier(cfg, enc, rt.LoadArtifact, logger),
		Codes:      NewCodePredictor(cfg, enc, rt.LoadArtifact, logger),
		runtime:    rt,
		warm:       cfg.WarmOnStart,
		logger:     logger,
	}
}

// Start registers model warm-up and release with the lifecycle coordinator.
// Warm-up failures are logged only; requests then use the fallbacks.
func (m *Models) Start(lc *lifecycle.Coordinator) error {
	if m.warm {
		lc.OnStartup(func() {
			var g errgroup.Group
			g.Go(m.Classifier.Warm)
			g.Go(m.Codes.Warm)
			g.Go(func() error {
				_, err := m.Encoder.Get()
				return err
			})

			if err := g.Wait(); err != nil {
				m.logger.Warn("model warm-up incomplete, fallbacks active", "error", err)
				return
			}
			m.logger.Info("models warmed", "version", m.Classifier.ModelVersion())
		})
	}

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := m.Close(); err != nil {
			m.logger.Error("model release failed", "error", err)
			return
		}
		m.logger.Info("models released")
	})

	return nil
}

// Close releases every loaded model and the runtime.
func (m *Models) Close() error {
	err := errors.Join(
		m.Classifier.Close(),
		m.Codes.Close(),
		m.Encoder.Close(),
	)
	if m.runtime != nil {
		err = errors.Join(err, m.runtime.Shutdown())
	}
	return err
}
